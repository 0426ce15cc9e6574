package port

import "context"

// MediaInfo describes a clip as reported by the probe tool.
type MediaInfo struct {
	DurationSeconds float64
	Height          int
}

// Transcoder turns the uploaded clip into the published rendition: first 30
// seconds, 720p height, fixed watermark. Deterministic for the same input
// bytes and parameters.
type Transcoder interface {
	Transform(ctx context.Context, inputPath, outputPath string) error
	Probe(ctx context.Context, path string) (*MediaInfo, error)
}
