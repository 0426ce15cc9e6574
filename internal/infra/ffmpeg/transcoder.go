package ffmpeg

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/anb-showcase/processing-service/internal/domain/port"
	"go.uber.org/zap"
)

// Transcoder shells out to ffmpeg to produce the published rendition: clip
// trimmed to the first TrimSeconds, rescaled to TargetHeight preserving
// aspect ratio, watermark text burned in bottom-center for the whole clip,
// H.264 video and AAC audio.
type Transcoder struct {
	trimSeconds   int
	targetHeight  int
	watermarkText string
	logger        *zap.Logger
}

type TranscoderConfig struct {
	TrimSeconds   int
	TargetHeight  int
	WatermarkText string
}

func NewTranscoder(cfg TranscoderConfig, logger *zap.Logger) *Transcoder {
	return &Transcoder{
		trimSeconds:   cfg.TrimSeconds,
		targetHeight:  cfg.TargetHeight,
		watermarkText: cfg.WatermarkText,
		logger:        logger,
	}
}

func (t *Transcoder) Transform(ctx context.Context, inputPath, outputPath string) error {
	cmd := exec.CommandContext(ctx, "ffmpeg", t.buildArgs(inputPath, outputPath)...)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg error: %w, output: %s", err, string(output))
	}

	t.logger.Info("video transformed",
		zap.String("input", inputPath),
		zap.String("output", outputPath),
	)
	return nil
}

// buildArgs is split out so the argument set is testable without ffmpeg
// installed.
func (t *Transcoder) buildArgs(inputPath, outputPath string) []string {
	// -t caps the output duration; clips shorter than the cap pass through
	// unchanged. scale=-2:H keeps the aspect ratio with an even width.
	filter := fmt.Sprintf(
		"scale=-2:%d,drawtext=text='%s':x=(w-text_w)/2:y=h-text_h-20:fontsize=36:fontcolor=white:borderw=2:bordercolor=black",
		t.targetHeight,
		escapeDrawtext(t.watermarkText),
	)
	return []string{
		"-y",
		"-i", inputPath,
		"-t", strconv.Itoa(t.trimSeconds),
		"-vf", filter,
		"-c:v", "libx264",
		"-preset", "fast",
		"-c:a", "aac",
		"-movflags", "+faststart",
		outputPath,
	}
}

// escapeDrawtext escapes the characters the drawtext filter treats specially.
func escapeDrawtext(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`, `:`, `\:`, `%`, `\%`)
	return r.Replace(s)
}

func (t *Transcoder) Probe(ctx context.Context, path string) (*port.MediaInfo, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=height:format=duration",
		"-of", "default=noprint_wrappers=1",
		path,
	)
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe: %w", err)
	}

	info, err := parseProbeOutput(string(output))
	if err != nil {
		return nil, fmt.Errorf("parse ffprobe output: %w", err)
	}
	return info, nil
}

func parseProbeOutput(out string) (*port.MediaInfo, error) {
	info := &port.MediaInfo{}
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		switch key {
		case "duration":
			d, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return nil, fmt.Errorf("parse duration %q: %w", value, err)
			}
			info.DurationSeconds = d
		case "height":
			h, err := strconv.Atoi(value)
			if err != nil {
				return nil, fmt.Errorf("parse height %q: %w", value, err)
			}
			info.Height = h
		}
	}
	return info, nil
}
