package ffmpeg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestTranscoder() *Transcoder {
	return NewTranscoder(TranscoderConfig{
		TrimSeconds:   30,
		TargetHeight:  720,
		WatermarkText: "ANB Rising Stars",
	}, zap.NewNop())
}

func TestBuildArgs(t *testing.T) {
	tr := newTestTranscoder()
	args := tr.buildArgs("/tmp/in.mp4", "/tmp/out.mp4")

	joined := ""
	for i, a := range args {
		if i > 0 {
			joined += " "
		}
		joined += a
	}

	assert.Contains(t, args, "-t")
	assert.Contains(t, args, "30")
	assert.Contains(t, joined, "scale=-2:720")
	assert.Contains(t, joined, "drawtext=text='ANB Rising Stars'")
	assert.Contains(t, joined, "x=(w-text_w)/2")
	assert.Contains(t, args, "libx264")
	assert.Contains(t, args, "aac")
	assert.Equal(t, "/tmp/out.mp4", args[len(args)-1])
}

func TestBuildArgsEscapesWatermark(t *testing.T) {
	tr := NewTranscoder(TranscoderConfig{
		TrimSeconds:   30,
		TargetHeight:  720,
		WatermarkText: "100% star's: take",
	}, zap.NewNop())
	args := tr.buildArgs("in.mp4", "out.mp4")

	var filter string
	for i, a := range args {
		if a == "-vf" {
			filter = args[i+1]
		}
	}
	require.NotEmpty(t, filter)
	assert.Contains(t, filter, `100\% star\'s\: take`)
}

func TestParseProbeOutput(t *testing.T) {
	out := "height=720\nduration=29.970000\n"
	info, err := parseProbeOutput(out)
	require.NoError(t, err)
	assert.Equal(t, 720, info.Height)
	assert.InDelta(t, 29.97, info.DurationSeconds, 0.001)
}

func TestParseProbeOutputBadDuration(t *testing.T) {
	_, err := parseProbeOutput("duration=N/A\n")
	require.Error(t, err)
}
