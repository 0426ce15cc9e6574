package entity

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewVideo(t *testing.T) {
	id := uuid.New()
	v := NewVideo(id, "owner-1", "My dunk", "/data/originals/a.mp4", "/data/processed/a.mp4")

	assert.Equal(t, id, v.ID)
	assert.Equal(t, VideoStatusPending, v.Status)
	assert.False(t, v.IsPublished)
	assert.Equal(t, "/data/originals/a.mp4", v.OriginalKey)
	assert.Equal(t, "/data/processed/a.mp4", v.ProcessedKey)
	assert.Nil(t, v.ProcessedAt)
}

func TestVideoLifecycle(t *testing.T) {
	v := NewVideo(uuid.New(), "owner-1", "clip", "orig", "proc")

	v.MarkProcessing()
	assert.Equal(t, VideoStatusProcessing, v.Status)
	assert.True(t, v.Status.Valid())

	v.MarkProcessed()
	assert.Equal(t, VideoStatusProcessed, v.Status)
	assert.True(t, v.IsPublished)
	require.NotNil(t, v.ProcessedAt)
	assert.Empty(t, v.ErrorMessage)
}

func TestVideoMarkFailed(t *testing.T) {
	v := NewVideo(uuid.New(), "owner-1", "clip", "orig", "proc")
	v.MarkProcessing()

	v.MarkFailed("transform: boom")
	assert.Equal(t, VideoStatusFailed, v.Status)
	assert.True(t, v.Status.Valid())
	assert.False(t, v.IsPublished)
	assert.Equal(t, "transform: boom", v.ErrorMessage)
}

func TestVideoStatusValid(t *testing.T) {
	for _, s := range []VideoStatus{VideoStatusPending, VideoStatusProcessing, VideoStatusProcessed, VideoStatusFailed} {
		assert.True(t, s.Valid(), string(s))
	}
	assert.False(t, VideoStatus("archived").Valid())
	assert.False(t, VideoStatus("").Valid())
}
