package entity

import (
	"time"

	"github.com/google/uuid"
)

type VideoStatus string

const (
	VideoStatusPending    VideoStatus = "pending"
	VideoStatusProcessing VideoStatus = "processing"
	VideoStatusProcessed  VideoStatus = "processed"
	VideoStatusFailed     VideoStatus = "failed"
)

// Valid reports whether s is one of the four lifecycle states.
func (s VideoStatus) Valid() bool {
	switch s {
	case VideoStatusPending, VideoStatusProcessing, VideoStatusProcessed, VideoStatusFailed:
		return true
	}
	return false
}

// Video is the persisted record of one uploaded clip moving through the
// processing pipeline. The submission gateway creates it in pending state;
// only the processing executor moves it past pending. Both storage keys are
// reserved at submission time, so the executor never invents a name.
type Video struct {
	ID           uuid.UUID
	OwnerID      string
	Title        string
	OriginalKey  string
	ProcessedKey string
	Status       VideoStatus
	IsPublished  bool
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	ProcessedAt  *time.Time
}

func NewVideo(id uuid.UUID, ownerID, title, originalKey, processedKey string) *Video {
	now := time.Now().UTC()
	return &Video{
		ID:           id,
		OwnerID:      ownerID,
		Title:        title,
		OriginalKey:  originalKey,
		ProcessedKey: processedKey,
		Status:       VideoStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func (v *Video) MarkProcessing() {
	v.Status = VideoStatusProcessing
	v.UpdatedAt = time.Now().UTC()
}

func (v *Video) MarkProcessed() {
	now := time.Now().UTC()
	v.Status = VideoStatusProcessed
	v.IsPublished = true
	v.ErrorMessage = ""
	v.UpdatedAt = now
	v.ProcessedAt = &now
}

func (v *Video) MarkFailed(errMsg string) {
	v.Status = VideoStatusFailed
	v.ErrorMessage = errMsg
	v.UpdatedAt = time.Now().UTC()
}
