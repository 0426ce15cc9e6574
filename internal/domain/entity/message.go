package entity

import "github.com/google/uuid"

// ProcessingMessage is the delivery payload both queue substrates carry.
// Only VideoID matters to the executor; the metadata rides along for
// operational visibility.
type ProcessingMessage struct {
	VideoID  uuid.UUID         `json:"video_id"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// StatusEvent is published to the status exchange on every lifecycle
// transition performed by the executor.
type StatusEvent struct {
	VideoID      uuid.UUID   `json:"video_id"`
	OwnerID      string      `json:"owner_id"`
	Status       VideoStatus `json:"status"`
	ProcessedKey string      `json:"processed_key,omitempty"`
	ErrorMessage string      `json:"error_message,omitempty"`
}
