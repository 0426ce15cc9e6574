package objectstore

import "errors"

// Error kinds callers can test with errors.Is to distinguish which side of a
// store round trip failed.
var (
	ErrUpload   = errors.New("object store upload failed")
	ErrDownload = errors.New("object store download failed")
	ErrURL      = errors.New("object store url generation failed")
)
