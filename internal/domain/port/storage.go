package port

import "context"

// ObjectStore abstracts the byte sink holding original and processed clips.
// Keys are opaque: the local backend treats them as filesystem paths, the S3
// backend as bucket keys. Implementations wrap failures in the error kinds
// declared in internal/infra/objectstore so callers can distinguish upload,
// download and url-generation failures.
type ObjectStore interface {
	Upload(ctx context.Context, data []byte, key string) (string, error)
	UploadFile(ctx context.Context, path, key string) error
	Download(ctx context.Context, key string) ([]byte, error)
	DownloadTo(ctx context.Context, key, destPath string) error
	Delete(ctx context.Context, key string) (bool, error)
	Exists(ctx context.Context, key string) (bool, error)
	URL(ctx context.Context, key string) (string, error)

	// Remote reports whether bytes live outside the local filesystem, in
	// which case the executor materializes them to a scratch file first.
	Remote() bool
}
