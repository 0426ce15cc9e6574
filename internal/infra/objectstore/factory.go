package objectstore

import (
	"fmt"

	"github.com/anb-showcase/processing-service/internal/domain/port"
)

// New selects the configured backend once at startup. Callers hold the
// port.ObjectStore interface from then on; no per-call backend dispatch.
func New(backend, localBaseDir string, s3cfg S3Config) (port.ObjectStore, error) {
	switch backend {
	case "local":
		return NewLocal(localBaseDir), nil
	case "s3":
		if s3cfg.Bucket == "" {
			return nil, fmt.Errorf("s3 backend requires a bucket")
		}
		return NewS3(s3cfg)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}
