package objectstore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Local stores bytes on the local filesystem; keys are file paths. A stored
// path that does not exist verbatim is re-based under baseDir, which handles
// rows written by a process running under a different filesystem root.
type Local struct {
	baseDir string
}

func NewLocal(baseDir string) *Local {
	return &Local{baseDir: baseDir}
}

func (l *Local) Remote() bool { return false }

// ResolvePath returns an existing path for key, trying the verbatim path
// first and the re-based one second.
func (l *Local) ResolvePath(key string) (string, error) {
	if _, err := os.Stat(key); err == nil {
		return key, nil
	}
	if l.baseDir != "" && filepath.IsAbs(key) {
		rebased := filepath.Join(l.baseDir, strings.TrimPrefix(key, "/"))
		if _, err := os.Stat(rebased); err == nil {
			return rebased, nil
		}
	}
	return "", fmt.Errorf("%w: file not found: %s", ErrDownload, key)
}

// WritablePath ensures the parent directory of key exists, re-basing under
// baseDir when the verbatim directory cannot be created.
func (l *Local) WritablePath(key string) (string, error) {
	if err := os.MkdirAll(filepath.Dir(key), 0o755); err == nil {
		return key, nil
	}
	if l.baseDir == "" || !filepath.IsAbs(key) {
		return "", fmt.Errorf("%w: create directory for %s", ErrUpload, key)
	}
	rebased := filepath.Join(l.baseDir, strings.TrimPrefix(key, "/"))
	if err := os.MkdirAll(filepath.Dir(rebased), 0o755); err != nil {
		return "", fmt.Errorf("%w: create directory for %s: %v", ErrUpload, rebased, err)
	}
	return rebased, nil
}

func (l *Local) Upload(_ context.Context, data []byte, key string) (string, error) {
	path, err := l.WritablePath(key)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("%w: write %s: %v", ErrUpload, path, err)
	}
	return path, nil
}

func (l *Local) UploadFile(_ context.Context, srcPath, key string) error {
	dest, err := l.WritablePath(key)
	if err != nil {
		return err
	}
	if dest == srcPath {
		return nil
	}
	src, err := os.Open(srcPath)
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", ErrUpload, srcPath, err)
	}
	defer src.Close()

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("%w: create %s: %v", ErrUpload, dest, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		return fmt.Errorf("%w: copy to %s: %v", ErrUpload, dest, err)
	}
	return nil
}

func (l *Local) Download(_ context.Context, key string) ([]byte, error) {
	path, err := l.ResolvePath(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrDownload, path, err)
	}
	return data, nil
}

func (l *Local) DownloadTo(ctx context.Context, key, destPath string) error {
	data, err := l.Download(ctx, key)
	if err != nil {
		return err
	}
	if err := os.WriteFile(destPath, data, 0o644); err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrDownload, destPath, err)
	}
	return nil
}

func (l *Local) Delete(_ context.Context, key string) (bool, error) {
	path, err := l.ResolvePath(key)
	if err != nil {
		return false, nil
	}
	if err := os.Remove(path); err != nil {
		return false, nil
	}
	return true, nil
}

func (l *Local) Exists(_ context.Context, key string) (bool, error) {
	_, err := l.ResolvePath(key)
	return err == nil, nil
}

func (l *Local) URL(_ context.Context, key string) (string, error) {
	return key, nil
}
