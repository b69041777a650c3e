// Package storage is the pipeline's owned object storage: an append-only
// bucket backed by a local directory and served under a public base URL.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"eventsPipeline/internal/config"
	"eventsPipeline/internal/models/domain"
)

// LocalBucket stores objects under RootDir/Bucket and serves them from PublicBaseURL/Bucket.
type LocalBucket struct {
	rootDir   string
	bucket    string
	namespace string
}

// NewLocalBucket builds a bucket from configuration. Missing settings are not an
// error here; Ready reports them so a migration can fail with a remediation hint.
func NewLocalBucket(cfg config.StorageConfig) *LocalBucket {
	return &LocalBucket{
		rootDir:   strings.TrimSpace(cfg.RootDir),
		bucket:    strings.Trim(strings.TrimSpace(cfg.Bucket), "/"),
		namespace: cfg.Namespace(),
	}
}

// Namespace returns the public URL prefix of the bucket.
func (b *LocalBucket) Namespace() string {
	return b.namespace
}

// Dir returns the directory holding the bucket's objects.
func (b *LocalBucket) Dir() string {
	return filepath.Join(b.rootDir, b.bucket)
}

// Ready checks that the bucket is configured and writable.
func (b *LocalBucket) Ready(_ context.Context) error {
	switch {
	case b.rootDir == "":
		return fmt.Errorf("%w: storage.rootDir (STORAGE_ROOT_DIR) is not set", domain.ErrConfiguration)
	case b.bucket == "":
		return fmt.Errorf("%w: storage.bucket (STORAGE_BUCKET) is not set", domain.ErrConfiguration)
	case b.namespace == "":
		return fmt.Errorf("%w: storage.publicBaseURL (STORAGE_PUBLIC_BASE_URL) is not set", domain.ErrConfiguration)
	}
	info, err := os.Stat(b.Dir())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: bucket directory %s does not exist; create it or fix storage.rootDir/storage.bucket", domain.ErrConfiguration, b.Dir())
		}
		return fmt.Errorf("%w: bucket directory %s: %v", domain.ErrConfiguration, b.Dir(), err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: bucket path %s is not a directory", domain.ErrConfiguration, b.Dir())
	}
	return nil
}

// Put writes data at objectPath and returns its public URL. Existing objects are never overwritten.
func (b *LocalBucket) Put(ctx context.Context, objectPath, contentType string, data []byte) (string, error) {
	op := "storage.LocalBucket.Put()"

	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	clean, err := cleanObjectPath(objectPath)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	target := filepath.Join(b.Dir(), filepath.FromSlash(clean))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	// Link fails when the target exists, keeping the bucket append-only.
	if err := os.Link(tmpName, target); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return b.PublicURL(clean), nil
}

// Delete removes an object. Missing objects are not an error.
func (b *LocalBucket) Delete(_ context.Context, objectPath string) error {
	clean, err := cleanObjectPath(objectPath)
	if err != nil {
		return err
	}
	err = os.Remove(filepath.Join(b.Dir(), filepath.FromSlash(clean)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("storage.LocalBucket.Delete(): %w", err)
	}
	return nil
}

// PublicURL returns the URL an object is served at.
func (b *LocalBucket) PublicURL(objectPath string) string {
	return b.namespace + strings.TrimPrefix(objectPath, "/")
}

func cleanObjectPath(p string) (string, error) {
	clean := path.Clean("/" + strings.TrimSpace(p))
	clean = strings.TrimPrefix(clean, "/")
	if clean == "" || clean == "." || strings.HasPrefix(clean, "..") {
		return "", fmt.Errorf("invalid object path %q", p)
	}
	return clean, nil
}
