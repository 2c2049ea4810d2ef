package files

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"path/filepath"
	"strings"
	"time"
)

// ErrNotFound is returned when a key does not exist in the store
var ErrNotFound = errors.New("file not found")

// ObjectInfo describes a stored object
type ObjectInfo struct {
	Key      string
	Size     int64
	Modified time.Time
}

// BlobStore persists uploaded and generated files
type BlobStore interface {
	// Put stores content under key, overwriting any previous object
	Put(ctx context.Context, key string, content io.Reader, contentType string) error

	// Get opens the object or returns ErrNotFound
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the object; deleting a missing key is not an error
	Delete(ctx context.Context, key string) error

	// Exists reports whether the key is present
	Exists(ctx context.Context, key string) (bool, error)

	// List returns objects whose key starts with prefix
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
}

// UniqueName builds a collision-resistant object name from the upload
// field and the original filename extension, e.g.
// "audio-1700000000000-123456789.wav".
func UniqueName(field, originalName string) string {
	suffix := fmt.Sprintf("%d-%d", time.Now().UnixMilli(), rand.Intn(1_000_000_000))
	ext := strings.ToLower(filepath.Ext(originalName))
	return field + "-" + suffix + ext
}

// IsAudio reports whether the MIME type names an audio format
func IsAudio(contentType string) bool {
	return strings.HasPrefix(contentType, "audio/")
}
