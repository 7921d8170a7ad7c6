// Package storage holds uploaded file payloads. Metadata lives in the files table.
package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// BlobStore persists and serves file payloads by key.
type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// BuildKey returns a fresh key under the user's prefix, keeping the upload's extension.
func BuildKey(userID, originalName string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	return fmt.Sprintf("user/%s/%s%s", userID, uuid.NewString(), ext)
}
