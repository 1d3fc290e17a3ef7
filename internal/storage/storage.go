package storage

import (
	"context"
	"io"
	"strings"

	"github.com/segmentio/ksuid"
)

// Store is a content-addressable blob sink keyed by generated filename.
type Store interface {
	Save(ctx context.Context, key string, r io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// NewKey generates a blob key like "avatar-<ksuid>.png". The extension
// is stored lowercase, without a leading dot.
func NewKey(prefix, ext string) string {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	return prefix + "-" + ksuid.New().String() + "." + ext
}
