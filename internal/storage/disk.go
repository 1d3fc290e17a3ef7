package storage

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/JGomezGutierrez/api-rest-social-network/internal/apperr"
)

// DiskStore writes blobs under a root directory. Keys never contain path
// separators, so everything stays inside the root.
type DiskStore struct {
	Root string
}

func NewDiskStore(root string) (*DiskStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &DiskStore{Root: root}, nil
}

func (d *DiskStore) path(key string) string {
	return filepath.Join(d.Root, filepath.Base(key))
}

func (d *DiskStore) Save(_ context.Context, key string, r io.Reader) error {
	f, err := os.Create(d.path(key))
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(f.Name())
		return err
	}
	return f.Close()
}

func (d *DiskStore) Open(_ context.Context, key string) (io.ReadCloser, error) {
	f, err := os.Open(d.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, apperr.New(apperr.NotFound, "the file does not exist")
	}
	return f, err
}

func (d *DiskStore) Delete(_ context.Context, key string) error {
	err := os.Remove(d.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
