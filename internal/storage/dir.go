package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
)

var errPathEscapes = errors.New("path escapes store root")

// DirStore reads messages from a local directory laid out as
// <root>/<bucket>/<key>. It backs offline runs of the forwarder.
type DirStore struct {
	root string
}

// NewDir creates a DirStore rooted at root.
func NewDir(root string) *DirStore {
	return &DirStore{root: root}
}

// Get reads the file for bucket and key.
func (d *DirStore) Get(_ context.Context, bucket, key string) ([]byte, error) {
	rel := filepath.Join(bucket, filepath.FromSlash(key))
	if !filepath.IsLocal(rel) {
		return nil, fetchError(bucket, key, errPathEscapes)
	}

	data, err := os.ReadFile(filepath.Join(d.root, rel))
	if err != nil {
		return nil, fetchError(bucket, key, err)
	}
	return data, nil
}

// Name returns the store name.
func (d *DirStore) Name() string {
	return "dir"
}
