// Package storage fetches stored inbound messages by bucket and key.
package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
)

// ErrFetchFailed wraps every error raised while reading a stored message.
var ErrFetchFailed = errors.New("failed to fetch object")

// Store is the interface that message stores must implement.
type Store interface {
	// Get returns the full content of the object. Errors wrap
	// ErrFetchFailed.
	Get(ctx context.Context, bucket, key string) ([]byte, error)

	// Name returns the human-readable name of this store.
	Name() string
}

// Key returns the object key of a message stored under prefix.
func Key(prefix, messageID string) string {
	if prefix == "" {
		return messageID
	}
	return path.Join(prefix, messageID)
}

// Object binds a store to one bucket and key.
type Object struct {
	store  Store
	bucket string
	key    string
}

// NewObject creates an Object handle. Nothing is read until Get is called.
func NewObject(store Store, bucket, key string) *Object {
	return &Object{store: store, bucket: bucket, key: key}
}

// Get reads the object.
func (o *Object) Get(ctx context.Context) ([]byte, error) {
	return o.store.Get(ctx, o.bucket, o.key)
}

// Bucket returns the bucket the object lives in.
func (o *Object) Bucket() string {
	return o.bucket
}

// Key returns the object key.
func (o *Object) Key() string {
	return o.key
}

func fetchError(bucket, key string, err error) error {
	return fmt.Errorf("%w: bucket %q, key %q: %w", ErrFetchFailed, bucket, key, err)
}
