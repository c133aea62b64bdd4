package storage

import (
	"context"
	"errors"
)

// ErrObjectNotFound is returned by Get when the key has never been written.
var ErrObjectNotFound = errors.New("object not found")

// BlobStore stores whole JSON documents under string keys.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
}
