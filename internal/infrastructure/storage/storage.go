// Package storage provides object storage backends for uploaded pictures.
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrObjectNotFound is returned when no object exists under the given key.
var ErrObjectNotFound = errors.New("object not found")

// ObjectStore defines common object operations across backends.
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}
