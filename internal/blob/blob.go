// Package blob stores uploaded images and returns a URL clients can fetch.
package blob

import (
	"context"
	"io"
)

// Store persists one object and returns its retrievable URL.
type Store interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error)
}
