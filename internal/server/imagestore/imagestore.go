// Package imagestore stores profile images on an S3-compatible backend.
package imagestore

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no image has been uploaded for a user.
var ErrNotFound = errors.New("image not found")

// Store reads and writes one image blob per user.
type Store interface {
	Put(ctx context.Context, userID int64, data []byte) error
	Get(ctx context.Context, userID int64) ([]byte, error)
}
