// Package storage wraps the object store holding course materials and
// generated artifacts. Keys are plain "/"-separated paths; a key ending in
// "/" is a folder marker.
package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNotFound is returned by Get when the key does not exist.
var ErrNotFound = errors.New("object not found")

type Object struct {
	Key          string
	Size         int64
	LastModified time.Time
}

type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, body []byte, contentType string) error
	// Upload streams r to key; used for uploads too large to buffer.
	Upload(ctx context.Context, key string, r io.Reader, contentType string) error
	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error
	// List returns every object whose key starts with prefix, sorted by key.
	List(ctx context.Context, prefix string) ([]Object, error)
	// ListPrefixes returns the distinct "sub-folders" directly under prefix,
	// each ending in "/", sorted.
	ListPrefixes(ctx context.Context, prefix string) ([]string, error)
	// DeletePrefix removes every object under prefix and reports how many.
	DeletePrefix(ctx context.Context, prefix string) (int, error)
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
	Ping(ctx context.Context) error
}
