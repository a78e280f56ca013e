package storage

import "context"

// Object describes a stored upload.
type Object struct {
	Key         string
	ContentType string
	Size        int64
}

// Storage keeps raw uploaded images under slash separated keys such as
// "raw/<uuid>.jpg".
type Storage interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (Object, error)
	Delete(ctx context.Context, key string) error
}
