package storage

import "context"

// ObjectInfo represents metadata for a stored export snapshot.
type ObjectInfo struct {
	Key  string
	Size int64
}

// ObjectStorage captures the minimal S3-compatible operations export
// snapshots need.
type ObjectStorage interface {
	UploadObject(ctx context.Context, key string, contentType string, data []byte) error
	ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error)
}
