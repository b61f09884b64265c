package storage

import (
	"context"
	"time"
)

// DefaultPresignedURLExpiry is how long a cover download link stays valid.
const DefaultPresignedURLExpiry = 15 * time.Minute

// FileStorage is the object store behind program cover images. Clients
// upload and download directly with presigned URLs; the API never proxies
// file bytes.
type FileStorage interface {
	// GeneratePresignedUploadURL returns a PUT URL bound to contentType.
	GeneratePresignedUploadURL(ctx context.Context, objectKey string, contentType string, expires time.Duration) (string, error)
	GeneratePresignedDownloadURL(ctx context.Context, objectKey string, expires time.Duration) (string, error)
	// ObjectExists reports whether objectKey was uploaded.
	ObjectExists(ctx context.Context, objectKey string) (bool, error)
	DeleteObject(ctx context.Context, objectKey string) error
}
