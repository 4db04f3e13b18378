package cmis

import (
	"context"
	"io"
)

// BlobStore defines the interface for content-stream storage backends
type BlobStore interface {
	// Upload stores content under objectKey
	Upload(ctx context.Context, objectKey string, reader io.Reader, mimeType string) error

	// Download returns the content stored under objectKey
	Download(ctx context.Context, objectKey string) (io.ReadCloser, error)

	// Delete deletes content
	Delete(ctx context.Context, objectKey string) error

	// GetObjectMeta retrieves metadata for a stored blob
	GetObjectMeta(ctx context.Context, objectKey string) (*ObjectMeta, error)
}

// EventSink receives object lifecycle notifications from the object service.
// Implementations must not block; errors are logged, never propagated.
type EventSink interface {
	// ObjectCreated is fired when an object is created
	ObjectCreated(ctx context.Context, repositoryID, objectID string) error

	// ObjectUpdated is fired when properties, content, filing or ACL change
	ObjectUpdated(ctx context.Context, repositoryID, objectID string) error

	// ObjectDeleted is fired when an object is deleted
	ObjectDeleted(ctx context.Context, repositoryID, objectID string) error
}
