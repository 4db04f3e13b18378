// Package memory provides an in-process BlobStore for content streams. It
// is the default backend and the one used in tests.
package memory

import (
	"bytes"
	"context"
	"io"
	"sync"
	"time"

	"github.com/tendant/simple-cmis/pkg/cmis"
)

// Backend is an in-memory implementation of the cmis.BlobStore interface
type Backend struct {
	mu      sync.RWMutex
	objects map[string]blob
	now     func() time.Time
}

type blob struct {
	data      []byte
	mimeType  string
	updatedAt time.Time
}

// New creates a new in-memory storage backend
func New() *Backend {
	return &Backend{
		objects: make(map[string]blob),
		now:     time.Now,
	}
}

var _ cmis.BlobStore = (*Backend)(nil)

// GetObjectMeta retrieves metadata for a blob in memory
func (b *Backend) GetObjectMeta(ctx context.Context, objectKey string) (*cmis.ObjectMeta, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	obj, exists := b.objects[objectKey]
	if !exists {
		return nil, cmis.Errorf(cmis.ErrObjectNotFound, "blob %q", objectKey)
	}
	return &cmis.ObjectMeta{
		Key:         objectKey,
		Size:        int64(len(obj.data)),
		ContentType: obj.mimeType,
		UpdatedAt:   obj.updatedAt,
	}, nil
}

// Upload stores the content of reader under objectKey
func (b *Backend) Upload(ctx context.Context, objectKey string, reader io.Reader, mimeType string) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.objects[objectKey] = blob{data: data, mimeType: mimeType, updatedAt: b.now().UTC()}
	return nil
}

// Download downloads content directly
func (b *Backend) Download(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	obj, exists := b.objects[objectKey]
	if !exists {
		return nil, cmis.Errorf(cmis.ErrObjectNotFound, "blob %q", objectKey)
	}

	return io.NopCloser(bytes.NewReader(obj.data)), nil
}

// Delete deletes content
func (b *Backend) Delete(ctx context.Context, objectKey string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.objects[objectKey]; !exists {
		return cmis.Errorf(cmis.ErrObjectNotFound, "blob %q", objectKey)
	}

	delete(b.objects, objectKey)
	return nil
}

// Len returns the number of stored blobs.
func (b *Backend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.objects)
}
