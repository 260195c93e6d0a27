package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/storage"

	"github.com/chung140204/storefront-api/internal/services"
)

const defaultUploadTimeout = 30 * time.Second

// MediaStore uploads return-request attachments to a Cloud Storage bucket and
// returns their object paths as the references recorded on the request.
type MediaStore struct {
	bucket  *storage.BucketHandle
	timeout time.Duration
}

// MediaStoreOption customises MediaStore instances.
type MediaStoreOption func(*MediaStore)

// WithUploadTimeout bounds each object upload.
func WithUploadTimeout(d time.Duration) MediaStoreOption {
	return func(s *MediaStore) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// NewMediaStore constructs a MediaStore writing into the given bucket.
func NewMediaStore(bucket *storage.BucketHandle, opts ...MediaStoreOption) (*MediaStore, error) {
	if bucket == nil {
		return nil, errors.New("media store: bucket is required")
	}
	store := &MediaStore{bucket: bucket, timeout: defaultUploadTimeout}
	for _, opt := range opts {
		if opt != nil {
			opt(store)
		}
	}
	return store, nil
}

// Save uploads every file and returns the object paths in input order. A
// failed upload aborts the whole batch; already written objects are left in
// place since object paths are namespaced per request.
func (s *MediaStore) Save(ctx context.Context, orderID, requestID string, files []services.MediaFile) ([]string, error) {
	if s == nil || s.bucket == nil {
		return nil, errors.New("media store: not initialised")
	}
	if len(files) == 0 {
		return nil, nil
	}

	refs := make([]string, 0, len(files))
	for i, file := range files {
		path, err := ReturnMediaPath(orderID, requestID, i, file.Name)
		if err != nil {
			return nil, err
		}
		if err := s.upload(ctx, path, file); err != nil {
			return nil, fmt.Errorf("upload %s: %w", path, err)
		}
		refs = append(refs, path)
	}
	return refs, nil
}

func (s *MediaStore) upload(ctx context.Context, path string, file services.MediaFile) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	writer := s.bucket.Object(path).NewWriter(ctx)
	if contentType := strings.TrimSpace(file.ContentType); contentType != "" {
		writer.ContentType = contentType
	}
	if _, err := writer.Write(file.Data); err != nil {
		_ = writer.Close()
		return err
	}
	return writer.Close()
}
