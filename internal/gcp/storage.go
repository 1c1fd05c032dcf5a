package gcp

import (
	"context"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
)

// ObjectInfo describes one stored object, enough for retention decisions.
type ObjectInfo struct {
	Name    string
	Updated time.Time
	Size    int64
}

// Bucket wraps one GCS bucket behind the operations the certificate pipeline
// needs. Constructed once per function instance and injected into services.
type Bucket struct {
	handle *storage.BucketHandle
	name   string
}

// NewStorageClient creates the shared GCS client.
func NewStorageClient(ctx context.Context) (*storage.Client, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return client, nil
}

// NewBucket binds a client to a named bucket.
func NewBucket(client *storage.Client, name string) *Bucket {
	return &Bucket{handle: client.Bucket(name), name: name}
}

// Name returns the bucket name.
func (b *Bucket) Name() string { return b.name }

// Upload writes data to the named object with the given content type.
func (b *Bucket) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	w := b.handle.Object(key).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write object %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finalize object %s: %w", key, err)
	}
	return nil
}

// Download reads the named object fully into memory.
func (b *Bucket) Download(ctx context.Context, key string) ([]byte, error) {
	r, err := b.handle.Object(key).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open object %s: %w", key, err)
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read object %s: %w", key, err)
	}
	return data, nil
}

// Delete removes the named object.
func (b *Bucket) Delete(ctx context.Context, key string) error {
	if err := b.handle.Object(key).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete object %s: %w", key, err)
	}
	return nil
}

// List enumerates every object in the bucket.
func (b *Bucket) List(ctx context.Context) ([]ObjectInfo, error) {
	var objects []ObjectInfo
	it := b.handle.Objects(ctx, nil)
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list objects in %s: %w", b.name, err)
		}
		objects = append(objects, ObjectInfo{
			Name:    attrs.Name,
			Updated: attrs.Updated,
			Size:    attrs.Size,
		})
	}
	return objects, nil
}

// SignedURL issues a time-limited V4 read URL for the named object.
func (b *Bucket) SignedURL(key string, ttl time.Duration) (string, error) {
	url, err := b.handle.SignedURL(key, &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  "GET",
		Expires: time.Now().Add(ttl),
	})
	if err != nil {
		return "", fmt.Errorf("failed to sign URL for %s: %w", key, err)
	}
	return url, nil
}

// PublicURL is the canonical HTTPS location of an object, stored on the
// record for later display.
func (b *Bucket) PublicURL(key string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", b.name, key)
}
