package services

import (
	"context"
	"time"

	"github.com/veridoc/certificateflow/internal/gcp"
)

// ObjectStore is the blob-storage surface the services consume. *gcp.Bucket
// satisfies it in production; tests substitute in-memory stubs.
type ObjectStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	Download(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) ([]gcp.ObjectInfo, error)
	SignedURL(key string, ttl time.Duration) (string, error)
	PublicURL(key string) string
}

// RecordStore is the record-persistence surface, satisfied by
// *gcp.Collection.
type RecordStore interface {
	Put(ctx context.Context, id string, doc map[string]interface{}) error
	Get(ctx context.Context, id string) (map[string]interface{}, error)
	Delete(ctx context.Context, id string) error
}

// BackupStore creates one record-store backup under a GCS URI prefix,
// satisfied by *gcp.BackupClient.
type BackupStore interface {
	Export(ctx context.Context, collection, uriPrefix string) error
}
