package services

import (
	"context"
	"fmt"
	"time"

	"github.com/veridoc/certificateflow/internal/config"
	"github.com/veridoc/certificateflow/internal/gcp"
)

// stubBucket is an in-memory ObjectStore.
type stubBucket struct {
	name    string
	objects map[string][]byte
	infos   []gcp.ObjectInfo

	uploads  []string
	deletes  []string
	failPut  bool
	failList bool
}

func newStubBucket(name string) *stubBucket {
	return &stubBucket{name: name, objects: map[string][]byte{}}
}

func (s *stubBucket) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	if s.failPut {
		return fmt.Errorf("upload refused")
	}
	s.objects[key] = data
	s.uploads = append(s.uploads, key)
	return nil
}

func (s *stubBucket) Download(ctx context.Context, key string) ([]byte, error) {
	data, ok := s.objects[key]
	if !ok {
		return nil, fmt.Errorf("object %s not found", key)
	}
	return data, nil
}

func (s *stubBucket) Delete(ctx context.Context, key string) error {
	if _, ok := s.objects[key]; !ok {
		return fmt.Errorf("object %s not found", key)
	}
	delete(s.objects, key)
	s.deletes = append(s.deletes, key)
	return nil
}

func (s *stubBucket) List(ctx context.Context) ([]gcp.ObjectInfo, error) {
	if s.failList {
		return nil, fmt.Errorf("list refused")
	}
	return s.infos, nil
}

func (s *stubBucket) SignedURL(key string, ttl time.Duration) (string, error) {
	return "https://signed.example.com/" + key, nil
}

func (s *stubBucket) PublicURL(key string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.name, key)
}

// stubRecords is an in-memory RecordStore.
type stubRecords struct {
	docs    map[string]map[string]interface{}
	failPut bool
}

func newStubRecords() *stubRecords {
	return &stubRecords{docs: map[string]map[string]interface{}{}}
}

func (s *stubRecords) Put(ctx context.Context, id string, doc map[string]interface{}) error {
	if s.failPut {
		return fmt.Errorf("put refused")
	}
	s.docs[id] = doc
	return nil
}

func (s *stubRecords) Get(ctx context.Context, id string) (map[string]interface{}, error) {
	return s.docs[id], nil
}

func (s *stubRecords) Delete(ctx context.Context, id string) error {
	delete(s.docs, id)
	return nil
}

// stubExporter records export calls.
type stubExporter struct {
	calls []string
	fail  bool
}

func (s *stubExporter) Export(ctx context.Context, collection, uriPrefix string) error {
	if s.fail {
		return fmt.Errorf("export refused")
	}
	s.calls = append(s.calls, uriPrefix)
	return nil
}

func testConfig() config.Config {
	return config.Config{
		ProjectID:          "test-project",
		TemplateBucket:     "templates",
		ImageBucket:        "images",
		CertificateBucket:  "certificates",
		BackupBucket:       "backups",
		RecordCollection:   "certificates",
		TemplateBaseName:   "certificate-template",
		CertificatePageURL: "https://certs.example.com/verify",
		AllowedOrigin:      "https://certs.example.com",
		AuthHeaderName:     "X-Certificate-Auth",
		AuthHeaderValue:    "shared-secret",
		UserTimeZone:       "UTC",
		SignedURLTTL:       5 * time.Minute,
		RetentionMaxAge:    24 * time.Hour,
	}
}
