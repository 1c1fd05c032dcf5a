package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/veridoc/certificateflow/internal/apperr"
	"github.com/veridoc/certificateflow/internal/config"
	"github.com/veridoc/certificateflow/internal/gcp"
)

// SweeperFunction removes generated certificates past their retention age.
type SweeperFunction struct {
	certs ObjectStore
	cfg   config.Config
	now   func() time.Time
}

// NewSweeper wires the production dependencies from configuration.
func NewSweeper(ctx context.Context) (*SweeperFunction, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if cfg.CertificateBucket == "" {
		return nil, fmt.Errorf("CERTIFICATE_BUCKET must be set")
	}

	storageClient, err := gcp.NewStorageClient(ctx)
	if err != nil {
		return nil, err
	}

	return NewSweeperWithDeps(cfg, gcp.NewBucket(storageClient, cfg.CertificateBucket)), nil
}

// NewSweeperWithDeps wires explicit dependencies; tests pass stubs here.
func NewSweeperWithDeps(cfg config.Config, certs ObjectStore) *SweeperFunction {
	return &SweeperFunction{certs: certs, cfg: cfg, now: time.Now}
}

// Process lists the bucket, selects objects strictly older than the
// retention age and deletes the selection. An empty bucket or selection ends
// the sweep cleanly.
func (f *SweeperFunction) Process(ctx context.Context) (int, error) {
	objects, err := f.certs.List(ctx)
	if err != nil {
		slog.Error("Failed to list certificate bucket.", "error", err)
		return 0, fmt.Errorf("%w: listing bucket: %v", apperr.ErrStorage, err)
	}
	if len(objects) == 0 {
		slog.Info("Certificate bucket is empty. Ending sweep.")
		return 0, nil
	}

	expired := expiredKeys(objects, f.now(), f.cfg.RetentionMaxAge)
	if len(expired) == 0 {
		slog.Info("No certificates past retention age.", "objects", len(objects))
		return 0, nil
	}

	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(10)
	for _, key := range expired {
		eg.Go(func() error {
			if err := f.certs.Delete(gctx, key); err != nil {
				return fmt.Errorf("object %s: %w", key, err)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		slog.Error("Sweep failed to delete one or more objects.", "error", err)
		return 0, fmt.Errorf("%w: deleting expired objects: %v", apperr.ErrStorage, err)
	}

	slog.Info("Sweep complete.", "deleted", len(expired))
	return len(expired), nil
}

// expiredKeys selects objects whose age exceeds maxAge, strictly.
func expiredKeys(objects []gcp.ObjectInfo, now time.Time, maxAge time.Duration) []string {
	var keys []string
	for _, obj := range objects {
		if now.Sub(obj.Updated) > maxAge {
			keys = append(keys, obj.Name)
		}
	}
	return keys
}
