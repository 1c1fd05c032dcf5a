package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"github.com/veridoc/certificateflow/internal/apperr"
	"github.com/veridoc/certificateflow/internal/config"
	"github.com/veridoc/certificateflow/internal/gcp"
	"github.com/veridoc/certificateflow/internal/web"
)

// Lowercase only: IDs are minted lowercase and the delete gate is strict.
var certIDPattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// RemoverFunction deletes one certificate record and its co-located objects.
type RemoverFunction struct {
	images ObjectStore
	recs   RecordStore
	cfg    config.Config
}

// NewRemover wires the production dependencies from configuration.
func NewRemover(ctx context.Context) (*RemoverFunction, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if cfg.ImageBucket == "" {
		return nil, fmt.Errorf("IMAGE_BUCKET must be set")
	}

	storageClient, err := gcp.NewStorageClient(ctx)
	if err != nil {
		return nil, err
	}
	firestoreClient, err := gcp.NewFirestoreClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, err
	}

	return NewRemoverWithDeps(
		cfg,
		gcp.NewBucket(storageClient, cfg.ImageBucket),
		gcp.NewCollection(firestoreClient, cfg.RecordCollection),
	), nil
}

// NewRemoverWithDeps wires explicit dependencies; tests pass stubs here.
func NewRemoverWithDeps(cfg config.Config, images ObjectStore, recs RecordStore) *RemoverFunction {
	return &RemoverFunction{images: images, recs: recs, cfg: cfg}
}

// Process deletes the record, then best-effort deletes the photo and QR
// objects. The auth header and the strict ID pattern gate the whole
// operation.
func (f *RemoverFunction) Process(ctx context.Context, certID string, headers http.Header) error {
	if !strings.HasPrefix(headers.Get(f.cfg.AuthHeaderName), f.cfg.AuthHeaderValue) || certID == "" || !certIDPattern.MatchString(certID) {
		slog.Warn("Delete request rejected.", "certificateId", certID)
		return apperr.Wrap(apperr.ErrBadRequest, "Event not valid")
	}

	logCtx := slog.With("certificateId", certID)

	if err := f.recs.Delete(ctx, certID); err != nil {
		logCtx.Error("Failed to delete certificate record.", "error", err)
		return fmt.Errorf("%w: deleting record: %v", apperr.ErrStorage, err)
	}

	for _, key := range []string{certID + ".png", certID + "-qr-code.png"} {
		if err := f.images.Delete(ctx, key); err != nil {
			logCtx.Warn("Failed to delete object.", "error", err, "key", key)
		}
	}

	logCtx.Info("Certificate deleted.")
	return nil
}

// CORS exposes the response-header configuration for the HTTP layer.
func (f *RemoverFunction) CORS() web.CORSConfig {
	return web.CORSConfig{AllowedOrigin: f.cfg.AllowedOrigin, AuthHeaderName: f.cfg.AuthHeaderName}
}
