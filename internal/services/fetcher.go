package services

import (
	"context"
	"log/slog"

	"github.com/veridoc/certificateflow/internal/apperr"
	"github.com/veridoc/certificateflow/internal/config"
	"github.com/veridoc/certificateflow/internal/gcp"
	"github.com/veridoc/certificateflow/internal/web"
)

// FetcherFunction serves certificate record lookups by ID.
type FetcherFunction struct {
	recs RecordStore
	cfg  config.Config
}

// NewFetcher wires the production dependencies from configuration.
func NewFetcher(ctx context.Context) (*FetcherFunction, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	firestoreClient, err := gcp.NewFirestoreClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, err
	}

	return NewFetcherWithDeps(cfg, gcp.NewCollection(firestoreClient, cfg.RecordCollection)), nil
}

// NewFetcherWithDeps wires explicit dependencies; tests pass stubs here.
func NewFetcherWithDeps(cfg config.Config, recs RecordStore) *FetcherFunction {
	return &FetcherFunction{recs: recs, cfg: cfg}
}

// Process looks up one record. An empty ID is a bad request; a store miss is
// not found.
func (f *FetcherFunction) Process(ctx context.Context, certID string) (map[string]interface{}, error) {
	if certID == "" {
		return nil, apperr.Wrap(apperr.ErrBadRequest, "Event not valid")
	}

	record, err := f.recs.Get(ctx, certID)
	if err != nil {
		slog.Error("Failed to read certificate record.", "error", err, "certificateId", certID)
		return nil, apperr.ErrStorage
	}
	if record == nil {
		slog.Info("Certificate record not found.", "certificateId", certID)
		return nil, apperr.Wrap(apperr.ErrNotFound, "Not found")
	}
	return record, nil
}

// CORS exposes the response-header configuration for the HTTP layer.
func (f *FetcherFunction) CORS() web.CORSConfig {
	return web.CORSConfig{AllowedOrigin: f.cfg.AllowedOrigin, AuthHeaderName: f.cfg.AuthHeaderName}
}
