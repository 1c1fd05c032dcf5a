package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/veridoc/certificateflow/internal/apperr"
	"github.com/veridoc/certificateflow/internal/config"
	"github.com/veridoc/certificateflow/internal/gcp"
)

// RotatorFunction creates one record-store backup per run and prunes every
// older one, so the backup bucket holds exactly the newest export.
type RotatorFunction struct {
	backups  ObjectStore
	exporter BackupStore
	cfg      config.Config
	now      func() time.Time
}

// NewRotator wires the production dependencies from configuration.
func NewRotator(ctx context.Context) (*RotatorFunction, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if cfg.BackupBucket == "" {
		return nil, fmt.Errorf("BACKUP_BUCKET must be set")
	}

	storageClient, err := gcp.NewStorageClient(ctx)
	if err != nil {
		return nil, err
	}
	backupClient, err := gcp.NewBackupClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, err
	}

	return NewRotatorWithDeps(cfg, gcp.NewBucket(storageClient, cfg.BackupBucket), backupClient), nil
}

// NewRotatorWithDeps wires explicit dependencies; tests pass stubs here.
func NewRotatorWithDeps(cfg config.Config, backups ObjectStore, exporter BackupStore) *RotatorFunction {
	return &RotatorFunction{backups: backups, exporter: exporter, cfg: cfg, now: time.Now}
}

// Process exports the record collection under a fresh timestamped prefix,
// then deletes every object outside it. Individual prune failures are logged
// and skipped; the new backup must succeed.
func (f *RotatorFunction) Process(ctx context.Context) (string, error) {
	name := backupName(f.cfg.RecordCollection, f.now())
	uriPrefix := fmt.Sprintf("gs://%s/%s", f.cfg.BackupBucket, name)

	logCtx := slog.With("backup", name)
	logCtx.Info("Starting record-store backup.")

	if err := f.exporter.Export(ctx, f.cfg.RecordCollection, uriPrefix); err != nil {
		logCtx.Error("Backup export failed.", "error", err)
		return "", fmt.Errorf("%w: exporting records: %v", apperr.ErrStorage, err)
	}

	objects, err := f.backups.List(ctx)
	if err != nil {
		logCtx.Error("Failed to list backup bucket.", "error", err)
		return "", fmt.Errorf("%w: listing backups: %v", apperr.ErrStorage, err)
	}

	pruned := 0
	for _, key := range staleBackupKeys(objects, name) {
		if err := f.backups.Delete(ctx, key); err != nil {
			logCtx.Warn("Failed to delete stale backup object.", "error", err, "key", key)
			continue
		}
		pruned++
	}

	logCtx.Info("Backup rotation complete.", "prunedObjects", pruned)
	return name, nil
}

// backupName embeds a sortable UTC timestamp with colons, dashes and
// milliseconds stripped.
func backupName(collection string, now time.Time) string {
	ts := now.UTC().Format("20060102T150405") + "Z"
	return fmt.Sprintf("%s-backup-%s", collection, ts)
}

// staleBackupKeys returns every object outside the prefix of the backup just
// created.
func staleBackupKeys(objects []gcp.ObjectInfo, keep string) []string {
	var keys []string
	for _, obj := range objects {
		if obj.Name == keep || strings.HasPrefix(obj.Name, keep+"/") {
			continue
		}
		keys = append(keys, obj.Name)
	}
	return keys
}
