package gcp

import (
	"context"
	"fmt"

	apiv1 "cloud.google.com/go/firestore/apiv1/admin"
	"cloud.google.com/go/firestore/apiv1/admin/adminpb"
)

// BackupClient drives Firestore managed exports, which are this pipeline's
// backup mechanism: one export per rotation, written under a timestamped
// prefix in the backup bucket.
type BackupClient struct {
	admin     *apiv1.FirestoreAdminClient
	projectID string
}

// NewBackupClient creates a Firestore admin client for the given project.
func NewBackupClient(ctx context.Context, projectID string) (*BackupClient, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID must be provided to create a firestore admin client")
	}

	admin, err := apiv1.NewFirestoreAdminClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore admin client: %w", err)
	}

	return &BackupClient{admin: admin, projectID: projectID}, nil
}

// Export runs a managed export of the given collection to the GCS URI prefix
// and waits for the operation to finish.
func (b *BackupClient) Export(ctx context.Context, collection, uriPrefix string) error {
	op, err := b.admin.ExportDocuments(ctx, &adminpb.ExportDocumentsRequest{
		Name:            fmt.Sprintf("projects/%s/databases/(default)", b.projectID),
		CollectionIds:   []string{collection},
		OutputUriPrefix: uriPrefix,
	})
	if err != nil {
		return fmt.Errorf("failed to start export of %s: %w", collection, err)
	}

	if _, err := op.Wait(ctx); err != nil {
		return fmt.Errorf("export of %s did not complete: %w", collection, err)
	}
	return nil
}

// Close releases the underlying admin client.
func (b *BackupClient) Close() error {
	return b.admin.Close()
}
