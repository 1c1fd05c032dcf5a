package gcp

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// NewFirestoreClient creates and returns a new Firestore client for the given
// project ID. It centralizes client creation for all services.
func NewFirestoreClient(ctx context.Context, projectID string) (*firestore.Client, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID must be provided to create a firestore client")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}

	return client, nil
}

// Collection wraps one Firestore collection of certificate records, keyed by
// certificate ID.
type Collection struct {
	client *firestore.Client
	name   string
}

// NewCollection binds a client to a named collection.
func NewCollection(client *firestore.Client, name string) *Collection {
	return &Collection{client: client, name: name}
}

// Name returns the collection name.
func (c *Collection) Name() string { return c.name }

// Put creates or replaces the record under the given ID.
func (c *Collection) Put(ctx context.Context, id string, doc map[string]interface{}) error {
	if _, err := c.client.Collection(c.name).Doc(id).Set(ctx, doc); err != nil {
		return fmt.Errorf("failed to write record %s: %w", id, err)
	}
	return nil
}

// Get fetches the record under the given ID. A lookup miss returns a nil map
// and no error.
func (c *Collection) Get(ctx context.Context, id string) (map[string]interface{}, error) {
	snap, err := c.client.Collection(c.name).Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read record %s: %w", id, err)
	}
	return snap.Data(), nil
}

// Delete removes the record under the given ID. Deleting a missing record is
// not an error.
func (c *Collection) Delete(ctx context.Context, id string) error {
	if _, err := c.client.Collection(c.name).Doc(id).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete record %s: %w", id, err)
	}
	return nil
}
