package main

import (
	"context"
	"log/slog"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	cloudevents "github.com/cloudevents/sdk-go/v2"

	"github.com/veridoc/certificateflow/internal/services"
)

var (
	rotatorInstance *services.RotatorFunction
	once            sync.Once
	initErr         error
)

func init() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Registered for the Cloud Scheduler Pub/Sub trigger.
	functions.CloudEvent("RotateRecordBackups", rotateRecordBackups)
}

// main is required by the Go Functions Framework.
func main() {}

// rotateRecordBackups is the scheduled entry point.
func rotateRecordBackups(ctx context.Context, e cloudevents.Event) error {
	once.Do(func() {
		rotatorInstance, initErr = services.NewRotator(context.Background())
	})
	if initErr != nil {
		slog.Error("Critical error during function initialization", "error", initErr)
		return initErr
	}

	name, err := rotatorInstance.Process(ctx)
	if err != nil {
		return err
	}

	slog.Info("Backup rotation finished.", "backup", name, "eventId", e.ID())
	return nil
}
