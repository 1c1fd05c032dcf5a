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
	sweeperInstance *services.SweeperFunction
	once            sync.Once
	initErr         error
)

func init() {
	// --- Set up structured logging ---
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Registered for the Cloud Scheduler Pub/Sub trigger.
	functions.CloudEvent("SweepExpiredCertificates", sweepExpiredCertificates)
}

// main is required by the Go Functions Framework.
func main() {}

// sweepExpiredCertificates is the scheduled entry point. The event payload
// carries no parameters; the sweep is driven entirely by configuration.
func sweepExpiredCertificates(ctx context.Context, e cloudevents.Event) error {
	once.Do(func() {
		sweeperInstance, initErr = services.NewSweeper(context.Background())
	})
	if initErr != nil {
		slog.Error("Critical error during function initialization", "error", initErr)
		return initErr
	}

	deleted, err := sweeperInstance.Process(ctx)
	if err != nil {
		// Returning the error marks the invocation as failed; the
		// scheduler retries per its own policy.
		return err
	}

	slog.Info("Retention sweep finished.", "deleted", deleted, "eventId", e.ID())
	return nil
}
