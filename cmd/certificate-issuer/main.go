package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"

	"github.com/veridoc/certificateflow/internal/services"
	"github.com/veridoc/certificateflow/internal/web"
)

var (
	issuerInstance *services.IssuerFunction
	once           sync.Once
	initErr        error
)

func init() {
	// --- Set up structured logging ---
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// "IssueCertificate" is the entry point name configured in GCP.
	functions.HTTP("IssueCertificate", issueCertificate)
}

// main is required by the Go Functions Framework.
func main() {}

// issueCertificate is the HTTP handler for the composition pipeline.
func issueCertificate(w http.ResponseWriter, r *http.Request) {
	// Use sync.Once for robust, one-time initialization of clients.
	once.Do(func() {
		issuerInstance, initErr = services.NewIssuer(context.Background())
	})
	if initErr != nil {
		slog.Error("Critical error during function initialization", "error", initErr)
		http.Error(w, "Internal Server Error: failed to initialize service", http.StatusInternalServerError)
		return
	}

	cors := issuerInstance.CORS()
	if r.Method == http.MethodOptions {
		web.Preflight(w, cors)
		return
	}

	resp, err := issuerInstance.Process(r.Context(), r)
	if err != nil {
		// The specific error is already logged inside Process.
		web.RespondError(w, cors, err)
		return
	}
	web.Respond(w, cors, http.StatusOK, resp)
}
