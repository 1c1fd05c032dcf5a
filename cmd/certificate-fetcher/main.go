package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"

	"github.com/veridoc/certificateflow/internal/models"
	"github.com/veridoc/certificateflow/internal/services"
	"github.com/veridoc/certificateflow/internal/web"
)

var (
	fetcherInstance *services.FetcherFunction
	once            sync.Once
	initErr         error
)

func init() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// "GetCertificate" is the entry point name configured in GCP.
	functions.HTTP("GetCertificate", getCertificate)
}

// main is required by the Go Functions Framework.
func main() {}

// getCertificate serves record lookups via the certId query parameter.
func getCertificate(w http.ResponseWriter, r *http.Request) {
	once.Do(func() {
		fetcherInstance, initErr = services.NewFetcher(context.Background())
	})
	if initErr != nil {
		slog.Error("Critical error during function initialization", "error", initErr)
		http.Error(w, "Internal Server Error: failed to initialize service", http.StatusInternalServerError)
		return
	}

	cors := fetcherInstance.CORS()
	if r.Method == http.MethodOptions {
		web.Preflight(w, cors)
		return
	}

	record, err := fetcherInstance.Process(r.Context(), r.URL.Query().Get("certId"))
	if err != nil {
		web.RespondError(w, cors, err)
		return
	}
	web.Respond(w, cors, http.StatusOK, models.FetchResponse{Data: record})
}
