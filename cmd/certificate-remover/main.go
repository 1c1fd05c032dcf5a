package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"path"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"

	"github.com/veridoc/certificateflow/internal/models"
	"github.com/veridoc/certificateflow/internal/services"
	"github.com/veridoc/certificateflow/internal/web"
)

var (
	removerInstance *services.RemoverFunction
	once            sync.Once
	initErr         error
)

func init() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// "DeleteCertificate" is the entry point name configured in GCP.
	functions.HTTP("DeleteCertificate", deleteCertificate)
}

// main is required by the Go Functions Framework.
func main() {}

// deleteCertificate removes one certificate by the trailing path segment.
func deleteCertificate(w http.ResponseWriter, r *http.Request) {
	once.Do(func() {
		removerInstance, initErr = services.NewRemover(context.Background())
	})
	if initErr != nil {
		slog.Error("Critical error during function initialization", "error", initErr)
		http.Error(w, "Internal Server Error: failed to initialize service", http.StatusInternalServerError)
		return
	}

	cors := removerInstance.CORS()
	if r.Method == http.MethodOptions {
		web.Preflight(w, cors)
		return
	}

	certID := path.Base(r.URL.Path)
	if certID == "/" || certID == "." {
		certID = ""
	}

	if err := removerInstance.Process(r.Context(), certID, r.Header); err != nil {
		web.RespondError(w, cors, err)
		return
	}
	web.Respond(w, cors, http.StatusOK, models.MessageResponse{Message: "Success"})
}
