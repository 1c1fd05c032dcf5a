package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/veridoc/certificateflow/internal/apperr"
	"github.com/veridoc/certificateflow/internal/config"
	"github.com/veridoc/certificateflow/internal/gcp"
	"github.com/veridoc/certificateflow/internal/ingest"
	"github.com/veridoc/certificateflow/internal/models"
	"github.com/veridoc/certificateflow/internal/pdf"
	"github.com/veridoc/certificateflow/internal/qr"
	"github.com/veridoc/certificateflow/internal/records"
	"github.com/veridoc/certificateflow/internal/web"
)

// IssuerFunction drives the certificate composition pipeline: validate,
// ingest, QR, uploads, record write, template fetch, compose, final upload,
// signed URL. Steps run strictly in order; a failed step aborts without
// compensating the ones already completed, so a photo uploaded before a
// failed record write stays behind as an accepted orphan.
type IssuerFunction struct {
	templates ObjectStore
	images    ObjectStore
	certs     ObjectStore
	recs      RecordStore
	cfg       config.Config
	location  *time.Location

	compose func(pdf.ComposeInput) ([]byte, error)
	now     func() time.Time
}

// NewIssuer wires the production dependencies from configuration.
func NewIssuer(ctx context.Context) (*IssuerFunction, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if cfg.ImageBucket == "" || cfg.TemplateBucket == "" || cfg.CertificateBucket == "" {
		return nil, fmt.Errorf("TEMPLATE_BUCKET, IMAGE_BUCKET and CERTIFICATE_BUCKET must be set")
	}

	storageClient, err := gcp.NewStorageClient(ctx)
	if err != nil {
		return nil, err
	}
	firestoreClient, err := gcp.NewFirestoreClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, err
	}

	return NewIssuerWithDeps(
		cfg,
		gcp.NewBucket(storageClient, cfg.TemplateBucket),
		gcp.NewBucket(storageClient, cfg.ImageBucket),
		gcp.NewBucket(storageClient, cfg.CertificateBucket),
		gcp.NewCollection(firestoreClient, cfg.RecordCollection),
	)
}

// NewIssuerWithDeps wires explicit dependencies; tests pass stubs here.
func NewIssuerWithDeps(cfg config.Config, templates, images, certs ObjectStore, recs RecordStore) (*IssuerFunction, error) {
	location, err := time.LoadLocation(cfg.UserTimeZone)
	if err != nil {
		return nil, fmt.Errorf("invalid USER_TIMEZONE %q: %w", cfg.UserTimeZone, err)
	}

	return &IssuerFunction{
		templates: templates,
		images:    images,
		certs:     certs,
		recs:      recs,
		cfg:       cfg,
		location:  location,
		compose:   pdf.Compose,
		now:       time.Now,
	}, nil
}

// Process handles one issue request end to end.
func (f *IssuerFunction) Process(ctx context.Context, r *http.Request) (*models.IssueResponse, error) {
	if err := f.validateHeaders(r.Header); err != nil {
		return nil, err
	}

	parsed, err := ingest.Parse(r.Body, r.Header.Get("Content-Type"))
	if err != nil {
		slog.Error("Failed to parse form data.", "error", err)
		return nil, err
	}

	logCtx := slog.With("certificateId", parsed.CertificateID)

	if parsed.Fields["clientName"] == "" || parsed.Fields["heading"] == "" || !hasKey(parsed.Fields, "details") || parsed.Attachment.Content == nil {
		logCtx.Warn("Request is missing required fields or the photo.")
		return nil, apperr.Wrap(apperr.ErrBadRequest, "Could not parse data")
	}

	certificatePage := fmt.Sprintf("%s?certId=%s", f.cfg.CertificatePageURL, parsed.CertificateID)
	qrImage, err := qr.Encode(certificatePage)
	if err != nil {
		logCtx.Error("Failed to encode QR code.", "error", err)
		return nil, err
	}

	imageKey := parsed.CertificateID + ".png"
	if err := f.images.Upload(ctx, imageKey, parsed.Attachment.Content, parsed.Attachment.MediaType); err != nil {
		logCtx.Error("Failed to upload photo.", "error", err, "key", imageKey)
		return nil, fmt.Errorf("%w: uploading photo: %v", apperr.ErrStorage, err)
	}

	qrKey := parsed.CertificateID + "-qr-code.png"
	if err := f.images.Upload(ctx, qrKey, qrImage, "image/png"); err != nil {
		logCtx.Error("Failed to upload QR code.", "error", err, "key", qrKey)
		return nil, fmt.Errorf("%w: uploading QR code: %v", apperr.ErrStorage, err)
	}

	now := f.now()
	record := records.Build(
		parsed.Fields,
		parsed.CertificateID,
		f.images.PublicURL(imageKey),
		f.images.PublicURL(qrKey),
		f.location,
		now,
	)
	if err := f.recs.Put(ctx, parsed.CertificateID, record.Document()); err != nil {
		logCtx.Error("Failed to write certificate record.", "error", err)
		return nil, fmt.Errorf("%w: writing record: %v", apperr.ErrStorage, err)
	}
	logCtx.Info("Certificate record written.")

	templateKey := fmt.Sprintf("%s-%s.pdf", f.cfg.TemplateBaseName, pdf.TemplateVariant(parsed.Fields["outcome"]))
	template, err := f.templates.Download(ctx, templateKey)
	if err != nil {
		logCtx.Error("Failed to fetch template.", "error", err, "key", templateKey)
		return nil, fmt.Errorf("%w: fetching template %s: %v", apperr.ErrStorage, templateKey, err)
	}

	document, err := f.compose(pdf.ComposeInput{
		Template:      template,
		QRImage:       qrImage,
		CertificateID: parsed.CertificateID,
		Fields:        parsed.Fields,
		Photo:         parsed.Attachment.Content,
		Location:      f.location,
		Now:           now,
	})
	if err != nil {
		logCtx.Error("Failed to compose certificate.", "error", err)
		return nil, err
	}

	certKey := parsed.CertificateID + ".pdf"
	if err := f.certs.Upload(ctx, certKey, document, "application/pdf"); err != nil {
		logCtx.Error("Failed to upload certificate.", "error", err, "key", certKey)
		return nil, fmt.Errorf("%w: uploading certificate: %v", apperr.ErrStorage, err)
	}

	certificateURL, err := f.certs.SignedURL(certKey, f.cfg.SignedURLTTL)
	if err != nil {
		logCtx.Error("Failed to sign certificate URL.", "error", err)
		return nil, fmt.Errorf("%w: signing certificate URL: %v", apperr.ErrStorage, err)
	}

	logCtx.Info("Certificate issued.", "certificate", certKey)
	return &models.IssueResponse{
		CertificatePage: certificatePage,
		CertificateURL:  certificateURL,
	}, nil
}

func (f *IssuerFunction) validateHeaders(headers http.Header) error {
	if !strings.HasPrefix(headers.Get("Content-Type"), "multipart/form-data") {
		return fmt.Errorf("%w: content type must be multipart/form-data", apperr.ErrBadRequest)
	}
	if !strings.HasPrefix(headers.Get(f.cfg.AuthHeaderName), f.cfg.AuthHeaderValue) {
		return fmt.Errorf("%w: auth header check failed", apperr.ErrBadRequest)
	}
	return nil
}

func hasKey(fields map[string]string, name string) bool {
	_, ok := fields[name]
	return ok
}

// CORS exposes the response-header configuration for the HTTP layer.
func (f *IssuerFunction) CORS() web.CORSConfig {
	return web.CORSConfig{AllowedOrigin: f.cfg.AllowedOrigin, AuthHeaderName: f.cfg.AuthHeaderName}
}
