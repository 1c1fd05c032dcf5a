package services

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veridoc/certificateflow/internal/apperr"
	"github.com/veridoc/certificateflow/internal/pdf"
)

type issuerFixture struct {
	issuer    *IssuerFunction
	templates *stubBucket
	images    *stubBucket
	certs     *stubBucket
	recs      *stubRecords
	composed  []pdf.ComposeInput
}

func newIssuerFixture(t *testing.T) *issuerFixture {
	t.Helper()
	fx := &issuerFixture{
		templates: newStubBucket("templates"),
		images:    newStubBucket("images"),
		certs:     newStubBucket("certificates"),
		recs:      newStubRecords(),
	}
	fx.templates.objects["certificate-template-authentic.pdf"] = []byte("authentic-template")
	fx.templates.objects["certificate-template-not-authentic.pdf"] = []byte("not-authentic-template")

	issuer, err := NewIssuerWithDeps(testConfig(), fx.templates, fx.images, fx.certs, fx.recs)
	require.NoError(t, err)
	issuer.compose = func(in pdf.ComposeInput) ([]byte, error) {
		fx.composed = append(fx.composed, in)
		return append([]byte("composed:"), in.Template...), nil
	}
	fx.issuer = issuer
	return fx
}

func issueRequest(t *testing.T, fields map[string]string, photo []byte, auth string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for name, value := range fields {
		require.NoError(t, w.WriteField(name, value))
	}
	if photo != nil {
		fw, err := w.CreateFormFile("photo", "photo.png")
		require.NoError(t, err)
		_, err = fw.Write(photo)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	r := httptest.NewRequest(http.MethodPost, "/", &buf)
	r.Header.Set("Content-Type", w.FormDataContentType())
	if auth != "" {
		r.Header.Set("X-Certificate-Auth", auth)
	}
	return r
}

func validFields() map[string]string {
	return map[string]string{
		"clientName": "Jane Doe",
		"heading":    "Certificate of Authenticity",
		"outcome":    "true",
		"details":    `[{"detailName":"Lot","detailValue":"42"}]`,
	}
}

func TestIssuerHappyPath(t *testing.T) {
	fx := newIssuerFixture(t)
	r := issueRequest(t, validFields(), []byte("photo-bytes"), "shared-secret")

	resp, err := fx.issuer.Process(context.Background(), r)
	require.NoError(t, err)

	require.Len(t, fx.composed, 1)
	certID := fx.composed[0].CertificateID

	assert.Equal(t, []byte("photo-bytes"), fx.images.objects[certID+".png"])
	assert.NotEmpty(t, fx.images.objects[certID+"-qr-code.png"])
	assert.Equal(t, []byte("composed:authentic-template"), fx.certs.objects[certID+".pdf"])

	record := fx.recs.docs[certID]
	require.NotNil(t, record)
	assert.Equal(t, certID, record["id"])
	assert.Equal(t, "Jane Doe", record["clientName"])
	assert.Equal(t, "https://storage.googleapis.com/images/"+certID+".png", record["imageUrl"])

	assert.Equal(t, "https://certs.example.com/verify?certId="+certID, resp.CertificatePage)
	assert.Equal(t, "https://signed.example.com/"+certID+".pdf", resp.CertificateURL)
}

func TestIssuerSelectsNotAuthenticTemplate(t *testing.T) {
	fx := newIssuerFixture(t)
	fields := validFields()
	fields["outcome"] = "false"
	r := issueRequest(t, fields, []byte("photo-bytes"), "shared-secret")

	_, err := fx.issuer.Process(context.Background(), r)
	require.NoError(t, err)
	require.Len(t, fx.composed, 1)
	assert.Equal(t, []byte("not-authentic-template"), fx.composed[0].Template)
}

func TestIssuerRejectsMissingAuthHeader(t *testing.T) {
	fx := newIssuerFixture(t)
	r := issueRequest(t, validFields(), []byte("photo-bytes"), "")

	_, err := fx.issuer.Process(context.Background(), r)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrBadRequest)
	assert.Empty(t, fx.images.uploads)
}

func TestIssuerAcceptsAuthHeaderPrefixMatch(t *testing.T) {
	fx := newIssuerFixture(t)
	r := issueRequest(t, validFields(), []byte("photo-bytes"), "shared-secret-extended")

	_, err := fx.issuer.Process(context.Background(), r)
	require.NoError(t, err)
}

func TestIssuerRejectsNonMultipartContentType(t *testing.T) {
	fx := newIssuerFixture(t)
	r := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(nil))
	r.Header.Set("Content-Type", "application/json")
	r.Header.Set("X-Certificate-Auth", "shared-secret")

	_, err := fx.issuer.Process(context.Background(), r)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrBadRequest)
}

func TestIssuerRejectsMissingRequiredField(t *testing.T) {
	fx := newIssuerFixture(t)
	fields := validFields()
	delete(fields, "clientName")
	r := issueRequest(t, fields, []byte("photo-bytes"), "shared-secret")

	_, err := fx.issuer.Process(context.Background(), r)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrBadRequest)
	assert.Equal(t, "Could not parse data", err.Error())
	assert.Empty(t, fx.images.uploads)
}

func TestIssuerRejectsMissingPhoto(t *testing.T) {
	fx := newIssuerFixture(t)
	r := issueRequest(t, validFields(), nil, "shared-secret")

	_, err := fx.issuer.Process(context.Background(), r)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrBadRequest)
	assert.Empty(t, fx.images.uploads)
}

func TestIssuerAllowsEmptyDetailsValue(t *testing.T) {
	fx := newIssuerFixture(t)
	fields := validFields()
	fields["details"] = ""
	r := issueRequest(t, fields, []byte("photo-bytes"), "shared-secret")

	_, err := fx.issuer.Process(context.Background(), r)
	require.NoError(t, err)
}

func TestIssuerNoCompensationAfterRecordWriteFailure(t *testing.T) {
	fx := newIssuerFixture(t)
	fx.recs.failPut = true
	r := issueRequest(t, validFields(), []byte("photo-bytes"), "shared-secret")

	_, err := fx.issuer.Process(context.Background(), r)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrStorage)
	// Uploaded objects stay behind: the pipeline never rolls back.
	assert.Len(t, fx.images.uploads, 2)
	assert.Empty(t, fx.images.deletes)
}
