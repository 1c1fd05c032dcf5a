package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veridoc/certificateflow/internal/apperr"
	"github.com/veridoc/certificateflow/internal/models"
)

var testCORS = CORSConfig{
	AllowedOrigin:  "https://certs.example.com",
	AuthHeaderName: "X-Certificate-Auth",
}

func TestRespondSetsCORSHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	Respond(rec, testCORS, http.StatusOK, models.MessageResponse{Message: "Success"})

	assert.Equal(t, "https://certs.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "POST, OPTIONS, GET", rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Content-Type, X-Certificate-Auth", rec.Header().Get("Access-Control-Allow-Headers"))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestRespondErrorBodyAndStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, testCORS, apperr.Wrap(apperr.ErrBadRequest, "Could not parse data"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Could not parse data", body.Error)
	// CORS headers ride along on error responses too.
	assert.Equal(t, "https://certs.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRespondErrorStatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{apperr.ErrBadRequest, http.StatusBadRequest},
		{apperr.ErrNotFound, http.StatusNotFound},
		{apperr.ErrMalformedMultipart, http.StatusInternalServerError},
		{apperr.ErrTemplateSchema, http.StatusInternalServerError},
		{apperr.ErrStorage, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		RespondError(rec, testCORS, tc.err)
		assert.Equal(t, tc.status, rec.Code, tc.err.Error())
	}
}

func TestPreflight(t *testing.T) {
	rec := httptest.NewRecorder()
	Preflight(rec, testCORS)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://certs.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}
