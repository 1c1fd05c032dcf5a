// Package apperr defines the error taxonomy shared by the certificate
// functions and its mapping onto HTTP status codes.
package apperr

import (
	"errors"
	"net/http"
)

var (
	// ErrBadRequest covers header, shape and required-field validation
	// failures, including the shared-secret check.
	ErrBadRequest = errors.New("bad request")

	// ErrNotFound signals a record-store lookup miss.
	ErrNotFound = errors.New("not found")

	// ErrMalformedMultipart signals a missing or unparseable multipart boundary.
	ErrMalformedMultipart = errors.New("malformed multipart body")

	// ErrStream signals a part that terminated abnormally mid-parse.
	ErrStream = errors.New("multipart stream aborted")

	// ErrTemplateLoad signals template bytes that are not a valid document.
	ErrTemplateLoad = errors.New("template load failed")

	// ErrTemplateSchema signals a template missing an expected field or page.
	ErrTemplateSchema = errors.New("template schema mismatch")

	// ErrComposition covers any embedding or rendering failure.
	ErrComposition = errors.New("composition failed")

	// ErrStorage covers any blob or record-store call failure.
	ErrStorage = errors.New("storage operation failed")
)

type wrapped struct {
	kind error
	msg  string
}

func (e *wrapped) Error() string { return e.msg }
func (e *wrapped) Unwrap() error { return e.kind }

// Wrap ties a caller-facing message to a taxonomy kind. The message becomes
// the response body verbatim; the kind drives the status code.
func Wrap(kind error, msg string) error {
	return &wrapped{kind: kind, msg: msg}
}

// HTTPStatus resolves the response code for an error produced anywhere in the
// pipeline. Unrecognized errors are treated as internal failures.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
