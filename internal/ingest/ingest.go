// Package ingest turns a raw multipart/form-data body into a fully
// materialized ParsedRequest. Parsing is streaming: parts are consumed one at
// a time and only the single attachment is buffered in memory, because the
// composer needs a seekable buffer rather than an open stream.
package ingest

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"strings"

	"github.com/google/uuid"

	"github.com/veridoc/certificateflow/internal/apperr"
)

// Attachment is the single binary part of an upload. Content is nil when no
// file part arrived.
type Attachment struct {
	Filename  string
	Content   []byte
	MediaType string
}

// ParsedRequest is the result of draining one upload body.
type ParsedRequest struct {
	Fields        map[string]string
	Attachment    Attachment
	CertificateID string
}

// Parse streams the body through a multipart reader. Non-file parts become
// field entries in arrival order with last-write-wins on duplicate names.
// The first file part becomes the attachment; later file parts are drained
// and ignored. The certificate ID is minted once, before any part is read,
// so it is independent of field and file ordering.
func Parse(r io.Reader, contentType string) (*ParsedRequest, error) {
	boundary, err := boundaryFromContentType(contentType)
	if err != nil {
		return nil, err
	}

	result := &ParsedRequest{
		Fields:        map[string]string{},
		CertificateID: uuid.NewString(),
	}

	mr := multipart.NewReader(r, boundary)
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: reading next part: %v", apperr.ErrMalformedMultipart, err)
		}

		if part.FileName() == "" {
			value, err := io.ReadAll(part)
			if err != nil {
				return nil, fmt.Errorf("%w: field %q: %v", apperr.ErrStream, part.FormName(), err)
			}
			result.Fields[part.FormName()] = string(value)
			continue
		}

		if result.Attachment.Content != nil {
			// Single-attachment design: drain and drop extras.
			if _, err := io.Copy(io.Discard, part); err != nil {
				return nil, fmt.Errorf("%w: draining extra file %q: %v", apperr.ErrStream, part.FileName(), err)
			}
			continue
		}

		content, err := io.ReadAll(part)
		if err != nil {
			return nil, fmt.Errorf("%w: file %q: %v", apperr.ErrStream, part.FileName(), err)
		}
		mediaType := part.Header.Get("Content-Type")
		if mediaType == "" {
			mediaType = "image/png"
		}
		result.Attachment = Attachment{
			Filename:  part.FileName(),
			Content:   content,
			MediaType: mediaType,
		}
	}

	return result, nil
}

// ParseRaw handles gateway-shaped invocations whose body arrives as a byte
// slice, optionally base64-encoded, then delegates to Parse.
func ParseRaw(body []byte, base64Encoded bool, contentType string) (*ParsedRequest, error) {
	if base64Encoded {
		decoded := make([]byte, base64.StdEncoding.DecodedLen(len(body)))
		n, err := base64.StdEncoding.Decode(decoded, body)
		if err != nil {
			return nil, fmt.Errorf("%w: decoding base64 body: %v", apperr.ErrMalformedMultipart, err)
		}
		body = decoded[:n]
	}
	return Parse(bytes.NewReader(body), contentType)
}

func boundaryFromContentType(contentType string) (string, error) {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", fmt.Errorf("%w: parsing content type %q: %v", apperr.ErrMalformedMultipart, contentType, err)
	}
	if !strings.HasPrefix(mediaType, "multipart/") {
		return "", fmt.Errorf("%w: content type %q is not multipart", apperr.ErrMalformedMultipart, mediaType)
	}
	boundary, ok := params["boundary"]
	if !ok || boundary == "" {
		return "", fmt.Errorf("%w: content type is missing a boundary", apperr.ErrMalformedMultipart)
	}
	return boundary, nil
}
