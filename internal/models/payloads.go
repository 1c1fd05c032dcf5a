package models

// These structs define the JSON payloads exchanged with the gateway by the
// certificate functions.

// Detail is one entry of the caller-supplied details payload, rendered onto
// the certificate in input order.
type Detail struct {
	DetailName  string `json:"detailName"`
	DetailValue string `json:"detailValue"`
}

// IssueResponse is the success body of the certificate-issuer function.
type IssueResponse struct {
	CertificatePage string `json:"certificatePage"`
	CertificateURL  string `json:"certificateUrl"`
}

// FetchResponse wraps a record returned by the certificate-fetcher function.
type FetchResponse struct {
	Data map[string]interface{} `json:"data"`
}

// MessageResponse is the generic success body for operations with no payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is the uniform error body across all functions.
type ErrorResponse struct {
	Error string `json:"error"`
}
