// Package records builds the persisted certificate record: a fixed core plus
// a pass-through tier for any extra caller-supplied fields.
package records

import "time"

// Core field names. Extension fields never shadow these on write.
const (
	keyID                 = "id"
	keyClientName         = "clientName"
	keyHeading            = "heading"
	keyOutcome            = "outcome"
	keyDetails            = "details"
	keyImageURL           = "imageUrl"
	keyQRCodeURL          = "qrCodeUrl"
	keyCreatedAtUserTime  = "createdAtUserTime"
	keyCreatedAtLocalTime = "createdAtLocalTime"
	keyDisplayDate        = "displayDate"
)

// CertificateRecord is the immutable entity keyed by certificate ID. There is
// no update path: records are created once, read by ID and deleted by ID.
type CertificateRecord struct {
	ID                 string
	ClientName         string
	Heading            string
	Outcome            string
	Details            string
	ImageURL           string
	QRCodeURL          string
	CreatedAtUserTime  string
	CreatedAtLocalTime string
	DisplayDate        string

	// Extra carries caller-supplied fields outside the fixed core,
	// verbatim.
	Extra map[string]string
}

// Build assembles a record from parsed form fields. Both timestamps describe
// the same instant, once in the caller's timezone and once in the process
// timezone. displayDate is the short date rendered onto the document.
func Build(fields map[string]string, certID, imageURL, qrCodeURL string, loc *time.Location, now time.Time) CertificateRecord {
	rec := CertificateRecord{
		ID:                 certID,
		ClientName:         fields[keyClientName],
		Heading:            fields[keyHeading],
		Outcome:            fields[keyOutcome],
		Details:            fields[keyDetails],
		ImageURL:           imageURL,
		QRCodeURL:          qrCodeURL,
		CreatedAtUserTime:  now.In(loc).Format(time.RFC3339),
		CreatedAtLocalTime: now.Format(time.RFC3339),
		DisplayDate:        now.In(loc).Format("Jan 2, 2006"),
		Extra:              map[string]string{},
	}

	for name, value := range fields {
		switch name {
		case keyClientName, keyHeading, keyOutcome, keyDetails:
			continue
		}
		rec.Extra[name] = value
	}
	return rec
}

// Document flattens the record into the persistable map. Extension fields go
// in first so core keys always win on a name collision.
func (r CertificateRecord) Document() map[string]interface{} {
	doc := make(map[string]interface{}, len(r.Extra)+10)
	for name, value := range r.Extra {
		doc[name] = value
	}

	doc[keyID] = r.ID
	doc[keyClientName] = r.ClientName
	doc[keyHeading] = r.Heading
	doc[keyImageURL] = r.ImageURL
	doc[keyQRCodeURL] = r.QRCodeURL
	doc[keyCreatedAtUserTime] = r.CreatedAtUserTime
	doc[keyCreatedAtLocalTime] = r.CreatedAtLocalTime
	doc[keyDisplayDate] = r.DisplayDate

	if r.Outcome != "" {
		doc[keyOutcome] = r.Outcome
	}
	if r.Details != "" {
		doc[keyDetails] = r.Details
	}
	return doc
}
