// Package pdf composes the final certificate document from a fillable
// template, a QR image, the parsed form fields and an optional photo.
package pdf

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"strings"
	"time"

	_ "image/jpeg"
	_ "image/png"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/veridoc/certificateflow/internal/apperr"
	"github.com/veridoc/certificateflow/internal/models"
)

// Placement constants are tied to the one template shape this pipeline
// supports. The photo anchor keeps the image's visual top at y=626 regardless
// of how far the fit scales it down.
const (
	qrOffsetX   = 80
	qrOffsetTop = 180

	photoMaxWidth  = 538.0
	photoMaxHeight = 380.0
	photoTopY      = 626.0
)

// Field names baked into both template variants.
const (
	fieldDate           = "date-placeholder"
	fieldClientName     = "client-name-placeholder"
	fieldCertificateNum = "certificate-num-placeholder"
	fieldHeading        = "heading-placeholder"
	fieldOutcome        = "outcome-placeholder"
	fieldDetails        = "details-placeholder"
)

var requiredFields = []string{
	fieldDate,
	fieldClientName,
	fieldCertificateNum,
	fieldHeading,
	fieldOutcome,
	fieldDetails,
}

// ComposeInput carries everything the composer needs for one certificate.
type ComposeInput struct {
	Template      []byte
	QRImage       []byte
	CertificateID string
	Fields        map[string]string
	Photo         []byte
	Location      *time.Location
	Now           time.Time
}

// Compose fills the template's text fields, stamps the QR code and the photo,
// locks the form and returns the serialized document.
func Compose(in ComposeInput) ([]byte, error) {
	conf := model.NewDefaultConfiguration()
	// Some template exports declare encryption without any effective
	// restriction; relaxed validation lets them load.
	conf.ValidationMode = model.ValidationRelaxed

	pageWidth, pageHeight, err := firstPageDims(in.Template, conf)
	if err != nil {
		return nil, err
	}

	if err := verifyTemplateFields(in.Template, conf); err != nil {
		return nil, err
	}

	qrDesc := fmt.Sprintf("pos:bl, off:%d %.2f, scale:1 abs, rot:0", qrOffsetX, pageHeight-qrOffsetTop)
	out, err := stampImage(in.Template, in.QRImage, qrDesc, conf)
	if err != nil {
		return nil, fmt.Errorf("%w: stamping QR code: %v", apperr.ErrComposition, err)
	}

	out, err = fillFields(out, in, conf)
	if err != nil {
		return nil, err
	}

	if len(in.Photo) > 0 {
		out, err = stampPhoto(out, in.Photo, pageWidth, conf)
		if err != nil {
			return nil, err
		}
	}

	out, err = lockFields(out, conf)
	if err != nil {
		return nil, fmt.Errorf("%w: locking form fields: %v", apperr.ErrComposition, err)
	}
	return out, nil
}

// TemplateVariant maps the outcome field onto one of the two template
// variants. Anything other than the literal "true" selects not-authentic.
func TemplateVariant(outcome string) string {
	if outcome == "true" {
		return "authentic"
	}
	return "not-authentic"
}

// OutcomeText is the label rendered into the outcome field.
func OutcomeText(outcome string) string {
	if outcome == "true" {
		return "AUTHENTIC"
	}
	return "NOT AUTHENTIC"
}

// FitPhoto applies the template's two-pass constrained fit: cap the width
// first, then re-check the height against the already-width-scaled
// dimensions. Images inside both bounds pass through unchanged.
func FitPhoto(width, height float64) (float64, float64) {
	if width > photoMaxWidth {
		scale := photoMaxWidth / width
		width = photoMaxWidth
		height = height * scale
	}
	if height > photoMaxHeight {
		scale := photoMaxHeight / height
		height = photoMaxHeight
		width = width * scale
	}
	return width, height
}

// RenderDetails decodes the details JSON payload and renders it as one
// "name: value" line per pair, in input order.
func RenderDetails(detailsJSON string) (string, error) {
	var details []models.Detail
	if err := json.Unmarshal([]byte(detailsJSON), &details); err != nil {
		return "", fmt.Errorf("%w: decoding details payload: %v", apperr.ErrComposition, err)
	}
	var sb strings.Builder
	for _, d := range details {
		sb.WriteString(d.DetailName)
		sb.WriteString(": ")
		sb.WriteString(d.DetailValue)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

func firstPageDims(template []byte, conf *model.Configuration) (float64, float64, error) {
	dims, err := api.PageDims(bytes.NewReader(template), conf)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: reading page dimensions: %v", apperr.ErrTemplateLoad, err)
	}
	if len(dims) == 0 {
		return 0, 0, fmt.Errorf("%w: template has no pages", apperr.ErrTemplateSchema)
	}
	return dims[0].Width, dims[0].Height, nil
}

func verifyTemplateFields(template []byte, conf *model.Configuration) error {
	fields, err := api.FormFields(bytes.NewReader(template), conf)
	if err != nil {
		return fmt.Errorf("%w: reading form fields: %v", apperr.ErrTemplateLoad, err)
	}
	present := make(map[string]bool, len(fields))
	for _, f := range fields {
		present[f.ID] = true
		present[f.Name] = true
	}
	var missing []string
	for _, name := range requiredFields {
		if !present[name] {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: template is missing fields %v", apperr.ErrTemplateSchema, missing)
	}
	return nil
}

// pdfcpu form-fill JSON shape, matching "pdfcpu form fill".
type formTextField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type formPage struct {
	TextField []formTextField `json:"textfield"`
}

type formData struct {
	Forms []formPage `json:"forms"`
}

func fillFields(doc []byte, in ComposeInput, conf *model.Configuration) ([]byte, error) {
	values := []formTextField{
		{Name: fieldDate, Value: in.Now.In(in.Location).Format("Jan 2, 2006")},
		{Name: fieldClientName, Value: "To: " + in.Fields["clientName"]},
		{Name: fieldCertificateNum, Value: in.CertificateID},
		{Name: fieldHeading, Value: in.Fields["heading"]},
		{Name: fieldOutcome, Value: OutcomeText(in.Fields["outcome"])},
	}

	if details := in.Fields["details"]; strings.TrimSpace(details) != "" {
		rendered, err := RenderDetails(details)
		if err != nil {
			return nil, err
		}
		values = append(values, formTextField{Name: fieldDetails, Value: rendered})
	}

	payload, err := json.Marshal(formData{Forms: []formPage{{TextField: values}}})
	if err != nil {
		return nil, fmt.Errorf("%w: marshalling form data: %v", apperr.ErrComposition, err)
	}

	var buf bytes.Buffer
	if err := api.FillForm(bytes.NewReader(doc), bytes.NewReader(payload), &buf, conf); err != nil {
		return nil, fmt.Errorf("%w: filling form fields: %v", apperr.ErrComposition, err)
	}
	return buf.Bytes(), nil
}

func stampPhoto(doc, photo []byte, pageWidth float64, conf *model.Configuration) ([]byte, error) {
	imgCfg, _, err := image.DecodeConfig(bytes.NewReader(photo))
	if err != nil {
		return nil, fmt.Errorf("%w: decoding photo dimensions: %v", apperr.ErrComposition, err)
	}

	origWidth := float64(imgCfg.Width)
	origHeight := float64(imgCfg.Height)
	scaledWidth, scaledHeight := FitPhoto(origWidth, origHeight)
	factor := scaledWidth / origWidth

	offX := (pageWidth - scaledWidth) / 2
	offY := photoTopY - scaledHeight
	desc := fmt.Sprintf("pos:bl, off:%.2f %.2f, scale:%.4f abs, rot:0", offX, offY, factor)

	out, err := stampImage(doc, photo, desc, conf)
	if err != nil {
		return nil, fmt.Errorf("%w: stamping photo: %v", apperr.ErrComposition, err)
	}
	return out, nil
}

func stampImage(doc, img []byte, desc string, conf *model.Configuration) ([]byte, error) {
	wm, err := api.ImageWatermarkForReader(bytes.NewReader(img), desc, true, false, types.POINTS)
	if err != nil {
		return nil, fmt.Errorf("parsing watermark %q: %w", desc, err)
	}
	var buf bytes.Buffer
	if err := api.AddWatermarks(bytes.NewReader(doc), &buf, []string{"1"}, wm, conf); err != nil {
		return nil, fmt.Errorf("adding watermark: %w", err)
	}
	return buf.Bytes(), nil
}

func lockFields(doc []byte, conf *model.Configuration) ([]byte, error) {
	var buf bytes.Buffer
	if err := api.LockFormFields(bytes.NewReader(doc), &buf, nil, conf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
