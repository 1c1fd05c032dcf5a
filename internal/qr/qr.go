// Package qr renders verification-page URLs as PNG images sized for the
// certificate template's QR region.
package qr

import (
	"fmt"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/veridoc/certificateflow/internal/apperr"
)

// Size is the QR edge length in pixels. The template reserves a square of the
// same number of points, so the image is stamped at its natural size.
const Size = 115

// Encode returns a Size x Size PNG encoding the given URL.
func Encode(url string) ([]byte, error) {
	png, err := qrcode.Encode(url, qrcode.Medium, Size)
	if err != nil {
		return nil, fmt.Errorf("%w: encoding QR for %q: %v", apperr.ErrComposition, url, err)
	}
	return png, nil
}
