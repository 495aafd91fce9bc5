package imagepkg

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"strings"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/evade6ix/gundamwebsite/internal/apperrors"
)

// QR edge lengths in pixels.
const (
	DefaultQRSize = 400
	MaxQRSize     = 2048
)

// GenerateQRPNG returns PNG bytes of a QR code for text, typically a share URL.
func GenerateQRPNG(text string, size int) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apperrors.Validation("qr text is empty")
	}
	if size <= 0 {
		size = DefaultQRSize
	}
	if size > MaxQRSize {
		return nil, apperrors.Validation(fmt.Sprintf("qr size %d exceeds %d", size, MaxQRSize))
	}
	b, err := qrcode.Encode(text, qrcode.Medium, size)
	if err != nil {
		return nil, apperrors.Validation("encode qr: " + err.Error())
	}
	return b, nil
}

// GenerateQRImage returns the QR code as an image for composition.
func GenerateQRImage(text string, size int) (image.Image, error) {
	b, err := GenerateQRPNG(text, size)
	if err != nil {
		return nil, err
	}
	return png.Decode(bytes.NewReader(b))
}
