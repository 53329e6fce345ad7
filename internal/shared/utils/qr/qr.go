package qr

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/skip2/go-qrcode"
)

// Standard QR size for email-embedded ticket codes.
const DefaultSize = 300

// Encoder turns a ticket payload into a PNG data URL that can be embedded
// directly in HTML (<img src="...">). Pure function, no side effects.
type Encoder interface {
	Encode(payload interface{}) (string, error)
}

type encoder struct {
	size int
}

// NewEncoder creates a QR encoder emitting PNGs of the given pixel size.
func NewEncoder(size int) Encoder {
	if size <= 0 {
		size = DefaultSize
	}
	return &encoder{size: size}
}

func (e *encoder) Encode(payload interface{}) (string, error) {
	text, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal QR payload: %w", err)
	}

	// Medium error correction (15% recovery), matches standard readers.
	code, err := qrcode.New(string(text), qrcode.Medium)
	if err != nil {
		return "", fmt.Errorf("failed to generate QR code: %w", err)
	}

	png, err := code.PNG(e.size)
	if err != nil {
		return "", fmt.Errorf("failed to encode QR to PNG: %w", err)
	}

	return fmt.Sprintf("data:image/png;base64,%s", base64.StdEncoding.EncodeToString(png)), nil
}
