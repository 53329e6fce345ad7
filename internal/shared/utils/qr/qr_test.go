package qr

import (
	"bytes"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

func TestEncodeDataURL(t *testing.T) {
	enc := NewEncoder(DefaultSize)

	payload := map[string]string{
		"reservation_code": "RSV-20260831-X7K2QD",
		"seat_info":        "MAIN C-4",
	}
	out, err := enc.Encode(payload)
	require.NoError(t, err)

	const prefix = "data:image/png;base64,"
	require.True(t, strings.HasPrefix(out, prefix), "output must be an embeddable data URL")

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(out, prefix))
	require.NoError(t, err, "the payload after the prefix must be valid base64")
	assert.True(t, bytes.HasPrefix(raw, pngMagic), "decoded bytes must be a PNG image")
}

func TestEncodeDeterministic(t *testing.T) {
	enc := NewEncoder(DefaultSize)
	payload := map[string]string{"reservation_code": "RSV-20260831-X7K2QD"}

	first, err := enc.Encode(payload)
	require.NoError(t, err)
	second, err := enc.Encode(payload)
	require.NoError(t, err)
	assert.Equal(t, first, second, "same payload must render the same image")
}

func TestNewEncoderDefaultsInvalidSize(t *testing.T) {
	enc := NewEncoder(0)
	out, err := enc.Encode("ping")
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestEncodeRejectsUnmarshalablePayload(t *testing.T) {
	enc := NewEncoder(DefaultSize)
	_, err := enc.Encode(func() {})
	assert.Error(t, err, "a payload json cannot marshal must fail, not panic")
}
