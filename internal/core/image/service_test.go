package image

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/png"
	"testing"

	"recipe-assistant/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))))
	return buf.Bytes()
}

func TestDecodeDataURLAndBareBase64(t *testing.T) {
	s := NewService(1 << 20)
	raw := samplePNG(t)
	encoded := base64.StdEncoding.EncodeToString(raw)

	got, err := s.Decode("data:image/png;base64," + encoded)
	require.NoError(t, err)
	assert.Equal(t, raw, got)

	got, err = s.Decode(encoded)
	require.NoError(t, err)
	assert.Equal(t, raw, got)
}

func TestDecodeRejectsInvalidInput(t *testing.T) {
	s := NewService(1 << 20)

	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"not base64", "%%%"},
		{"not an image", base64.StdEncoding.EncodeToString([]byte("hello"))},
		{"non-image data url", "data:text/plain;base64,aGVsbG8="},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Decode(tt.input)
			assert.ErrorIs(t, err, common.ErrInvalidImageFormat)
		})
	}
}

func TestDecodeEnforcesSizeLimit(t *testing.T) {
	s := NewService(10)
	_, err := s.Decode(base64.StdEncoding.EncodeToString(samplePNG(t)))
	assert.ErrorIs(t, err, common.ErrInvalidImageSize)
}
