package image

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 100, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDownscaleLimitsLongestSide(t *testing.T) {
	p := NewProcessor(100)

	out, err := p.Downscale(pngBytes(t, 400, 200))
	require.NoError(t, err)

	cfg, format, err := image.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 100, cfg.Width)
	assert.Equal(t, 50, cfg.Height)
}

func TestDownscaleKeepsSmallImages(t *testing.T) {
	p := NewProcessor(800)

	out, err := p.Downscale(pngBytes(t, 30, 60))
	require.NoError(t, err)

	cfg, _, err := image.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.Width)
	assert.Equal(t, 60, cfg.Height)
}

func TestDownscaleRejectsGarbage(t *testing.T) {
	p := NewProcessor(800)

	_, err := p.Downscale(nil)
	assert.Error(t, err)

	_, err = p.Downscale([]byte("not an image"))
	assert.Error(t, err)
}

func TestDataURL(t *testing.T) {
	p := NewProcessor(50)

	url, err := p.DataURL(pngBytes(t, 10, 10))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(url, "data:image/jpeg;base64,"))

	_, err = base64.StdEncoding.DecodeString(strings.TrimPrefix(url, "data:image/jpeg;base64,"))
	assert.NoError(t, err)
}

func TestScaledSize(t *testing.T) {
	w, h := scaledSize(1600, 1200, 800)
	assert.Equal(t, 800, w)
	assert.Equal(t, 600, h)

	w, h = scaledSize(1000, 2000, 800)
	assert.Equal(t, 400, w)
	assert.Equal(t, 800, h)

	w, h = scaledSize(5000, 1, 800)
	assert.Equal(t, 800, w)
	assert.Equal(t, 1, h)
}
