package image

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/jpeg"

	_ "image/gif" // 支援 GIF
	_ "image/png" // 支援 PNG

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // 支援 WebP
)

const jpegQuality = 85

// Processor 送往視覺模型前的圖片處理器
type Processor struct {
	maxSide int
}

// NewProcessor 創建圖片處理器，maxSide 為最長邊像素上限
func NewProcessor(maxSide int) *Processor {
	return &Processor{
		maxSide: maxSide,
	}
}

// Downscale 等比例縮小到最長邊不超過 maxSide，並重新編碼為 JPEG
func (p *Processor) Downscale(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, errors.New("image data is empty")
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := src.Bounds()
	width, height := scaledSize(bounds.Dx(), bounds.Dy(), p.maxSide)

	var img image.Image = src
	if width != bounds.Dx() || height != bounds.Dy() {
		dst := image.NewRGBA(image.Rect(0, 0, width, height))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
		img = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode image as JPEG: %w", err)
	}
	return buf.Bytes(), nil
}

// DataURL 縮圖後轉為 data URL
func (p *Processor) DataURL(data []byte) (string, error) {
	scaled, err := p.Downscale(data)
	if err != nil {
		return "", err
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(scaled), nil
}

func scaledSize(width, height, maxSide int) (int, int) {
	if maxSide <= 0 || (width <= maxSide && height <= maxSide) {
		return width, height
	}
	if width >= height {
		h := height * maxSide / width
		if h < 1 {
			h = 1
		}
		return maxSide, h
	}
	w := width * maxSide / height
	if w < 1 {
		w = 1
	}
	return w, maxSide
}
