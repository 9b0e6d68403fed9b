package image

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"strings"

	_ "image/gif"  // 支援 GIF
	_ "image/jpeg" // 支援 JPEG
	_ "image/png"  // 支援 PNG

	"recipe-assistant/internal/pkg/common"

	_ "golang.org/x/image/webp" // 支援 WebP
)

// Service 上傳圖片驗證服務
type Service struct {
	maxSizeBytes int64
}

// NewService 創建新的圖片處理服務
func NewService(maxSizeBytes int64) *Service {
	return &Service{
		maxSizeBytes: maxSizeBytes,
	}
}

// Decode 解析 data URL 或純 base64 字串並驗證圖片
func (s *Service) Decode(imageData string) ([]byte, error) {
	payload := strings.TrimSpace(imageData)
	if payload == "" {
		return nil, common.ErrInvalidImageFormat
	}

	// 處理 data URL 格式
	if strings.HasPrefix(payload, "data:") {
		idx := strings.Index(payload, ",")
		if idx < 0 || !strings.HasPrefix(payload, "data:image/") {
			return nil, common.ErrInvalidImageFormat
		}
		payload = payload[idx+1:]
	}

	decoded, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		decoded, err = base64.RawStdEncoding.DecodeString(payload)
		if err != nil {
			return nil, common.ErrInvalidImageFormat.Wrap(fmt.Errorf("failed to decode base64 data: %w", err))
		}
	}

	if err := s.Validate(decoded); err != nil {
		return nil, err
	}
	return decoded, nil
}

// Validate 檢查大小與格式
func (s *Service) Validate(data []byte) error {
	if s.maxSizeBytes > 0 && int64(len(data)) > s.maxSizeBytes {
		return common.ErrInvalidImageSize
	}

	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return common.ErrInvalidImageFormat.Wrap(fmt.Errorf("failed to decode image: %w", err))
	}

	// 檢查圖片格式
	if !isSupportedFormat(format) {
		return common.ErrInvalidImageFormat.Wrap(fmt.Errorf("unsupported image format: %s", format))
	}
	return nil
}

// isSupportedFormat 檢查圖片格式是否支援
func isSupportedFormat(format string) bool {
	supportedFormats := map[string]bool{
		"jpeg": true,
		"png":  true,
		"gif":  true,
		"webp": true,
	}
	return supportedFormats[format]
}
