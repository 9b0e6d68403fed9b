package recipe

import (
	"context"
	"strings"

	"recipe-assistant/internal/core/recipe"
)

// RecipeService 處理器依賴的食譜核心操作
type RecipeService interface {
	Recognize(ctx context.Context, images []recipe.ImageInput, language string) (*recipe.RecognitionOutcome, error)
	Generate(ctx context.Context, req recipe.RecipeRequest) (*recipe.RecipeRecord, error)
	SuggestNames(ctx context.Context, ingredients string) []string
}

// ImageDecoder 上傳圖片的解碼與驗證
type ImageDecoder interface {
	Decode(imageData string) ([]byte, error)
	Validate(data []byte) error
}

// getImageType 獲取圖片類型（用於日誌記錄）
func getImageType(image string) string {
	image = strings.TrimSpace(image)
	switch {
	case image == "":
		return "empty"
	case strings.HasPrefix(image, "http://"), strings.HasPrefix(image, "https://"):
		return "url"
	case strings.HasPrefix(image, "data:image/"):
		mime, _, ok := strings.Cut(strings.TrimPrefix(image, "data:image/"), ";base64,")
		if !ok {
			return "invalid_data_uri"
		}
		return "base64_data_uri_" + mime
	case strings.HasPrefix(image, "/9j/"):
		return "base64_jpeg"
	case strings.HasPrefix(image, "iVBORw0KGgo"):
		return "base64_png"
	default:
		return "base64"
	}
}
