package recipe

import (
	"context"

	"recipe-assistant/internal/core/ai/image"
	"recipe-assistant/internal/core/ai/provider"
	"recipe-assistant/internal/infrastructure/config"
)

// Completer 送出 chat completion 的能力，由 ai/service.Service 實作
type Completer interface {
	ProcessRequest(ctx context.Context, req *provider.Request) (*provider.Response, error)
	CheckCredentials() error
}

// Service 食譜核心的對外入口：辨識、生成、營養資訊與推薦
type Service struct {
	ingredients *IngredientService
	recipes     *RecipeService
	suggestions *SuggestionService
}

// NewService 創建新的食譜服務
func NewService(vision, generation Completer, cfg *config.Config) *Service {
	processor := image.NewProcessor(cfg.Recognition.MaxImageSide)
	return &Service{
		ingredients: NewIngredientService(vision, processor, cfg.Recognition, cfg.Vision),
		recipes:     NewRecipeService(generation, cfg.Generation),
		suggestions: NewSuggestionService(generation),
	}
}

// Recognize 辨識一批圖片並合併成單一食材列表
func (s *Service) Recognize(ctx context.Context, images []ImageInput, language string) (*RecognitionOutcome, error) {
	return s.ingredients.Recognize(ctx, images, language)
}

// Generate 生成食譜
func (s *Service) Generate(ctx context.Context, req RecipeRequest) (*RecipeRecord, error) {
	return s.recipes.Generate(ctx, req)
}

// SuggestNames 推薦食譜名稱
func (s *Service) SuggestNames(ctx context.Context, ingredients string) []string {
	return s.suggestions.SuggestNames(ctx, ingredients)
}

// NutritionRows 食譜的十列營養資訊
func (r *RecipeRecord) NutritionRows() []NutritionDisplayRow {
	return NutritionRows(r.Nutrition)
}
