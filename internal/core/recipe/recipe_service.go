package recipe

import (
	"context"
	"fmt"
	"strings"

	"recipe-assistant/internal/core/ai/provider"
	"recipe-assistant/internal/infrastructure/config"
	"recipe-assistant/internal/infrastructure/metrics"
	"recipe-assistant/internal/pkg/common"
	"recipe-assistant/internal/pkg/lenient"

	"go.uber.org/zap"
)

const generationSystemPrompt = `You are a world-class chef and nutritionist. You create restaurant-quality recipes that are adapted for home cooking. Your recipes are known for being both delicious and nutritionally optimized. You always provide accurate nutritional information and helpful cooking tips. Format your responses exactly as requested, using clear structure and specific measurements.`

// goalGuidance 各健康目標的調整方向
var goalGuidance = map[HealthGoal]string{
	GoalWeightLoss:  "Lower calories, high fiber, lean proteins",
	GoalMuscleGain:  "High protein, moderate carbs, healthy fats",
	GoalEnergy:      "Complex carbs, B-vitamins, steady energy release",
	GoalDigestion:   "High fiber, fermented or gut-friendly ingredients, gentle cooking methods",
	GoalImmunity:    "Vitamin C, zinc, colourful vegetables and aromatics",
	GoalHeartHealth: "Low sodium, omega-3 fatty acids, minimal saturated fat",
}

// RecipeService 食譜生成服務
// --------------------------------------------------
type RecipeService struct {
	ai          Completer
	maxTokens   int
	temperature float64
	topP        float64
}

// NewRecipeService 創建新的食譜生成服務
func NewRecipeService(ai Completer, cfg config.ProviderConfig) *RecipeService {
	return &RecipeService{
		ai:          ai,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		topP:        cfg.TopP,
	}
}

// Generate 根據食材與限制生成一份結構化食譜
//
// 上游失敗回傳 ErrGenerationUnavailable，模型回應無法解析回傳
// ErrGenerationParse，兩者都可由使用者重新送出同一請求。
func (s *RecipeService) Generate(ctx context.Context, req RecipeRequest) (*RecipeRecord, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := s.ai.CheckCredentials(); err != nil {
		return nil, err
	}

	resp, err := s.ai.ProcessRequest(ctx, &provider.Request{
		Messages: []provider.Message{
			{Role: provider.RoleSystem, Content: generationSystemPrompt},
			{Role: provider.RoleUser, Content: buildRecipePrompt(req)},
		},
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
		TopP:        s.topP,
	})
	if err != nil {
		metrics.GenerationOutcomes.WithLabelValues("unavailable").Inc()
		common.LogError("Recipe generation request failed", zap.Error(err))
		return nil, common.ErrGenerationUnavailable.Wrap(err)
	}

	common.LogDebug("AI 回應內容 (recipe/generate)",
		zap.Int("ai_response_length", len(resp.Content)),
	)

	var record RecipeRecord
	if err := lenient.Object(resp.Content, &record); err != nil {
		metrics.GenerationOutcomes.WithLabelValues("parse_failed").Inc()
		common.LogWarn("Failed to parse generated recipe",
			zap.Error(err),
			zap.Int("ai_response_length", len(resp.Content)),
		)
		return nil, common.ErrGenerationParse.Wrap(err)
	}

	if strings.TrimSpace(record.Title) == "" {
		metrics.GenerationOutcomes.WithLabelValues("parse_failed").Inc()
		return nil, common.ErrGenerationParse.Wrap(fmt.Errorf("generated recipe has no title"))
	}
	if record.Serves <= 0 {
		record.Serves = Servings(req.Servings)
	}

	metrics.GenerationOutcomes.WithLabelValues("success").Inc()
	common.LogInfo("Recipe generated",
		zap.String("title", record.Title),
		zap.Int("ingredients_count", len(record.Ingredients)),
		zap.Int("steps_count", len(record.Instructions)),
	)
	return &record, nil
}

// buildRecipePrompt 組出含所有限制與 JSON 結構的提示詞
func buildRecipePrompt(req RecipeRequest) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Create a detailed, creative recipe using these ingredients: %s.\n\n", req.Ingredients)
	b.WriteString("Requirements:\n")
	if req.Diet != DietNone {
		fmt.Fprintf(&b, "- Dietary preference: %s. The recipe must strictly adhere to it.\n", req.Diet)
	}
	if req.Goal != GoalNone {
		fmt.Fprintf(&b, "- Health goal: %s. Optimize the recipe accordingly: %s.\n", req.Goal, goalGuidance[req.Goal])
	} else {
		b.WriteString("- Focus on balanced, general nutrition.\n")
	}
	if req.Cuisine != "" {
		fmt.Fprintf(&b, "- Cuisine style: %s.\n", req.Cuisine)
	}
	if req.CookingTime > 0 {
		fmt.Fprintf(&b, "- Total cooking time should not exceed %d minutes.\n", req.CookingTime)
	}
	if req.Difficulty != "" {
		fmt.Fprintf(&b, "- Difficulty level: %s.\n", req.Difficulty)
	}
	fmt.Fprintf(&b, "- Serves exactly %d people; scale quantities accordingly.\n", req.Servings)
	b.WriteString("- Recipe should be practical and achievable for home cooks.\n")
	b.WriteString("- Base nutritional estimates per serving on standard USDA data.\n\n")

	fmt.Fprintf(&b, "Write every human-readable value (title, description, ingredients, instructions, times, difficulty, nutrition values) in %s. ", common.LanguageName(req.Language))
	b.WriteString("Always keep the JSON field names exactly as shown below, in English.\n\n")
	b.WriteString("Return exactly one JSON object inside a fenced json code block, with this structure:\n")
	b.WriteString("```json\n")
	b.WriteString(`{
  "title": "Creative, appetizing recipe name",
  "description": "One or two sentences describing the dish",
  "ingredients": ["ingredient with specific quantity"],
  "instructions": ["detailed step with technique, timing and heat level"],
  "nutrition": {
`)
	for i, n := range nutrients {
		sep := ","
		if i == len(nutrients)-1 {
			sep = ""
		}
		fmt.Fprintf(&b, "    %q: \"amount with unit, e.g. %s\"%s\n", n.Key, n.Example, sep)
	}
	fmt.Fprintf(&b, `  },
  "serves": %d,
  "prep_time": "e.g. 10 minutes",
  "cook_time": "e.g. 20 minutes",
  "difficulty": "Easy | Medium | Hard"
}
`, req.Servings)
	b.WriteString("```\n")
	b.WriteString("Do not add any text outside the fenced block.")

	return b.String()
}
