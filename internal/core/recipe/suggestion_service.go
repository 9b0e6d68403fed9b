package recipe

import (
	"context"
	"fmt"
	"math/rand"
	"regexp"
	"strings"

	"recipe-assistant/internal/core/ai/provider"
	"recipe-assistant/internal/pkg/common"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	suggestionCount       = 3
	suggestionMaxTokens   = 150
	suggestionTemperature = 1.0
)

// luckyPresets 「手氣不錯」的預設食材組合
var luckyPresets = []string{
	"鸡胸肉, 西兰花, 胡萝卜",
	"豆腐, 香菇, 青菜",
	"三文鱼, 芦笋, 柠檬",
	"牛肉, 土豆, 洋葱",
	"虾, 黄瓜, 番茄",
}

var listMarkerPattern = regexp.MustCompile(`^\s*(?:[-*•]|\d+[.)、])\s*`)

// SuggestionService 食譜名稱推薦服務
type SuggestionService struct {
	ai Completer
}

// NewSuggestionService 創建新的食譜推薦服務
func NewSuggestionService(ai Completer) *SuggestionService {
	return &SuggestionService{ai: ai}
}

// SuggestNames 依食材推薦三個食譜名稱，任何失敗都退回以第一個食材組成的名稱
func (s *SuggestionService) SuggestNames(ctx context.Context, ingredients string) []string {
	ingredients = strings.TrimSpace(ingredients)
	if ingredients == "" {
		return []string{}
	}

	resp, err := s.ai.ProcessRequest(ctx, &provider.Request{
		Messages: []provider.Message{
			{Role: provider.RoleSystem, Content: "You are a creative chef who suggests innovative recipe names."},
			{Role: provider.RoleUser, Content: fmt.Sprintf(
				"Based on these ingredients: %s\n\nSuggest %d creative recipe names that could be made with these ingredients.\nRespond with just the names, one per line, no additional formatting.",
				ingredients, suggestionCount)},
		},
		MaxTokens:   suggestionMaxTokens,
		Temperature: suggestionTemperature,
	})
	if err != nil {
		common.LogWarn("Recipe name suggestion failed, using fallback", zap.Error(err))
		return []string{fallbackName(ingredients)}
	}

	names := parseSuggestions(resp.Content)
	if len(names) == 0 {
		return []string{fallbackName(ingredients)}
	}
	return names
}

// parseSuggestions 每行一個名稱，去掉編號、清單符號與引號
func parseSuggestions(content string) []string {
	var names []string
	for _, line := range strings.Split(content, "\n") {
		line = listMarkerPattern.ReplaceAllString(line, "")
		line = strings.Trim(strings.TrimSpace(line), `"*`)
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		names = append(names, line)
		if len(names) == suggestionCount {
			break
		}
	}
	return names
}

// fallbackName 以第一個食材組成 "Delicious Xxx Dish"
func fallbackName(ingredients string) string {
	parts := strings.FieldsFunc(ingredients, func(r rune) bool {
		return r == ',' || r == '，' || r == '、'
	})
	first := ""
	if len(parts) > 0 {
		first = strings.TrimSpace(parts[0])
	}
	return fmt.Sprintf("Delicious %s Dish", cases.Title(language.Und).String(first))
}

// LuckyIngredients 隨機回傳一組預設食材
func LuckyIngredients() string {
	return luckyPresets[rand.Intn(len(luckyPresets))]
}
