package recipe

import (
	"context"
	"errors"
	"testing"

	"recipe-assistant/internal/core/ai/provider"

	"github.com/stretchr/testify/assert"
)

func TestSuggestNames(t *testing.T) {
	stub := &stubCompleter{fn: func(ctx context.Context, req *provider.Request) (*provider.Response, error) {
		assert.Equal(t, 150, req.MaxTokens)
		assert.Equal(t, 1.0, req.Temperature)
		assert.Contains(t, req.Messages[1].Content, "tofu, spinach")
		return &provider.Response{Content: "1. Silky Tofu Garden\n- **Spinach Cloud Bowl**\n\n\"Jade Tofu Stir-Fry\"\nExtra Name"}, nil
	}}
	svc := NewSuggestionService(stub)

	names := svc.SuggestNames(context.Background(), "tofu, spinach")
	assert.Equal(t, []string{"Silky Tofu Garden", "Spinach Cloud Bowl", "Jade Tofu Stir-Fry"}, names)
}

func TestSuggestNamesFallback(t *testing.T) {
	failing := &stubCompleter{fn: func(context.Context, *provider.Request) (*provider.Response, error) {
		return nil, errors.New("upstream down")
	}}
	blank := &stubCompleter{fn: reply("\n  \n")}

	for name, stub := range map[string]*stubCompleter{"error": failing, "blank": blank} {
		t.Run(name, func(t *testing.T) {
			svc := NewSuggestionService(stub)
			names := svc.SuggestNames(context.Background(), " chicken breast , rice")
			assert.Equal(t, []string{"Delicious Chicken Breast Dish"}, names)
		})
	}

	svc := NewSuggestionService(failing)
	assert.Empty(t, svc.SuggestNames(context.Background(), "   "))
}

func TestLuckyIngredients(t *testing.T) {
	for i := 0; i < 20; i++ {
		assert.Contains(t, luckyPresets, LuckyIngredients())
	}
}
