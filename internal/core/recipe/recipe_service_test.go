package recipe

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"recipe-assistant/internal/core/ai/completion"
	"recipe-assistant/internal/core/ai/provider"
	aiservice "recipe-assistant/internal/core/ai/service"
	"recipe-assistant/internal/infrastructure/config"
	"recipe-assistant/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var generationConfig = config.ProviderConfig{
	Model:       "deepseek-chat",
	MaxTokens:   2000,
	Temperature: 1.0,
	Timeout:     5 * time.Second,
}

// newGenerationServer 以 httptest 模擬 chat completions 端點
func newGenerationServer(t *testing.T, status int, content string, inspect func(body map[string]any)) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		raw, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		var body map[string]any
		assert.NoError(t, json.Unmarshal(raw, &body))
		if inspect != nil {
			inspect(body)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error": {"message": "upstream unavailable"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{
				"message":       map[string]string{"role": "assistant", "content": content},
				"finish_reason": "stop",
			}},
		})
	}))
	t.Cleanup(server.Close)
	return server
}

func newHTTPRecipeService(serverURL, apiKey string) *RecipeService {
	client := completion.NewClient(provider.Config{
		Name:    "generation",
		APIKey:  apiKey,
		BaseURL: serverURL,
		Model:   generationConfig.Model,
		Timeout: generationConfig.Timeout,
	})
	return NewRecipeService(aiservice.NewService("generation", client, nil, nil), generationConfig)
}

func loadFixture(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile("testdata/generated_recipe.txt")
	require.NoError(t, err)
	return string(data)
}

func TestGenerateEndToEnd(t *testing.T) {
	server := newGenerationServer(t, http.StatusOK, loadFixture(t), func(body map[string]any) {
		assert.Equal(t, "deepseek-chat", body["model"])
		assert.EqualValues(t, 2000, body["max_tokens"])
		assert.EqualValues(t, 1.0, body["temperature"])

		messages, ok := body["messages"].([]any)
		if !assert.True(t, ok) || !assert.Len(t, messages, 2) {
			return
		}
		system := messages[0].(map[string]any)
		user := messages[1].(map[string]any)
		assert.Equal(t, "system", system["role"])
		prompt, _ := user["content"].(string)
		assert.Contains(t, prompt, "chicken breast, broccoli")
		assert.Contains(t, prompt, "high-protein")
		assert.Contains(t, prompt, "muscle-gain")
		assert.Contains(t, prompt, "Serves exactly 2 people")
		assert.Contains(t, prompt, "```json")
	})

	svc := newHTTPRecipeService(server.URL, "test-key")
	record, err := svc.Generate(context.Background(), RecipeRequest{
		Ingredients: "chicken breast, broccoli",
		Diet:        DietHighProtein,
		Goal:        GoalMuscleGain,
		Servings:    2,
	})
	require.NoError(t, err)

	assert.Equal(t, "Mediterranean Garlic Herb Chicken with Roasted Broccoli", record.Title)
	assert.Equal(t, Servings(2), record.Serves)
	assert.Len(t, record.Ingredients, 7)
	assert.Len(t, record.Instructions, 5)

	rows := rowValues(record.NutritionRows())
	assert.Len(t, record.NutritionRows(), 10)
	assert.Equal(t, "320 kcal", rows["Calories"])
	assert.Equal(t, "42 g", rows["Protein"])
	assert.Equal(t, "2.1 mg", rows["Iron"])

	score, ok := NutritionScore(record.Nutrition, GoalMuscleGain)
	assert.True(t, ok)
	assert.Equal(t, 100.0, score)
}

func TestGenerateUpstreamFailure(t *testing.T) {
	server := newGenerationServer(t, http.StatusInternalServerError, "", nil)
	svc := newHTTPRecipeService(server.URL, "test-key")

	_, err := svc.Generate(context.Background(), RecipeRequest{Ingredients: "egg"})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrGenerationUnavailable)

	var apiErr *completion.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
}

func TestGenerateParseFailure(t *testing.T) {
	server := newGenerationServer(t, http.StatusOK, "Sorry, I cannot help with that.", nil)
	svc := newHTTPRecipeService(server.URL, "test-key")

	_, err := svc.Generate(context.Background(), RecipeRequest{Ingredients: "egg"})
	assert.ErrorIs(t, err, common.ErrGenerationParse)
	assert.Contains(t, err.Error(), "could not parse generated recipe, please retry")
}

func TestGenerateMissingCredentials(t *testing.T) {
	hit := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hit = true
	}))
	defer server.Close()

	svc := newHTTPRecipeService(server.URL, "")
	_, err := svc.Generate(context.Background(), RecipeRequest{Ingredients: "egg"})
	assert.ErrorIs(t, err, common.ErrMissingCredentials)
	assert.False(t, hit)
}

func TestGenerateDefaultsServes(t *testing.T) {
	stub := &stubCompleter{fn: reply("```json\n{\"title\": \"Omelette\", \"ingredients\": [\"2 eggs\"], \"instructions\": \"Beat the eggs.\\nCook gently.\", \"nutrition\": \"Calories: 180 kcal\"}\n```")}
	svc := NewRecipeService(stub, generationConfig)

	record, err := svc.Generate(context.Background(), RecipeRequest{Ingredients: "egg", Servings: 3})
	require.NoError(t, err)
	assert.Equal(t, Servings(3), record.Serves)
	assert.Equal(t, TextList{"Beat the eggs.", "Cook gently."}, record.Instructions)
	assert.Equal(t, "180 kcal", rowValues(record.NutritionRows())["Calories"])
}

func TestGenerateRejectsRecipeWithoutTitle(t *testing.T) {
	stub := &stubCompleter{fn: reply("```json\n{\"description\": \"untitled\"}\n```")}
	svc := NewRecipeService(stub, generationConfig)

	_, err := svc.Generate(context.Background(), RecipeRequest{Ingredients: "egg"})
	assert.ErrorIs(t, err, common.ErrGenerationParse)
}

func TestGenerateValidation(t *testing.T) {
	tests := []struct {
		name string
		req  RecipeRequest
	}{
		{"missing ingredients", RecipeRequest{Ingredients: "  "}},
		{"unknown diet", RecipeRequest{Ingredients: "egg", Diet: "carnivore"}},
		{"unknown goal", RecipeRequest{Ingredients: "egg", Goal: "longevity"}},
		{"too many servings", RecipeRequest{Ingredients: "egg", Servings: 11}},
		{"negative servings", RecipeRequest{Ingredients: "egg", Servings: -1}},
		{"unknown cuisine", RecipeRequest{Ingredients: "egg", Cuisine: "martian"}},
		{"odd cooking time", RecipeRequest{Ingredients: "egg", CookingTime: 20}},
		{"unknown difficulty", RecipeRequest{Ingredients: "egg", Difficulty: "extreme"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubCompleter{fn: reply("")}
			svc := NewRecipeService(stub, generationConfig)

			_, err := svc.Generate(context.Background(), tt.req)
			assert.True(t, common.IsValidationError(err), "got %v", err)
			assert.Equal(t, 0, stub.Calls())
		})
	}
}

func TestBuildRecipePrompt(t *testing.T) {
	req := RecipeRequest{
		Ingredients: "tofu, mushrooms",
		Diet:        DietVegan,
		Goal:        GoalHeartHealth,
		Language:    "zh-tw",
		Cuisine:     "japanese",
		CookingTime: 30,
		Difficulty:  "easy",
		Servings:    4,
	}
	prompt := buildRecipePrompt(req)

	for _, want := range []string{
		"tofu, mushrooms",
		"Dietary preference: vegan",
		"Low sodium",
		"Cuisine style: japanese",
		"30 minutes",
		"Difficulty level: easy",
		"Serves exactly 4 people",
		"Traditional Chinese",
		"in English",
		`"serves": 4`,
	} {
		assert.Contains(t, prompt, want)
	}
	for _, n := range nutrients {
		assert.Contains(t, prompt, `"`+n.Key+`"`)
	}
	assert.Equal(t, 2, strings.Count(prompt, "```"))
}
