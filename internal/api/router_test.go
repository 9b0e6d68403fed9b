package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"recipe-assistant/internal/api/handlers/health"
	"recipe-assistant/internal/core/ai/queue"
	"recipe-assistant/internal/core/auth"
	"recipe-assistant/internal/core/image"
	"recipe-assistant/internal/core/recipe"
	"recipe-assistant/internal/infrastructure/config"
	"recipe-assistant/internal/infrastructure/database"
	"recipe-assistant/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeRecipes struct{}

func (fakeRecipes) Recognize(_ context.Context, images []recipe.ImageInput, _ string) (*recipe.RecognitionOutcome, error) {
	return &recipe.RecognitionOutcome{Results: map[string]*recipe.IngredientRecognitionResult{}, Ingredients: []string{}}, nil
}

func (fakeRecipes) Generate(_ context.Context, req recipe.RecipeRequest) (*recipe.RecipeRecord, error) {
	return &recipe.RecipeRecord{Title: "Test Dish", Ingredients: recipe.TextList{req.Ingredients}, Serves: 2}, nil
}

func (fakeRecipes) SuggestNames(context.Context, string) []string {
	return []string{"Test Dish"}
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	cfg := &config.Config{
		App:         config.AppConfig{Debug: true, Version: "test"},
		Server:      config.ServerConfig{RequestTimeout: 5 * time.Second, MaxBodyBytes: 1 << 20},
		Image:       config.ImageConfig{MaxSizeBytes: 1 << 20, MaxImages: 5},
		Queue:       config.QueueConfig{Workers: 1, MaxSize: 1},
		DedupWindow: time.Nanosecond,
	}

	db, err := database.InitDB(config.DatabaseConfig{
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "router.db"),
	}, false, repository.Models()...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	accounts := auth.NewService(repository.NewUserRepository(db), config.AuthConfig{JWTSecret: "secret", TokenTTL: time.Hour})
	require.NoError(t, accounts.EnsureDemoUser(context.Background()))

	return SetupRouter(cfg, Dependencies{
		Recipes:  fakeRecipes{},
		Images:   image.NewService(cfg.Image.MaxSizeBytes),
		Saved:    repository.NewRecipeRepository(db),
		Accounts: accounts,
		Queue:    queue.NewManager(cfg.Queue),
		Ready: map[string]health.Pinger{
			"database": func(ctx context.Context) error { return database.Ping(ctx, db) },
		},
	})
}

func request(r http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRouterOperationalEndpoints(t *testing.T) {
	r := newTestRouter(t)

	assert.Equal(t, http.StatusOK, request(r, http.MethodGet, "/health", "", nil).Code)
	assert.Equal(t, http.StatusOK, request(r, http.MethodGet, "/ready", "", nil).Code)
	assert.Equal(t, http.StatusOK, request(r, http.MethodGet, "/live", "", nil).Code)

	w := request(r, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "recipe_assistant_http_requests_total")

	w = request(r, http.MethodGet, "/api/v1/recipe/lucky", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRouterSavedRecipeFlow(t *testing.T) {
	r := newTestRouter(t)

	assert.Equal(t, http.StatusUnauthorized, request(r, http.MethodGet, "/api/v1/recipes", "", nil).Code)

	w := request(r, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": auth.DemoUsername,
		"password": auth.DemoPassword,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var session auth.Session
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &session))

	w = request(r, http.MethodPost, "/api/v1/recipe/generate", "", map[string]string{"ingredients": "eggs"})
	require.Equal(t, http.StatusOK, w.Code)
	var generated struct {
		Recipe json.RawMessage `json:"recipe"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &generated))

	w = request(r, http.MethodPost, "/api/v1/recipes", session.Token, map[string]interface{}{
		"recipe":  generated.Recipe,
		"request": map[string]string{"ingredients": "eggs"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = request(r, http.MethodGet, "/api/v1/recipes/search?q=test", session.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Test Dish")
}
