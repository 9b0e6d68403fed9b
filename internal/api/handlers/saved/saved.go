package saved

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"recipe-assistant/internal/api/handlers"
	"recipe-assistant/internal/api/middleware"
	"recipe-assistant/internal/core/recipe"
	"recipe-assistant/internal/pkg/common"
	"recipe-assistant/internal/repository"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxRating = 5

// Store 收藏食譜的儲存操作
type Store interface {
	Save(ctx context.Context, recipe *repository.SavedRecipe) error
	Get(ctx context.Context, username, id string) (*repository.SavedRecipe, error)
	ListByUser(ctx context.Context, username string, opts repository.ListOptions) ([]repository.SavedRecipe, error)
	Annotate(ctx context.Context, username, id string, a repository.Annotation) (*repository.SavedRecipe, error)
	Delete(ctx context.Context, username, id string) error
	Search(ctx context.Context, username, query string) ([]repository.SavedRecipe, error)
	Statistics(ctx context.Context, username string) (*repository.Statistics, error)
}

// SaveRequest 收藏請求：生成結果與當時的請求內容
type SaveRequest struct {
	Recipe  recipe.RecipeRecord  `json:"recipe"`
	Request recipe.RecipeRequest `json:"request"`
	Tags    []string             `json:"tags"`
	Notes   string               `json:"notes"`
}

// AnnotateRequest 更新評分、標籤或筆記，未提供的欄位維持不變
type AnnotateRequest struct {
	Rating *int     `json:"rating"`
	Tags   []string `json:"tags"`
	Notes  *string  `json:"notes"`
}

// ListQuery 列表查詢參數
type ListQuery struct {
	Limit  int    `form:"limit"`
	Offset int    `form:"offset"`
	Sort   string `form:"sort"`
	Diet   string `form:"diet"`
}

// RecipeView 收藏食譜與其營養顯示列
type RecipeView struct {
	*repository.SavedRecipe
	NutritionRows []recipe.NutritionDisplayRow `json:"nutrition_rows"`
}

// Handler 收藏食譜處理程序
type Handler struct {
	store Store
}

// NewHandler 創建收藏食譜處理程序
func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// HandleSave 收藏一份生成的食譜
func (h *Handler) HandleSave(c *gin.Context) {
	var req SaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.BadRequest(c, err)
		return
	}
	if strings.TrimSpace(req.Recipe.Title) == "" {
		handlers.RespondError(c, common.NewValidationError("recipe title is required"))
		return
	}

	saved := toSavedRecipe(middleware.Username(c), req)
	if err := h.store.Save(c.Request.Context(), saved); err != nil {
		handlers.RespondError(c, err)
		return
	}

	common.LogInfo("收藏食譜",
		zap.String("username", saved.Username),
		zap.String("recipe_id", saved.ID),
	)
	c.JSON(http.StatusCreated, view(saved))
}

// HandleList 列出收藏
func (h *Handler) HandleList(c *gin.Context) {
	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		handlers.BadRequest(c, err)
		return
	}
	switch q.Sort {
	case "", repository.SortNewest, repository.SortOldest, repository.SortRating:
	default:
		handlers.RespondError(c, common.NewValidationError(fmt.Sprintf("unknown sort: %s", q.Sort)))
		return
	}

	recipes, err := h.store.ListByUser(c.Request.Context(), middleware.Username(c), repository.ListOptions{
		Limit:  q.Limit,
		Offset: q.Offset,
		Sort:   q.Sort,
		Diet:   q.Diet,
	})
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recipes": views(recipes)})
}

// HandleSearch 搜尋收藏
func (h *Handler) HandleSearch(c *gin.Context) {
	recipes, err := h.store.Search(c.Request.Context(), middleware.Username(c), c.Query("q"))
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recipes": views(recipes)})
}

// HandleStats 收藏統計
func (h *Handler) HandleStats(c *gin.Context) {
	stats, err := h.store.Statistics(c.Request.Context(), middleware.Username(c))
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// HandleGet 取得單一收藏
func (h *Handler) HandleGet(c *gin.Context) {
	saved, err := h.store.Get(c.Request.Context(), middleware.Username(c), c.Param("id"))
	if err != nil {
		handlers.RespondError(c, storeError(err))
		return
	}
	c.JSON(http.StatusOK, view(saved))
}

// HandleAnnotate 更新評分、標籤與筆記
func (h *Handler) HandleAnnotate(c *gin.Context) {
	var req AnnotateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.BadRequest(c, err)
		return
	}
	if req.Rating != nil && (*req.Rating < 0 || *req.Rating > maxRating) {
		handlers.RespondError(c, common.NewValidationError(fmt.Sprintf("rating must be between 0 and %d", maxRating)))
		return
	}

	saved, err := h.store.Annotate(c.Request.Context(), middleware.Username(c), c.Param("id"), repository.Annotation{
		Rating: req.Rating,
		Tags:   cleanTags(req.Tags),
		Notes:  req.Notes,
	})
	if err != nil {
		handlers.RespondError(c, storeError(err))
		return
	}
	c.JSON(http.StatusOK, view(saved))
}

// HandleDelete 刪除收藏
func (h *Handler) HandleDelete(c *gin.Context) {
	if err := h.store.Delete(c.Request.Context(), middleware.Username(c), c.Param("id")); err != nil {
		handlers.RespondError(c, storeError(err))
		return
	}
	c.Status(http.StatusNoContent)
}

func storeError(err error) error {
	if errors.Is(err, repository.ErrRecipeNotFound) {
		return common.ErrNotFound.Wrap(err)
	}
	return err
}

// toSavedRecipe 將生成結果與請求內容轉為資料表模型
func toSavedRecipe(username string, req SaveRequest) *repository.SavedRecipe {
	rec := req.Recipe
	request := req.Request
	request.Normalize()

	return &repository.SavedRecipe{
		Username:       username,
		Title:          strings.TrimSpace(rec.Title),
		Description:    rec.Description,
		Ingredients:    []string(rec.Ingredients),
		Instructions:   []string(rec.Instructions),
		Nutrition:      rec.Nutrition.Values,
		NutritionText:  rec.Nutrition.Text,
		Serves:         int(rec.Serves),
		PrepTime:       rec.PrepTime,
		CookTime:       rec.CookTime,
		Difficulty:     rec.Difficulty,
		IngredientText: request.Ingredients,
		Diet:           string(request.Diet),
		Goal:           string(request.Goal),
		Cuisine:        request.Cuisine,
		CookingTime:    request.CookingTime,
		Language:       request.Language,
		Tags:           cleanTags(req.Tags),
		Notes:          req.Notes,
	}
}

// cleanTags 去除空白與重複標籤，nil 表示未提供
func cleanTags(tags []string) []string {
	if tags == nil {
		return nil
	}
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}

func view(saved *repository.SavedRecipe) RecipeView {
	return RecipeView{
		SavedRecipe:   saved,
		NutritionRows: recipe.NutritionRows(recipe.Nutrition{Values: saved.Nutrition, Text: saved.NutritionText}),
	}
}

func views(recipes []repository.SavedRecipe) []RecipeView {
	out := make([]RecipeView, 0, len(recipes))
	for i := range recipes {
		out = append(out, view(&recipes[i]))
	}
	return out
}
