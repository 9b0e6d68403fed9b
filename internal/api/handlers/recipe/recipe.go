package recipe

import (
	"encoding/json"
	"net/http"
	"strings"

	"recipe-assistant/internal/api/handlers"
	"recipe-assistant/internal/core/recipe"
	"recipe-assistant/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// GenerateResponse 食譜生成響應
type GenerateResponse struct {
	Recipe         *recipe.RecipeRecord         `json:"recipe"`
	NutritionRows  []recipe.NutritionDisplayRow `json:"nutrition_rows"`
	NutritionScore *float64                     `json:"nutrition_score,omitempty"`
}

// NutritionRequest 任意營養資料的顯示請求
type NutritionRequest struct {
	Nutrition json.RawMessage   `json:"nutrition"`
	Goal      recipe.HealthGoal `json:"goal"`
}

// NutritionResponse 營養顯示響應
type NutritionResponse struct {
	Rows  []recipe.NutritionDisplayRow `json:"rows"`
	Score *float64                     `json:"score,omitempty"`
}

// SuggestRequest 食譜名稱推薦請求
type SuggestRequest struct {
	Ingredients string `json:"ingredients"`
}

// Handler 食譜處理程序
type Handler struct {
	recipes   RecipeService
	images    ImageDecoder
	maxImages int
}

// NewHandler 創建新的食譜處理程序
func NewHandler(recipes RecipeService, images ImageDecoder, maxImages int) *Handler {
	return &Handler{
		recipes:   recipes,
		images:    images,
		maxImages: maxImages,
	}
}

// HandleGenerate 生成食譜並附上營養顯示列
func (h *Handler) HandleGenerate(c *gin.Context) {
	var req recipe.RecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.BadRequest(c, err)
		return
	}

	common.LogInfo("開始處理食譜生成請求",
		zap.String("request_id", requestid.Get(c)),
		zap.String("diet", string(req.Diet)),
		zap.String("goal", string(req.Goal)),
		zap.String("language", req.Language),
	)

	record, err := h.recipes.Generate(c.Request.Context(), req)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}

	resp := GenerateResponse{
		Recipe:        record,
		NutritionRows: record.NutritionRows(),
	}
	if score, ok := recipe.NutritionScore(record.Nutrition, req.Goal); ok {
		resp.NutritionScore = &score
	}

	c.JSON(http.StatusOK, resp)
}

// HandleNutrition 將任意營養資料轉為十列顯示資料
func (h *Handler) HandleNutrition(c *gin.Context) {
	var req NutritionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.BadRequest(c, err)
		return
	}
	if !req.Goal.Valid() {
		handlers.RespondError(c, common.NewValidationError("unknown health goal: "+string(req.Goal)))
		return
	}

	var nutrition recipe.Nutrition
	if len(req.Nutrition) > 0 {
		if err := json.Unmarshal(req.Nutrition, &nutrition); err != nil {
			handlers.BadRequest(c, err)
			return
		}
	}

	resp := NutritionResponse{Rows: recipe.NutritionRows(nutrition)}
	if score, ok := recipe.NutritionScore(nutrition, req.Goal); ok {
		resp.Score = &score
	}
	c.JSON(http.StatusOK, resp)
}

// HandleSuggest 依食材推薦食譜名稱
func (h *Handler) HandleSuggest(c *gin.Context) {
	var req SuggestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.BadRequest(c, err)
		return
	}
	if strings.TrimSpace(req.Ingredients) == "" {
		handlers.RespondError(c, common.NewValidationError("ingredients are required"))
		return
	}

	names := h.recipes.SuggestNames(c.Request.Context(), req.Ingredients)
	c.JSON(http.StatusOK, gin.H{"names": names})
}

// HandleLucky 隨機挑選一組食材
func (h *Handler) HandleLucky(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ingredients": recipe.LuckyIngredients()})
}
