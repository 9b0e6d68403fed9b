package recipe

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"recipe-assistant/internal/api/handlers"
	"recipe-assistant/internal/core/recipe"
	"recipe-assistant/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RecognizeImage JSON 上傳的單張圖片
type RecognizeImage struct {
	Name string `json:"name"`
	Data string `json:"data"`
}

// RecognizeRequest 食材辨識請求（JSON 形式）
type RecognizeRequest struct {
	Images   []RecognizeImage `json:"images"`
	Language string           `json:"language"`
}

// RecognizeResponse 食材辨識響應，results 依上傳順序排列
type RecognizeResponse struct {
	Ingredients           []string                              `json:"ingredients"`
	Results               []*recipe.IngredientRecognitionResult `json:"results"`
	NoIngredientsDetected bool                                  `json:"no_ingredients_detected"`
	Message               string                                `json:"message,omitempty"`
}

const noIngredientsMessage = "No ingredients were detected in the uploaded images. Try clearer photos or enter ingredients manually."

// HandleRecognize 處理多圖食材辨識
func (h *Handler) HandleRecognize(c *gin.Context) {
	var (
		names    []string
		payloads [][]byte
		language string
		err      error
	)

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		names, payloads, language, err = h.readMultipart(c)
	} else {
		names, payloads, language, err = h.readJSON(c)
	}
	if err != nil {
		handlers.RespondError(c, err)
		return
	}

	ids := recipe.AssignImageIDs(names)
	images := make([]recipe.ImageInput, len(ids))
	for i, id := range ids {
		images[i] = recipe.ImageInput{ID: id, Data: payloads[i]}
	}

	common.LogInfo("開始處理食材辨識請求",
		zap.String("request_id", requestid.Get(c)),
		zap.Int("image_count", len(images)),
		zap.String("language", language),
	)

	outcome, err := h.recipes.Recognize(c.Request.Context(), images, language)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}

	resp := RecognizeResponse{
		Ingredients:           outcome.Ingredients,
		Results:               make([]*recipe.IngredientRecognitionResult, 0, len(ids)),
		NoIngredientsDetected: outcome.NoIngredientsDetected(),
	}
	for _, id := range ids {
		if result, ok := outcome.Results[id]; ok {
			resp.Results = append(resp.Results, result)
		}
	}
	if resp.NoIngredientsDetected {
		resp.Message = noIngredientsMessage
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) readJSON(c *gin.Context) ([]string, [][]byte, string, error) {
	var req RecognizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, nil, "", common.ErrInvalidRequest.Wrap(err)
	}
	if err := h.checkImageCount(len(req.Images)); err != nil {
		return nil, nil, "", err
	}

	names := make([]string, len(req.Images))
	payloads := make([][]byte, len(req.Images))
	for i, img := range req.Images {
		data, err := h.images.Decode(img.Data)
		if err != nil {
			common.LogWarn("Invalid image in recognition request",
				zap.Int("index", i),
				zap.String("image_type", getImageType(img.Data)),
				zap.Int("image_length", len(img.Data)),
			)
			return nil, nil, "", err
		}
		names[i] = img.Name
		payloads[i] = data
	}
	return names, payloads, req.Language, nil
}

func (h *Handler) readMultipart(c *gin.Context) ([]string, [][]byte, string, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, nil, "", common.ErrInvalidRequest.Wrap(err)
	}
	files := form.File["images"]
	if err := h.checkImageCount(len(files)); err != nil {
		return nil, nil, "", err
	}

	names := make([]string, len(files))
	payloads := make([][]byte, len(files))
	for i, file := range files {
		data, err := readFormFile(file)
		if err != nil {
			return nil, nil, "", common.ErrInvalidImageFormat.Wrap(err)
		}
		if err := h.images.Validate(data); err != nil {
			return nil, nil, "", err
		}
		names[i] = file.Filename
		payloads[i] = data
	}
	return names, payloads, c.PostForm("language"), nil
}

func (h *Handler) checkImageCount(n int) error {
	if n == 0 {
		return common.ErrNoImages
	}
	if n > h.maxImages {
		return common.NewValidationError(fmt.Sprintf("at most %d images per request", h.maxImages))
	}
	return nil
}

func readFormFile(file *multipart.FileHeader) ([]byte, error) {
	f, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", file.Filename, err)
	}
	defer f.Close()
	return io.ReadAll(f)
}
