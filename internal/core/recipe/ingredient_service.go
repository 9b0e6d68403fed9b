package recipe

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"recipe-assistant/internal/core/ai/image"
	"recipe-assistant/internal/core/ai/provider"
	"recipe-assistant/internal/infrastructure/config"
	"recipe-assistant/internal/infrastructure/metrics"
	"recipe-assistant/internal/pkg/common"
	"recipe-assistant/internal/pkg/lenient"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const visionPrompt = `Please identify all unique ingredients in the image and return them in a JSON format.
Requirements:
1. Respond in %s language for the ingredient names
2. Always use "ingredients" as the JSON field name (in English)
3. Return only unique ingredients (no duplicates)
4. Format: {"ingredients": ["ingredient1", "ingredient2", ...]}
5. If no ingredients are found, return {"ingredients": []}`

// IngredientService 多圖食材辨識服務
type IngredientService struct {
	ai          Completer
	processor   *image.Processor
	decoder     *lenient.Decoder
	workers     int
	timeout     time.Duration
	retries     int
	maxTokens   int
	temperature float64
	topP        float64
}

// NewIngredientService 創建新的食材識別服務
func NewIngredientService(ai Completer, processor *image.Processor, rec config.RecognitionConfig, vision config.ProviderConfig) *IngredientService {
	workers := rec.Workers
	if workers <= 0 {
		workers = 1
	}
	return &IngredientService{
		ai:          ai,
		processor:   processor,
		decoder:     lenient.NewDecoder("ingredients", "ingredient", "name"),
		workers:     workers,
		timeout:     rec.Timeout,
		retries:     rec.Retries,
		maxTokens:   vision.MaxTokens,
		temperature: vision.Temperature,
		topP:        vision.TopP,
	}
}

// Recognize 辨識一批圖片並合併食材
//
// 金鑰未設定時在任何網路請求前回傳錯誤；單張圖片失敗只影響該圖片。
// 整批沒有辨識出食材不是錯誤，由 RecognitionOutcome.NoIngredientsDetected 表示。
func (s *IngredientService) Recognize(ctx context.Context, images []ImageInput, language string) (*RecognitionOutcome, error) {
	if len(images) == 0 {
		return nil, common.ErrNoImages
	}
	if err := s.ai.CheckCredentials(); err != nil {
		return nil, err
	}

	results := s.RecognizeBatch(ctx, images, language)

	order := make([]string, 0, len(images))
	lists := make(map[string][]string, len(results))
	for _, img := range images {
		order = append(order, img.ID)
	}
	for id, r := range results {
		lists[id] = r.Ingredients
	}

	outcome := &RecognitionOutcome{
		Results:     results,
		Ingredients: MergeIngredients(order, lists),
	}
	if outcome.NoIngredientsDetected() {
		common.LogInfo("No ingredients detected", zap.Int("images", len(images)))
	}
	return outcome, nil
}

// RecognizeBatch 並行辨識每張圖片，回傳以圖片 ID 為鍵的結果
//
// 每張圖片獨立請求，最多同時 workers 個；失敗或超時的圖片記為
// failed / timed-out 並帶空列表，不會中斷其他圖片。
func (s *IngredientService) RecognizeBatch(ctx context.Context, images []ImageInput, language string) map[string]*IngredientRecognitionResult {
	results := make(map[string]*IngredientRecognitionResult, len(images))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for _, img := range images {
		img := img
		g.Go(func() error {
			result := s.recognizeOne(gctx, img, language)
			metrics.RecognitionResults.WithLabelValues(result.Status).Inc()

			mu.Lock()
			results[img.ID] = result
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// recognizeOne 處理單張圖片，錯誤一律吸收為狀態
func (s *IngredientService) recognizeOne(ctx context.Context, img ImageInput, language string) *IngredientRecognitionResult {
	result := &IngredientRecognitionResult{
		ImageID:     img.ID,
		Ingredients: []string{},
		Status:      StatusFailed,
	}

	dataURL, err := s.processor.DataURL(img.Data)
	if err != nil {
		common.LogWarn("Failed to prepare image for recognition",
			zap.String("image_id", img.ID),
			zap.Error(err),
		)
		return result
	}

	req := &provider.Request{
		Messages: []provider.Message{{
			Role: provider.RoleUser,
			Parts: []provider.ContentPart{
				provider.TextPart(fmt.Sprintf(visionPrompt, common.LanguageName(language))),
				provider.ImagePart(dataURL),
			},
		}},
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
		TopP:        s.topP,
	}

	var content string
	attempts, err := common.Retry(ctx, common.RetryPolicy{
		Attempts: 1 + s.retries,
		Timeout:  s.timeout,
		RetryIf:  common.IsTimeout,
	}, func(attemptCtx context.Context) error {
		resp, err := s.ai.ProcessRequest(attemptCtx, req)
		if err != nil {
			return err
		}
		content = resp.Content
		return nil
	})
	if err != nil {
		if common.IsTimeout(err) || errors.Is(err, context.Canceled) {
			result.Status = StatusTimedOut
		}
		common.LogWarn("Image recognition failed",
			zap.String("image_id", img.ID),
			zap.String("status", result.Status),
			zap.Int("attempts", attempts),
			zap.Error(err),
		)
		return result
	}

	ingredients, stage := s.decoder.StringsWithStage(content)
	if stage != lenient.StageDirect {
		common.LogDebug("Recovered ingredients from malformed response",
			zap.String("image_id", img.ID),
			zap.String("stage", string(stage)),
			zap.Int("count", len(ingredients)),
		)
	}

	result.Ingredients = ingredients
	result.Status = StatusSuccess
	return result
}

// AssignImageIDs 讓同一批次內的圖片名稱唯一，重複時加上序號（name#2）
func AssignImageIDs(names []string) []string {
	ids := make([]string, len(names))
	used := make(map[string]bool, len(names))
	counts := make(map[string]int, len(names))

	for i, name := range names {
		base := strings.TrimSpace(name)
		if base == "" {
			base = fmt.Sprintf("image-%d", i+1)
		}
		counts[base]++
		id := base
		if counts[base] > 1 || used[id] {
			for n := counts[base]; ; n++ {
				candidate := fmt.Sprintf("%s#%d", base, n)
				if !used[candidate] {
					id = candidate
					counts[base] = n
					break
				}
			}
		}
		used[id] = true
		ids[i] = id
	}
	return ids
}
