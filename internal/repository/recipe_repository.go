package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"
)

// ErrRecipeNotFound 食譜不存在或不屬於該使用者
var ErrRecipeNotFound = errors.New("recipe not found")

const (
	DefaultListLimit = 50
	MaxListLimit     = 200

	recentTitleCount = 5
	topTagCount      = 10
)

// 排序方式
const (
	SortNewest = "newest"
	SortOldest = "oldest"
	SortRating = "rating"
)

// ListOptions 列表查詢條件
type ListOptions struct {
	Limit  int
	Offset int
	Sort   string
	Diet   string
}

// Annotation 使用者可修改的欄位，nil 表示不變
type Annotation struct {
	Rating *int
	Tags   []string
	Notes  *string
}

// TagCount 標籤使用次數
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// Statistics 使用者的食譜統計
type Statistics struct {
	TotalRecipes   int64            `json:"total_recipes"`
	AverageRating  float64          `json:"average_rating"`
	DietCounts     map[string]int64 `json:"diet_counts"`
	GoalCounts     map[string]int64 `json:"goal_counts"`
	MostCommonDiet string           `json:"most_common_diet"`
	ThisMonth      int64            `json:"this_month"`
	RecentTitles   []string         `json:"recent_titles"`
	TopTags        []TagCount       `json:"top_tags"`
}

// RecipeRepository 收藏食譜資料存取
type RecipeRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewRecipeRepository 創建收藏食譜資料存取
func NewRecipeRepository(db *gorm.DB) *RecipeRepository {
	return &RecipeRepository{db: db, now: time.Now}
}

// Save 新增收藏
func (r *RecipeRepository) Save(ctx context.Context, recipe *SavedRecipe) error {
	if recipe.Tags == nil {
		recipe.Tags = []string{}
	}
	if err := r.db.WithContext(ctx).Create(recipe).Error; err != nil {
		return fmt.Errorf("failed to save recipe: %w", err)
	}
	return nil
}

// Get 取得單一收藏
func (r *RecipeRepository) Get(ctx context.Context, username, id string) (*SavedRecipe, error) {
	var recipe SavedRecipe
	err := r.db.WithContext(ctx).Where("id = ? AND username = ?", id, username).First(&recipe).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRecipeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get recipe: %w", err)
	}
	return &recipe, nil
}

// ListByUser 列出使用者的收藏
func (r *RecipeRepository) ListByUser(ctx context.Context, username string, opts ListOptions) ([]SavedRecipe, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	query := r.db.WithContext(ctx).Where("username = ?", username)
	if opts.Diet != "" {
		query = query.Where("diet = ?", opts.Diet)
	}

	switch opts.Sort {
	case SortOldest:
		query = query.Order("created_at ASC")
	case SortRating:
		query = query.Order("rating DESC").Order("created_at DESC")
	default:
		query = query.Order("created_at DESC")
	}

	var recipes []SavedRecipe
	if err := query.Limit(limit).Offset(offset).Find(&recipes).Error; err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}
	return recipes, nil
}

// Annotate 更新評分、標籤與筆記
func (r *RecipeRepository) Annotate(ctx context.Context, username, id string, a Annotation) (*SavedRecipe, error) {
	recipe, err := r.Get(ctx, username, id)
	if err != nil {
		return nil, err
	}

	if a.Rating != nil {
		recipe.Rating = *a.Rating
	}
	if a.Tags != nil {
		recipe.Tags = a.Tags
	}
	if a.Notes != nil {
		recipe.Notes = *a.Notes
	}

	if err := r.db.WithContext(ctx).Save(recipe).Error; err != nil {
		return nil, fmt.Errorf("failed to update recipe: %w", err)
	}
	return recipe, nil
}

// Delete 刪除收藏
func (r *RecipeRepository) Delete(ctx context.Context, username, id string) error {
	result := r.db.WithContext(ctx).Where("id = ? AND username = ?", id, username).Delete(&SavedRecipe{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete recipe: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrRecipeNotFound
	}
	return nil
}

// Search 在標題、食材、步驟與標籤中做不分大小寫的子字串搜尋，新到舊排序
func (r *RecipeRepository) Search(ctx context.Context, username, query string) ([]SavedRecipe, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return r.ListByUser(ctx, username, ListOptions{})
	}

	pattern := "%" + escapeLike(strings.ToLower(query)) + "%"
	var recipes []SavedRecipe
	err := r.db.WithContext(ctx).
		Where("username = ?", username).
		Where(r.db.
			Where("LOWER(title) LIKE ? ESCAPE '\\'", pattern).
			Or("LOWER(ingredient_text) LIKE ? ESCAPE '\\'", pattern).
			Or("LOWER(ingredients) LIKE ? ESCAPE '\\'", pattern).
			Or("LOWER(instructions) LIKE ? ESCAPE '\\'", pattern).
			Or("LOWER(tags) LIKE ? ESCAPE '\\'", pattern)).
		Order("created_at DESC").
		Limit(MaxListLimit).
		Find(&recipes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search recipes: %w", err)
	}
	return recipes, nil
}

// Statistics 計算使用者的收藏統計
func (r *RecipeRepository) Statistics(ctx context.Context, username string) (*Statistics, error) {
	var recipes []SavedRecipe
	err := r.db.WithContext(ctx).
		Select("title", "diet", "goal", "rating", "tags", "created_at").
		Where("username = ?", username).
		Order("created_at DESC").
		Find(&recipes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load statistics: %w", err)
	}

	stats := &Statistics{
		TotalRecipes: int64(len(recipes)),
		DietCounts:   map[string]int64{},
		GoalCounts:   map[string]int64{},
		RecentTitles: []string{},
		TopTags:      []TagCount{},
	}
	if len(recipes) == 0 {
		return stats, nil
	}

	now := r.now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	tagCounts := map[string]int{}
	ratingSum := 0

	for i, recipe := range recipes {
		ratingSum += recipe.Rating
		if recipe.Diet != "" {
			stats.DietCounts[recipe.Diet]++
		}
		if recipe.Goal != "" {
			stats.GoalCounts[recipe.Goal]++
		}
		if !recipe.CreatedAt.Before(monthStart) {
			stats.ThisMonth++
		}
		if i < recentTitleCount {
			stats.RecentTitles = append(stats.RecentTitles, recipe.Title)
		}
		for _, tag := range recipe.Tags {
			if tag = strings.TrimSpace(tag); tag != "" {
				tagCounts[tag]++
			}
		}
	}

	stats.AverageRating = float64(ratingSum) / float64(len(recipes))
	stats.MostCommonDiet = mostCommon(stats.DietCounts)

	for tag, count := range tagCounts {
		stats.TopTags = append(stats.TopTags, TagCount{Tag: tag, Count: count})
	}
	sort.Slice(stats.TopTags, func(i, j int) bool {
		if stats.TopTags[i].Count != stats.TopTags[j].Count {
			return stats.TopTags[i].Count > stats.TopTags[j].Count
		}
		return stats.TopTags[i].Tag < stats.TopTags[j].Tag
	})
	if len(stats.TopTags) > topTagCount {
		stats.TopTags = stats.TopTags[:topTagCount]
	}

	return stats, nil
}

// mostCommon 次數最多者，平手取字典序較小者
func mostCommon(counts map[string]int64) string {
	best := ""
	var bestCount int64
	for key, count := range counts {
		if count > bestCount || (count == bestCount && key < best) {
			best, bestCount = key, count
		}
	}
	return best
}

func escapeLike(s string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(s)
}
