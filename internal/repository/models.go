package repository

import (
	"time"

	"recipe-assistant/internal/pkg/common"

	"gorm.io/gorm"
)

// User 帳號
type User struct {
	ID                uint       `gorm:"primaryKey" json:"-"`
	Username          string     `gorm:"uniqueIndex;size:64;not null" json:"username"`
	PasswordHash      string     `gorm:"not null" json:"-"`
	Email             string     `gorm:"size:255" json:"email,omitempty"`
	PreferredLanguage string     `gorm:"size:16" json:"preferred_language"`
	CreatedAt         time.Time  `json:"created_at"`
	LastLogin         *time.Time `json:"last_login,omitempty"`
}

// SavedRecipe 使用者收藏的食譜，包含生成時的請求內容與使用者註記
type SavedRecipe struct {
	ID       string `gorm:"primaryKey;size:36" json:"id"`
	Username string `gorm:"index;size:64;not null" json:"username"`

	Title         string            `gorm:"size:255" json:"title"`
	Description   string            `gorm:"type:text" json:"description"`
	Ingredients   []string          `gorm:"type:text;serializer:json" json:"ingredients"`
	Instructions  []string          `gorm:"type:text;serializer:json" json:"instructions"`
	Nutrition     map[string]string `gorm:"type:text;serializer:json" json:"nutrition,omitempty"`
	NutritionText string            `gorm:"type:text" json:"nutrition_text,omitempty"`
	Serves        int               `json:"serves"`
	PrepTime      string            `gorm:"size:64" json:"prep_time"`
	CookTime      string            `gorm:"size:64" json:"cook_time"`
	Difficulty    string            `gorm:"size:32" json:"difficulty"`

	IngredientText string `gorm:"type:text" json:"ingredient_text"`
	Diet           string `gorm:"size:32;index" json:"diet"`
	Goal           string `gorm:"size:32" json:"goal"`
	Cuisine        string `gorm:"size:32" json:"cuisine"`
	CookingTime    int    `json:"cooking_time"`
	Language       string `gorm:"size:16" json:"language"`

	Rating int      `json:"rating"`
	Tags   []string `gorm:"type:text;serializer:json" json:"tags"`
	Notes  string   `gorm:"type:text" json:"notes"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate 自動產生 UUID
func (r *SavedRecipe) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = common.GenerateUUID()
	}
	return nil
}

// Models 需要遷移的資料表
func Models() []interface{} {
	return []interface{}{&User{}, &SavedRecipe{}}
}
