package recipe

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"recipe-assistant/internal/pkg/common"
)

// DietConstraint 飲食限制
type DietConstraint string

const (
	DietNone          DietConstraint = ""
	DietVegetarian    DietConstraint = "vegetarian"
	DietVegan         DietConstraint = "vegan"
	DietKeto          DietConstraint = "keto"
	DietLowCarb       DietConstraint = "low-carb"
	DietHighProtein   DietConstraint = "high-protein"
	DietMediterranean DietConstraint = "mediterranean"
	DietGlutenFree    DietConstraint = "gluten-free"
)

// Valid 是否為已知的飲食限制
func (d DietConstraint) Valid() bool {
	switch d {
	case DietNone, DietVegetarian, DietVegan, DietKeto, DietLowCarb,
		DietHighProtein, DietMediterranean, DietGlutenFree:
		return true
	}
	return false
}

// HealthGoal 健康目標
type HealthGoal string

const (
	GoalNone        HealthGoal = ""
	GoalWeightLoss  HealthGoal = "weight-loss"
	GoalMuscleGain  HealthGoal = "muscle-gain"
	GoalEnergy      HealthGoal = "energy"
	GoalDigestion   HealthGoal = "digestion"
	GoalImmunity    HealthGoal = "immunity"
	GoalHeartHealth HealthGoal = "heart-health"
)

// Valid 是否為已知的健康目標
func (g HealthGoal) Valid() bool {
	switch g {
	case GoalNone, GoalWeightLoss, GoalMuscleGain, GoalEnergy,
		GoalDigestion, GoalImmunity, GoalHeartHealth:
		return true
	}
	return false
}

var (
	validCuisines     = []string{"chinese", "western", "japanese", "korean", "thai", "italian", "mexican"}
	validCookingTimes = []int{15, 30, 45, 60, 90}
	validDifficulties = []string{"easy", "medium", "hard"}
)

const (
	DefaultServings = 2
	MinServings     = 1
	MaxServings     = 10
)

// RecipeRequest 食譜生成請求，送出後不再修改
type RecipeRequest struct {
	Ingredients string         `json:"ingredients"`
	Diet        DietConstraint `json:"diet"`
	Goal        HealthGoal     `json:"goal"`
	Language    string         `json:"language"`
	Cuisine     string         `json:"cuisine,omitempty"`
	CookingTime int            `json:"cooking_time,omitempty"` // 分鐘，0 表示不限
	Difficulty  string         `json:"difficulty,omitempty"`
	Servings    int            `json:"servings"`
}

// Normalize 補上預設值並清理空白
func (r *RecipeRequest) Normalize() {
	r.Ingredients = strings.TrimSpace(r.Ingredients)
	r.Cuisine = strings.ToLower(strings.TrimSpace(r.Cuisine))
	r.Difficulty = strings.ToLower(strings.TrimSpace(r.Difficulty))
	if r.Language == "" {
		r.Language = common.DefaultLanguage
	}
	if r.Servings == 0 {
		r.Servings = DefaultServings
	}
}

// Validate 檢查請求內容
func (r *RecipeRequest) Validate() error {
	if r.Ingredients == "" {
		return common.NewValidationError("ingredients are required")
	}
	if !r.Diet.Valid() {
		return common.NewValidationError(fmt.Sprintf("unknown diet constraint: %s", r.Diet))
	}
	if !r.Goal.Valid() {
		return common.NewValidationError(fmt.Sprintf("unknown health goal: %s", r.Goal))
	}
	if r.Servings < MinServings || r.Servings > MaxServings {
		return common.NewValidationError(fmt.Sprintf("servings must be between %d and %d", MinServings, MaxServings))
	}
	if r.Cuisine != "" && !containsString(validCuisines, r.Cuisine) {
		return common.NewValidationError(fmt.Sprintf("unknown cuisine: %s", r.Cuisine))
	}
	if r.CookingTime != 0 && !containsInt(validCookingTimes, r.CookingTime) {
		return common.NewValidationError(fmt.Sprintf("cooking time must be one of %v minutes", validCookingTimes))
	}
	if r.Difficulty != "" && !containsString(validDifficulties, r.Difficulty) {
		return common.NewValidationError(fmt.Sprintf("unknown difficulty: %s", r.Difficulty))
	}
	return nil
}

// RecipeRecord 模型生成的結構化食譜
type RecipeRecord struct {
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Ingredients  TextList  `json:"ingredients"`
	Instructions TextList  `json:"instructions"`
	Nutrition    Nutrition `json:"nutrition"`
	Serves       Servings  `json:"serves"`
	PrepTime     string    `json:"prep_time"`
	CookTime     string    `json:"cook_time"`
	Difficulty   string    `json:"difficulty"`
}

// TextList 字串列表；模型偶爾回傳單一字串或物件陣列，一併接受
type TextList []string

// UnmarshalJSON 接受字串陣列、以換行分隔的字串或帶 name/text 欄位的物件陣列
func (l *TextList) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*l = nil
		return nil
	}

	var single string
	if err := json.Unmarshal(trimmed, &single); err == nil {
		var out TextList
		for _, line := range strings.Split(single, "\n") {
			if line = strings.TrimSpace(line); line != "" {
				out = append(out, line)
			}
		}
		*l = out
		return nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return fmt.Errorf("expected a list of strings: %w", err)
	}
	out := make(TextList, 0, len(items))
	for _, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			out = append(out, s)
			continue
		}
		var obj map[string]interface{}
		if err := json.Unmarshal(item, &obj); err != nil {
			return fmt.Errorf("unsupported list item: %s", string(item))
		}
		out = append(out, describeItem(obj))
	}
	*l = out
	return nil
}

// describeItem 物件形式的食材或步驟轉成一行文字
func describeItem(obj map[string]interface{}) string {
	var parts []string
	for _, key := range []string{"amount", "quantity", "unit", "name", "item", "text", "step", "description", "instruction"} {
		if v, ok := obj[key]; ok && v != nil {
			if s := strings.TrimSpace(fmt.Sprint(v)); s != "" {
				parts = append(parts, s)
			}
		}
	}
	return strings.Join(parts, " ")
}

// Servings 份數；模型可能回傳數字或 "2"、"2 servings" 這類字串
type Servings int

// UnmarshalJSON 容忍字串形式的份數
func (s *Servings) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*s = 0
		return nil
	}

	var n float64
	if err := json.Unmarshal(trimmed, &n); err == nil {
		*s = Servings(int(n))
		return nil
	}

	var text string
	if err := json.Unmarshal(trimmed, &text); err != nil {
		return fmt.Errorf("servings must be a number or string: %w", err)
	}
	if m := numberPattern.FindString(text); m != "" {
		f, err := strconv.ParseFloat(m, 64)
		if err == nil {
			*s = Servings(int(f))
			return nil
		}
	}
	*s = 0
	return nil
}

// Nutrition 模型回傳的營養資訊
//
// 結構化時存於 Values（值一律轉為字串，例如 "320 kcal"），
// 以自由文字回傳時存於 Text，由 NutritionRows 逐行解析。
type Nutrition struct {
	Values map[string]string
	Text   string
}

// UnmarshalJSON 接受物件或字串
func (n *Nutrition) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	*n = Nutrition{}
	if bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	if len(trimmed) > 0 && trimmed[0] == '"' {
		return json.Unmarshal(trimmed, &n.Text)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return fmt.Errorf("nutrition must be an object or text: %w", err)
	}
	n.Values = make(map[string]string, len(raw))
	for key, value := range raw {
		n.Values[key] = scalarString(value)
	}
	return nil
}

// MarshalJSON 有結構化資料時輸出物件，否則輸出文字
func (n Nutrition) MarshalJSON() ([]byte, error) {
	if n.Values != nil {
		return json.Marshal(n.Values)
	}
	if n.Text != "" {
		return json.Marshal(n.Text)
	}
	return []byte("{}"), nil
}

// IsEmpty 沒有任何營養資料
func (n Nutrition) IsEmpty() bool {
	return len(n.Values) == 0 && strings.TrimSpace(n.Text) == ""
}

// scalarString 將 JSON 值轉成顯示用字串
func scalarString(value json.RawMessage) string {
	trimmed := bytes.TrimSpace(value)
	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		return s
	}
	if bytes.Equal(trimmed, []byte("null")) {
		return ""
	}
	var nested map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &nested); err == nil {
		// {"value": 320, "unit": "kcal"}
		keys := make([]string, 0, len(nested))
		for k := range nested {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var parts []string
		for _, k := range []string{"value", "amount", "unit"} {
			if v, ok := nested[k]; ok {
				parts = append(parts, scalarString(v))
			}
		}
		if len(parts) > 0 {
			return strings.Join(parts, " ")
		}
		for _, k := range keys {
			parts = append(parts, scalarString(nested[k]))
		}
		return strings.Join(parts, " ")
	}
	return string(trimmed)
}

// 辨識狀態
const (
	StatusSuccess  = "success"
	StatusFailed   = "failed"
	StatusTimedOut = "timed-out"
)

// ImageInput 一張待辨識的圖片，ID 在同一批次內唯一
type ImageInput struct {
	ID   string
	Data []byte
}

// IngredientRecognitionResult 單張圖片的辨識結果，建立後不再修改
type IngredientRecognitionResult struct {
	ImageID     string   `json:"image_id"`
	Ingredients []string `json:"ingredients"`
	Status      string   `json:"status"`
}

// RecognitionOutcome 一次辨識批次的結果
type RecognitionOutcome struct {
	Results     map[string]*IngredientRecognitionResult `json:"results"`
	Ingredients []string                                `json:"ingredients"`
}

// NoIngredientsDetected 整批沒有任何食材，屬於正常結果而非錯誤
func (o *RecognitionOutcome) NoIngredientsDetected() bool {
	return len(o.Ingredients) == 0
}

func containsString(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

func containsInt(values []int, v int) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
