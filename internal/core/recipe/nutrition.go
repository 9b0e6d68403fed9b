package recipe

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

// NutritionPlaceholder 找不到數值時顯示的文字
const NutritionPlaceholder = "N/A"

var numberPattern = regexp.MustCompile(`\d+(?:\.\d+)?`)

// nutrient 一項固定營養素
type nutrient struct {
	Key     string
	Icon    string
	Label   string
	Example string
	Aliases []string
}

// nutrients 顯示順序固定
var nutrients = []nutrient{
	{"Calories", "🔥", "Calories", "320 kcal", []string{"calorie", "kcal", "cal", "energy", "卡路里", "热量", "熱量"}},
	{"Protein", "🥩", "Protein", "25 g", []string{"proteins", "蛋白质", "蛋白質"}},
	{"Fat", "🥑", "Fat", "12 g", []string{"totalfat", "fats", "脂肪"}},
	{"Carbohydrates", "🌾", "Carbohydrates", "30 g", []string{"carbs", "carb", "carbohydrate", "totalcarbohydrates", "碳水化合物", "碳水"}},
	{"Fiber", "🌱", "Fiber", "6 g", []string{"fibre", "dietaryfiber", "纤维", "膳食纤维", "纖維", "膳食纖維"}},
	{"Sugar", "🍬", "Sugar", "5 g", []string{"sugars", "糖", "糖分"}},
	{"Sodium", "🧂", "Sodium", "450 mg", []string{"salt", "钠", "鈉"}},
	{"VitaminA", "🧬", "Vitamin A", "150 µg", []string{"vitamin_a", "维生素a", "維生素a"}},
	{"Calcium", "🦴", "Calcium", "80 mg", []string{"钙", "鈣"}},
	{"Iron", "🩺", "Iron", "2 mg", []string{"铁", "鐵"}},
}

// NutritionDisplayRow 一列營養顯示資料
type NutritionDisplayRow struct {
	Icon  string `json:"icon"`
	Label string `json:"label"`
	Value string `json:"value"`
}

// NutritionRows 產生固定十列的營養資訊，找不到的項目顯示 N/A
//
// 結構化資料優先以英文鍵查找，其次查已知的本地化別名；
// 自由文字則逐行以第一個冒號切開後比對。
func NutritionRows(n Nutrition) []NutritionDisplayRow {
	index := nutritionIndex(n)

	rows := make([]NutritionDisplayRow, 0, len(nutrients))
	for _, item := range nutrients {
		value, ok := lookupNutrient(index, item)
		if !ok {
			value = NutritionPlaceholder
		}
		rows = append(rows, NutritionDisplayRow{
			Icon:  item.Icon,
			Label: item.Label,
			Value: value,
		})
	}
	return rows
}

// nutritionIndex 將兩種來源整理成「正規化鍵 → 值」，結構化資料優先
func nutritionIndex(n Nutrition) map[string]string {
	index := make(map[string]string)
	keys := make([]string, 0, len(n.Values))
	for key := range n.Values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		addNutritionEntry(index, key, n.Values[key])
	}
	for _, line := range strings.Split(n.Text, "\n") {
		key, value, ok := splitNutritionLine(line)
		if !ok {
			continue
		}
		addNutritionEntry(index, key, value)
	}
	return index
}

func addNutritionEntry(index map[string]string, key, value string) {
	norm := normalizeNutritionKey(key)
	value = cleanNutritionValue(value)
	if norm == "" || value == "" {
		return
	}
	if _, exists := index[norm]; !exists {
		index[norm] = value
	}
}

// splitNutritionLine 以第一個半形或全形冒號切開一行
func splitNutritionLine(line string) (string, string, bool) {
	idx := strings.IndexAny(line, ":：")
	if idx < 0 {
		return "", "", false
	}
	sep := ":"
	if strings.HasPrefix(line[idx:], "：") {
		sep = "："
	}
	return line[:idx], line[idx+len(sep):], true
}

func lookupNutrient(index map[string]string, item nutrient) (string, bool) {
	if v, ok := index[normalizeNutritionKey(item.Key)]; ok {
		return v, true
	}
	for _, alias := range item.Aliases {
		if v, ok := index[normalizeNutritionKey(alias)]; ok {
			return v, true
		}
	}
	return "", false
}

// normalizeNutritionKey 去除空白、markdown 粗體與清單符號後轉小寫
func normalizeNutritionKey(key string) string {
	key = strings.ReplaceAll(key, "**", "")
	key = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, key)
	key = strings.TrimLeft(key, "-*•")
	return strings.ToLower(key)
}

func cleanNutritionValue(value string) string {
	value = strings.ReplaceAll(value, "**", "")
	return strings.Join(strings.Fields(value), " ")
}

// NutritionScore 依健康目標計算 0 到 100 的分數
//
// 只有 muscle-gain、weight-loss、heart-health 有分數，缺少對應營養素時回傳 false。
func NutritionScore(n Nutrition, goal HealthGoal) (float64, bool) {
	index := nutritionIndex(n)

	amount := func(key string) (float64, bool) {
		for _, item := range nutrients {
			if item.Key != key {
				continue
			}
			value, ok := lookupNutrient(index, item)
			if !ok {
				return 0, false
			}
			return firstNumber(value)
		}
		return 0, false
	}

	var score float64
	switch goal {
	case GoalMuscleGain:
		protein, ok := amount("Protein")
		if !ok {
			return 0, false
		}
		score = protein / 30 * 100
	case GoalWeightLoss:
		calories, ok := amount("Calories")
		if !ok {
			return 0, false
		}
		score = 100 - (calories-400)/10
	case GoalHeartHealth:
		sodium, ok := amount("Sodium")
		if !ok {
			return 0, false
		}
		score = 100 - (sodium-600)/20
	default:
		return 0, false
	}

	score = math.Max(0, math.Min(100, score))
	return math.Round(score*10) / 10, true
}

func firstNumber(s string) (float64, bool) {
	m := numberPattern.FindString(s)
	if m == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
