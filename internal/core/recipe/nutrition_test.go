package recipe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rowValues(rows []NutritionDisplayRow) map[string]string {
	out := make(map[string]string, len(rows))
	for _, r := range rows {
		out[r.Label] = r.Value
	}
	return out
}

func TestNutritionRowsAlwaysTenRows(t *testing.T) {
	inputs := map[string]Nutrition{
		"zero value":  {},
		"empty map":   {Values: map[string]string{}},
		"blank text":  {Text: "   \n\n"},
		"junk text":   {Text: "no colon here\n:\n::"},
		"empty value": {Values: map[string]string{"Calories": "  "}},
	}

	for name, n := range inputs {
		t.Run(name, func(t *testing.T) {
			rows := NutritionRows(n)
			require.Len(t, rows, 10)
			for _, r := range rows {
				assert.Equal(t, NutritionPlaceholder, r.Value)
				assert.NotEmpty(t, r.Icon)
				assert.NotEmpty(t, r.Label)
			}
		})
	}
}

func TestNutritionRowsCanonicalOrder(t *testing.T) {
	rows := NutritionRows(Nutrition{})
	labels := make([]string, 0, len(rows))
	for _, r := range rows {
		labels = append(labels, r.Label)
	}
	assert.Equal(t, []string{
		"Calories", "Protein", "Fat", "Carbohydrates", "Fiber",
		"Sugar", "Sodium", "Vitamin A", "Calcium", "Iron",
	}, labels)
	assert.Equal(t, "🔥", rows[0].Icon)
	assert.Equal(t, "🩺", rows[9].Icon)
}

func TestNutritionRowsFromMap(t *testing.T) {
	rows := rowValues(NutritionRows(Nutrition{Values: map[string]string{
		"Calories":  "320 kcal",
		"Protein":   "42 g",
		"VitaminA":  "120 µg",
		"Unrelated": "ignored",
	}}))

	assert.Equal(t, "320 kcal", rows["Calories"])
	assert.Equal(t, "42 g", rows["Protein"])
	assert.Equal(t, "120 µg", rows["Vitamin A"])
	assert.Equal(t, NutritionPlaceholder, rows["Iron"])
}

func TestNutritionRowsLocalizedKeys(t *testing.T) {
	rows := rowValues(NutritionRows(Nutrition{Values: map[string]string{
		"卡路里":     "450 千卡",
		"蛋白质":     "30 克",
		"碳水化合物":   "50 克",
		"维生素A":    "200 微克",
		"鐵":       "3 毫克",
		"sodium ": "700 mg",
		"Total Fat": "9 g",
	}}))

	assert.Equal(t, "450 千卡", rows["Calories"])
	assert.Equal(t, "30 克", rows["Protein"])
	assert.Equal(t, "200 微克", rows["Vitamin A"])
	assert.Equal(t, "3 毫克", rows["Iron"])
	assert.Equal(t, "700 mg", rows["Sodium"])
	assert.Equal(t, "50 克", rows["Carbohydrates"])
	assert.Equal(t, "9 g", rows["Fat"])
}

func TestNutritionRowsEnglishKeyWins(t *testing.T) {
	rows := rowValues(NutritionRows(Nutrition{Values: map[string]string{
		"Calories": "300 kcal",
		"卡路里":      "999",
	}}))
	assert.Equal(t, "300 kcal", rows["Calories"])
}

func TestNutritionRowsFromText(t *testing.T) {
	text := "## Nutrition Facts\n" +
		"- Calories: 320 kcal\n" +
		"- **Protein**: 42 g\n" +
		"* Total Fat: 11 g\n" +
		"Carbohydrates：12 g\n" +
		"- Dietary   Fiber:   4   g\n" +
		"- Sodium: 480 mg\n" +
		"- Prep time: 10:30\n"

	rows := rowValues(NutritionRows(Nutrition{Text: text}))

	assert.Equal(t, "320 kcal", rows["Calories"])
	assert.Equal(t, "42 g", rows["Protein"])
	assert.Equal(t, "11 g", rows["Fat"])
	assert.Equal(t, "12 g", rows["Carbohydrates"])
	assert.Equal(t, "4 g", rows["Fiber"])
	assert.Equal(t, "480 mg", rows["Sodium"])
	assert.Equal(t, NutritionPlaceholder, rows["Sugar"])
}

func TestNutritionScore(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]string
		goal   HealthGoal
		want   float64
		wantOK bool
	}{
		{"muscle gain", map[string]string{"Protein": "15 g"}, GoalMuscleGain, 50, true},
		{"muscle gain capped", map[string]string{"Protein": "42 g"}, GoalMuscleGain, 100, true},
		{"weight loss", map[string]string{"Calories": "500 kcal"}, GoalWeightLoss, 90, true},
		{"weight loss floor", map[string]string{"Calories": "2000 kcal"}, GoalWeightLoss, 0, true},
		{"weight loss ceiling", map[string]string{"Calories": "200 kcal"}, GoalWeightLoss, 100, true},
		{"heart health", map[string]string{"Sodium": "800 mg"}, GoalHeartHealth, 90, true},
		{"decimal values", map[string]string{"Protein": "about 22.5 g"}, GoalMuscleGain, 75, true},
		{"missing nutrient", map[string]string{"Fat": "10 g"}, GoalMuscleGain, 0, false},
		{"non numeric", map[string]string{"Protein": "unknown"}, GoalMuscleGain, 0, false},
		{"goal without score", map[string]string{"Protein": "30 g"}, GoalEnergy, 0, false},
		{"no goal", map[string]string{"Protein": "30 g"}, GoalNone, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NutritionScore(Nutrition{Values: tt.values}, tt.goal)
			assert.Equal(t, tt.wantOK, ok)
			assert.InDelta(t, tt.want, got, 0.01)
		})
	}
}
