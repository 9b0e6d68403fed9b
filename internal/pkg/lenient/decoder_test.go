package lenient

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIngredientDecoder() *Decoder {
	return NewDecoder("ingredients", "ingredient", "name")
}

func TestStringsWellFormedIsIdempotent(t *testing.T) {
	d := newIngredientDecoder()
	raw := `{"ingredients": ["a","b","a"]}`

	first, stage := d.StringsWithStage(raw)
	second := d.Strings(raw)

	assert.Equal(t, StageDirect, stage)
	assert.Equal(t, []string{"a", "b"}, first)
	assert.Equal(t, first, second)
}

func TestStringsStages(t *testing.T) {
	d := newIngredientDecoder()

	tests := []struct {
		name  string
		raw   string
		want  []string
		stage Stage
	}{
		{
			name:  "fenced block with prose",
			raw:   "Here you go:\n```json\n{\"ingredients\": [\"tomato\", \"egg\"]}\n```\nEnjoy!",
			want:  []string{"tomato", "egg"},
			stage: StageDirect,
		},
		{
			name:  "missing field means nothing found",
			raw:   `{"items": ["tomato"]}`,
			want:  []string{},
			stage: StageDirect,
		},
		{
			name:  "object elements use their name",
			raw:   `{"ingredients": [{"name": "garlic"}, "onion"]}`,
			want:  []string{"garlic", "onion"},
			stage: StageDirect,
		},
		{
			name:  "prose around the object",
			raw:   `Sure! {"ingredients": ["rice", "carrot"]} Let me know.`,
			want:  []string{"rice", "carrot"},
			stage: StageRepair,
		},
		{
			name:  "truncated inside a string",
			raw:   `{"ingredients": ["toma`,
			want:  []string{"toma"},
			stage: StageRepair,
		},
		{
			name:  "truncated after a complete string",
			raw:   `{"ingredients": ["egg", "milk"`,
			want:  []string{"egg", "milk"},
			stage: StageRepair,
		},
		{
			name:  "truncated after a comma",
			raw:   "```json\n{\"ingredients\": [\"egg\", \"flour\",\n",
			want:  []string{"egg", "flour"},
			stage: StageRepair,
		},
		{
			name:  "unclosed fence",
			raw:   "```json\n{\"ingredients\": [\"青椒\", \"牛肉\"",
			want:  []string{"青椒", "牛肉"},
			stage: StageRepair,
		},
		{
			name:  "salvage from broken json",
			raw:   `{"ingredients": ["salmon", "lemon"]], "x": }`,
			want:  []string{"salmon", "lemon"},
			stage: StageSalvage,
		},
		{
			name:  "salvage drops field names and single characters",
			raw:   `ingredient list: "ingredients" "a" "Ingredient" "basil leaves"`,
			want:  []string{"basil leaves"},
			stage: StageSalvage,
		},
		{
			name:  "nothing recoverable",
			raw:   "I could not see any food in this picture.",
			want:  []string{},
			stage: StageEmpty,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, stage := d.StringsWithStage(tt.raw)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.stage, stage)
		})
	}
}

func TestStringsIsTotal(t *testing.T) {
	d := newIngredientDecoder()
	inputs := []string{
		"",
		"   \n\t ",
		`{"ingredients": ["toma`,
		`{`,
		`}`,
		`{"ingredients":`,
		`{"ingredients": null}`,
		`{"ingredients": [1, 2, true]}`,
		`["just", "an", "array"]`,
		"```json\n```",
		`"\`,
		`{"ingredients": ["bad\`,
	}
	for _, raw := range inputs {
		assert.NotPanics(t, func() {
			got := d.Strings(raw)
			assert.NotNil(t, got, "input %q", raw)
		})
	}
}

func TestStringsPostProcessing(t *testing.T) {
	d := newIngredientDecoder()
	got := d.Strings(`{"ingredients": ["  green   pepper ", "green pepper", "", "Green pepper", "spring\nonion"]}`)
	assert.Equal(t, []string{"green pepper", "Green pepper", "spring onion"}, got)
}

func TestObject(t *testing.T) {
	d := NewDecoder("ingredients")

	var out struct {
		Title string `json:"title"`
	}
	require.NoError(t, d.Object("```json\n{\"title\": \"Soup\"}\n```", &out))
	assert.Equal(t, "Soup", out.Title)

	assert.Error(t, d.Object("```json\n{\"title\": \"Soup\"\n```", &out))
	assert.Error(t, d.Object("Here is your recipe: {\"title\": \"Soup\"}", &out))
}

func TestStripFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, StripFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, "no fence", StripFence("no fence"))
}
