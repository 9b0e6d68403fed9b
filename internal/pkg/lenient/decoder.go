// Package lenient 解析模型輸出中「應該是 JSON」但可能被 markdown 包裹、
// 被截斷或格式錯誤的內容。
//
// Strings 依序嘗試：擷取 ```json 區塊、直接解析、括號補齊後再解析、
// 以正則撈出所有雙引號字串，全部失敗則回傳空列表，永不回傳錯誤。
// Object 只做區塊擷取與嚴格解析，失敗時回傳錯誤交給呼叫端決定。
package lenient

import (
	"encoding/json"
	"regexp"
	"strings"
	"unicode/utf8"

	"recipe-assistant/internal/pkg/common"
)

var (
	fencePattern  = regexp.MustCompile("(?s)```json[ \t]*\\r?\\n?(.*?)\\r?\\n?```")
	quotedPattern = regexp.MustCompile(`"((?:[^"\\]|\\.)*)"`)
)

// Stage 記錄結果來自哪一個解析階段
type Stage string

const (
	StageDirect  Stage = "direct"
	StageRepair  Stage = "repair"
	StageSalvage Stage = "salvage"
	StageEmpty   Stage = "empty"
)

// Decoder 從模型輸出中取出某個欄位的字串列表
type Decoder struct {
	field  string
	ignore map[string]bool
}

// NewDecoder 建立解析 field 欄位的 Decoder，ignore 為撈字串時要略過的欄位名稱
func NewDecoder(field string, ignore ...string) *Decoder {
	skip := map[string]bool{strings.ToLower(field): true}
	for _, name := range ignore {
		skip[strings.ToLower(name)] = true
	}
	return &Decoder{field: field, ignore: skip}
}

// StripFence 若文字含 ```json 區塊則只回傳區塊內容，否則原樣回傳
func StripFence(raw string) string {
	if m := fencePattern.FindStringSubmatch(raw); m != nil {
		return m[1]
	}
	return raw
}

// Strings 盡力取出字串列表，保證不會 panic 也不回傳錯誤
func (d *Decoder) Strings(raw string) []string {
	values, _ := d.StringsWithStage(raw)
	return values
}

// StringsWithStage 同 Strings，另外回報成功的階段，方便記錄日誌
func (d *Decoder) StringsWithStage(raw string) ([]string, Stage) {
	text := StripFence(raw)

	if values, ok := d.direct(text); ok {
		return normalize(values), StageDirect
	}
	if values, ok := d.repair(text); ok {
		return normalize(values), StageRepair
	}
	if values := d.salvage(text); len(values) > 0 {
		return values, StageSalvage
	}
	return []string{}, StageEmpty
}

// Object 擷取 ```json 區塊後嚴格解析到 v
func (d *Decoder) Object(raw string, v any) error {
	return Object(raw, v)
}

// Object 擷取 ```json 區塊後嚴格解析到 v，不做任何修補
func Object(raw string, v any) error {
	return common.ParseJSON(strings.TrimSpace(StripFence(raw)), v)
}

// direct 嚴格解析，欄位不存在時視為空列表
func (d *Decoder) direct(text string) ([]string, bool) {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &payload); err != nil {
		return nil, false
	}
	field, ok := payload[d.field]
	if !ok {
		return []string{}, true
	}
	return decodeList(field)
}

// repair 針對被截斷的輸出補上缺少的 `"]}` 或 `]}` 後再解析
func (d *Decoder) repair(text string) ([]string, bool) {
	start := strings.Index(text, "{")
	if start == -1 {
		return nil, false
	}
	body := text[start:]

	if end := strings.LastIndex(body, "}"); end != -1 {
		if values, ok := d.direct(body[:end+1]); ok {
			return values, true
		}
	}

	if !strings.Contains(body, `"`+d.field+`"`) {
		return nil, false
	}
	closeAt := strings.Index(body, `"`+d.field+`"`)
	if strings.Contains(body[closeAt:], "]") {
		// 陣列已閉合卻仍解析失敗，不是截斷造成的
		return nil, false
	}

	trimmed := strings.TrimRight(body, " \t\r\n")
	var candidate string
	if inOpenString(trimmed) {
		candidate = trimmed + `"]}`
	} else {
		candidate = strings.TrimRight(trimmed, ", \t\r\n") + "]}"
	}
	return d.direct(candidate)
}

// salvage 撈出所有雙引號字串，略過欄位名稱與單一字元
func (d *Decoder) salvage(text string) []string {
	var values []string
	for _, m := range quotedPattern.FindAllStringSubmatch(text, -1) {
		candidate := m[1]
		if unquoted, err := unquote(candidate); err == nil {
			candidate = unquoted
		}
		candidate = common.CollapseWhitespace(candidate)
		if d.ignore[strings.ToLower(candidate)] {
			continue
		}
		if utf8.RuneCountInString(candidate) <= 1 {
			continue
		}
		values = append(values, candidate)
	}
	return normalize(values)
}

// decodeList 接受字串陣列；物件元素取 name 欄位，其他型別略過
func decodeList(raw json.RawMessage) ([]string, bool) {
	if strings.TrimSpace(string(raw)) == "null" {
		return []string{}, true
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		var single string
		if err := json.Unmarshal(raw, &single); err == nil {
			return []string{single}, true
		}
		return nil, false
	}

	values := make([]string, 0, len(items))
	for _, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			values = append(values, s)
			continue
		}
		var named struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(item, &named); err == nil && named.Name != "" {
			values = append(values, named.Name)
		}
	}
	return values, true
}

// normalize 修剪空白、合併內部空白、去除空值並保序去重（區分大小寫）
func normalize(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = common.CollapseWhitespace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// inOpenString 判斷文字是否停在未閉合的字串中
func inOpenString(s string) bool {
	open := false
	escaped := false
	for _, r := range s {
		switch {
		case escaped:
			escaped = false
		case r == '\\':
			escaped = true
		case r == '"':
			open = !open
		}
	}
	return open
}

func unquote(s string) (string, error) {
	var out string
	err := json.Unmarshal([]byte(`"`+s+`"`), &out)
	return out, err
}
