package common

import "strings"

// DefaultLanguage 未指定語言時使用的語言代碼
const DefaultLanguage = "en"

// languageNames 提示詞中使用的語言名稱
var languageNames = map[string]string{
	"en":    "English",
	"zh":    "Simplified Chinese",
	"zh-cn": "Simplified Chinese",
	"zh-tw": "Traditional Chinese",
	"ja":    "Japanese",
	"ko":    "Korean",
	"fr":    "French",
	"de":    "German",
	"es":    "Spanish",
	"it":    "Italian",
	"th":    "Thai",
}

// LanguageName 將語言代碼轉為提示詞用的語言名稱
//
// 未知代碼原樣回傳，讓模型自行判斷；空值視為英文。
func LanguageName(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return languageNames[DefaultLanguage]
	}
	if name, ok := languageNames[strings.ToLower(code)]; ok {
		return name
	}
	return code
}
