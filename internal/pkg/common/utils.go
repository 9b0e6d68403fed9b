package common

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

// GenerateUUID 生成 UUID
func GenerateUUID() string {
	return uuid.New().String()
}

// HashString 計算字符串的 SHA-256 哈希值
func HashString(s string) string {
	hash := sha256.Sum256([]byte(s))
	return hex.EncodeToString(hash[:])
}

// CollapseWhitespace 去除前後空白並將連續空白（含換行）合併為單一空格
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
