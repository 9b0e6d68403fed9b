package recipe

import (
	"sort"

	"recipe-assistant/internal/pkg/common"
)

// MergeIngredients 合併多張圖片的食材列表
//
// 依 order 的順序走訪，保留第一次出現的位置；去重採空白正規化後的
// 大小寫敏感完全比對，"Milk" 與 "milk" 視為不同食材。
// 不在 order 中的圖片依 ID 字典序接在最後。
func MergeIngredients(order []string, results map[string][]string) []string {
	merged := []string{}
	seen := make(map[string]bool)
	visited := make(map[string]bool, len(order))

	add := func(items []string) {
		for _, item := range items {
			name := common.CollapseWhitespace(item)
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			merged = append(merged, name)
		}
	}

	for _, id := range order {
		if visited[id] {
			continue
		}
		visited[id] = true
		add(results[id])
	}

	if len(visited) < len(results) {
		for _, id := range sortedKeys(results) {
			if !visited[id] {
				add(results[id])
			}
		}
	}

	return merged
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
