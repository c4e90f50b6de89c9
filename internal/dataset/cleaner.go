// Package dataset 负责原始语料的读取、清洗和入库。
package dataset

import (
	"regexp"
	"strings"
)

var (
	urlPattern        = regexp.MustCompile(`https?://\S+|www\.\S+`)
	htmlTagPattern    = regexp.MustCompile(`<[^>]+>`)
	nonTextPattern    = regexp.MustCompile(`[^a-z0-9\p{Han}.!?\s]`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// CleanText 对原始文本做标准化：小写、去 URL 与 HTML 标签、
// 去掉句末标点之外的符号、合并空白。句末标点保留给抽取式摘要分句使用。
func CleanText(raw string) string {
	text := strings.ToLower(raw)
	text = urlPattern.ReplaceAllString(text, " ")
	text = htmlTagPattern.ReplaceAllString(text, " ")
	text = nonTextPattern.ReplaceAllString(text, " ")
	text = whitespacePattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
