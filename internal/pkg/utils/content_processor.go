package utils

import (
	"html"
	"html/template"
	"strings"
)

// FormatStoryContent escapes plain story text and turns blank-line separated
// blocks into paragraphs. Single newlines become line breaks.
func FormatStoryContent(content string) template.HTML {
	content = strings.ReplaceAll(content, "\r\n", "\n")

	var b strings.Builder
	for _, block := range strings.Split(content, "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		lines := strings.Split(block, "\n")
		for i := range lines {
			lines[i] = html.EscapeString(strings.TrimSpace(lines[i]))
		}
		b.WriteString(`<p class="mb-4 leading-relaxed">`)
		b.WriteString(strings.Join(lines, "<br>"))
		b.WriteString("</p>")
	}
	return template.HTML(b.String())
}

// Excerpt shortens text to at most n runes, cutting at a word boundary.
func Excerpt(text string, n int) string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) <= n {
		return string(runes)
	}
	cut := string(runes[:n])
	if i := strings.LastIndex(cut, " "); i > n/2 {
		cut = cut[:i]
	}
	return cut + "..."
}
