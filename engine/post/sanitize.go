package post

import "strings"

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#x27;",
	"/", "&#x2F;",
	`\`, "&#x5C;",
	"`", "&#96;",
)

// Escape replaces HTML-significant characters with entities.
func Escape(s string) string {
	return htmlEscaper.Replace(s)
}

// SanitizeText trims surrounding whitespace and escapes the result.
func SanitizeText(s string) string {
	return Escape(strings.TrimSpace(s))
}

// Summary returns the first n runes of content followed by "...", or the
// content unchanged when it is short enough.
func Summary(content string, n int) string {
	runes := []rune(content)
	if n <= 0 || len(runes) <= n {
		return content
	}
	return string(runes[:n]) + "..."
}
