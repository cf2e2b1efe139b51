package utils

import (
	"fmt"
	"math"
	"strings"
)

// FormatFileSize renders a byte count the way the site displays it
// ("1.5 KB", "2.25 MB"). Trailing zeros after the decimal point are trimmed.
func FormatFileSize(bytes int64) string {
	if bytes <= 0 {
		return "0 Bytes"
	}
	const k = 1024
	sizes := []string{"Bytes", "KB", "MB", "GB"}
	i := int(math.Floor(math.Log(float64(bytes)) / math.Log(k)))
	if i >= len(sizes) {
		i = len(sizes) - 1
	}
	value := float64(bytes) / math.Pow(k, float64(i))
	s := fmt.Sprintf("%.2f", value)
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	return s + " " + sizes[i]
}

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#039;",
)

// EscapeHTML neutralizes markup in user-provided text before it is echoed
// back inside an assistant reply or a rendered file row.
func EscapeHTML(text string) string {
	return htmlEscaper.Replace(text)
}
