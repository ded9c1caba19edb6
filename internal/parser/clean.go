package parser

import (
	"regexp"
	"strings"
)

var (
	spaceRe   = regexp.MustCompile(`\s+`)
	specialRe = regexp.MustCompile(`[^\p{L}\p{N}_\s]`)
)

// CleanText normalizes extracted text before chunking: newlines become
// spaces, special characters are replaced by spaces (Unicode letters and
// digits survive) and runs of whitespace collapse to a single space.
func CleanText(text string) string {
	if text == "" {
		return ""
	}
	text = strings.ReplaceAll(text, "\n", " ")
	text = spaceRe.ReplaceAllString(text, " ")
	text = specialRe.ReplaceAllString(text, " ")
	text = spaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
