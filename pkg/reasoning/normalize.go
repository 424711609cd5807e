package reasoning

import (
	"regexp"
	"strings"
)

var blankRunRe = regexp.MustCompile(`\n{3,}`)

// NormalizeAnswerText collapses runs of blank lines to a single blank line,
// leaving fenced code blocks untouched.
func NormalizeAnswerText(text string) string {
	parts := strings.Split(text, "```")
	for i, part := range parts {
		if i%2 == 1 {
			continue
		}
		parts[i] = blankRunRe.ReplaceAllString(part, "\n\n")
	}
	return strings.TrimSpace(strings.Join(parts, "```"))
}
