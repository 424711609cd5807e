package reasoning

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// maxFallbackURLs bounds how many responder-proposed URLs survive when the
// answer text contains no citation markers.
const maxFallbackURLs = 6

var (
	markerRe     = regexp.MustCompile(`\[(\d+)\]`)
	referencesRe = regexp.MustCompile(`(?im)^[ \t]*references?\s*:[^\n]*$`)
)

// ReconcileCitations aligns the inline [n] markers in an answer with the URLs
// actually offered in the terminal round.
//
// Cited indices are collected in order of first appearance and mapped through
// contextURLs to a deduplicated URL list; every marker is then renumbered to
// its 1-based rank in that list, markers citing sources that were never
// offered are removed, and a single trailing References line is written to
// match. Running it again on its own output changes nothing.
//
// When the text carries no markers at all, the responder's own proposed URLs
// are kept, deduplicated and capped at maxFallbackURLs.
func ReconcileCitations(text string, contextURLs, proposed []string) (string, []string) {
	cited := citedIndices(text, len(contextURLs))
	if len(cited) == 0 {
		urls := dedupeURLs(proposed)
		if len(urls) > maxFallbackURLs {
			urls = urls[:maxFallbackURLs]
		}
		return strings.TrimSpace(text), urls
	}

	orderedURLs := make([]string, 0, len(cited))
	rankByURL := make(map[string]int, len(cited))
	rankByIndex := make(map[int]int, len(cited))
	for _, i := range cited {
		url := contextURLs[i-1]
		rank, ok := rankByURL[url]
		if !ok {
			orderedURLs = append(orderedURLs, url)
			rank = len(orderedURLs)
			rankByURL[url] = rank
		}
		rankByIndex[i] = rank
	}

	body := strings.TrimSpace(referencesRe.ReplaceAllString(text, ""))
	body = markerRe.ReplaceAllStringFunc(body, func(marker string) string {
		i, err := strconv.Atoi(marker[1 : len(marker)-1])
		if err != nil {
			return marker
		}
		rank, ok := rankByIndex[i]
		if !ok {
			return ""
		}
		return fmt.Sprintf("[%d]", rank)
	})

	var refs strings.Builder
	refs.WriteString("References:")
	for i := range orderedURLs {
		fmt.Fprintf(&refs, " [%d]", i+1)
	}
	return strings.TrimSpace(body) + "\n\n" + refs.String(), orderedURLs
}

// citedIndices extracts marker indices in order of first appearance,
// ignoring indices outside [1, limit].
func citedIndices(text string, limit int) []int {
	var cited []int
	seen := make(map[int]struct{})
	for _, match := range markerRe.FindAllStringSubmatch(text, -1) {
		i, err := strconv.Atoi(match[1])
		if err != nil || i < 1 || i > limit {
			continue
		}
		if _, ok := seen[i]; ok {
			continue
		}
		seen[i] = struct{}{}
		cited = append(cited, i)
	}
	return cited
}

// dedupeURLs removes duplicates preserving first appearance.
func dedupeURLs(urls []string) []string {
	seen := make(map[string]struct{}, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if u == "" {
			continue
		}
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}
