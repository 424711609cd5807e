package llms

import (
	"encoding/json"
	"log/slog"
	"regexp"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// The decode path is an ordered sequence of fallback strategies: direct parse,
// then local quote repair, then permissive repair. First success wins; if all
// fail the caller gets a MalformedOutputError. Unknown fields never survive
// decoding because the target is always a concrete struct.

// repairStrategy attempts to turn malformed model output into valid JSON.
type repairStrategy struct {
	name string
	fn   func(string) (string, error)
}

var repairStrategies = []repairStrategy{
	{"direct", func(s string) (string, error) { return s, nil }},
	{"quote_repair", func(s string) (string, error) { return repairStringQuotes(s), nil }},
	{"permissive", jsonrepair.JSONRepair},
}

// DecodeStructured decodes raw model output into out, applying the repair
// pipeline when the payload is not valid JSON as returned.
func DecodeStructured(model string, raw json.RawMessage, out any) error {
	text := stripCodeFence(string(raw))

	var lastErr error
	for _, strategy := range repairStrategies {
		candidate, err := strategy.fn(text)
		if err != nil {
			lastErr = err
			continue
		}
		if err := json.Unmarshal([]byte(candidate), out); err != nil {
			lastErr = err
			continue
		}
		if strategy.name != "direct" {
			slog.Warn("Repaired malformed model JSON", "model", model, "strategy", strategy.name)
		}
		return nil
	}

	return &MalformedOutputError{Model: model, Raw: text, Err: lastErr}
}

var codeFenceRe = regexp.MustCompile("^```(?:json)?\\s*|\\s*```$")

func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = codeFenceRe.ReplaceAllString(text, "")
	}
	return strings.TrimSpace(text)
}

// repairStringQuotes fixes JSON with unescaped double quotes inside string
// values: a quote inside a string is treated as closing only when the next
// non-space character is a JSON delimiter, otherwise it gets escaped.
func repairStringQuotes(text string) string {
	var out strings.Builder
	out.Grow(len(text))

	inString := false
	afterBackslash := false

	for i := 0; i < len(text); i++ {
		c := text[i]

		if !inString {
			if c == '"' {
				inString = true
			}
			out.WriteByte(c)
			continue
		}

		switch {
		case afterBackslash:
			out.WriteByte(c)
			afterBackslash = false
		case c == '\\':
			out.WriteByte(c)
			afterBackslash = true
		case c == '"':
			j := i + 1
			for j < len(text) && (text[j] == ' ' || text[j] == '\t' || text[j] == '\n' || text[j] == '\r') {
				j++
			}
			if j >= len(text) || text[j] == ',' || text[j] == '}' || text[j] == ']' || text[j] == ':' {
				out.WriteByte(c)
				inString = false
			} else {
				out.WriteByte('\\')
				out.WriteByte(c)
			}
		default:
			out.WriteByte(c)
		}
	}

	return out.String()
}
