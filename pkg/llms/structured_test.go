package llms

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testOutput struct {
	Answer    string   `json:"answer"`
	Questions []string `json:"questions"`
}

func TestDecodeStructuredDirect(t *testing.T) {
	var out testOutput
	err := DecodeStructured("m", json.RawMessage(`{"answer": "hi", "questions": ["a"]}`), &out)
	require.NoError(t, err)
	assert.Equal(t, "hi", out.Answer)
	assert.Equal(t, []string{"a"}, out.Questions)
}

func TestDecodeStructuredStripsCodeFence(t *testing.T) {
	raw := json.RawMessage("```json\n{\"answer\": \"fenced\"}\n```")

	var out testOutput
	require.NoError(t, DecodeStructured("m", raw, &out))
	assert.Equal(t, "fenced", out.Answer)
}

func TestDecodeStructuredRepairsUnescapedQuotes(t *testing.T) {
	raw := json.RawMessage(`{"answer": "the docs say "use a quote" before ordering"}`)

	var out testOutput
	require.NoError(t, DecodeStructured("m", raw, &out))
	assert.Equal(t, `the docs say "use a quote" before ordering`, out.Answer)
}

func TestDecodeStructuredPermissiveRepair(t *testing.T) {
	// Trailing comma: invalid JSON that the permissive strategy fixes.
	raw := json.RawMessage(`{"answer": "ok",}`)

	var out testOutput
	require.NoError(t, DecodeStructured("m", raw, &out))
	assert.Equal(t, "ok", out.Answer)
}

func TestDecodeStructuredIgnoresUnknownFields(t *testing.T) {
	// Keys leaked from few-shot examples are dropped by decoding into the
	// concrete struct.
	raw := json.RawMessage(`{"answer": "ok", "sellToken": "0xabc", "buyToken": "0xdef"}`)

	var out testOutput
	require.NoError(t, DecodeStructured("m", raw, &out))
	assert.Equal(t, "ok", out.Answer)
}

func TestDecodeStructuredFailureIsTyped(t *testing.T) {
	var out testOutput
	// A bare string is irreparable: valid JSON, but never the target object.
	err := DecodeStructured("my-model", json.RawMessage(`"no object here"`), &out)
	require.Error(t, err)

	var malformed *MalformedOutputError
	require.True(t, errors.As(err, &malformed))
	assert.Equal(t, "my-model", malformed.Model)
}

func TestRepairStringQuotesLeavesValidJSONAlone(t *testing.T) {
	in := `{"answer": "clean", "questions": []}`
	assert.Equal(t, in, repairStringQuotes(in))
}

func TestSchemaReflectsFields(t *testing.T) {
	schema, err := NewSchema("test", &testOutput{})
	require.NoError(t, err)

	props, ok := schema.Map()["properties"].(map[string]any)
	require.True(t, ok, "schema has no properties: %v", schema.Map())
	assert.Contains(t, props, "answer")
	assert.Contains(t, props, "questions")
}

func TestGeminiMapStripsUnsupportedKeys(t *testing.T) {
	schema := MustSchema("test", &testOutput{})

	m := schema.GeminiMap()
	assert.NotContains(t, m, "$schema")
	assert.NotContains(t, m, "additionalProperties")
	props, ok := m["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "answer")
}
