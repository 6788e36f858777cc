// internal/llmutil/parser_test.go
package llmutil

import (
	"testing"

	fuzz "github.com/AdaLogics/go-fuzz-headers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type actionReply struct {
	Action string `json:"action"`
	Target string `json:"target"`
	Done   bool   `json:"done"`
}

func TestParseJSONResponse(t *testing.T) {
	t.Run("bare JSON object", func(t *testing.T) {
		out, err := ParseJSONResponse[actionReply](`{"action":"click","target":"element_2"}`)
		require.NoError(t, err)
		assert.Equal(t, "click", out.Action)
		assert.Equal(t, "element_2", out.Target)
	})

	t.Run("markdown fenced object", func(t *testing.T) {
		raw := "```json\n{\"action\":\"type\",\"target\":\"element_1\",\"done\":false}\n```"
		out, err := ParseJSONResponse[actionReply](raw)
		require.NoError(t, err)
		assert.Equal(t, "type", out.Action)
	})

	t.Run("fence without language tag", func(t *testing.T) {
		raw := "```\n{\"action\":\"clear\"}\n```"
		out, err := ParseJSONResponse[actionReply](raw)
		require.NoError(t, err)
		assert.Equal(t, "clear", out.Action)
	})

	t.Run("object buried in prose", func(t *testing.T) {
		raw := `Sure! Here is the next step: {"action":"select","target":"element_4","done":true} Let me know if it worked.`
		out, err := ParseJSONResponse[actionReply](raw)
		require.NoError(t, err)
		assert.Equal(t, "select", out.Action)
		assert.True(t, out.Done)
	})

	t.Run("fenced array", func(t *testing.T) {
		raw := "```json\n[{\"action\":\"click\"},{\"action\":\"type\"}]\n```"
		out, err := ParseJSONResponse[[]actionReply](raw)
		require.NoError(t, err)
		require.Len(t, *out, 2)
		assert.Equal(t, "type", (*out)[1].Action)
	})

	t.Run("malformed payload", func(t *testing.T) {
		_, err := ParseJSONResponse[actionReply](`{"action": "click", `)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to unmarshal LLM JSON response")
	})

	t.Run("empty response", func(t *testing.T) {
		_, err := ParseJSONResponse[actionReply]("")
		require.Error(t, err)
	})
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 10))
	assert.Equal(t, "ab...", Truncate("abcdef", 2))
	assert.Equal(t, "", Truncate("abcdef", 0))
}

// FuzzParseJSONResponse checks the parser never panics, whatever the oracle
// sends back.
func FuzzParseJSONResponse(f *testing.F) {
	f.Add([]byte(`{"action":"click"}`))
	f.Add([]byte("```json\n{\"done\":true}\n```"))
	f.Add([]byte("no json here at all"))
	f.Add([]byte("{{{{]]]"))

	f.Fuzz(func(t *testing.T, data []byte) {
		consumer := fuzz.NewConsumer(data)
		response, err := consumer.GetString()
		if err != nil {
			return
		}
		// Either outcome is fine; the point is no panic and no nil-with-nil-error.
		out, err := ParseJSONResponse[actionReply](response)
		if err == nil && out == nil {
			t.Fatal("nil result with nil error")
		}
	})
}
