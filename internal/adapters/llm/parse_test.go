package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripCodeFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, StripCodeFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, StripCodeFences("```{\"a\":1}```"))
	assert.Equal(t, `{"a":1}`, StripCodeFences("  {\"a\":1}  "))
}

func TestParseAnalysis_NumericScore(t *testing.T) {
	got, err := ParseAnalysis(`{"response":"r","score":72,"sessionTitle":"t","recommendations":[],"exercises":[]}`)
	require.NoError(t, err)
	assert.Equal(t, "72", got.Score)
	assert.Empty(t, got.Exercises)
}

func TestParseAnalysis_Rejects(t *testing.T) {
	cases := map[string]string{
		"empty":            "   ",
		"garbage":          "not json",
		"missing score":    `{"response":"r","sessionTitle":"t","recommendations":[],"exercises":[]}`,
		"bad score type":   `{"response":"r","score":true,"sessionTitle":"t","recommendations":[],"exercises":[]}`,
		"exercise no desc": `{"response":"r","score":"1","sessionTitle":"t","recommendations":[],"exercises":[{"title":"a"}]}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseAnalysis(raw)
			assert.Error(t, err)
		})
	}
}
