package tokenizer

import (
	"testing"

	"github.com/entrhq/quill/pkg/llm"
	"github.com/stretchr/testify/assert"
)

func TestEstimate(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"a", 1},
		{"abcd", 1},
		{"abcde", 2},
		{"héllo wörld", 3},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Estimate(tt.text), tt.text)
	}
}

func TestZeroTokenizerEstimates(t *testing.T) {
	var tok Tokenizer
	assert.True(t, tok.Estimated())
	assert.Equal(t, 3, tok.CountTokens("hello world!"))

	var nilTok *Tokenizer
	assert.Equal(t, 0, nilTok.CountTokens(""))
	assert.Equal(t, 1, nilTok.CountTokens("hi"))
}

func TestCountMessagesTokensEstimated(t *testing.T) {
	var tok Tokenizer
	got := tok.CountMessagesTokens([]llm.Message{
		llm.SystemMessage("abcd"),
		llm.UserMessage("abcdefgh"),
	})
	// system: 4 + 2 + 1, user: 4 + 1 + 2
	assert.Equal(t, 14, got)
}
