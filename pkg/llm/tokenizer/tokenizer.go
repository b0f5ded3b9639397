// Package tokenizer counts tokens the way OpenAI models do, falling back to
// an estimate when the encoding is unavailable.
package tokenizer

import (
	"fmt"
	"unicode/utf8"

	"github.com/entrhq/quill/pkg/llm"
	"github.com/pkoukk/tiktoken-go"
)

// DefaultEncoding is used for models tiktoken does not know.
const DefaultEncoding = "cl100k_base"

// perMessageOverhead approximates the role and framing tokens of one chat turn.
const perMessageOverhead = 4

// Tokenizer counts tokens. The zero value estimates.
type Tokenizer struct {
	enc *tiktoken.Tiktoken
}

// New loads the encoding for model, or DefaultEncoding when model is empty
// or unknown. The encoding file may be fetched on first use; on failure the
// returned Tokenizer still works and estimates.
func New(model string) (*Tokenizer, error) {
	var (
		enc *tiktoken.Tiktoken
		err error
	)
	if model != "" {
		enc, err = tiktoken.EncodingForModel(model)
	}
	if enc == nil {
		enc, err = tiktoken.GetEncoding(DefaultEncoding)
	}
	if err != nil {
		return &Tokenizer{}, fmt.Errorf("tokenizer: load encoding: %w", err)
	}
	return &Tokenizer{enc: enc}, nil
}

// Estimated reports whether counts are estimates.
func (t *Tokenizer) Estimated() bool {
	return t == nil || t.enc == nil
}

// CountTokens returns the token count of text.
func (t *Tokenizer) CountTokens(text string) int {
	if text == "" {
		return 0
	}
	if t.Estimated() {
		return Estimate(text)
	}
	return len(t.enc.Encode(text, nil, nil))
}

// CountMessagesTokens counts a conversation including per-message framing.
func (t *Tokenizer) CountMessagesTokens(messages []llm.Message) int {
	total := 0
	for _, m := range messages {
		total += perMessageOverhead + t.CountTokens(string(m.Role)) + t.CountTokens(m.Content)
	}
	return total
}

// Estimate approximates tokens as one per four characters, rounded up.
func Estimate(text string) int {
	return (utf8.RuneCountInString(text) + 3) / 4
}
