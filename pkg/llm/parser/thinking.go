// Package parser separates model reasoning from the answer in streamed text.
package parser

import (
	"strings"

	"github.com/entrhq/quill/pkg/llm"
)

var (
	openTags  = map[string]bool{"<thinking>": true, "<think>": true}
	closeTags = map[string]bool{"</thinking>": true, "</think>": true}
)

// ThinkingParser splits <thinking> (or <think>) blocks out of streamed
// content. Tags may be split across chunks.
type ThinkingParser struct {
	buffer     strings.Builder
	tagBuffer  strings.Builder // text since an unmatched '<'
	inThinking bool
	inTag      bool
}

// NewThinkingParser creates a new thinking parser.
func NewThinkingParser() *ThinkingParser {
	return &ThinkingParser{}
}

// Parse consumes one content chunk and returns what it produced, split into
// thinking and answer text. Either result may be nil.
func (p *ThinkingParser) Parse(content string) (thinkingChunk, messageChunk *llm.StreamChunk) {
	if content == "" {
		return nil, nil
	}

	for _, ch := range content {
		switch {
		case ch == '<':
			// A second '<' means the first one did not open a tag.
			if p.inTag {
				thinkingChunk, messageChunk = p.appendChunk(thinkingChunk, messageChunk, p.flushTagBuffer())
			}
			thinkingChunk, messageChunk = p.appendChunk(thinkingChunk, messageChunk, p.flushBuffer())
			p.inTag = true
			p.tagBuffer.Reset()
			p.tagBuffer.WriteRune(ch)

		case ch == '>' && p.inTag:
			p.tagBuffer.WriteRune(ch)
			tag := p.tagBuffer.String()
			p.tagBuffer.Reset()
			p.inTag = false

			switch {
			case openTags[tag]:
				p.inThinking = true
			case closeTags[tag]:
				p.inThinking = false
			default:
				thinkingChunk, messageChunk = p.appendChunk(thinkingChunk, messageChunk, p.createChunk(tag))
			}

		case p.inTag:
			p.tagBuffer.WriteRune(ch)

		default:
			p.buffer.WriteRune(ch)
		}
	}

	thinkingChunk, messageChunk = p.appendChunk(thinkingChunk, messageChunk, p.flushBuffer())
	return thinkingChunk, messageChunk
}

func (p *ThinkingParser) flushBuffer() *llm.StreamChunk {
	if p.buffer.Len() == 0 {
		return nil
	}
	chunk := p.createChunk(p.buffer.String())
	p.buffer.Reset()
	return chunk
}

func (p *ThinkingParser) flushTagBuffer() *llm.StreamChunk {
	if p.tagBuffer.Len() == 0 {
		return nil
	}
	text := p.tagBuffer.String()
	p.tagBuffer.Reset()
	return p.createChunk(text)
}

// createChunk types text by the current mode.
func (p *ThinkingParser) createChunk(text string) *llm.StreamChunk {
	if text == "" {
		return nil
	}
	kind := llm.ContentTypeMessage
	if p.inThinking {
		kind = llm.ContentTypeThinking
	}
	return &llm.StreamChunk{Content: text, Type: kind}
}

func (p *ThinkingParser) appendChunk(thinkingChunk, messageChunk, newChunk *llm.StreamChunk) (*llm.StreamChunk, *llm.StreamChunk) {
	if newChunk == nil {
		return thinkingChunk, messageChunk
	}

	if newChunk.IsThinking() {
		if thinkingChunk == nil {
			return newChunk, messageChunk
		}
		thinkingChunk.Content += newChunk.Content
		return thinkingChunk, messageChunk
	}

	if messageChunk == nil {
		return thinkingChunk, newChunk
	}
	messageChunk.Content += newChunk.Content
	return thinkingChunk, messageChunk
}

// IsInThinking returns true if currently parsing thinking content.
func (p *ThinkingParser) IsInThinking() bool {
	return p.inThinking
}

// Flush returns anything still buffered. Call it once the stream ends.
func (p *ThinkingParser) Flush() (thinkingChunk, messageChunk *llm.StreamChunk) {
	if p.inTag {
		thinkingChunk, messageChunk = p.appendChunk(thinkingChunk, messageChunk, p.flushTagBuffer())
		p.inTag = false
	}
	return p.appendChunk(thinkingChunk, messageChunk, p.flushBuffer())
}

// Reset resets the parser state for a new stream.
func (p *ThinkingParser) Reset() {
	p.buffer.Reset()
	p.tagBuffer.Reset()
	p.inThinking = false
	p.inTag = false
}

// StripThinking removes thinking blocks from a complete reply.
func StripThinking(text string) string {
	p := NewThinkingParser()
	var out strings.Builder
	_, msg := p.Parse(text)
	if msg != nil {
		out.WriteString(msg.Content)
	}
	if _, msg = p.Flush(); msg != nil {
		out.WriteString(msg.Content)
	}
	return strings.TrimSpace(out.String())
}
