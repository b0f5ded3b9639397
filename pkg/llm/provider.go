// Package llm defines the chat provider used to produce new snippets.
//
// Example usage:
//
//	provider, err := openai.NewProvider(
//	    os.Getenv("OPENAI_API_KEY"),
//	    openai.WithModel("gpt-4o"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	stream, err := provider.StreamCompletion(ctx, []llm.Message{
//	    llm.UserMessage("Explain this function"),
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for chunk := range stream {
//	    if chunk.IsError() {
//	        log.Fatal(chunk.Error)
//	    }
//	    fmt.Print(chunk.Content)
//	}
package llm

import (
	"context"
)

// Role is the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one chat turn.
type Message struct {
	Role    Role
	Content string
}

// SystemMessage builds a system turn.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// UserMessage builds a user turn.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// ContentType tells thinking text apart from the answer.
type ContentType int

const (
	ContentTypeMessage ContentType = iota
	ContentTypeThinking
)

// StreamChunk is one piece of a streamed response.
type StreamChunk struct {
	Role     string
	Content  string
	Type     ContentType
	Finished bool
	Error    error
}

// IsError reports whether the chunk carries a stream error.
func (c *StreamChunk) IsError() bool {
	return c.Error != nil
}

// IsThinking reports whether the chunk is reasoning text rather than answer.
func (c *StreamChunk) IsThinking() bool {
	return c.Type == ContentTypeThinking
}

// Provider sends a conversation to a model.
type Provider interface {
	// StreamCompletion streams the reply. The channel is closed when the
	// reply ends; stream-time failures arrive as chunks with Error set.
	StreamCompletion(ctx context.Context, messages []Message) (<-chan *StreamChunk, error)

	// Complete returns the whole reply with thinking text removed.
	Complete(ctx context.Context, messages []Message) (*Message, error)

	// GetModel returns the model name in use.
	GetModel() string
}
