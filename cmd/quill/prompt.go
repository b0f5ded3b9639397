package main

import (
	"context"
	"fmt"
	"strings"

	appconfig "github.com/entrhq/quill/pkg/config"
	"github.com/entrhq/quill/pkg/llm"
	"github.com/entrhq/quill/pkg/llm/openai"
	"github.com/entrhq/quill/pkg/llm/tokenizer"
)

// SnippetInstructions is the system prompt for the prompt command.
const SnippetInstructions = `You write reusable snippets for a personal library.
Answer the request directly. Prefer complete, copy-pasteable text or code.
Do not add greetings or closing remarks.`

func runPrompt(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "prompt")
	flags := appconfig.ProviderFlags{}
	fs.StringVar(&flags.Model, "model", "", "LLM model (default: llm.model or "+openai.DefaultModel+")")
	fs.StringVar(&flags.BaseURL, "base-url", "", "API base URL (or set OPENAI_BASE_URL)")
	fs.StringVar(&flags.APIKey, "api-key", "", "API key (or set OPENAI_API_KEY)")
	into := fs.String("into", "", "Folder (or sibling snippet) to place the answer in")
	label := fs.String("label", "", "Label (default: first line of the prompt)")
	if _, err := parseArgs(fs, args, -1); err != nil {
		return err
	}

	question := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if question == "" {
		fs.Usage()
		return errUsage
	}

	provider, err := appconfig.BuildProvider(flags)
	if err != nil {
		return err
	}
	messages := []llm.Message{
		llm.SystemMessage(SnippetInstructions),
		llm.UserMessage(question),
	}
	tok, tokErr := tokenizer.New(provider.GetModel())
	if tokErr != nil {
		a.log.Debugf("prompt: %v", tokErr)
	}
	requestTokens := tok.CountMessagesTokens(messages)
	a.log.Infof("prompt: model %s, %d request tokens", provider.GetModel(), requestTokens)
	suffix := ""
	if tok.Estimated() {
		suffix = " (estimated)"
	}
	fmt.Fprintf(a.errOut, "request: %d tokens%s\n", requestTokens, suffix)

	answer, err := streamAnswer(ctx, a, provider, messages)
	if err != nil {
		return err
	}
	if strings.TrimSpace(answer) == "" {
		return fmt.Errorf("model returned an empty answer")
	}

	name := *label
	if name == "" {
		name = firstLine(question)
	}
	fmt.Fprintln(a.errOut)
	return saveLeaf(ctx, a, question, answer, name, *into)
}

// streamAnswer prints the reply to errOut as it arrives and returns the
// answer text without thinking blocks.
func streamAnswer(ctx context.Context, a *app, provider llm.Provider, messages []llm.Message) (string, error) {
	stream, err := provider.StreamCompletion(ctx, messages)
	if err != nil {
		return "", err
	}

	var answer strings.Builder
	for chunk := range stream {
		if chunk.IsError() {
			return "", fmt.Errorf("stream: %w", chunk.Error)
		}
		if chunk.IsThinking() {
			a.log.Debugf("thinking: %s", chunk.Content)
			continue
		}
		answer.WriteString(chunk.Content)
		fmt.Fprint(a.errOut, chunk.Content)
	}
	return strings.TrimSpace(answer.String()), nil
}
