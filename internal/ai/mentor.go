package ai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// ErrNotConfigured means no API key was provided; the mentor is disabled.
var ErrNotConfigured = errors.New("ai mentor not configured")

// Mentor answers trading questions and analyzes chart screenshots against
// the SSM rule set. Replies are language-matched to the user's input by the
// system prompt.
type Mentor struct {
	client *openai.Client
	model  string
}

// NewMentor returns a disabled mentor (nil client) when apiKey is empty.
func NewMentor(apiKey, model string) *Mentor {
	m := &Mentor{model: model}
	if apiKey != "" {
		m.client = openai.NewClient(apiKey)
	}
	return m
}

func (m *Mentor) Enabled() bool { return m.client != nil }

// Analyze sends the user's text and optional chart image to the model.
func (m *Mentor) Analyze(ctx context.Context, userText string, imageJPEG []byte) (string, error) {
	if m.client == nil {
		return "", ErrNotConfigured
	}

	if userText == "" {
		userText = "Analyze the chart."
	}

	parts := []openai.ChatMessagePart{
		{Type: openai.ChatMessagePartTypeText, Text: "User Query: " + userText},
	}
	if len(imageJPEG) > 0 {
		parts = append(parts, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{
				URL:    "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(imageJPEG),
				Detail: openai.ImageURLDetailHigh,
			},
		})
	}

	resp, err := m.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       m.model,
		Temperature: 0.2,
		MaxTokens:   1500,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, MultiContent: parts},
		},
	})
	if err != nil {
		return "", fmt.Errorf("ai request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("ai returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
