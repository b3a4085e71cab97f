package gpt

import (
	"InstaFlow/internal/lib/sl"
	"context"
	"errors"
	"fmt"
	"github.com/sashabaranov/go-openai"
	"log/slog"
)

// Resolver answers messages with a single chat completion. It keeps no
// history; the conversation session id is only forwarded as the end-user tag.
type Resolver struct {
	client       *openai.Client
	model        string
	systemPrompt string
	sessionID    string
	log          *slog.Logger
}

func NewResolver(apiKey, baseURL, model, systemPrompt, sessionID string, logger *slog.Logger) (*Resolver, error) {
	if apiKey == "" {
		return nil, errors.New("openai: api key must not be empty")
	}
	if model == "" {
		return nil, errors.New("openai: model must not be empty")
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	return &Resolver{
		client:       openai.NewClientWithConfig(cfg),
		model:        model,
		systemPrompt: systemPrompt,
		sessionID:    sessionID,
		log:          logger.With(sl.Module("openai")),
	}, nil
}

func (r *Resolver) DetectIntent(ctx context.Context, text string) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if r.systemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: r.systemPrompt,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: text,
	})

	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    r.model,
		Messages: messages,
		User:     r.sessionID,
	})
	if err != nil {
		return "", fmt.Errorf("openai: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai: no choices in response")
	}

	r.log.With(
		slog.String("model", resp.Model),
		slog.Int("tokens", resp.Usage.TotalTokens),
	).Debug("completion received")

	return resp.Choices[0].Message.Content, nil
}
