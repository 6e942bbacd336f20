// Package quizgen generates quiz questions from source text through an
// OpenAI-compatible chat completion API.
package quizgen

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"

	"github.com/pavelanni/quizdesk/internal/model"
	"github.com/pavelanni/quizdesk/internal/quizgen/prompts"
)

// Client wraps an OpenAI-compatible API client.
type Client struct {
	api   *openai.Client
	model string
}

// New creates a new generation client.
func New(baseURL, apiKey, modelName string) *Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &Client{
		api:   openai.NewClientWithConfig(config),
		model: modelName,
	}
}

// Ping verifies the endpoint is reachable.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.api.ListModels(ctx); err != nil {
		return fmt.Errorf("LLM endpoint unreachable: %w", err)
	}
	return nil
}

// Generate asks the model for count questions of the given kind, grounded
// on sourceText. Questions that violate the kind's shape are dropped.
func (c *Client) Generate(ctx context.Context, sourceText string, count int, kind model.QuestionKind) ([]model.Question, error) {
	if count <= 0 {
		return nil, fmt.Errorf("question count must be positive, got %d", count)
	}
	if !model.ValidKind(kind) {
		return nil, fmt.Errorf("unknown question kind %q", kind)
	}

	systemPrompt, err := prompts.BuildGenerate(prompts.GenerateData{
		SourceText: sourceText,
		Count:      count,
		Kind:       kind,
	})
	if err != nil {
		return nil, err
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.7,
	})
	if err != nil {
		return nil, fmt.Errorf("LLM API call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("LLM returned no choices")
	}

	raw := resp.Choices[0].Message.Content
	slog.Debug("LLM generation response", "raw", raw)

	questions, err := parseQuestions(raw, kind)
	if err != nil {
		return nil, fmt.Errorf("parse LLM response: %w (raw: %s)", err, raw)
	}
	return questions, nil
}

// parseQuestions decodes a generation response, keeping only questions
// that satisfy the tagged-variant invariant for the requested kind.
func parseQuestions(raw string, kind model.QuestionKind) ([]model.Question, error) {
	var payload struct {
		Questions []model.QuestionImport `json:"questions"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, err
	}
	if len(payload.Questions) == 0 {
		return nil, fmt.Errorf("no questions in response")
	}

	var questions []model.Question
	for _, qi := range payload.Questions {
		qi.Kind = kind
		if !qi.Validate() {
			slog.Warn("dropping malformed generated question", "text", qi.Text, "options", len(qi.Options))
			continue
		}
		questions = append(questions, model.Question{
			ID:      uuid.NewString(),
			Text:    qi.Text,
			Code:    qi.Code,
			Kind:    kind,
			Options: qi.Options,
		})
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("all generated questions were malformed")
	}
	return questions, nil
}
