// Package gemini adapts Google's Gemini models to the preference extractor
// and narrative generator ports.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/ashwini-1013/org-workspace/internal/adapters/prompt"
	"github.com/ashwini-1013/org-workspace/internal/core/domain"
)

const DefaultModel = "gemini-2.0-flash"

// Generator wraps a genai.Client.
type Generator struct {
	client    *genai.Client
	modelName string
}

// NewClient builds a Gemini API client authenticated with apiKey.
func NewClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("gemini: api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return client, nil
}

// NewGenerator creates a generator for modelName (e.g., "gemini-2.0-flash").
func NewGenerator(client *genai.Client, modelName string) *Generator {
	if modelName == "" {
		modelName = DefaultModel
	}
	return &Generator{client: client, modelName: modelName}
}

func (g *Generator) ExtractPreferences(ctx context.Context, message string) (domain.PreferenceMetadata, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](prompt.ExtractTemperature),
		MaxOutputTokens:  prompt.ExtractMaxTokens,
		ResponseMIMEType: "application/json",
	}
	text, err := g.generate(ctx, prompt.ExtractMessages(message), cfg)
	if err != nil {
		return domain.PreferenceMetadata{}, err
	}
	prefs, err := prompt.ParsePreferences(text)
	if err != nil {
		return domain.PreferenceMetadata{}, fmt.Errorf("gemini: %w", err)
	}
	return prefs, nil
}

func (g *Generator) GenerateNarrative(ctx context.Context, message string, songs []domain.CandidateSong, prefs domain.PreferenceMetadata) (string, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](prompt.NarrateTemperature),
		MaxOutputTokens: prompt.NarrateMaxTokens,
	}
	return g.generate(ctx, prompt.NarrateMessages(message, songs, prefs), cfg)
}

// generate sends the system message as the system instruction and every
// other message as a user turn.
func (g *Generator) generate(ctx context.Context, msgs []prompt.Message, cfg *genai.GenerateContentConfig) (string, error) {
	var contents []*genai.Content
	for _, m := range msgs {
		if m.Role == "system" {
			cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: m.Content}}}
			continue
		}
		contents = append(contents, &genai.Content{
			Role:  "user",
			Parts: []*genai.Part{{Text: m.Content}},
		})
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.modelName, contents, cfg)
	if err != nil {
		return "", classify(err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("gemini: no candidates returned")
	}
	if len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini: no parts in response")
	}

	text := strings.TrimSpace(resp.Candidates[0].Content.Parts[0].Text)
	if text == "" {
		return "", fmt.Errorf("gemini: empty response")
	}
	return text, nil
}

func classify(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return prompt.StatusError("gemini", apiErr.Code, apiErr.Message)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return prompt.StatusError("gemini", apiErrPtr.Code, apiErrPtr.Message)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("gemini: generate content: %w", err)
	}
	return &domain.TransientBackendError{
		Kind: domain.KindUnavailable,
		Err:  fmt.Errorf("gemini: generate content: %w", err),
	}
}
