// Package ollama provides an adapter for a local Ollama instance. It
// extracts listening preferences from prompts and writes the recommendation
// narrative through the /api/chat endpoint.
package ollama

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/ashwini-1013/org-workspace/internal/adapters/prompt"
	"github.com/ashwini-1013/org-workspace/internal/core/domain"
)

const (
	defaultBaseURL = "http://localhost:11434"
	defaultModel   = "llama3"
)

type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

type chatOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type chatRequest struct {
	Model    string           `json:"model"`
	Messages []prompt.Message `json:"messages"`
	Stream   bool             `json:"stream"`
	Format   string           `json:"format,omitempty"`
	Options  chatOptions      `json:"options"`
}

type chatResponse struct {
	Message prompt.Message `json:"message"`
	Error   string         `json:"error,omitempty"`
}

func NewClient(baseURL, model string) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if model == "" {
		model = defaultModel
	}
	return &Client{
		baseURL: baseURL,
		model:   model,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// ExtractPreferences asks the model for a JSON preference object.
func (c *Client) ExtractPreferences(ctx context.Context, message string) (domain.PreferenceMetadata, error) {
	content, err := c.chat(ctx, chatRequest{
		Format:   "json",
		Messages: prompt.ExtractMessages(message),
		Options:  chatOptions{Temperature: prompt.ExtractTemperature, NumPredict: prompt.ExtractMaxTokens},
	})
	if err != nil {
		return domain.PreferenceMetadata{}, err
	}
	prefs, err := prompt.ParsePreferences(content)
	if err != nil {
		return domain.PreferenceMetadata{}, fmt.Errorf("ollama: %w", err)
	}
	return prefs, nil
}

// GenerateNarrative writes the recommendation text for songs.
func (c *Client) GenerateNarrative(ctx context.Context, message string, songs []domain.CandidateSong, prefs domain.PreferenceMetadata) (string, error) {
	return c.chat(ctx, chatRequest{
		Messages: prompt.NarrateMessages(message, songs, prefs),
		Options:  chatOptions{Temperature: prompt.NarrateTemperature, NumPredict: prompt.NarrateMaxTokens},
	})
}

func (c *Client) chat(ctx context.Context, payload chatRequest) (string, error) {
	payload.Model = c.model
	payload.Stream = false

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("ollama: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("ollama: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &domain.TransientBackendError{Kind: domain.KindUnavailable, Err: fmt.Errorf("ollama: request failed: %w", err)}
	}
	defer resp.Body.Close()

	var parsed chatResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&parsed)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", prompt.StatusError("ollama", resp.StatusCode, parsed.Error)
	}
	if decodeErr != nil {
		return "", fmt.Errorf("ollama: decode response: %w", decodeErr)
	}
	if parsed.Error != "" {
		return "", fmt.Errorf("ollama: %s", parsed.Error)
	}

	content := strings.TrimSpace(parsed.Message.Content)
	if content == "" {
		return "", fmt.Errorf("ollama: empty response")
	}
	return content, nil
}
