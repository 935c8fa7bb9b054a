// Package groq talks to Groq's OpenAI-compatible chat completions API.
package groq

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/oauth2"

	"github.com/ashwini-1013/org-workspace/internal/adapters/prompt"
	"github.com/ashwini-1013/org-workspace/internal/core/domain"
)

const (
	DefaultBaseURL = "https://api.groq.com/openai/v1"
	DefaultModel   = "llama3-8b-8192"
)

// ErrMissingAPIKey is returned by NewClient without a key.
var ErrMissingAPIKey = errors.New("groq: api key is required")

type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

type completionRequest struct {
	Model       string           `json:"model"`
	Messages    []prompt.Message `json:"messages"`
	Temperature float64          `json:"temperature"`
	MaxTokens   int              `json:"max_tokens"`
}

type completionResponse struct {
	Choices []struct {
		Message prompt.Message `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewClient returns a client that sends apiKey as a bearer token on every
// request.
func NewClient(ctx context.Context, apiKey, baseURL, model string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingAPIKey
	}
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}

	httpClient := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: apiKey}))
	httpClient.Timeout = 30 * time.Second

	return &Client{baseURL: baseURL, model: model, httpClient: httpClient}, nil
}

func (c *Client) ExtractPreferences(ctx context.Context, message string) (domain.PreferenceMetadata, error) {
	content, err := c.complete(ctx, completionRequest{
		Messages:    prompt.ExtractMessages(message),
		Temperature: prompt.ExtractTemperature,
		MaxTokens:   prompt.ExtractMaxTokens,
	})
	if err != nil {
		return domain.PreferenceMetadata{}, err
	}
	prefs, err := prompt.ParsePreferences(content)
	if err != nil {
		return domain.PreferenceMetadata{}, fmt.Errorf("groq: %w", err)
	}
	return prefs, nil
}

func (c *Client) GenerateNarrative(ctx context.Context, message string, songs []domain.CandidateSong, prefs domain.PreferenceMetadata) (string, error) {
	return c.complete(ctx, completionRequest{
		Messages:    prompt.NarrateMessages(message, songs, prefs),
		Temperature: prompt.NarrateTemperature,
		MaxTokens:   prompt.NarrateMaxTokens,
	})
}

func (c *Client) complete(ctx context.Context, payload completionRequest) (string, error) {
	payload.Model = c.model

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("groq: marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("groq: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &domain.TransientBackendError{Kind: domain.KindUnavailable, Err: fmt.Errorf("groq: request failed: %w", err)}
	}
	defer resp.Body.Close()

	var parsed completionResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&parsed)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail := ""
		if parsed.Error != nil {
			detail = parsed.Error.Message
		}
		return "", prompt.StatusError("groq", resp.StatusCode, detail)
	}
	if decodeErr != nil {
		return "", fmt.Errorf("groq: decode response: %w", decodeErr)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("groq: no choices in response")
	}
	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("groq: empty response")
	}
	return content, nil
}
