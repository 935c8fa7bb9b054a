package ollama

import (
	"context"
	"os"
	"testing"
)

// TestClient_ExtractPreferences_Integration tests against a live Ollama instance.
// This test is skipped unless RUN_AI_TESTS=true is set.
func TestClient_ExtractPreferences_Integration(t *testing.T) {
	if os.Getenv("RUN_AI_TESTS") != "true" {
		t.Skip("Skipping AI-dependent test (set RUN_AI_TESTS=true to enable)")
	}

	ollamaHost := os.Getenv("OLLAMA_HOST")
	if ollamaHost == "" {
		ollamaHost = "http://localhost:11434"
	}

	client := NewClient(ollamaHost, os.Getenv("OLLAMA_MODEL"))

	tests := []struct {
		name    string
		message string
	}{
		{
			name:    "Genre request",
			message: "Give me some upbeat rock songs for a road trip",
		},
		{
			name:    "Mood request",
			message: "Something calm with piano for a rainy evening",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prefs, err := client.ExtractPreferences(context.Background(), tt.message)
			if err != nil {
				t.Fatalf("ExtractPreferences() error = %v", err)
			}

			// Basic validation that we got a response
			if prefs.IsZero() {
				t.Error("expected at least one preference")
			}
			t.Logf("Preferences: %+v", prefs)
		})
	}
}
