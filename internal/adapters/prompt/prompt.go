// Package prompt holds the chat prompts shared by the LLM adapters and the
// lenient parser for the extractor's JSON answer.
package prompt

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/ashwini-1013/org-workspace/internal/core/domain"
)

const (
	ExtractTemperature = 0.3
	ExtractMaxTokens   = 200
	NarrateTemperature = 0.7
	NarrateMaxTokens   = 500
)

const extractSystem = `You are a music expert. Extract song metadata from user requests and return ONLY a JSON object with these fields:
- genre: main music genre (e.g., "pop", "rock", "jazz", "hip-hop", "electronic", "country", "r&b", "classical", "folk", "reggae")
- mood: emotional tone (e.g., "happy", "sad", "energetic", "calm", "romantic", "melancholic", "angry", "peaceful")
- tempo: speed (e.g., "slow", "medium", "fast", "upbeat")
- instruments: key instruments mentioned (e.g., "piano", "guitar", "drums", "violin")
- era: time period if mentioned (e.g., "80s", "90s", "2000s", "modern", "classic")
- energy: energy level (e.g., "low", "medium", "high")

Return only valid JSON, no explanations.`

const narrateSystem = `You are a professional music curator and DJ. Create personalized song recommendations based on user preferences and a curated list of matching songs.

Guidelines:
- Present 3-5 top recommendations with brief explanations
- Include artist name, song title, and why it matches their request
- Use engaging, friendly language
- Group similar songs or mention alternatives
- Add emoji for visual appeal
- Keep recommendations concise but informative`

// Message is one chat turn in the role/content shape every backend accepts.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ErrNoJSON is returned when the model answer holds no JSON object.
var ErrNoJSON = errors.New("prompt: no JSON object in response")

// ExtractMessages builds the preference extraction conversation.
func ExtractMessages(userPrompt string) []Message {
	return []Message{
		{Role: "system", Content: extractSystem},
		{Role: "user", Content: userPrompt},
	}
}

// NarrateMessages builds the narrative conversation for the given candidates.
func NarrateMessages(userPrompt string, songs []domain.CandidateSong, prefs domain.PreferenceMetadata) []Message {
	var list strings.Builder
	for i, s := range songs {
		if i > 0 {
			list.WriteByte('\n')
		}
		genre := s.Genre
		if genre == "" {
			genre = "Unknown genre"
		}
		fmt.Fprintf(&list, "• \"%s\" by %s (%s)", s.TrackName, s.ArtistName, genre)
	}

	var user strings.Builder
	fmt.Fprintf(&user, "User Request: \"%s\"\n\n", userPrompt)
	user.WriteString("Detected Preferences:\n")
	fmt.Fprintf(&user, "- Genre: %s\n", notSpecified(prefs.Genre))
	fmt.Fprintf(&user, "- Mood: %s\n", notSpecified(prefs.Mood))
	fmt.Fprintf(&user, "- Tempo: %s\n", notSpecified(prefs.Tempo))
	fmt.Fprintf(&user, "- Instruments: %s\n\n", notSpecified(prefs.Instruments))
	user.WriteString("Available Songs:\n")
	user.WriteString(list.String())
	user.WriteString("\n\nPlease create a personalized recommendation response.")

	return []Message{
		{Role: "system", Content: narrateSystem},
		{Role: "user", Content: user.String()},
	}
}

func notSpecified(v string) string {
	if v == "" {
		return "Not specified"
	}
	return v
}

// ParsePreferences reads the extractor answer. Models wrap JSON in code
// fences or chatter, so the outermost {...} is decoded. Unknown fields are
// ignored; numbers and lists are rendered as strings.
func ParsePreferences(content string) (domain.PreferenceMetadata, error) {
	start := strings.IndexByte(content, '{')
	end := strings.LastIndexByte(content, '}')
	if start < 0 || end < start {
		return domain.PreferenceMetadata{}, ErrNoJSON
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(content[start:end+1]), &raw); err != nil {
		return domain.PreferenceMetadata{}, fmt.Errorf("prompt: decode preferences: %w", err)
	}

	return domain.PreferenceMetadata{
		Genre:       stringify(raw["genre"]),
		Mood:        stringify(raw["mood"]),
		Tempo:       stringify(raw["tempo"]),
		Instruments: stringify(raw["instruments"]),
		Era:         stringify(raw["era"]),
		Energy:      stringify(raw["energy"]),
	}, nil
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			if s := stringify(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	default:
		return ""
	}
}
