package domain

import "strings"

// PreferenceMetadata is what the extractor infers from a free-text prompt.
// Every field is optional.
type PreferenceMetadata struct {
	Genre       string `json:"genre,omitempty"`
	Mood        string `json:"mood,omitempty"`
	Tempo       string `json:"tempo,omitempty"`
	Instruments string `json:"instruments,omitempty"`
	Era         string `json:"era,omitempty"`
	Energy      string `json:"energy,omitempty"`
}

// IsZero reports whether no preference was inferred.
func (p PreferenceMetadata) IsZero() bool {
	return p == PreferenceMetadata{}
}

var (
	heuristicGenres = []string{"pop", "rock", "jazz", "hip-hop", "electronic", "country", "r&b", "classical", "folk", "reggae"}
	heuristicMoods  = []string{"happy", "sad", "energetic", "calm", "romantic", "melancholic", "upbeat", "chill", "angry", "peaceful"}
)

// HeuristicPreferences is the local keyword extractor used whenever the
// remote extractor is missing or fails. Genre and mood take the first list
// entry contained in the lower-cased prompt.
func HeuristicPreferences(prompt string) PreferenceMetadata {
	lower := strings.ToLower(prompt)
	return PreferenceMetadata{
		Genre: firstContained(lower, heuristicGenres),
		Mood:  firstContained(lower, heuristicMoods),
		Tempo: heuristicTempo(lower),
	}
}

func firstContained(text string, words []string) string {
	for _, w := range words {
		if strings.Contains(text, w) {
			return w
		}
	}
	return ""
}

func heuristicTempo(lower string) string {
	switch {
	case strings.Contains(lower, "fast"), strings.Contains(lower, "upbeat"), strings.Contains(lower, "energetic"):
		return "fast"
	case strings.Contains(lower, "slow"), strings.Contains(lower, "calm"), strings.Contains(lower, "chill"):
		return "slow"
	default:
		return "medium"
	}
}
