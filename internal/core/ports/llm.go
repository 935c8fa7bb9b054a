package ports

import (
	"context"

	"github.com/ashwini-1013/org-workspace/internal/core/domain"
)

// Embedder turns text into a vector. Implementations report retryable
// conditions as *domain.TransientBackendError.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// PreferenceExtractor infers structured preferences from a prompt.
type PreferenceExtractor interface {
	ExtractPreferences(ctx context.Context, prompt string) (domain.PreferenceMetadata, error)
}

// NarrativeGenerator writes the prose answer for a set of candidates.
type NarrativeGenerator interface {
	GenerateNarrative(ctx context.Context, prompt string, songs []domain.CandidateSong, prefs domain.PreferenceMetadata) (string, error)
}

// CatalogSource yields raw catalog rows in source order.
type CatalogSource interface {
	ReadRows(ctx context.Context) ([]domain.CatalogRow, error)
}

// FeatureAnalyzer estimates audio energy from a preview clip.
type FeatureAnalyzer interface {
	AnalyzeEnergy(ctx context.Context, previewURL string) (float64, error)
}
