package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ashwini-1013/org-workspace/internal/core/domain"
	"github.com/ashwini-1013/org-workspace/internal/core/ports"
	"github.com/ashwini-1013/org-workspace/internal/metrics"
)

// NoMatchMessage is returned when neither retrieval path found anything.
const NoMatchMessage = "I couldn't find specific matches, but I'd recommend exploring some popular songs in your preferred genre!"

const fallbackNarrativeSongs = 3

// Recommendation is the answer to one prompt.
type Recommendation struct {
	Text        string
	Preferences domain.PreferenceMetadata
	Songs       []domain.CandidateSong
}

// Recommender turns a prompt into a narrated recommendation. The extractor
// and generator are optional; local fallbacks replace them when absent or
// failing.
type Recommender struct {
	extractor  ports.PreferenceExtractor
	generator  ports.NarrativeGenerator
	assembler  *Assembler
	llmTimeout time.Duration
	logger     zerolog.Logger
}

// RecommenderOption customizes a Recommender.
type RecommenderOption func(*Recommender)

// WithLLMTimeout bounds each extractor and generator call. Zero means no
// bound beyond the request context.
func WithLLMTimeout(d time.Duration) RecommenderOption {
	return func(r *Recommender) { r.llmTimeout = d }
}

func NewRecommender(extractor ports.PreferenceExtractor, generator ports.NarrativeGenerator, assembler *Assembler, logger zerolog.Logger, opts ...RecommenderOption) *Recommender {
	r := &Recommender{
		extractor: extractor,
		generator: generator,
		assembler: assembler,
		logger:    logger.With().Str("component", "recommender").Logger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Recommender) llmContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.llmTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.llmTimeout)
}

// Recommend rejects blank prompts with domain.ErrEmptyPrompt before touching
// any backend.
func (r *Recommender) Recommend(ctx context.Context, prompt string) (Recommendation, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return Recommendation{}, domain.ErrEmptyPrompt
	}
	start := time.Now()
	defer func() { metrics.RecommendDuration.Observe(time.Since(start).Seconds()) }()

	prefs := r.preferences(ctx, prompt)

	songs, err := r.assembler.Assemble(ctx, prompt, prefs)
	if err != nil {
		return Recommendation{}, fmt.Errorf("service: assemble candidates: %w", err)
	}
	if len(songs) == 0 {
		return Recommendation{Text: NoMatchMessage, Preferences: prefs, Songs: []domain.CandidateSong{}}, nil
	}

	return Recommendation{
		Text:        r.narrative(ctx, prompt, songs, prefs),
		Preferences: prefs,
		Songs:       songs,
	}, nil
}

func (r *Recommender) preferences(ctx context.Context, prompt string) domain.PreferenceMetadata {
	if r.extractor == nil {
		return domain.HeuristicPreferences(prompt)
	}
	ctx, cancel := r.llmContext(ctx)
	defer cancel()
	prefs, err := r.extractor.ExtractPreferences(ctx, prompt)
	if err != nil {
		metrics.LLMFallbacks.WithLabelValues("extract").Inc()
		r.logger.Warn().Err(err).Msg("preference extraction failed, using keyword heuristics")
		return domain.HeuristicPreferences(prompt)
	}
	return prefs
}

func (r *Recommender) narrative(ctx context.Context, prompt string, songs []domain.CandidateSong, prefs domain.PreferenceMetadata) string {
	if r.generator == nil {
		return FallbackNarrative(songs, prefs)
	}
	ctx, cancel := r.llmContext(ctx)
	defer cancel()
	text, err := r.generator.GenerateNarrative(ctx, prompt, songs, prefs)
	if err != nil || strings.TrimSpace(text) == "" {
		metrics.LLMFallbacks.WithLabelValues("narrate").Inc()
		r.logger.Warn().Err(err).Msg("narrative generation failed, listing top candidates")
		return FallbackNarrative(songs, prefs)
	}
	return text
}

// FallbackNarrative lists the first three candidates in a fixed template.
func FallbackNarrative(songs []domain.CandidateSong, prefs domain.PreferenceMetadata) string {
	top := songs
	if len(top) > fallbackNarrativeSongs {
		top = top[:fallbackNarrativeSongs]
	}

	var b strings.Builder
	b.WriteString("Based on your request, here are some great matches:\n\n")
	for i, s := range top {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%d. \"%s\" by %s", i+1, s.TrackName, s.ArtistName)
	}
	fmt.Fprintf(&b, "\n\nThese songs should match your %s mood and %s style!",
		orDefault(prefs.Mood, "desired"), orDefault(prefs.Genre, "preferred"))
	return b.String()
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
