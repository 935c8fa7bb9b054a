// Package embedding turns normalized text into fixed-length vectors using a
// deterministic character hash. It never calls out to a model service.
package embedding

import (
	"context"
	"math"
	"strings"

	"github.com/ashwini-1013/org-workspace/internal/core/domain"
	"github.com/ashwini-1013/org-workspace/internal/core/textnorm"
)

type keywordBoost struct {
	word       string
	start, end int
	weight     float64
}

var boosts = []keywordBoost{
	{word: "rock", start: 0, end: 50, weight: 0.2},
	{word: "pop", start: 50, end: 100, weight: 0.2},
	{word: "sad", start: 100, end: 150, weight: 0.3},
	{word: "happy", start: 150, end: 200, weight: 0.3},
}

// Encoder is the local hash encoder. The zero value is ready to use.
type Encoder struct{}

func NewEncoder() *Encoder {
	return &Encoder{}
}

// Embed normalizes text and encodes it. Text that normalizes to nothing
// yields an EncodingError.
func (e *Encoder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	normalized := textnorm.Normalize(text)
	if normalized == "" {
		return nil, domain.EncodingError{Text: text}
	}
	return Encode(normalized), nil
}

// Encode returns the unit-length vector for text, or the zero vector when
// text normalizes to nothing.
func Encode(text string) []float32 {
	normalized := textnorm.Normalize(text)
	acc := make([]float64, domain.EmbeddingDimension)

	i := 0
	for _, r := range normalized {
		c := int64(r)
		idx := (c * int64(i+1)) % domain.EmbeddingDimension
		acc[idx] += math.Sin(float64(c)*0.1) * 0.1
		i++
	}

	lower := strings.ToLower(normalized)
	for _, b := range boosts {
		if !strings.Contains(lower, b.word) {
			continue
		}
		for j := b.start; j < b.end; j++ {
			acc[j] += b.weight
		}
	}

	var sum float64
	for _, v := range acc {
		sum += v * v
	}
	out := make([]float32, domain.EmbeddingDimension)
	magnitude := math.Sqrt(sum)
	if magnitude == 0 {
		return out
	}
	for j, v := range acc {
		out[j] = float32(v / magnitude)
	}
	return out
}

// Dot returns the dot product of two vectors of equal length. For unit
// vectors this is their cosine similarity.
func Dot(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
