package embedding

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/ashwini-1013/org-workspace/internal/core/domain"
)

func TestEncodeIsDeterministicAndUnitLength(t *testing.T) {
	inputs := []string{
		"Bohemian Rhapsody Queen rock dramatic medium",
		"a",
		"Happy pop songs",
		"sad ballad",
	}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			a := Encode(in)
			b := Encode(in)
			if len(a) != domain.EmbeddingDimension {
				t.Fatalf("expected %d dims, got %d", domain.EmbeddingDimension, len(a))
			}
			for i := range a {
				if math.Float32bits(a[i]) != math.Float32bits(b[i]) {
					t.Fatalf("dimension %d differs between calls", i)
				}
			}
			if m := magnitude(a); math.Abs(m-1) > 1e-5 {
				t.Fatalf("expected unit vector, got magnitude %v", m)
			}
		})
	}
}

func TestEncodeEmptyIsZeroVector(t *testing.T) {
	for _, in := range []string{"", "   ", "?!."} {
		v := Encode(in)
		if len(v) != domain.EmbeddingDimension {
			t.Fatalf("expected %d dims, got %d", domain.EmbeddingDimension, len(v))
		}
		if magnitude(v) != 0 {
			t.Fatalf("expected zero vector for %q", in)
		}
	}
}

func TestEncodeKeywordBoost(t *testing.T) {
	v := Encode("rock")
	var inBand, outBand float64
	for i, x := range v {
		if i < 50 {
			inBand += float64(x)
		} else {
			outBand += math.Abs(float64(x))
		}
	}
	if inBand <= outBand {
		t.Fatalf("expected rock band to dominate: in=%v out=%v", inBand, outBand)
	}

	sadHappy := Encode("sad happy")
	if sadHappy[120] <= 0 || sadHappy[170] <= 0 {
		t.Fatalf("expected sad and happy bands to be boosted, got %v and %v", sadHappy[120], sadHappy[170])
	}
}

func TestEncodeNormalizesFirst(t *testing.T) {
	a := Encode("Hello,   World!")
	b := Encode("Hello World")
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("expected identical vectors at %d", i)
		}
	}
}

func TestEncoder_Embed(t *testing.T) {
	enc := NewEncoder()

	_, err := enc.Embed(context.Background(), " ... ")
	if !errors.Is(err, domain.ErrEmptyInput) {
		t.Fatalf("expected empty input error, got %v", err)
	}

	v, err := enc.Embed(context.Background(), "Imagine John Lennon folk peaceful slow")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := Dot(v, v); math.Abs(got-1) > 1e-5 {
		t.Fatalf("expected self similarity 1, got %v", got)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := enc.Embed(ctx, "text"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled, got %v", err)
	}
}

func magnitude(v []float32) float64 {
	var s float64
	for _, x := range v {
		s += float64(x) * float64(x)
	}
	return math.Sqrt(s)
}
