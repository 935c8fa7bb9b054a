// Package audio estimates track energy from an MP3 preview clip.
package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/hajimehoshi/go-mp3"
)

// maxSamples bounds decoding to roughly the first 30 seconds of stereo audio.
const maxSamples = 44100 * 2 * 30

// Analyzer downloads previews and measures their loudness.
type Analyzer struct {
	client *http.Client
}

func NewAnalyzer(client *http.Client) *Analyzer {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Analyzer{client: client}
}

// AnalyzeEnergy returns the RMS level of the decoded preview scaled to
// [0, 1].
func (a *Analyzer) AnalyzeEnergy(ctx context.Context, previewURL string) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, previewURL, nil)
	if err != nil {
		return 0, fmt.Errorf("audio: build request: %w", err)
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("audio: preview fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("audio: preview fetch status %d", resp.StatusCode)
	}
	return Energy(resp.Body)
}

// Energy decodes MP3 data from r and computes its RMS energy.
func Energy(r io.Reader) (float64, error) {
	decoder, err := mp3.NewDecoder(r)
	if err != nil {
		return 0, fmt.Errorf("audio: preview decode failed: %w", err)
	}
	return pcmEnergy(decoder)
}

// pcmEnergy reads signed 16-bit little-endian samples until EOF.
func pcmEnergy(r io.Reader) (float64, error) {
	buf := make([]byte, 4096)
	var sumSquares, count float64

	for count < maxSamples {
		n, err := r.Read(buf)
		for i := 0; i+1 < n; i += 2 {
			sample := float64(int16(buf[i]) | int16(buf[i+1])<<8)
			sumSquares += sample * sample
			count++
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return 0, fmt.Errorf("audio: preview read failed: %w", err)
		}
	}

	if count == 0 {
		return 0, fmt.Errorf("audio: preview contains no samples")
	}

	energy := math.Sqrt(sumSquares/count) / 32768.0
	return math.Min(math.Max(energy, 0), 1), nil
}
