package audio

import (
	"fmt"
	"log/slog"
	"os"
)

// Loader reads WAV files from disk as mono PCM at a requested rate.
type Loader struct{}

// NewLoader returns a file loader.
func NewLoader() *Loader { return &Loader{} }

// Load decodes path, downmixes it and resamples it to rate.
func (Loader) Load(path string, rate int) ([]float32, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read audio %q: %w", path, err)
	}

	pcm, err := DecodeWAV(data)
	if err != nil {
		return nil, fmt.Errorf("decode audio %q: %w", path, err)
	}

	out, err := Resample(pcm.Samples, pcm.SampleRate, rate)
	if err != nil {
		return nil, fmt.Errorf("resample audio %q: %w", path, err)
	}

	slog.Debug("loaded audio", "path", path, "source_rate", pcm.SampleRate, "rate", rate,
		"samples", len(out), "seconds", pcm.Duration())

	return out, nil
}
