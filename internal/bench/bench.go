// Package bench provides timing primitives for the genietts bench command.
package bench

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

// ---------------------------------------------------------------------------
// Run result and stats
// ---------------------------------------------------------------------------

// RunResult holds the timing for a single front-end or reference run.
type RunResult struct {
	Index int
	Cold  bool // true for the first run (cold-start)
	// Duration is the wall time spent in the measured call.
	Duration time.Duration
	// AudioDuration is the length of the reference audio, zero for text-only runs.
	AudioDuration time.Duration
	RTF           float64
}

// Stats holds aggregate timing statistics across all runs.
type Stats struct {
	Min  time.Duration
	Max  time.Duration
	Mean time.Duration
}

// ComputeStats calculates min, max and mean over a slice of durations.
func ComputeStats(durations []time.Duration) Stats {
	if len(durations) == 0 {
		return Stats{}
	}
	mn, mx := durations[0], durations[0]
	var sum time.Duration
	for _, d := range durations {
		if d < mn {
			mn = d
		}
		if d > mx {
			mx = d
		}
		sum += d
	}
	return Stats{
		Min:  mn,
		Max:  mx,
		Mean: sum / time.Duration(len(durations)),
	}
}

// Durations returns the measured wall times of runs.
func Durations(runs []RunResult) []time.Duration {
	out := make([]time.Duration, len(runs))
	for i, r := range runs {
		out[i] = r.Duration
	}
	return out
}

// MeanRTF averages the RTF of runs that carry audio.
func MeanRTF(runs []RunResult) float64 {
	var sum float64
	var n int
	for _, r := range runs {
		if r.AudioDuration > 0 {
			sum += r.RTF
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// ---------------------------------------------------------------------------
// Runner
// ---------------------------------------------------------------------------

// Func is one measured call. It returns the duration of the audio it
// processed, or zero when no audio was involved.
type Func func(ctx context.Context, index int) (time.Duration, error)

// Run calls fn n times in sequence and records each call. The first run is
// marked cold. It stops at the first error.
func Run(ctx context.Context, n int, fn Func) ([]RunResult, error) {
	if n <= 0 {
		return nil, errors.New("bench: run count must be positive")
	}

	runs := make([]RunResult, 0, n)
	for i := range n {
		if err := ctx.Err(); err != nil {
			return runs, err
		}

		start := time.Now()
		audioDur, err := fn(ctx, i)
		elapsed := time.Since(start)
		if err != nil {
			return runs, fmt.Errorf("bench: run %d: %w", i+1, err)
		}

		runs = append(runs, RunResult{
			Index:         i,
			Cold:          i == 0,
			Duration:      elapsed,
			AudioDuration: audioDur,
			RTF:           CalcRTF(elapsed, audioDur),
		})
	}
	return runs, nil
}

// ---------------------------------------------------------------------------
// RTF helpers
// ---------------------------------------------------------------------------

// CalcRTF returns processing_duration / audio_duration.
// Returns 0 if audioDur is zero to avoid division by zero.
func CalcRTF(procDur, audioDur time.Duration) float64 {
	if audioDur <= 0 {
		return 0
	}
	return float64(procDur) / float64(audioDur)
}

// SamplesDuration converts a mono sample count at sampleRate into a duration.
func SamplesDuration(samples, sampleRate int) time.Duration {
	if sampleRate <= 0 || samples <= 0 {
		return 0
	}
	return time.Duration(int64(samples) * int64(time.Second) / int64(sampleRate))
}

// ---------------------------------------------------------------------------
// RTF threshold gate
// ---------------------------------------------------------------------------

// CheckRTFThreshold returns an error if meanRTF > threshold.
// A threshold of 0 disables the gate.
func CheckRTFThreshold(meanRTF, threshold float64) error {
	if threshold <= 0 {
		return nil
	}
	if meanRTF > threshold {
		return fmt.Errorf("mean RTF %.3f exceeds threshold %.3f", meanRTF, threshold)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Output formatters
// ---------------------------------------------------------------------------

// FormatTable writes a human-readable ASCII table of bench results to w.
func FormatTable(runs []RunResult, stats Stats, w io.Writer) {
	sb := &strings.Builder{}

	fmt.Fprintf(sb, "%-5s  %-5s  %10s  %12s  %8s\n", "Run", "Cold", "MS", "Audio(ms)", "RTF")
	fmt.Fprintln(sb, strings.Repeat("-", 48))

	for _, r := range runs {
		cold := ""
		if r.Cold {
			cold = "yes"
		}
		fmt.Fprintf(sb, "%-5d  %-5s  %10.3f  %12.1f  %8.3f\n",
			r.Index+1,
			cold,
			ms(r.Duration),
			ms(r.AudioDuration),
			r.RTF,
		)
	}

	fmt.Fprintln(sb, strings.Repeat("-", 48))
	fmt.Fprintf(sb, "%-5s  %-5s  %10.3f  %12s  %8s  (min)\n", "", "", ms(stats.Min), "", "")
	fmt.Fprintf(sb, "%-5s  %-5s  %10.3f  %12s  %8s  (mean)\n", "", "", ms(stats.Mean), "", "")
	fmt.Fprintf(sb, "%-5s  %-5s  %10.3f  %12s  %8s  (max)\n", "", "", ms(stats.Max), "", "")

	fmt.Fprint(w, sb.String())
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// jsonReport is the top-level JSON structure emitted by FormatJSON.
type jsonReport struct {
	Runs  []jsonRun `json:"runs"`
	Stats jsonStats `json:"stats"`
}

type jsonRun struct {
	Index      int     `json:"index"`
	Cold       bool    `json:"cold"`
	DurationMS float64 `json:"duration_ms"`
	AudioMS    float64 `json:"audio_ms"`
	RTF        float64 `json:"rtf"`
}

type jsonStats struct {
	MinMS   float64 `json:"min_ms"`
	MeanMS  float64 `json:"mean_ms"`
	MaxMS   float64 `json:"max_ms"`
	MeanRTF float64 `json:"mean_rtf"`
}

// FormatJSON writes a JSON report of bench results to w.
func FormatJSON(runs []RunResult, stats Stats, w io.Writer) error {
	jr := jsonReport{
		Runs: make([]jsonRun, len(runs)),
		Stats: jsonStats{
			MinMS:   ms(stats.Min),
			MeanMS:  ms(stats.Mean),
			MaxMS:   ms(stats.Max),
			MeanRTF: MeanRTF(runs),
		},
	}
	for i, r := range runs {
		jr.Runs[i] = jsonRun{
			Index:      r.Index,
			Cold:       r.Cold,
			DurationMS: ms(r.Duration),
			AudioMS:    ms(r.AudioDuration),
			RTF:        r.RTF,
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(jr)
}
