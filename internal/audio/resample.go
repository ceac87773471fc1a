package audio

import (
	"fmt"
	"math"
	"sync"

	resampling "github.com/tphakala/go-audio-resampling"
)

type ratePair struct{ from, to int }

// delays caches the filter group delay, in output samples, per rate pair.
var delays sync.Map

// Resample converts mono samples from one rate to another with the
// high-quality polyphase preset. The filter delay is removed and the filter
// tail flushed, so out[k] lines up with samples[k*from/to] and the output
// holds exactly round(len(samples) * to / from) samples.
func Resample(samples []float32, from, to int) ([]float32, error) {
	if from < 1 || to < 1 {
		return nil, fmt.Errorf("%w: resample %d Hz -> %d Hz", ErrFormatMismatch, from, to)
	}
	if from == to || len(samples) == 0 {
		return append([]float32(nil), samples...), nil
	}

	delay, err := filterDelay(from, to)
	if err != nil {
		return nil, err
	}

	in := make([]float64, len(samples))
	for i, s := range samples {
		in[i] = float64(s)
	}

	out, err := resampling.ResampleMono(in, float64(from), float64(to), resampling.QualityHigh)
	if err != nil {
		return nil, fmt.Errorf("resample error: %w", err)
	}
	out = out[min(delay, len(out)):]

	want := int(math.Round(float64(len(samples)) * float64(to) / float64(from)))
	res := make([]float32, want)
	for i := range min(want, len(out)) {
		res[i] = float32(out[i])
	}

	return res, nil
}

// filterDelay measures the group delay of the from -> to filter as the peak
// of its impulse response. The filter is linear phase, so the peak sits at
// the delay.
func filterDelay(from, to int) (int, error) {
	key := ratePair{from, to}
	if d, ok := delays.Load(key); ok {
		return d.(int), nil
	}

	impulse := make([]float64, max(from, 4096))
	impulse[0] = 1

	out, err := resampling.ResampleMono(impulse, float64(from), float64(to), resampling.QualityHigh)
	if err != nil {
		return 0, fmt.Errorf("failed to create resampler: %w", err)
	}

	peak := 0
	for i, v := range out {
		if math.Abs(v) > math.Abs(out[peak]) {
			peak = i
		}
	}

	delays.Store(key, peak)

	return peak, nil
}
