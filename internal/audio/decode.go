// Package audio decodes reference recordings into mono float32 PCM at the
// rates the speech encoders expect.
package audio

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/cwbudde/wav"
)

// ErrFormatMismatch is returned when a WAV header describes no usable audio.
var ErrFormatMismatch = errors.New("WAV format mismatch")

// PCM is mono audio at SampleRate.
type PCM struct {
	Samples    []float32
	SampleRate int
}

// Duration returns the length in seconds.
func (p PCM) Duration() float64 {
	if p.SampleRate <= 0 {
		return 0
	}

	return float64(len(p.Samples)) / float64(p.SampleRate)
}

// DecodeWAV decodes WAV bytes of any rate and channel count. Multichannel
// audio is downmixed to mono by averaging.
func DecodeWAV(data []byte) (PCM, error) {
	if len(data) == 0 {
		return PCM{}, errors.New("empty WAV input")
	}

	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return PCM{}, errors.New("invalid WAV file")
	}

	if dec.SampleRate == 0 {
		return PCM{}, fmt.Errorf("%w: sample rate 0", ErrFormatMismatch)
	}
	if dec.NumChans == 0 {
		return PCM{}, fmt.Errorf("%w: no channels", ErrFormatMismatch)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return PCM{}, fmt.Errorf("reading PCM data: %w", err)
	}

	return PCM{
		Samples:    Downmix(buf.Data, int(dec.NumChans)),
		SampleRate: int(dec.SampleRate),
	}, nil
}

// Downmix averages interleaved frames into one channel. A trailing partial
// frame is dropped.
func Downmix(interleaved []float32, channels int) []float32 {
	if channels <= 1 {
		return interleaved
	}

	frames := len(interleaved) / channels
	out := make([]float32, frames)
	for i := range out {
		var sum float32
		for _, s := range interleaved[i*channels : (i+1)*channels] {
			sum += s
		}
		out[i] = sum / float32(channels)
	}

	return out
}
