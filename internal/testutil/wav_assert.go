package testutil

import (
	"encoding/binary"
	"fmt"
	"math"
	"testing"
)

// wavInfo is what the assertions need from a RIFF/WAVE file.
type wavInfo struct {
	format     uint16
	channels   uint16
	sampleRate uint32
	bitDepth   uint16
	pcm        []byte
}

// parseWAV walks the chunk list; fmt need not sit at offset 12.
func parseWAV(data []byte) (wavInfo, error) {
	var info wavInfo

	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return info, fmt.Errorf("missing RIFF/WAVE header")
	}

	var haveFmt, haveData bool
	for off := 12; off+8 <= len(data); {
		id := string(data[off : off+4])
		size := int(binary.LittleEndian.Uint32(data[off+4 : off+8]))
		body := off + 8
		if body+size > len(data) {
			return info, fmt.Errorf("chunk %q overruns file (%d > %d)", id, body+size, len(data))
		}

		switch id {
		case "fmt ":
			if size < 16 {
				return info, fmt.Errorf("fmt chunk too short: %d bytes", size)
			}
			info.format = binary.LittleEndian.Uint16(data[body : body+2])
			info.channels = binary.LittleEndian.Uint16(data[body+2 : body+4])
			info.sampleRate = binary.LittleEndian.Uint32(data[body+4 : body+8])
			info.bitDepth = binary.LittleEndian.Uint16(data[body+14 : body+16])
			haveFmt = true
		case "data":
			info.pcm = data[body : body+size]
			haveData = true
		}

		off = body + size + size%2
	}

	if !haveFmt {
		return info, fmt.Errorf("fmt chunk not found")
	}
	if !haveData {
		return info, fmt.Errorf("data chunk not found")
	}

	return info, nil
}

// AssertValidWAV checks that data is a 16-bit mono PCM WAV file at
// sampleRate with at least one sample.
func AssertValidWAV(tb testing.TB, data []byte, sampleRate int) {
	tb.Helper()

	info, err := parseWAV(data)
	if err != nil {
		tb.Fatalf("WAV: %v", err)
	}

	if info.format != 1 {
		tb.Fatalf("WAV: expected PCM format (1), got %d", info.format)
	}
	if info.channels != 1 {
		tb.Fatalf("WAV: expected mono, got %d channels", info.channels)
	}
	if int(info.sampleRate) != sampleRate {
		tb.Fatalf("WAV: expected sample rate %d, got %d", sampleRate, info.sampleRate)
	}
	if info.bitDepth != 16 {
		tb.Fatalf("WAV: expected 16-bit depth, got %d", info.bitDepth)
	}
	if len(info.pcm) < 2 {
		tb.Fatal("WAV: data chunk contains zero samples")
	}
}

// AssertWAVDurationApprox asserts that the duration of 16-bit mono WAV data
// at sampleRate falls within [minSec, maxSec].
func AssertWAVDurationApprox(tb testing.TB, data []byte, sampleRate int, minSec, maxSec float64) {
	tb.Helper()

	info, err := parseWAV(data)
	if err != nil {
		tb.Fatalf("WAV duration check: %v", err)
	}

	durationSec := float64(len(info.pcm)/2) / float64(sampleRate)
	if durationSec < minSec || durationSec > maxSec {
		tb.Fatalf("WAV duration %.4fs out of expected range [%.4fs, %.4fs]", durationSec, minSec, maxSec)
	}
}

// AssertWAVSamples compares the 16-bit mono samples of data with want,
// allowing tol after scaling to [-1, 1].
func AssertWAVSamples(tb testing.TB, data []byte, want []float32, tol float64) {
	tb.Helper()

	info, err := parseWAV(data)
	if err != nil {
		tb.Fatalf("WAV samples: %v", err)
	}

	if got := len(info.pcm) / 2; got != len(want) {
		tb.Fatalf("WAV has %d samples, want %d", got, len(want))
	}

	for i, w := range want {
		s := int16(binary.LittleEndian.Uint16(info.pcm[2*i:]))
		got := float64(s) / 32768
		if math.Abs(got-float64(w)) > tol {
			tb.Fatalf("WAV sample[%d] = %.5f, want %.5f (tol %.5f)", i, got, w, tol)
		}
	}
}
