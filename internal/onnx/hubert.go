package onnx

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/go-genie-tts/internal/refaudio"
)

const (
	HubertGraph = "cn_hubert"
	HubertInput = "input_values"
)

// HubertEncoder turns 16 kHz mono audio into self-supervised content
// features using the cn_hubert graph.
type HubertEncoder struct {
	engine *Engine
	output string
}

var _ refaudio.AudioEncoder = (*HubertEncoder)(nil)

// NewHubertEncoder reads the named output, or the first output listed in
// the manifest when output is empty.
func NewHubertEncoder(engine *Engine, output string) *HubertEncoder {
	return &HubertEncoder{engine: engine, output: output}
}

// Encode runs the graph and returns its output as a matrix over the last
// two dimensions, e.g. [768, frames].
func (h *HubertEncoder) Encode(ctx context.Context, samples []float32) (refaudio.Matrix, error) {
	if len(samples) == 0 {
		return refaudio.Matrix{}, errors.New("hubert: no audio samples")
	}

	runner, err := h.engine.Runner(HubertGraph)
	if err != nil {
		return refaudio.Matrix{}, err
	}

	input, err := NewTensor(samples, []int64{1, int64(len(samples))})
	if err != nil {
		return refaudio.Matrix{}, fmt.Errorf("hubert input: %w", err)
	}

	outputs, err := runner.Run(ctx, map[string]*Tensor{HubertInput: input})
	if err != nil {
		return refaudio.Matrix{}, err
	}

	out, err := pickOutput(h.engine.sessions, HubertGraph, h.output, outputs)
	if err != nil {
		return refaudio.Matrix{}, err
	}

	return matrixFromTensor(out)
}

// pickOutput selects name, else the first manifest output present in
// outputs, else the only output.
func pickOutput(sessions *SessionManager, graph, name string, outputs map[string]*Tensor) (*Tensor, error) {
	if name != "" {
		t, ok := outputs[name]
		if !ok {
			return nil, fmt.Errorf("%s: missing output %q", graph, name)
		}

		return t, nil
	}

	if meta, ok := sessions.Session(graph); ok {
		for _, node := range meta.Outputs {
			if t, ok := outputs[node.Name]; ok {
				return t, nil
			}
		}
	}

	if len(outputs) == 1 {
		for _, t := range outputs {
			return t, nil
		}
	}

	return nil, fmt.Errorf("%s: cannot choose among %d outputs", graph, len(outputs))
}

// matrixFromTensor views a float32 tensor of rank >= 2 whose leading
// dimensions are all 1 as a rows x cols matrix.
func matrixFromTensor(t *Tensor) (refaudio.Matrix, error) {
	shape := t.Shape()
	if len(shape) < 2 {
		return refaudio.Matrix{}, fmt.Errorf("expected rank >= 2 output, got shape %v", shape)
	}

	for i, dim := range shape[:len(shape)-2] {
		if dim != 1 {
			return refaudio.Matrix{}, fmt.Errorf("output dim %d is %d, want 1", i, dim)
		}
	}

	data, err := ExtractFloat32(t)
	if err != nil {
		return refaudio.Matrix{}, err
	}

	return refaudio.Matrix{
		Rows: int(shape[len(shape)-2]),
		Cols: int(shape[len(shape)-1]),
		Data: data,
	}, nil
}
