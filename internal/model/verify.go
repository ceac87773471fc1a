package model

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/example/go-genie-tts/internal/onnx"
)

// VerifyOptions selects the graphs to smoke-test and where to report.
type VerifyOptions struct {
	// Graphs limits the run to these names; empty means every manifest graph.
	Graphs []string
	Stdout io.Writer
	Stderr io.Writer
}

// Verify opens each selected graph of engine and runs it once on zero-filled
// inputs shaped from the manifest. Symbolic or non-positive dimensions become 1.
func Verify(ctx context.Context, engine *onnx.Engine, opts VerifyOptions) error {
	if engine == nil {
		return errors.New("engine is required")
	}

	if opts.Stdout == nil {
		opts.Stdout = io.Discard
	}

	if opts.Stderr == nil {
		opts.Stderr = io.Discard
	}

	sessions, err := selectSessions(engine.Sessions(), opts.Graphs)
	if err != nil {
		return err
	}

	var failures []string

	for _, session := range sessions {
		if err := smoke(ctx, engine, session); err != nil {
			_, _ = fmt.Fprintf(opts.Stderr, "FAIL %s: %v\n", session.Name, err)
			failures = append(failures, session.Name)

			continue
		}

		_, _ = fmt.Fprintf(opts.Stdout, "PASS %s\n", session.Name)
	}

	if len(failures) > 0 {
		return fmt.Errorf("verify failed for %d graph(s): %s", len(failures), strings.Join(failures, ", "))
	}

	return nil
}

func selectSessions(sm *onnx.SessionManager, names []string) ([]onnx.Session, error) {
	if len(names) == 0 {
		return sm.Sessions(), nil
	}

	out := make([]onnx.Session, 0, len(names))
	for _, name := range names {
		s, ok := sm.Session(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", onnx.ErrGraphNotFound, name)
		}
		out = append(out, s)
	}

	return out, nil
}

func smoke(ctx context.Context, engine *onnx.Engine, session onnx.Session) error {
	runner, err := engine.Runner(session.Name)
	if err != nil {
		return fmt.Errorf("load graph: %w", err)
	}

	inputs := make(map[string]*onnx.Tensor, len(session.Inputs))
	for _, input := range session.Inputs {
		t, err := zeroTensor(input)
		if err != nil {
			return fmt.Errorf("build input %q: %w", input.Name, err)
		}
		inputs[input.Name] = t
	}

	outputs, err := runner.Run(ctx, inputs)
	if err != nil {
		return fmt.Errorf("run inference: %w", err)
	}

	if len(outputs) == 0 {
		return errors.New("graph produced no outputs")
	}

	return nil
}

// zeroTensor builds a zero-filled tensor for a manifest input.
func zeroTensor(node onnx.NodeInfo) (*onnx.Tensor, error) {
	shape := make([]int64, len(node.Shape))
	n := 1
	for i, dim := range node.Shape {
		shape[i] = 1
		if v, ok := dim.(float64); ok && v >= 1 && v == float64(int64(v)) {
			shape[i] = int64(v)
		}
		n *= int(shape[i])
	}

	switch strings.ToLower(node.DType) {
	case "float", "float32":
		return onnx.NewTensor(make([]float32, n), shape)
	case "int64":
		return onnx.NewTensor(make([]int64, n), shape)
	default:
		return nil, fmt.Errorf("unsupported dtype %q", node.DType)
	}
}
