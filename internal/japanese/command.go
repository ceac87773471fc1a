package japanese

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrNoCommand is returned when a CommandFrontend has no executable.
var ErrNoCommand = errors.New("frontend command is not configured")

// CommandFrontend delegates analysis to an external OpenJTalk-compatible
// helper. The helper reads text on stdin; invoked with "labels" it prints
// one full-context label per line, invoked with "g2p" it prints
// space-separated phones.
type CommandFrontend struct {
	Path string
	Args []string
}

// NewCommandFrontend returns a frontend running path with the given leading args.
func NewCommandFrontend(path string, args ...string) *CommandFrontend {
	return &CommandFrontend{Path: path, Args: args}
}

// Labels runs the helper in label mode.
func (f *CommandFrontend) Labels(ctx context.Context, text string) ([]string, error) {
	out, err := f.run(ctx, "labels", text)
	if err != nil {
		return nil, err
	}

	var labels []string
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			labels = append(labels, line)
		}
	}

	return labels, nil
}

// G2P runs the helper in plain phone mode.
func (f *CommandFrontend) G2P(ctx context.Context, text string) ([]string, error) {
	out, err := f.run(ctx, "g2p", text)
	if err != nil {
		return nil, err
	}

	return strings.Fields(out), nil
}

func (f *CommandFrontend) run(ctx context.Context, mode, text string) (string, error) {
	if strings.TrimSpace(f.Path) == "" {
		return "", ErrNoCommand
	}

	args := append(append([]string(nil), f.Args...), mode)
	cmd := exec.CommandContext(ctx, f.Path, args...)
	cmd.Stdin = strings.NewReader(text)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return "", fmt.Errorf("frontend %s %s: %w", f.Path, mode, err)
		}
		return "", fmt.Errorf("frontend %s %s: %w: %s", f.Path, mode, err, msg)
	}

	return stdout.String(), nil
}
