package japanese

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/example/go-genie-tts/internal/text"
)

// ErrNoFrontend is returned by New when no Frontend is given.
var ErrNoFrontend = errors.New("japanese frontend is required")

// Phonemizer converts Japanese text to phones with optional prosody marks.
type Phonemizer struct {
	frontend Frontend
	prosody  bool
}

// Option configures a Phonemizer.
type Option func(*Phonemizer)

// WithProsody toggles accent and boundary marks. Enabled by default.
func WithProsody(enabled bool) Option {
	return func(p *Phonemizer) {
		p.prosody = enabled
	}
}

// New returns a Phonemizer backed by fe.
func New(fe Frontend, opts ...Option) (*Phonemizer, error) {
	if fe == nil {
		return nil, ErrNoFrontend
	}

	p := &Phonemizer{frontend: fe, prosody: true}
	for _, opt := range opts {
		opt(p)
	}

	return p, nil
}

// Phonemize returns the phone sequence of s. Punctuation between content
// runs is kept as its own symbol.
func (p *Phonemizer) Phonemize(ctx context.Context, s string) ([]string, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}

	var phones []string
	for _, seg := range Split(Normalize(s)) {
		if seg.Content != "" {
			out, err := p.content(ctx, seg.Content)
			if err != nil {
				return nil, err
			}
			phones = append(phones, out...)
		}

		if mark := strings.TrimSpace(seg.Mark); mark != "" {
			phones = append(phones, mark)
		}
	}

	return text.PostReplaceAll(phones), nil
}

func (p *Phonemizer) content(ctx context.Context, s string) ([]string, error) {
	if !p.prosody {
		phones, err := p.frontend.G2P(ctx, s)
		if err != nil {
			return nil, fmt.Errorf("japanese g2p %q: %w", s, err)
		}
		return phones, nil
	}

	lines, err := p.frontend.Labels(ctx, s)
	if err != nil {
		return nil, fmt.Errorf("japanese labels %q: %w", s, err)
	}

	return StripUtteranceMarks(ProsodyPhones(ParseLabels(lines))), nil
}
