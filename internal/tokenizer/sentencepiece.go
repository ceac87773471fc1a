package tokenizer

import (
	"errors"
	"fmt"

	gosp "github.com/vikesh-raj/go-sentencepiece-encoder/sentencepiece"
)

// ErrEmptyPath is returned when a tokenizer is built from an empty path.
var ErrEmptyPath = errors.New("tokenizer model path must not be empty")

// SentencePieceTokenizer implements Tokenizer with a pure-Go unigram
// SentencePiece model. Special tokens are added only with WithFrame.
type SentencePieceTokenizer struct {
	proc      gosp.Sentencepiece
	maxTokens int
	frame     *[2]int64
}

// NewSentencePieceTokenizer loads a SentencePiece model from the given path.
// WithLowercase has no effect here.
func NewSentencePieceTokenizer(modelPath string, opts ...Option) (*SentencePieceTokenizer, error) {
	if modelPath == "" {
		return nil, ErrEmptyPath
	}

	proc, err := gosp.NewSentencepieceFromFile(modelPath, false)
	if err != nil {
		return nil, fmt.Errorf("load sentencepiece model %q: %w", modelPath, err)
	}

	s := newSettings(opts)

	return &SentencePieceTokenizer{proc: proc, maxTokens: s.maxTokens, frame: s.frame}, nil
}

// Encode tokenizes text into piece ids, framed when configured and cut to
// the maximum length. Empty text yields no ids, not even the frame.
func (t *SentencePieceTokenizer) Encode(text string) ([]int64, error) {
	if text == "" {
		return []int64{}, nil
	}

	pieces := t.proc.TokenizeToIDs(text)

	limit := t.maxTokens
	if t.frame != nil {
		limit -= 2
	}
	if len(pieces) > limit {
		pieces = pieces[:limit]
	}

	ids := make([]int64, 0, len(pieces)+2)
	if t.frame != nil {
		ids = append(ids, t.frame[0])
	}
	for _, id := range pieces {
		ids = append(ids, int64(id))
	}
	if t.frame != nil {
		ids = append(ids, t.frame[1])
	}

	return ids, nil
}
