package tokenizer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNoTokenizer is returned when a directory holds no known tokenizer asset.
var ErrNoTokenizer = errors.New("no tokenizer asset found")

// Asset file names looked for by Resolve, in order of preference.
const (
	HFTokenizerFile        = "tokenizer.json"
	WordPieceVocabFile     = "vocab.txt"
	SentencePieceModelFile = "tokenizer.model"
)

// Resolve picks the tokenizer for a model directory once: a Hugging Face
// tokenizer.json wins over a WordPiece vocab.txt, which wins over a
// SentencePiece tokenizer.model. A path to any of these files is accepted
// as well.
func Resolve(path string, opts ...Option) (Tokenizer, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("resolve tokenizer: %w", err)
	}

	if !info.IsDir() {
		return fromFile(path, opts...)
	}

	for _, name := range []string{HFTokenizerFile, WordPieceVocabFile, SentencePieceModelFile} {
		candidate := filepath.Join(path, name)
		if _, err := os.Stat(candidate); err == nil {
			return fromFile(candidate, opts...)
		}
	}

	return nil, fmt.Errorf("%w in %s", ErrNoTokenizer, path)
}

func fromFile(path string, opts ...Option) (Tokenizer, error) {
	switch filepath.Ext(path) {
	case ".json":
		return NewHFTokenizer(path, opts...)
	case ".txt":
		return NewWordPieceTokenizer(path, opts...)
	case ".model":
		return NewSentencePieceTokenizer(path, opts...)
	default:
		return nil, fmt.Errorf("%w: unrecognised file %s", ErrNoTokenizer, path)
	}
}
