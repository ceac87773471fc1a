package tokenizer

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	hf "github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/model"
	"github.com/sugarme/tokenizer/model/wordpiece"
	"github.com/sugarme/tokenizer/normalizer"
	"github.com/sugarme/tokenizer/pretokenizer"
	"github.com/sugarme/tokenizer/pretrained"
	"github.com/sugarme/tokenizer/processor"
)

// Special WordPiece tokens.
const (
	TokenCLS = "[CLS]"
	TokenSEP = "[SEP]"
	TokenUNK = "[UNK]"
)

// ErrMissingSpecialToken is returned when a vocabulary lacks [CLS], [SEP] or [UNK].
var ErrMissingSpecialToken = errors.New("vocabulary is missing a special token")

// WordPieceTokenizer implements the BERT normalizer, pre-tokenizer and
// WordPiece model used by Chinese RoBERTa style models. Output is framed by
// [CLS] and [SEP].
type WordPieceTokenizer struct {
	tk  *hf.Tokenizer
	cls int64
	sep int64
}

// NewWordPieceTokenizer loads a vocab.txt file with one token per line; the
// line number is the token id.
func NewWordPieceTokenizer(vocabPath string, opts ...Option) (*WordPieceTokenizer, error) {
	if vocabPath == "" {
		return nil, ErrEmptyPath
	}

	f, err := os.Open(vocabPath)
	if err != nil {
		return nil, fmt.Errorf("open wordpiece vocab: %w", err)
	}
	defer f.Close()

	tok, err := NewWordPieceTokenizerFromReader(f, opts...)
	if err != nil {
		return nil, fmt.Errorf("load wordpiece vocab %q: %w", vocabPath, err)
	}

	return tok, nil
}

// NewWordPieceTokenizerFromReader reads a vocabulary from r.
func NewWordPieceTokenizerFromReader(r io.Reader, opts ...Option) (*WordPieceTokenizer, error) {
	vocab := make(model.Vocab)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	id := 0
	for sc.Scan() {
		token := strings.TrimRight(sc.Text(), "\r")
		if _, dup := vocab[token]; !dup {
			vocab[token] = id
		}
		id++
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read vocab: %w", err)
	}

	special := make(map[string]int, 3)
	for _, name := range []string{TokenCLS, TokenSEP, TokenUNK} {
		v, ok := vocab[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingSpecialToken, name)
		}
		special[name] = v
	}

	cfg := newSettings(opts)

	wp := wordpiece.NewWordPieceBuilder().Vocab(&vocab).UnkToken(TokenUNK).Build()
	tk := hf.NewTokenizer(wp)
	tk.WithNormalizer(normalizer.NewBertNormalizer(true, cfg.lowercase, true, cfg.lowercase))
	tk.WithPreTokenizer(pretokenizer.NewBertPreTokenizer())
	tk.WithPostProcessor(processor.NewBertProcessing(
		processor.PostToken{Value: TokenSEP, Id: special[TokenSEP]},
		processor.PostToken{Value: TokenCLS, Id: special[TokenCLS]},
	))
	tk.WithTruncation(&hf.TruncationParams{MaxLength: cfg.maxTokens, Strategy: hf.LongestFirst})

	return &WordPieceTokenizer{
		tk:  tk,
		cls: int64(special[TokenCLS]),
		sep: int64(special[TokenSEP]),
	}, nil
}

// VocabSize returns the number of distinct tokens.
func (t *WordPieceTokenizer) VocabSize() int { return t.tk.GetVocabSize(false) }

// Tokens splits text into WordPiece tokens without special tokens.
func (t *WordPieceTokenizer) Tokens(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	tokens, err := t.tk.Tokenize(text)
	if err != nil || len(tokens) == 0 {
		return nil
	}

	return tokens
}

// Encode returns [CLS] tokens... [SEP], truncated to the configured maximum.
func (t *WordPieceTokenizer) Encode(text string) ([]int64, error) {
	if strings.TrimSpace(text) == "" {
		return []int64{t.cls, t.sep}, nil
	}

	return encodeIDs(t.tk, text)
}

// HFTokenizer runs a Hugging Face tokenizer.json pipeline: normalizer,
// pre-tokenizer, model and post-processor as the file declares them.
type HFTokenizer struct {
	tk *hf.Tokenizer
}

// NewHFTokenizer loads a tokenizer.json file.
func NewHFTokenizer(path string, opts ...Option) (*HFTokenizer, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}

	tk, err := pretrained.FromFile(path)
	if err != nil {
		return nil, fmt.Errorf("load tokenizer %q: %w", path, err)
	}

	cfg := newSettings(opts)
	tk.WithTruncation(&hf.TruncationParams{MaxLength: cfg.maxTokens, Strategy: hf.LongestFirst})

	return &HFTokenizer{tk: tk}, nil
}

// Encode returns the ids of text with the special tokens the file's
// post-processor adds.
func (t *HFTokenizer) Encode(text string) ([]int64, error) {
	return encodeIDs(t.tk, text)
}

func encodeIDs(tk *hf.Tokenizer, text string) ([]int64, error) {
	enc, err := tk.EncodeSingle(text, true)
	if err != nil {
		return nil, fmt.Errorf("encode text: %w", err)
	}

	ids := make([]int64, len(enc.Ids))
	for i, id := range enc.Ids {
		ids[i] = int64(id)
	}

	return ids, nil
}
