// Package tokenizer turns text into the subword ids consumed by the text
// embedding model. Hugging Face tokenizer.json files, WordPiece
// vocabularies (BERT style vocab.txt) and SentencePiece models are
// supported behind one interface.
package tokenizer

// Tokenizer encodes text into model token ids.
type Tokenizer interface {
	Encode(text string) ([]int64, error)
}

const defaultMaxTokens = 512

// Option configures a tokenizer built by this package.
type Option func(*settings)

type settings struct {
	maxTokens int
	lowercase bool
	frame     *[2]int64
}

func newSettings(opts []Option) settings {
	s := settings{maxTokens: defaultMaxTokens, lowercase: true}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// WithMaxTokens caps the encoded length, special tokens included.
func WithMaxTokens(n int) Option {
	return func(s *settings) {
		if n >= 2 {
			s.maxTokens = n
		}
	}
}

// WithLowercase toggles WordPiece lower-casing and accent stripping.
// Enabled by default. SentencePiece models normalize on their own.
func WithLowercase(enabled bool) Option {
	return func(s *settings) {
		s.lowercase = enabled
	}
}

// WithFrame wraps SentencePiece output in bos ... eos. WordPiece output is
// always framed by [CLS] and [SEP].
func WithFrame(bos, eos int64) Option {
	return func(s *settings) {
		s.frame = &[2]int64{bos, eos}
	}
}
