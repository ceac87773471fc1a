package japanese

import "context"

// Frontend is the linguistic analysis backend the Phonemizer depends on.
type Frontend interface {
	// Labels returns one full-context label per phone of text, including
	// the surrounding silences.
	Labels(ctx context.Context, text string) ([]string, error)

	// G2P returns the plain phone sequence of text without prosody.
	G2P(ctx context.Context, text string) ([]string, error)
}
