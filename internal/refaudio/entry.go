package refaudio

import (
	"sync/atomic"

	"github.com/example/go-genie-tts/internal/g2p"
)

// Snapshot is a consistent view of an entry at one instant. Its slices are
// shared with the cache and must not be modified.
type Snapshot struct {
	Key          string
	Text         string
	Language     g2p.Language
	PhonemeIDs   []int64
	TextFeatures Matrix
	Audio        []float32
	SSLContent   Matrix
}

// Entry holds the features derived from one reference recording and its
// transcript. Audio-derived buffers are fixed for the entry's lifetime;
// text-derived ones are replaced when the transcript changes.
//
// The cache swaps the whole state at once, so an Entry may be read while
// the cache updates or evicts it. Use Snapshot to read several fields that
// must agree with each other.
type Entry struct {
	key   string
	state atomic.Pointer[Snapshot]
}

func newEntry(key string, samples []float32, ssl Matrix, ts textState) *Entry {
	e := &Entry{key: key}
	e.state.Store(&Snapshot{
		Key:          key,
		Text:         ts.text,
		Language:     ts.language,
		PhonemeIDs:   ts.phonemeIDs,
		TextFeatures: ts.textFeatures,
		Audio:        samples,
		SSLContent:   ssl,
	})

	return e
}

// Snapshot returns the entry's current state.
func (e *Entry) Snapshot() Snapshot { return *e.state.Load() }

// Key returns the audio path identifying the entry.
func (e *Entry) Key() string { return e.key }

// Text returns the transcript the text features were computed from.
func (e *Entry) Text() string { return e.state.Load().Text }

// Language returns the resolved transcript language.
func (e *Entry) Language() g2p.Language { return e.state.Load().Language }

// PhonemeIDs returns the encoded transcript.
func (e *Entry) PhonemeIDs() []int64 { return e.state.Load().PhonemeIDs }

// TextFeatures returns one semantic feature row per phoneme id.
func (e *Entry) TextFeatures() Matrix { return e.state.Load().TextFeatures }

// Audio returns the mono waveform at LoadRate.
func (e *Entry) Audio() []float32 { return e.state.Load().Audio }

// SSLContent returns the audio encoder embedding.
func (e *Entry) SSLContent() Matrix { return e.state.Load().SSLContent }

// textState is the text-derived part of an entry, computed before it is
// swapped in.
type textState struct {
	text         string
	language     g2p.Language
	phonemeIDs   []int64
	textFeatures Matrix
}

// setText and release are only called with the cache lock held, so a
// load-modify-store cannot lose a concurrent write.
func (e *Entry) setText(s textState) {
	next := *e.state.Load()
	next.Text = s.text
	next.Language = s.language
	next.PhonemeIDs = s.phonemeIDs
	next.TextFeatures = s.textFeatures
	e.state.Store(&next)
}

// matches reports whether the entry already holds features for text in lang.
func (e *Entry) matches(text string, lang g2p.Language) bool {
	s := e.state.Load()
	return s.Text == text && s.Language == lang
}

// release drops every buffer so an evicted entry holds no memory even if a
// caller still references it.
func (e *Entry) release() {
	cur := e.state.Load()
	e.state.Store(&Snapshot{Key: cur.Key, Text: cur.Text, Language: cur.Language})
}
