// Package tts holds the session context shared by the CLI and the HTTP
// server: phonemizers, the reference audio cache and the current speaker,
// reference and language.
package tts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/example/go-genie-tts/internal/chinese"
	"github.com/example/go-genie-tts/internal/config"
	"github.com/example/go-genie-tts/internal/g2p"
	"github.com/example/go-genie-tts/internal/japanese"
	"github.com/example/go-genie-tts/internal/refaudio"
	"github.com/example/go-genie-tts/internal/text"
)

// ErrNoVoices is returned by voice operations when no manifest was loaded.
var ErrNoVoices = errors.New("no voice manifest loaded")

// CacheBuilder creates the reference cache on first use. The returned
// function releases whatever the cache depends on.
type CacheBuilder func() (*refaudio.Cache, func(), error)

// Phonemes is the result of converting one text.
type Phonemes struct {
	Language g2p.Language
	Symbols  []string
	IDs      []int64
}

type Service struct {
	encoder *g2p.Encoder
	voices  *VoiceManager

	buildCache CacheBuilder
	cacheMu    sync.Mutex
	cache      *refaudio.Cache
	release    func()
	errCache   error

	mu        sync.RWMutex
	language  g2p.Language
	speaker   string
	reference *refaudio.Entry
}

type Option func(*Service)

func WithVoices(vm *VoiceManager) Option {
	return func(s *Service) { s.voices = vm }
}

func WithLanguage(lang g2p.Language) Option {
	return func(s *Service) { s.language = lang }
}

func WithCacheBuilder(b CacheBuilder) Option {
	return func(s *Service) { s.buildCache = b }
}

// New builds a Service around enc. The default language is Japanese.
func New(enc *g2p.Encoder, opts ...Option) (*Service, error) {
	if enc == nil {
		return nil, errors.New("tts: encoder is required")
	}

	s := &Service{encoder: enc, language: g2p.LanguageJapanese}
	for _, opt := range opts {
		opt(s)
	}

	if !enc.Supports(s.language) {
		return nil, fmt.Errorf("%w: %q", g2p.ErrUnsupportedLanguage, s.language)
	}

	return s, nil
}

// NewService wires phonemizers, voices and the model-backed reference cache
// from cfg. Models are not touched until the first reference is set.
func NewService(cfg config.Config) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	ja, err := newJapanesePhonemizer(cfg.G2P)
	if err != nil {
		return nil, err
	}

	enc, err := g2p.NewEncoder(nil, map[g2p.Language]g2p.Phonemizer{
		g2p.LanguageJapanese: ja,
		g2p.LanguageChinese:  chinese.New(),
	})
	if err != nil {
		return nil, err
	}

	lang, err := g2p.ParseLanguage(cfg.G2P.Language)
	if err != nil {
		return nil, err
	}

	opts := []Option{
		WithLanguage(lang),
		WithCacheBuilder(func() (*refaudio.Cache, func(), error) {
			return newReferenceCache(cfg, enc)
		}),
	}

	vm, err := NewVoiceManager(cfg.Paths.Voices)
	switch {
	case err == nil:
		opts = append(opts, WithVoices(vm))
	case errors.Is(err, os.ErrNotExist):
		slog.Debug("voice manifest not found", "path", cfg.Paths.Voices)
	default:
		return nil, err
	}

	return New(enc, opts...)
}

func newJapanesePhonemizer(cfg config.G2PConfig) (*japanese.Phonemizer, error) {
	frontend, err := config.NormalizeFrontend(cfg.JapaneseFrontend)
	if err != nil {
		return nil, err
	}

	var fe japanese.Frontend

	switch frontend {
	case config.FrontendCommand:
		fields := strings.Fields(cfg.FrontendCommand)
		if len(fields) == 0 {
			return nil, japanese.ErrNoCommand
		}

		fe = japanese.NewCommandFrontend(fields[0], fields[1:]...)
	default:
		fe = japanese.NewKagomeFrontend()
	}

	return japanese.New(fe, japanese.WithProsody(cfg.Prosody))
}

// Encoder exposes the text encoder shared by the service.
func (s *Service) Encoder() *g2p.Encoder { return s.encoder }

func (s *Service) Language() g2p.Language {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.language
}

// SetLanguage switches the default language used when callers pass none.
func (s *Service) SetLanguage(raw string) error {
	lang, err := g2p.ParseLanguage(raw)
	if err != nil {
		return err
	}

	if !s.encoder.Supports(lang) {
		return fmt.Errorf("%w: %q", g2p.ErrUnsupportedLanguage, lang)
	}

	s.mu.Lock()
	s.language = lang
	s.mu.Unlock()

	return nil
}

// Speaker returns the id of the voice last selected with UseVoice.
func (s *Service) Speaker() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.speaker
}

// Reference returns the current prompt reference, or nil.
func (s *Service) Reference() *refaudio.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.reference
}

func (s *Service) resolveLanguage(raw string) (g2p.Language, error) {
	if strings.TrimSpace(raw) == "" {
		return s.Language(), nil
	}

	return g2p.ParseLanguage(raw)
}

// Phonemize converts text in the given language, or the session language
// when lang is empty.
func (s *Service) Phonemize(ctx context.Context, input, lang string) (Phonemes, error) {
	l, err := s.resolveLanguage(lang)
	if err != nil {
		return Phonemes{}, err
	}

	l, err = s.encoder.Resolve(input, l)
	if err != nil {
		return Phonemes{}, err
	}

	syms, err := s.encoder.Symbols(ctx, input, l)
	if err != nil {
		return Phonemes{}, err
	}

	return Phonemes{
		Language: l,
		Symbols:  syms,
		IDs:      s.encoder.Table().Encode(syms),
	}, nil
}

// Split chunks long text into sentences.
func (s *Service) Split(input string) []string {
	return text.SplitSentences(input)
}

// referenceCache builds the cache on first use. A failed build is
// remembered so the models are not loaded again on every request.
func (s *Service) referenceCache() (*refaudio.Cache, error) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	if s.cache != nil || s.errCache != nil {
		return s.cache, s.errCache
	}

	if s.buildCache == nil {
		s.errCache = errors.New("reference audio is not configured")
		return nil, s.errCache
	}

	s.cache, s.release, s.errCache = s.buildCache()

	return s.cache, s.errCache
}

func (s *Service) builtCache() *refaudio.Cache {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	return s.cache
}

// SetReference makes the audio at path, spoken as transcript, the current
// prompt reference. Repeated calls for the same path reuse the cached entry.
func (s *Service) SetReference(ctx context.Context, path, transcript, lang string) (*refaudio.Entry, error) {
	l, err := s.resolveLanguage(lang)
	if err != nil {
		return nil, err
	}

	cache, err := s.referenceCache()
	if err != nil {
		return nil, err
	}

	entry, err := cache.GetOrCreate(ctx, path, transcript, l)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.reference = entry
	s.mu.Unlock()

	return entry, nil
}

// UseVoice selects a manifest voice as speaker and prompt reference.
func (s *Service) UseVoice(ctx context.Context, id string) (*refaudio.Entry, error) {
	if s.voices == nil {
		return nil, ErrNoVoices
	}

	v, err := s.voices.Voice(id)
	if err != nil {
		return nil, err
	}

	entry, err := s.SetReference(ctx, v.Audio, v.Text, v.Language)
	if err != nil {
		return nil, fmt.Errorf("voice %q: %w", id, err)
	}

	s.mu.Lock()
	s.speaker = id
	s.mu.Unlock()

	return entry, nil
}

// Voices lists the manifest voices, or none when no manifest was loaded.
func (s *Service) Voices() []Voice {
	if s.voices == nil {
		return nil
	}

	return s.voices.ListVoices()
}

// ClearReferences empties the reference cache and forgets the current
// reference and speaker.
func (s *Service) ClearReferences() {
	s.mu.Lock()
	s.reference = nil
	s.speaker = ""
	s.mu.Unlock()

	if cache := s.builtCache(); cache != nil {
		cache.Clear()
	}
}

// RemoveReference drops the cached entry for path, and the current
// reference and speaker when they point at it. It reports whether an entry
// was cached.
func (s *Service) RemoveReference(path string) bool {
	cache := s.builtCache()
	if cache == nil || !cache.Remove(path) {
		return false
	}

	s.mu.Lock()
	if s.reference != nil && s.reference.Key() == path {
		s.reference = nil
		s.speaker = ""
	}
	s.mu.Unlock()

	return true
}

// ReferenceKeys lists the cached reference paths, most recently used first.
func (s *Service) ReferenceKeys() []string {
	cache := s.builtCache()
	if cache == nil {
		return nil
	}

	return cache.Keys()
}

// CacheStats reports reference cache counters and size. ok is false until
// the cache has been built.
func (s *Service) CacheStats() (stats refaudio.Stats, length int, ok bool) {
	cache := s.builtCache()
	if cache == nil {
		return refaudio.Stats{}, 0, false
	}

	return cache.Stats(), cache.Len(), true
}

func (s *Service) Close() {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	if s.release != nil {
		s.release()
		s.release = nil
	}
}
