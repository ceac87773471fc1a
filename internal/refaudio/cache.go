// Package refaudio caches the features derived from reference recordings:
// the encoded transcript, its semantic features and the audio embedding.
package refaudio

import (
	"container/list"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/example/go-genie-tts/internal/audio"
	"github.com/example/go-genie-tts/internal/g2p"
)

const (
	// LoadRate is the rate reference audio is stored at.
	LoadRate = 32000
	// EncodeRate is the rate the audio encoder consumes.
	EncodeRate = 16000
	// FeatureDim is the width of a semantic feature row.
	FeatureDim = 1024
	// DefaultCapacity is the entry limit used when none is configured.
	DefaultCapacity = 10
)

var (
	// ErrCapacity is returned for a capacity below one.
	ErrCapacity = errors.New("cache capacity must be at least 1")
	// ErrNoTextEmbedder is returned when Chinese text features are requested
	// without a text embedder.
	ErrNoTextEmbedder = errors.New("no text embedder configured for chinese features")
)

// AudioLoader reads a recording as mono samples at rate.
type AudioLoader interface {
	Load(path string, rate int) ([]float32, error)
}

// AudioEncoder embeds EncodeRate mono samples.
type AudioEncoder interface {
	Encode(ctx context.Context, samples []float32) (Matrix, error)
}

// TextEmbedder produces contextual per-token features for text.
type TextEmbedder interface {
	Embed(ctx context.Context, text string) (Matrix, error)
}

// TextEncoder maps a transcript to phoneme ids.
type TextEncoder interface {
	Encode(ctx context.Context, text string, lang g2p.Language) ([]int64, error)
}

// Resampler converts mono samples between rates.
type Resampler func(samples []float32, from, to int) ([]float32, error)

// Stats counts cache activity.
type Stats struct {
	Hits      int64
	Updates   int64
	Misses    int64
	Evictions int64
}

// Cache is a capacity-bounded LRU of reference entries keyed by audio path.
// Every exported method is safe for concurrent use; a lookup together with
// the create, update or eviction it triggers runs under one lock. Entries
// handed out stay safe to read while the cache updates or evicts them.
type Cache struct {
	capacity int

	loader   AudioLoader
	audioEnc AudioEncoder
	textEnc  TextEncoder
	embedder TextEmbedder
	resample Resampler
	logger   *slog.Logger

	mu    sync.Mutex
	order *list.List
	items map[string]*list.Element
	stats Stats
}

// Option configures a Cache.
type Option func(*Cache)

// WithTextEmbedder sets the collaborator for Chinese semantic features.
func WithTextEmbedder(e TextEmbedder) Option {
	return func(c *Cache) { c.embedder = e }
}

// WithResampler replaces the default resampler.
func WithResampler(r Resampler) Option {
	return func(c *Cache) {
		if r != nil {
			c.resample = r
		}
	}
}

// WithLogger sets the logger used for cache events.
func WithLogger(l *slog.Logger) Option {
	return func(c *Cache) {
		if l != nil {
			c.logger = l
		}
	}
}

// New returns an empty cache holding at most capacity entries.
func New(capacity int, loader AudioLoader, audioEnc AudioEncoder, textEnc TextEncoder, opts ...Option) (*Cache, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrCapacity, capacity)
	}
	if loader == nil || audioEnc == nil || textEnc == nil {
		return nil, errors.New("refaudio: loader, audio encoder and text encoder are required")
	}

	c := &Cache{
		capacity: capacity,
		loader:   loader,
		audioEnc: audioEnc,
		textEnc:  textEnc,
		resample: audio.Resample,
		logger:   slog.Default(),
		order:    list.New(),
		items:    make(map[string]*list.Element, capacity),
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Capacity returns the maximum number of entries.
func (c *Cache) Capacity() int { return c.capacity }

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.order.Len()
}

// Keys returns the cached keys from most to least recently used.
func (c *Cache) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]string, 0, c.order.Len())
	for e := c.order.Front(); e != nil; e = e.Next() {
		keys = append(keys, e.Value.(*Entry).key)
	}

	return keys
}

// Stats returns a snapshot of the activity counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.stats
}

// Lookup returns the entry for key and marks it most recently used.
func (c *Cache) Lookup(key string) (*Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(elem)

	return elem.Value.(*Entry), true
}

// GetOrCreate returns the entry for the recording at key with text features
// for text in lang.
//
// A missing entry is created and inserted, evicting the least recently used
// entry when the cache is full. An entry with the same text and language is
// returned unchanged. Otherwise its text features are recomputed and
// replaced in place; the audio buffers are kept. On error the cache is left
// as it was.
func (c *Cache) GetOrCreate(ctx context.Context, key, text string, lang g2p.Language) (*Entry, error) {
	if lang == g2p.LanguageAuto {
		lang = g2p.DetectLanguage(text)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.order.MoveToFront(elem)
		entry := elem.Value.(*Entry)

		if entry.matches(text, lang) {
			c.stats.Hits++
			return entry, nil
		}

		if err := c.update(ctx, entry, text, lang); err != nil {
			return nil, err
		}

		return entry, nil
	}

	entry, err := c.create(ctx, key, text, lang)
	if err != nil {
		return nil, err
	}

	if c.order.Len() >= c.capacity {
		c.evictOldest()
	}
	c.items[key] = c.order.PushFront(entry)

	return entry, nil
}

// Remove drops the entry for key.
func (c *Cache) Remove(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		return false
	}
	c.removeElement(elem)

	return true
}

// Clear drops every entry and releases its buffers.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := c.order.Len()
	for e := c.order.Front(); e != nil; e = e.Next() {
		e.Value.(*Entry).release()
	}
	c.order.Init()
	c.items = make(map[string]*list.Element, c.capacity)

	c.logger.Debug("reference cache cleared", "entries", n)
}

func (c *Cache) create(ctx context.Context, key, text string, lang g2p.Language) (*Entry, error) {
	ts, err := c.textState(ctx, text, lang)
	if err != nil {
		return nil, err
	}

	samples, err := c.loader.Load(key, LoadRate)
	if err != nil {
		return nil, fmt.Errorf("load reference audio: %w", err)
	}

	samples16k, err := c.resample(samples, LoadRate, EncodeRate)
	if err != nil {
		return nil, fmt.Errorf("resample reference audio: %w", err)
	}

	ssl, err := c.audioEnc.Encode(ctx, samples16k)
	if err != nil {
		return nil, fmt.Errorf("encode reference audio: %w", err)
	}

	entry := newEntry(key, samples, ssl, ts)
	c.stats.Misses++

	c.logger.Debug("reference entry created",
		"key", key, "language", lang, "phonemes", len(ts.phonemeIDs), "samples", len(samples))

	return entry, nil
}

func (c *Cache) update(ctx context.Context, entry *Entry, text string, lang g2p.Language) error {
	ts, err := c.textState(ctx, text, lang)
	if err != nil {
		return err
	}

	entry.setText(ts)
	c.stats.Updates++

	c.logger.Debug("reference entry updated",
		"key", entry.key, "language", lang, "phonemes", len(ts.phonemeIDs))

	return nil
}

// textState encodes text and derives its semantic features: embedder output
// fitted to the phoneme count for Chinese, zeros otherwise.
func (c *Cache) textState(ctx context.Context, text string, lang g2p.Language) (textState, error) {
	ids, err := c.textEnc.Encode(ctx, text, lang)
	if err != nil {
		return textState{}, fmt.Errorf("encode reference text: %w", err)
	}

	var features Matrix
	if lang == g2p.LanguageChinese {
		if c.embedder == nil {
			return textState{}, ErrNoTextEmbedder
		}

		m, err := c.embedder.Embed(ctx, text)
		if err != nil {
			return textState{}, fmt.Errorf("embed reference text: %w", err)
		}
		features = m.Fit(len(ids))
	} else {
		features = NewMatrix(len(ids), FeatureDim)
	}

	return textState{text: text, language: lang, phonemeIDs: ids, textFeatures: features}, nil
}

func (c *Cache) evictOldest() {
	elem := c.order.Back()
	if elem == nil {
		return
	}

	key := elem.Value.(*Entry).key
	c.removeElement(elem)
	c.stats.Evictions++

	c.logger.Debug("reference entry evicted", "key", key, "capacity", c.capacity)
}

func (c *Cache) removeElement(elem *list.Element) {
	entry := elem.Value.(*Entry)
	c.order.Remove(elem)
	delete(c.items, entry.key)
	entry.release()
}
