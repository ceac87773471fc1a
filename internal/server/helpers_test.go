package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/example/go-genie-tts/internal/g2p"
	"github.com/example/go-genie-tts/internal/refaudio"
	"github.com/example/go-genie-tts/internal/tts"
)

type staticPhonemizer []string

func (p staticPhonemizer) Phonemize(context.Context, string) ([]string, error) {
	return append([]string(nil), p...), nil
}

type fakeLoader struct{}

func (fakeLoader) Load(path string, _ int) ([]float32, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	return make([]float32, 640), nil
}

type fakeAudioEncoder struct{}

func (fakeAudioEncoder) Encode(context.Context, []float32) (refaudio.Matrix, error) {
	return refaudio.NewMatrix(768, 5), nil
}

// testBackend is a real tts.Service over static phonemizers and in-memory
// model collaborators. phonemize, when set, replaces Phonemize.
type testBackend struct {
	*tts.Service
	phonemize func(ctx context.Context, text, lang string) (tts.Phonemes, error)
}

func (b *testBackend) Phonemize(ctx context.Context, text, lang string) (tts.Phonemes, error) {
	if b.phonemize != nil {
		return b.phonemize(ctx, text, lang)
	}
	return b.Service.Phonemize(ctx, text, lang)
}

func newBackend(t *testing.T, opts ...tts.Option) *testBackend {
	t.Helper()

	enc, err := g2p.NewEncoder(nil, map[g2p.Language]g2p.Phonemizer{
		g2p.LanguageJapanese: staticPhonemizer{"k", "o", "N", "n", "i", "ch", "i", "w", "a"},
	})
	if err != nil {
		t.Fatalf("NewEncoder: %v", err)
	}

	resample := func(s []float32, from, to int) ([]float32, error) { return s[:len(s)*to/from], nil }
	builder := tts.WithCacheBuilder(func() (*refaudio.Cache, func(), error) {
		c, err := refaudio.New(4, fakeLoader{}, fakeAudioEncoder{}, enc, refaudio.WithResampler(resample))
		return c, func() {}, err
	})

	svc, err := tts.New(enc, append([]tts.Option{builder}, opts...)...)
	if err != nil {
		t.Fatalf("tts.New: %v", err)
	}

	return &testBackend{Service: svc}
}

// writeAudio creates a placeholder audio file and returns its path.
func writeAudio(t *testing.T, dir, name string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("RIFF"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	return path
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(rec, req)

	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode body: %v", err)
	}

	return v
}

func doCtx(t *testing.T, ctx context.Context, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	rec := httptest.NewRecorder()
	req := httptest.NewRequestWithContext(ctx, method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(rec, req)

	return rec
}
