package server_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/example/go-genie-tts/internal/server"
	"github.com/example/go-genie-tts/internal/tts"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"", slog.LevelInfo, false},
		{"DEBUG", slog.LevelDebug, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"trace", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := server.ParseLogLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Fatalf("level = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHealth(t *testing.T) {
	h := server.NewHandler(newBackend(t))

	rec := do(t, h, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rec.Code)
	}

	body := decodeBody[map[string]string](t, rec)
	if body["status"] != "ok" || body["language"] != "ja" || body["version"] == "" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestVoices_EmptyListIsArray(t *testing.T) {
	h := server.NewHandler(newBackend(t))

	rec := do(t, h, http.MethodGet, "/voices", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rec.Code)
	}

	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Fatalf("want [], got %s", got)
	}
}

func TestG2P(t *testing.T) {
	backend := newBackend(t)
	h := server.NewHandler(backend)

	rec := do(t, h, http.MethodPost, "/g2p", `{"text":"こんにちは"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d: %s", rec.Code, rec.Body.String())
	}

	type g2pBody struct {
		Language string   `json:"language"`
		Phonemes []string `json:"phonemes"`
		IDs      []int64  `json:"ids"`
	}

	body := decodeBody[g2pBody](t, rec)
	want := []string{"k", "o", "N", "n", "i", "ch", "i", "w", "a"}

	if body.Language != "ja" || !reflect.DeepEqual(body.Phonemes, want) {
		t.Fatalf("unexpected body: %+v", body)
	}

	if !reflect.DeepEqual(body.IDs, backend.Encoder().Table().Encode(want)) {
		t.Fatalf("ids = %v", body.IDs)
	}
}

func TestG2P_Errors(t *testing.T) {
	h := server.NewHandler(newBackend(t))

	tests := []struct {
		name   string
		method string
		body   string
		want   int
	}{
		{"wrong method", http.MethodGet, "", http.StatusMethodNotAllowed},
		{"invalid json", http.MethodPost, `{`, http.StatusBadRequest},
		{"missing text", http.MethodPost, `{}`, http.StatusBadRequest},
		{"unsupported language", http.MethodPost, `{"text":"hi","language":"fr"}`, http.StatusBadRequest},
		{"unregistered language", http.MethodPost, `{"text":"你好","language":"zh"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, tt.method, "/g2p", tt.body)
			if rec.Code != tt.want {
				t.Fatalf("want %d, got %d: %s", tt.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestSplit(t *testing.T) {
	h := server.NewHandler(newBackend(t))

	rec := do(t, h, http.MethodPost, "/split", `{"text":"今日は東京大学に行きます。明日は京都大学に行きます。"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rec.Code)
	}

	body := decodeBody[map[string][]string](t, rec)
	want := []string{"今日は東京大学に行きます。", "明日は京都大学に行きます。"}
	if !reflect.DeepEqual(body["chunks"], want) {
		t.Fatalf("chunks = %q, want %q", body["chunks"], want)
	}
}

func TestReference_SetAndClear(t *testing.T) {
	backend := newBackend(t)
	h := server.NewHandler(backend)
	audioPath := writeAudio(t, t.TempDir(), "ref.wav")

	rec := do(t, h, http.MethodPost, "/reference", `{"audio":"`+audioPath+`","text":"こんにちは"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d: %s", rec.Code, rec.Body.String())
	}

	type refBody struct {
		Key          string `json:"key"`
		Language     string `json:"language"`
		PhonemeIDs   int    `json:"phoneme_ids"`
		TextFeatures [2]int `json:"text_features"`
		AudioSamples int    `json:"audio_samples"`
		SSLContent   [2]int `json:"ssl_content"`
	}

	body := decodeBody[refBody](t, rec)
	if body.Key != audioPath || body.Language != "ja" || body.PhonemeIDs != 9 {
		t.Fatalf("unexpected body: %+v", body)
	}

	if body.TextFeatures != [2]int{9, 1024} || body.AudioSamples != 640 || body.SSLContent != [2]int{768, 5} {
		t.Fatalf("unexpected shapes: %+v", body)
	}

	if backend.Reference() == nil {
		t.Fatal("expected current reference")
	}

	rec = do(t, h, http.MethodDelete, "/reference", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("want 204, got %d", rec.Code)
	}

	if backend.Reference() != nil {
		t.Fatal("DELETE /reference must drop the current reference")
	}
}

func TestReference_Voice(t *testing.T) {
	dir := t.TempDir()
	writeAudio(t, dir, "mika.wav")

	manifest := filepath.Join(dir, "voices.json")
	if err := os.WriteFile(manifest, []byte(`{"voices":[{"id":"mika","audio":"mika.wav","text":"こんにちは"}]}`), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	vm, err := tts.NewVoiceManager(manifest)
	if err != nil {
		t.Fatalf("NewVoiceManager: %v", err)
	}

	h := server.NewHandler(newBackend(t, tts.WithVoices(vm)))

	rec := do(t, h, http.MethodGet, "/voices", "")
	voices := decodeBody[[]tts.Voice](t, rec)
	if len(voices) != 1 || voices[0].ID != "mika" {
		t.Fatalf("voices = %+v", voices)
	}

	rec = do(t, h, http.MethodPost, "/reference", `{"voice":"mika"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d: %s", rec.Code, rec.Body.String())
	}

	if body := decodeBody[map[string]any](t, rec); body["speaker"] != "mika" {
		t.Fatalf("speaker = %v", body["speaker"])
	}

	rec = do(t, h, http.MethodPost, "/reference", `{"voice":"nobody"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("want 404 for unknown voice, got %d", rec.Code)
	}
}

func TestReference_Errors(t *testing.T) {
	h := server.NewHandler(newBackend(t))
	missing := filepath.Join(t.TempDir(), "missing.wav")

	tests := []struct {
		name string
		body string
		want int
	}{
		{"neither voice nor audio", `{"text":"x"}`, http.StatusBadRequest},
		{"both voice and audio", `{"voice":"a","audio":"b.wav"}`, http.StatusBadRequest},
		{"missing audio file", `{"audio":"` + missing + `","text":"x"}`, http.StatusNotFound},
		{"no voice manifest", `{"voice":"mika"}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/reference", tt.body)
			if rec.Code != tt.want {
				t.Fatalf("want %d, got %d: %s", tt.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestG2P_BackendErrorIs500(t *testing.T) {
	backend := newBackend(t)
	backend.phonemize = func(context.Context, string, string) (tts.Phonemes, error) {
		return tts.Phonemes{}, os.ErrPermission
	}

	rec := do(t, server.NewHandler(backend), http.MethodPost, "/g2p", `{"text":"x"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("want 500, got %d", rec.Code)
	}
}

func TestReference_AudioRoot(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	inside := writeAudio(t, root, "ref.wav")
	secret := writeAudio(t, outside, "secret.wav")

	if err := os.Symlink(secret, filepath.Join(root, "link.wav")); err != nil {
		t.Fatalf("Symlink: %v", err)
	}

	h := server.NewHandler(newBackend(t), server.WithAudioRoot(root))

	tests := []struct {
		name    string
		audio   string
		want    int
		wantKey string
	}{
		{"absolute inside root", inside, http.StatusOK, inside},
		{"relative to root", "ref.wav", http.StatusOK, inside},
		{"existing file outside root", secret, http.StatusForbidden, ""},
		{"missing file outside root", filepath.Join(outside, "nope.wav"), http.StatusForbidden, ""},
		{"dot-dot escape", "../" + filepath.Base(outside) + "/secret.wav", http.StatusForbidden, ""},
		{"symlink leaving root", "link.wav", http.StatusForbidden, ""},
		{"missing file inside root", "nope.wav", http.StatusNotFound, ""},
	}

	var forbidden string
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/reference", `{"audio":"`+tt.audio+`","text":"こんにちは"}`)
			if rec.Code != tt.want {
				t.Fatalf("want %d, got %d: %s", tt.want, rec.Code, rec.Body.String())
			}

			switch tt.want {
			case http.StatusOK:
				if body := decodeBody[map[string]any](t, rec); body["key"] != tt.wantKey {
					t.Fatalf("key = %v, want %s", body["key"], tt.wantKey)
				}
			case http.StatusForbidden:
				// Existing and missing files outside the root get the same answer.
				body := rec.Body.String()
				if forbidden == "" {
					forbidden = body
				}
				if body != forbidden {
					t.Fatalf("forbidden body %q differs from %q", body, forbidden)
				}
				if strings.Contains(body, outside) {
					t.Fatalf("forbidden body leaks the path: %s", body)
				}
			}
		})
	}
}

func TestReference_ListAndRemoveOne(t *testing.T) {
	backend := newBackend(t)
	h := server.NewHandler(backend)
	dir := t.TempDir()
	a := writeAudio(t, dir, "a.wav")
	b := writeAudio(t, dir, "b.wav")

	type statsBody struct {
		Entries int      `json:"entries"`
		Keys    []string `json:"keys"`
		Misses  int64    `json:"misses"`
	}

	rec := do(t, h, http.MethodGet, "/reference", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rec.Code)
	}
	if body := decodeBody[statsBody](t, rec); body.Entries != 0 || body.Keys == nil || len(body.Keys) != 0 {
		t.Fatalf("stats before any reference = %+v", body)
	}

	for _, p := range []string{a, b} {
		if rec := do(t, h, http.MethodPost, "/reference", `{"audio":"`+p+`","text":"こんにちは"}`); rec.Code != http.StatusOK {
			t.Fatalf("POST %s: %d %s", p, rec.Code, rec.Body.String())
		}
	}

	body := decodeBody[statsBody](t, do(t, h, http.MethodGet, "/reference", ""))
	if body.Entries != 2 || body.Misses != 2 || !reflect.DeepEqual(body.Keys, []string{b, a}) {
		t.Fatalf("stats = %+v", body)
	}

	tests := []struct {
		name  string
		audio string
		want  int
	}{
		{"cached entry", a, http.StatusNoContent},
		{"already removed", a, http.StatusNotFound},
		{"current entry", b, http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodDelete, "/reference?audio="+url.QueryEscape(tt.audio), "")
			if rec.Code != tt.want {
				t.Fatalf("want %d, got %d: %s", tt.want, rec.Code, rec.Body.String())
			}
		})
	}

	if backend.Reference() != nil {
		t.Fatal("removing the current entry must drop the current reference")
	}
	if body := decodeBody[statsBody](t, do(t, h, http.MethodGet, "/reference", "")); body.Entries != 0 {
		t.Fatalf("entries after removal = %d", body.Entries)
	}
}
