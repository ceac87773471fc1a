package tts

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// --- NewVoiceManager error paths ---

func TestNewVoiceManager_EmptyPath(t *testing.T) {
	_, err := NewVoiceManager("")
	if err == nil {
		t.Error("NewVoiceManager(\"\") = nil; want error")
	}
}

func TestNewVoiceManager_MissingFile(t *testing.T) {
	_, err := NewVoiceManager("/nonexistent/manifest.json")
	if err == nil {
		t.Error("NewVoiceManager(missing) = nil; want error")
	}
}

func TestNewVoiceManager_InvalidJSON(t *testing.T) {
	tmp := t.TempDir()
	manifestPath := filepath.Join(tmp, "manifest.json")
	if err := os.WriteFile(manifestPath, []byte("{bad json"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	_, err := NewVoiceManager(manifestPath)
	if err == nil {
		t.Error("NewVoiceManager(invalid json) = nil; want error")
	}
}

func TestNewVoiceManager_EmptyVoiceID(t *testing.T) {
	tmp := t.TempDir()
	manifestPath := filepath.Join(tmp, "manifest.json")
	manifest := `{"voices":[{"id":"","audio":"v.wav","text":"hi"}]}`
	if err := os.WriteFile(manifestPath, []byte(manifest), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	_, err := NewVoiceManager(manifestPath)
	if err == nil {
		t.Error("NewVoiceManager(empty id) = nil; want error")
	}
}

func TestNewVoiceManager_EmptyAudioPath(t *testing.T) {
	tmp := t.TempDir()
	manifestPath := filepath.Join(tmp, "manifest.json")
	manifest := `{"voices":[{"id":"v1","audio":"","text":"hi"}]}`
	if err := os.WriteFile(manifestPath, []byte(manifest), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	_, err := NewVoiceManager(manifestPath)
	if err == nil {
		t.Error("NewVoiceManager(empty audio) = nil; want error")
	}
}

func TestNewVoiceManager_DuplicateID(t *testing.T) {
	tmp := t.TempDir()
	manifestPath := filepath.Join(tmp, "manifest.json")
	manifest := `{"voices":[
		{"id":"v1","audio":"a.wav","text":""},
		{"id":"v1","audio":"b.wav","text":""}
	]}`
	if err := os.WriteFile(manifestPath, []byte(manifest), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	_, err := NewVoiceManager(manifestPath)
	if err == nil {
		t.Error("NewVoiceManager(duplicate id) = nil; want error")
	}
}

func TestNewVoiceManager_EmptyVoicesList(t *testing.T) {
	tmp := t.TempDir()
	manifestPath := filepath.Join(tmp, "manifest.json")
	manifest := `{"voices":[]}`
	if err := os.WriteFile(manifestPath, []byte(manifest), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	mgr, err := NewVoiceManager(manifestPath)
	if err != nil {
		t.Fatalf("NewVoiceManager(empty list) error = %v", err)
	}
	if len(mgr.ListVoices()) != 0 {
		t.Error("expected empty voice list")
	}
}

// --- Voice lookup ---

func TestVoice_AbsolutePath(t *testing.T) {
	tmp := t.TempDir()
	voiceFile := filepath.Join(tmp, "voice.wav")
	if err := os.WriteFile(voiceFile, []byte("data"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	manifestPath := filepath.Join(tmp, "manifest.json")
	manifest := `{"voices":[{"id":"v1","audio":"` + voiceFile + `","text":"こんにちは","language":"ja"}]}`
	if err := os.WriteFile(manifestPath, []byte(manifest), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	mgr, err := NewVoiceManager(manifestPath)
	if err != nil {
		t.Fatalf("NewVoiceManager: %v", err)
	}

	got, err := mgr.Voice("v1")
	if err != nil {
		t.Fatalf("Voice error = %v", err)
	}
	if got.Audio != voiceFile {
		t.Errorf("Voice audio = %q; want %q", got.Audio, voiceFile)
	}
	if got.Text != "こんにちは" || got.Language != "ja" {
		t.Errorf("Voice = %+v", got)
	}
}

func TestVoice_MissingAudioFile(t *testing.T) {
	tmp := t.TempDir()
	manifestPath := filepath.Join(tmp, "manifest.json")
	// Path is relative but the file does not exist on disk.
	manifest := `{"voices":[{"id":"v1","audio":"missing.wav","text":""}]}`
	if err := os.WriteFile(manifestPath, []byte(manifest), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	mgr, err := NewVoiceManager(manifestPath)
	if err != nil {
		t.Fatalf("NewVoiceManager: %v", err)
	}

	_, err = mgr.Voice("v1")
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Voice(missing file) error = %v; want os.ErrNotExist", err)
	}
}

// --- ListVoices returns independent copies ---

func TestListVoices_ReturnsCopy(t *testing.T) {
	tmp := t.TempDir()
	voiceFile := filepath.Join(tmp, "v.wav")
	if err := os.WriteFile(voiceFile, []byte("data"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	manifestPath := filepath.Join(tmp, "manifest.json")
	manifest := `{"voices":[{"id":"v1","audio":"v.wav","text":"hi"}]}`
	if err := os.WriteFile(manifestPath, []byte(manifest), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	mgr, err := NewVoiceManager(manifestPath)
	if err != nil {
		t.Fatalf("NewVoiceManager: %v", err)
	}
	first := mgr.ListVoices()
	first[0].ID = "mutated"

	second := mgr.ListVoices()
	if second[0].ID != "v1" {
		t.Error("ListVoices did not return an independent copy")
	}
}

func TestNewVoiceManager_InvalidLanguage(t *testing.T) {
	tmp := t.TempDir()
	manifestPath := filepath.Join(tmp, "manifest.json")
	manifest := `{"voices":[{"id":"v1","audio":"a.wav","text":"","language":"fr"}]}`
	if err := os.WriteFile(manifestPath, []byte(manifest), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	_, err := NewVoiceManager(manifestPath)
	if err == nil {
		t.Error("NewVoiceManager(language fr) = nil; want error")
	}
}

func TestVoice_RelativeToManifest(t *testing.T) {
	tmp := t.TempDir()
	sub := filepath.Join(tmp, "voices")
	if err := os.MkdirAll(filepath.Join(sub, "clips"), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(filepath.Join(sub, "clips", "a.wav"), []byte("data"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	manifestPath := filepath.Join(sub, "voices.json")
	manifest := `{"voices":[{"id":"a","audio":"clips/a.wav","text":"t"}]}`
	if err := os.WriteFile(manifestPath, []byte(manifest), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	mgr, err := NewVoiceManager(manifestPath)
	if err != nil {
		t.Fatalf("NewVoiceManager: %v", err)
	}

	got, err := mgr.Voice("a")
	if err != nil {
		t.Fatalf("Voice: %v", err)
	}
	if want := filepath.Join(sub, "clips", "a.wav"); got.Audio != want {
		t.Errorf("Voice audio = %q; want %q", got.Audio, want)
	}

	if _, err := mgr.Voice("nope"); !errors.Is(err, ErrUnknownVoice) {
		t.Errorf("Voice(unknown) error = %v; want ErrUnknownVoice", err)
	}
}

func TestVoice_TextFile(t *testing.T) {
	tmp := t.TempDir()
	if err := os.WriteFile(filepath.Join(tmp, "a.wav"), []byte("data"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := os.WriteFile(filepath.Join(tmp, "a.lab"), []byte("今日はいい天気ですね。\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	manifestPath := filepath.Join(tmp, "voices.json")
	manifest := `{"voices":[
		{"id":"a","audio":"a.wav","text_file":"a.lab","language":"ja"},
		{"id":"b","audio":"a.wav","text_file":"missing.lab"}
	]}`
	if err := os.WriteFile(manifestPath, []byte(manifest), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	mgr, err := NewVoiceManager(manifestPath)
	if err != nil {
		t.Fatalf("NewVoiceManager: %v", err)
	}

	got, err := mgr.Voice("a")
	if err != nil {
		t.Fatalf("Voice: %v", err)
	}
	if got.Text != "今日はいい天気ですね。" {
		t.Errorf("Voice text = %q", got.Text)
	}
	if got.TextFile != filepath.Join(tmp, "a.lab") {
		t.Errorf("Voice text_file = %q", got.TextFile)
	}

	if _, err := mgr.Voice("b"); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Voice(b) error = %v; want os.ErrNotExist", err)
	}
}

func TestNewVoiceManager_TextAndTextFile(t *testing.T) {
	manifestPath := filepath.Join(t.TempDir(), "voices.json")
	manifest := `{"voices":[{"id":"a","audio":"a.wav","text":"x","text_file":"a.lab"}]}`
	if err := os.WriteFile(manifestPath, []byte(manifest), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, err := NewVoiceManager(manifestPath); err == nil {
		t.Error("NewVoiceManager(text and text_file) = nil; want error")
	}
}
