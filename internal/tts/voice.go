package tts

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/example/go-genie-tts/internal/g2p"
)

// ErrUnknownVoice is returned for voice ids missing from the manifest.
var ErrUnknownVoice = errors.New("unknown voice")

// Voice is a named reference prompt: an audio clip plus its transcript.
// The transcript is given inline as Text or read from TextFile.
type Voice struct {
	ID       string `json:"id"`
	Audio    string `json:"audio"`
	Text     string `json:"text,omitempty"`
	TextFile string `json:"text_file,omitempty"`
	Language string `json:"language,omitempty"`
}

type voiceManifest struct {
	Voices []Voice `json:"voices"`
}

// VoiceManager serves the voices of one manifest.
type VoiceManager struct {
	baseDir string
	voices  []Voice
	byID    map[string]Voice
}

// NewVoiceManager reads a manifest of the form
// {"voices":[{"id","audio","text"|"text_file","language"}]}. Relative paths
// are resolved against the manifest directory when a voice is looked up.
func NewVoiceManager(manifestPath string) (*VoiceManager, error) {
	if manifestPath == "" {
		return nil, errors.New("manifest path is required")
	}

	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("read voice manifest: %w", err)
	}

	var manifest voiceManifest

	err = json.Unmarshal(data, &manifest)
	if err != nil {
		return nil, fmt.Errorf("decode voice manifest: %w", err)
	}

	mgr := &VoiceManager{
		baseDir: filepath.Dir(manifestPath),
		voices:  append([]Voice(nil), manifest.Voices...),
		byID:    make(map[string]Voice, len(manifest.Voices)),
	}

	for _, v := range manifest.Voices {
		if v.ID == "" {
			return nil, errors.New("voice manifest contains empty id")
		}

		if v.Audio == "" {
			return nil, fmt.Errorf("voice %q has empty audio path", v.ID)
		}

		if v.Text != "" && v.TextFile != "" {
			return nil, fmt.Errorf("voice %q sets both text and text_file", v.ID)
		}

		if v.Language != "" {
			if _, err := g2p.ParseLanguage(v.Language); err != nil {
				return nil, fmt.Errorf("voice %q: %w", v.ID, err)
			}
		}

		if _, exists := mgr.byID[v.ID]; exists {
			return nil, fmt.Errorf("duplicate voice id %q", v.ID)
		}

		mgr.byID[v.ID] = v
	}

	return mgr, nil
}

// ListVoices returns the manifest entries as written.
func (m *VoiceManager) ListVoices() []Voice {
	return append([]Voice(nil), m.voices...)
}

// Voice returns the voice with its audio path resolved and checked and its
// transcript loaded from TextFile when one is named.
func (m *VoiceManager) Voice(id string) (Voice, error) {
	v, ok := m.byID[id]
	if !ok {
		return Voice{}, fmt.Errorf("%w %q", ErrUnknownVoice, id)
	}

	v.Audio = m.resolve(v.Audio)
	if _, err := os.Stat(v.Audio); err != nil {
		return Voice{}, fmt.Errorf("audio for voice %q: %w", id, err)
	}

	if v.TextFile != "" {
		v.TextFile = m.resolve(v.TextFile)

		data, err := os.ReadFile(v.TextFile)
		if err != nil {
			return Voice{}, fmt.Errorf("transcript for voice %q: %w", id, err)
		}

		v.Text = strings.TrimSpace(string(data))
	}

	return v, nil
}

func (m *VoiceManager) resolve(p string) string {
	if !filepath.IsAbs(p) {
		p = filepath.Join(m.baseDir, p)
	}
	return filepath.Clean(p)
}
