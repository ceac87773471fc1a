// Package model fetches and smoke-tests the ONNX graphs and tokenizer files
// the reference feature pipeline loads.
package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// DefaultRevision is used for files that do not pin a revision.
const DefaultRevision = "main"

// Manifest lists the files to fetch from one Hugging Face repository.
type Manifest struct {
	Repo  string      `json:"repo"`
	Files []ModelFile `json:"files"`
}

// ModelFile is one file of a Manifest. An empty SHA256 is resolved from the
// hub metadata and recorded in the local lock manifest.
type ModelFile struct {
	Filename string `json:"filename"`
	Revision string `json:"revision,omitempty"`
	SHA256   string `json:"sha256,omitempty"`
}

// LoadManifest reads a JSON download manifest.
func LoadManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("read download manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("parse download manifest %s: %w", path, err)
	}

	return m, m.Validate()
}

// Validate checks the repo and file list and fills default revisions.
func (m *Manifest) Validate() error {
	if strings.TrimSpace(m.Repo) == "" {
		return errors.New("download manifest: repo is required")
	}

	if len(m.Files) == 0 {
		return errors.New("download manifest: no files listed")
	}

	seen := make(map[string]bool, len(m.Files))
	for i := range m.Files {
		f := &m.Files[i]
		if f.Filename == "" || strings.Contains(f.Filename, "..") {
			return fmt.Errorf("download manifest: invalid filename %q", f.Filename)
		}
		if seen[f.Filename] {
			return fmt.Errorf("download manifest: duplicate file %q", f.Filename)
		}
		seen[f.Filename] = true

		if f.Revision == "" {
			f.Revision = DefaultRevision
		}
		if f.SHA256 != "" && !isSHA256Hex(f.SHA256) {
			return fmt.Errorf("download manifest: %s: sha256 is not 64 hex characters", f.Filename)
		}
	}

	return nil
}
