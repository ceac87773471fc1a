package onnx

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// NodeInfo describes one graph input or output as listed in the manifest.
type NodeInfo struct {
	Name  string `json:"name"`
	DType string `json:"dtype"`
	Shape []any  `json:"shape"`
}

// Session is the manifest entry of one graph with its resolved file path.
type Session struct {
	Name string
	Path string

	Inputs  []NodeInfo
	Outputs []NodeInfo
}

// SessionManager holds the graphs listed in a manifest, in manifest order.
// It is immutable after construction.
type SessionManager struct {
	sessions map[string]Session
	order    []string
}

type onnxManifest struct {
	Graphs []onnxGraph `json:"graphs"`
}

type onnxGraph struct {
	Name     string     `json:"name"`
	Filename string     `json:"filename"`
	Inputs   []NodeInfo `json:"inputs"`
	Outputs  []NodeInfo `json:"outputs"`
}

// NewSessionManager reads a JSON manifest of the form
// {"graphs":[{"name","filename","inputs","outputs"}]}. Relative filenames
// resolve against the manifest directory and must exist.
func NewSessionManager(manifestPath string) (*SessionManager, error) {
	if manifestPath == "" {
		return nil, errors.New("manifest path is required")
	}

	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("read ONNX manifest: %w", err)
	}

	var manifest onnxManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("decode ONNX manifest: %w", err)
	}

	if len(manifest.Graphs) == 0 {
		return nil, errors.New("ONNX manifest has no graphs")
	}

	baseDir := filepath.Dir(manifestPath)
	sm := &SessionManager{
		sessions: make(map[string]Session, len(manifest.Graphs)),
		order:    make([]string, 0, len(manifest.Graphs)),
	}

	for _, g := range manifest.Graphs {
		if g.Name == "" {
			return nil, errors.New("manifest graph has empty name")
		}

		if g.Filename == "" {
			return nil, fmt.Errorf("manifest graph %q has empty filename", g.Name)
		}

		if _, exists := sm.sessions[g.Name]; exists {
			return nil, fmt.Errorf("duplicate session name %q in manifest", g.Name)
		}

		sessionPath := g.Filename
		if !filepath.IsAbs(sessionPath) {
			sessionPath = filepath.Join(baseDir, g.Filename)
		}

		if err := checkNodes(g.Name, g.Inputs); err != nil {
			return nil, err
		}

		sessionPath = filepath.Clean(sessionPath)
		if _, err := os.Stat(sessionPath); err != nil {
			return nil, fmt.Errorf("session file for %q: %w", g.Name, err)
		}

		session := Session{
			Name:    g.Name,
			Path:    sessionPath,
			Inputs:  append([]NodeInfo(nil), g.Inputs...),
			Outputs: append([]NodeInfo(nil), g.Outputs...),
		}
		sm.sessions[g.Name] = session
		sm.order = append(sm.order, g.Name)

		slog.Debug(
			"registered ONNX graph",
			"name", g.Name,
			"path", sessionPath,
			"inputs", nodeNames(g.Inputs),
			"outputs", nodeNames(g.Outputs),
		)
	}

	return sm, nil
}

// Session returns the graph called name.
func (m *SessionManager) Session(name string) (Session, bool) {
	s, ok := m.sessions[name]
	return s, ok
}

// Names returns the graph names in manifest order.
func (m *SessionManager) Names() []string {
	return append([]string(nil), m.order...)
}

// Require reports every name the manifest lacks, wrapping ErrGraphNotFound.
func (m *SessionManager) Require(names ...string) error {
	var missing []string
	for _, name := range names {
		if _, ok := m.sessions[name]; !ok {
			missing = append(missing, name)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrGraphNotFound, strings.Join(missing, ", "))
	}

	return nil
}

// Sessions returns copies of all graphs in manifest order.
func (m *SessionManager) Sessions() []Session {
	out := make([]Session, 0, len(m.order))
	for _, name := range m.order {
		s := m.sessions[name]
		s.Inputs = append([]NodeInfo(nil), s.Inputs...)
		s.Outputs = append([]NodeInfo(nil), s.Outputs...)
		out = append(out, s)
	}

	return out
}

// checkNodes rejects graph inputs the runner cannot feed.
func checkNodes(graph string, nodes []NodeInfo) error {
	for _, n := range nodes {
		if n.Name == "" {
			return fmt.Errorf("manifest graph %q has an unnamed input", graph)
		}

		if _, ok := manifestDType(n.DType); !ok {
			return fmt.Errorf("manifest graph %q input %q: unsupported dtype %q", graph, n.Name, n.DType)
		}
	}

	return nil
}

func nodeNames(nodes []NodeInfo) string {
	if len(nodes) == 0 {
		return ""
	}

	names := make([]string, 0, len(nodes))
	for _, n := range nodes {
		names = append(names, n.Name)
	}

	return strings.Join(names, ",")
}
