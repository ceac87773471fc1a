package onnx

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// ErrGraphNotFound is returned when the manifest has no graph of the requested name.
var ErrGraphNotFound = errors.New("onnx graph not found")

// RunnerFactory opens a runner for one manifest graph.
type RunnerFactory func(meta Session, cfg RunnerConfig) (GraphRunner, error)

// Engine hands out one runner per manifest graph. Runners are opened on
// first use, exactly once per name, and shared by all callers.
type Engine struct {
	sessions *SessionManager
	cfg      RunnerConfig
	factory  RunnerFactory

	mu      sync.Mutex
	runners map[string]*lazyRunner
	closed  bool
}

type lazyRunner struct {
	once   sync.Once
	runner GraphRunner
	err    error
}

// NewEngine loads the graph manifest. No ORT session is created until a
// graph is first requested.
func NewEngine(manifestPath string, cfg RunnerConfig) (*Engine, error) {
	sessions, err := NewSessionManager(manifestPath)
	if err != nil {
		return nil, err
	}

	return NewEngineWithFactory(sessions, cfg, func(meta Session, cfg RunnerConfig) (GraphRunner, error) {
		return NewRunner(meta, cfg)
	}), nil
}

// NewEngineWithFactory builds an engine that opens runners through factory.
func NewEngineWithFactory(sessions *SessionManager, cfg RunnerConfig, factory RunnerFactory) *Engine {
	return &Engine{
		sessions: sessions,
		cfg:      cfg,
		factory:  factory,
		runners:  make(map[string]*lazyRunner),
	}
}

// Sessions exposes the manifest the engine was built from.
func (e *Engine) Sessions() *SessionManager {
	return e.sessions
}

// Runner returns the runner for the named graph, opening it on first use.
// A failed open is remembered and returned to every later caller.
func (e *Engine) Runner(name string) (GraphRunner, error) {
	meta, ok := e.sessions.Session(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrGraphNotFound, name)
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil, errors.New("onnx engine is closed")
	}

	lr, ok := e.runners[name]
	if !ok {
		lr = &lazyRunner{}
		e.runners[name] = lr
	}
	e.mu.Unlock()

	lr.once.Do(func() {
		lr.runner, lr.err = e.factory(meta, e.cfg)
		if lr.err != nil {
			return
		}

		slog.Info("loaded ONNX session", "name", meta.Name, "path", meta.Path)
	})

	return lr.runner, lr.err
}

// Close releases every opened runner. Safe to call multiple times.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return
	}

	e.closed = true

	for _, lr := range e.runners {
		// Wait for an in-flight open so its runner is not leaked.
		lr.once.Do(func() {})

		if lr.runner != nil {
			lr.runner.Close()
		}
	}
}
