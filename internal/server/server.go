// Package server exposes the text front-end and the reference audio cache
// over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	"github.com/example/go-genie-tts/internal/config"
	"github.com/example/go-genie-tts/internal/g2p"
	"github.com/example/go-genie-tts/internal/refaudio"
	"github.com/example/go-genie-tts/internal/tts"
)

// ParseLogLevel converts a case-insensitive level string to slog.Level.
// An empty string returns slog.LevelInfo. Unknown strings return an error.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q (want debug|info|warn|error)", s)
	}
}

// Backend is the session the handler serves. *tts.Service implements it.
type Backend interface {
	Language() g2p.Language
	Phonemize(ctx context.Context, text, lang string) (tts.Phonemes, error)
	Split(text string) []string
	SetReference(ctx context.Context, path, text, lang string) (*refaudio.Entry, error)
	UseVoice(ctx context.Context, id string) (*refaudio.Entry, error)
	Speaker() string
	ClearReferences()
	RemoveReference(path string) bool
	ReferenceKeys() []string
	CacheStats() (stats refaudio.Stats, length int, ok bool)
	Voices() []tts.Voice
}

// ---------------------------------------------------------------------------
// Functional options
// ---------------------------------------------------------------------------

type options struct {
	maxTextBytes   int
	workers        int
	requestTimeout time.Duration
	audioRoot      string
	logger         *slog.Logger
}

func defaultOptions() options {
	return options{
		maxTextBytes:   4096,
		workers:        2,
		requestTimeout: 60 * time.Second,
		logger:         slog.Default(),
	}
}

// Option configures the HTTP handler.
type Option func(*options)

// WithMaxTextBytes sets the maximum allowed text length in bytes.
func WithMaxTextBytes(n int) Option {
	return func(o *options) { o.maxTextBytes = n }
}

// WithWorkers sets the maximum number of concurrent G2P or reference calls.
// Zero disables the limit.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithRequestTimeout sets the per-request deadline.
func WithRequestTimeout(d time.Duration) Option {
	return func(o *options) { o.requestTimeout = d }
}

// WithAudioRoot confines reference audio paths to dir. Relative paths are
// resolved against it. An empty dir leaves paths unrestricted.
func WithAudioRoot(dir string) Option {
	return func(o *options) { o.audioRoot = dir }
}

// WithLogger sets the slog.Logger used for request logging.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// ---------------------------------------------------------------------------
// handler
// ---------------------------------------------------------------------------

type handler struct {
	backend Backend
	opts    options
	sem     chan struct{} // semaphore for worker pool
	log     *slog.Logger

	root     string // absolute audio root, empty when unrestricted
	rootReal string // root with symlinks resolved
}

// NewHandler returns an http.Handler serving /health, /voices, /g2p, /split
// and /reference.
func NewHandler(backend Backend, optFns ...Option) http.Handler {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	h := &handler{
		backend: backend,
		opts:    opts,
		log:     opts.logger,
	}
	if opts.workers > 0 {
		h.sem = make(chan struct{}, opts.workers)
	}
	if opts.audioRoot != "" {
		h.root = opts.audioRoot
		if abs, err := filepath.Abs(opts.audioRoot); err == nil {
			h.root = abs
		}
		h.rootReal = h.root
		if resolved, err := filepath.EvalSymlinks(h.root); err == nil {
			h.rootReal = resolved
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", h.handleHealth)
	mux.HandleFunc("GET /voices", h.handleVoices)
	mux.HandleFunc("POST /g2p", h.handleG2P)
	mux.HandleFunc("POST /split", h.handleSplit)
	mux.HandleFunc("GET /reference", h.handleReferences)
	mux.HandleFunc("POST /reference", h.handleSetReference)
	mux.HandleFunc("DELETE /reference", h.handleClearReference)

	return mux
}

func buildVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func (h *handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "ok",
		"version":  buildVersion(),
		"language": h.backend.Language().String(),
	})
}

func (h *handler) handleVoices(w http.ResponseWriter, _ *http.Request) {
	voices := h.backend.Voices()
	if voices == nil {
		voices = []tts.Voice{}
	}
	writeJSON(w, http.StatusOK, voices)
}

type textRequest struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

type g2pResponse struct {
	Language string   `json:"language"`
	Phonemes []string `json:"phonemes"`
	IDs      []int64  `json:"ids"`
}

func (h *handler) handleG2P(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if !h.decode(w, r, &req) || !h.checkText(w, req.Text) {
		return
	}

	ctx, release, ok := h.acquire(w, r)
	if !ok {
		return
	}
	defer release()

	start := time.Now()
	res, err := h.backend.Phonemize(ctx, req.Text, req.Language)
	durationMS := time.Since(start).Milliseconds()

	if err != nil {
		h.fail(w, r, "g2p failed", err,
			slog.String("language", req.Language),
			slog.Int("text_len", len(req.Text)),
			slog.Int64("duration_ms", durationMS),
		)
		return
	}

	h.log.InfoContext(r.Context(), "g2p complete",
		slog.String("language", res.Language.String()),
		slog.Int("text_len", len(req.Text)),
		slog.Int("phonemes", len(res.Symbols)),
		slog.Int64("duration_ms", durationMS),
	)

	syms := res.Symbols
	if syms == nil {
		syms = []string{}
	}

	ids := res.IDs
	if ids == nil {
		ids = []int64{}
	}

	writeJSON(w, http.StatusOK, g2pResponse{Language: res.Language.String(), Phonemes: syms, IDs: ids})
}

func (h *handler) handleSplit(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if !h.decode(w, r, &req) || !h.checkText(w, req.Text) {
		return
	}

	chunks := h.backend.Split(req.Text)
	if chunks == nil {
		chunks = []string{}
	}

	writeJSON(w, http.StatusOK, map[string][]string{"chunks": chunks})
}

type referenceRequest struct {
	Voice    string `json:"voice"`
	Audio    string `json:"audio"`
	Text     string `json:"text"`
	Language string `json:"language"`
}

type referenceResponse struct {
	Key          string `json:"key"`
	Speaker      string `json:"speaker,omitempty"`
	Language     string `json:"language"`
	Text         string `json:"text"`
	PhonemeIDs   int    `json:"phoneme_ids"`
	TextFeatures [2]int `json:"text_features"`
	AudioSamples int    `json:"audio_samples"`
	SSLContent   [2]int `json:"ssl_content"`
}

func summarize(s refaudio.Snapshot, speaker string) referenceResponse {
	return referenceResponse{
		Key:          s.Key,
		Speaker:      speaker,
		Language:     s.Language.String(),
		Text:         s.Text,
		PhonemeIDs:   len(s.PhonemeIDs),
		TextFeatures: [2]int{s.TextFeatures.Rows, s.TextFeatures.Cols},
		AudioSamples: len(s.Audio),
		SSLContent:   [2]int{s.SSLContent.Rows, s.SSLContent.Cols},
	}
}

func (h *handler) handleSetReference(w http.ResponseWriter, r *http.Request) {
	var req referenceRequest
	if !h.decode(w, r, &req) {
		return
	}

	if (req.Voice == "") == (req.Audio == "") {
		writeError(w, http.StatusBadRequest, "exactly one of voice or audio is required")
		return
	}

	audioPath := req.Audio
	if req.Audio != "" {
		var ok bool
		if audioPath, ok = h.audioPath(req.Audio); !ok {
			h.log.WarnContext(r.Context(), "reference audio outside root", slog.String("audio", req.Audio))
			writeError(w, http.StatusForbidden, errOutsideRoot)
			return
		}
	}

	if !h.checkSize(w, req.Text) {
		return
	}

	ctx, release, ok := h.acquire(w, r)
	if !ok {
		return
	}
	defer release()

	start := time.Now()

	var (
		entry *refaudio.Entry
		err   error
	)
	if req.Voice != "" {
		entry, err = h.backend.UseVoice(ctx, req.Voice)
	} else {
		entry, err = h.backend.SetReference(ctx, audioPath, req.Text, req.Language)
	}

	durationMS := time.Since(start).Milliseconds()

	if err != nil {
		h.fail(w, r, "reference failed", err,
			slog.String("voice", req.Voice),
			slog.String("audio", req.Audio),
			slog.Int64("duration_ms", durationMS),
		)
		return
	}

	speaker := ""
	if req.Voice != "" {
		speaker = h.backend.Speaker()
	}

	snap := entry.Snapshot()
	h.log.InfoContext(r.Context(), "reference ready",
		slog.String("key", snap.Key),
		slog.String("language", snap.Language.String()),
		slog.Int64("duration_ms", durationMS),
	)

	writeJSON(w, http.StatusOK, summarize(snap, speaker))
}

type referenceStats struct {
	Entries   int      `json:"entries"`
	Keys      []string `json:"keys"`
	Hits      int64    `json:"hits"`
	Updates   int64    `json:"updates"`
	Misses    int64    `json:"misses"`
	Evictions int64    `json:"evictions"`
}

func (h *handler) handleReferences(w http.ResponseWriter, _ *http.Request) {
	stats, n, _ := h.backend.CacheStats()

	keys := h.backend.ReferenceKeys()
	if keys == nil {
		keys = []string{}
	}

	writeJSON(w, http.StatusOK, referenceStats{
		Entries:   n,
		Keys:      keys,
		Hits:      stats.Hits,
		Updates:   stats.Updates,
		Misses:    stats.Misses,
		Evictions: stats.Evictions,
	})
}

// handleClearReference drops the entry named by the audio query parameter,
// or the whole cache when there is none.
func (h *handler) handleClearReference(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("audio")
	if raw == "" {
		h.backend.ClearReferences()
		h.log.InfoContext(r.Context(), "reference cache cleared")
		w.WriteHeader(http.StatusNoContent)
		return
	}

	path, ok := h.audioPath(raw)
	if !ok {
		writeError(w, http.StatusForbidden, errOutsideRoot)
		return
	}

	if !h.backend.RemoveReference(path) {
		writeError(w, http.StatusNotFound, "reference is not cached")
		return
	}

	h.log.InfoContext(r.Context(), "reference removed", slog.String("key", path))
	w.WriteHeader(http.StatusNoContent)
}

const errOutsideRoot = "audio path is not under the audio root"

// audioPath maps a requested reference path into the audio root. ok is
// false when the path, or the file it links to, lies outside the root. The
// check never touches files outside the root.
func (h *handler) audioPath(p string) (string, bool) {
	if h.root == "" {
		return p, true
	}

	if !filepath.IsAbs(p) {
		p = filepath.Join(h.root, p)
	}
	p = filepath.Clean(p)

	if !within(h.root, p) {
		return "", false
	}
	if resolved, err := filepath.EvalSymlinks(p); err == nil && !within(h.rootReal, resolved) {
		return "", false
	}

	return p, true
}

func within(root, p string) bool {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return false
	}

	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func (h *handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Body == nil {
		writeError(w, http.StatusBadRequest, "request body is required")
		return false
	}

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return false
	}

	return true
}

func (h *handler) checkText(w http.ResponseWriter, text string) bool {
	if text == "" {
		writeError(w, http.StatusBadRequest, "text field is required")
		return false
	}

	return h.checkSize(w, text)
}

func (h *handler) checkSize(w http.ResponseWriter, text string) bool {
	if len(text) > h.opts.maxTextBytes {
		writeError(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("text exceeds maximum size of %d bytes", h.opts.maxTextBytes))
		return false
	}

	return true
}

// acquire takes a worker slot, honouring cancellation while waiting, and
// applies the per-request timeout.
func (h *handler) acquire(w http.ResponseWriter, r *http.Request) (context.Context, func(), bool) {
	if h.sem != nil {
		select {
		case h.sem <- struct{}{}:
		case <-r.Context().Done():
			writeError(w, http.StatusServiceUnavailable, "request cancelled while waiting for worker")
			return nil, nil, false
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.opts.requestTimeout)

	return ctx, func() {
		cancel()
		if h.sem != nil {
			<-h.sem
		}
	}, true
}

func (h *handler) fail(w http.ResponseWriter, r *http.Request, msg string, err error, attrs ...slog.Attr) {
	attrs = append(attrs, slog.String("error", err.Error()))

	status := errorStatus(err)
	switch status {
	case http.StatusGatewayTimeout:
		h.log.LogAttrs(r.Context(), slog.LevelWarn, msg+": timed out", attrs...)
		writeError(w, status, "request timed out")
		return
	case http.StatusInternalServerError:
		h.log.LogAttrs(r.Context(), slog.LevelError, msg, attrs...)
	default:
		h.log.LogAttrs(r.Context(), slog.LevelWarn, msg, attrs...)
	}

	writeError(w, status, err.Error())
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusGatewayTimeout
	case errors.Is(err, g2p.ErrUnsupportedLanguage), errors.Is(err, refaudio.ErrNoTextEmbedder):
		return http.StatusBadRequest
	case errors.Is(err, tts.ErrUnknownVoice), errors.Is(err, tts.ErrNoVoices), errors.Is(err, os.ErrNotExist):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// ---------------------------------------------------------------------------
// Server lifecycle
// ---------------------------------------------------------------------------

// Server wires the HTTP handler into a net/http.Server with graceful shutdown.
type Server struct {
	cfg             config.Config
	backend         Backend
	shutdownTimeout time.Duration
}

func New(cfg config.Config, backend Backend) *Server {
	return &Server{
		cfg:             cfg,
		backend:         backend,
		shutdownTimeout: time.Duration(cfg.Server.ShutdownTimeout) * time.Second,
	}
}

// WithShutdownTimeout overrides the graceful-shutdown drain period.
func (s *Server) WithShutdownTimeout(d time.Duration) *Server {
	s.shutdownTimeout = d
	return s
}

func (s *Server) Start(ctx context.Context) error {
	if s.backend == nil {
		return errors.New("server: backend is required")
	}

	h := NewHandler(s.backend,
		WithWorkers(s.cfg.Server.Workers),
		WithMaxTextBytes(s.cfg.Server.MaxTextBytes),
		WithRequestTimeout(time.Duration(s.cfg.Server.RequestTimeout)*time.Second),
		WithAudioRoot(s.cfg.AudioRoot()),
	)

	httpServer := &http.Server{
		Addr:              s.cfg.Server.ListenAddr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	slog.Info("http server listening", "addr", s.cfg.Server.ListenAddr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http listen: %w", err)
	}
}

func CheckHealth(addr string) error {
	resp, err := http.Get("http://" + addr + "/health") //nolint:noctx
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected health status: %s", resp.Status)
	}
	return nil
}
