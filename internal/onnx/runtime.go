package onnx

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	goruntime "runtime"
	"sync"

	"github.com/example/go-genie-tts/internal/config"
)

// EnvORTLibrary names the variable holding the ONNX Runtime library path.
const EnvORTLibrary = "GENIETTS_ORT_LIB"

// RuntimeInfo describes the located ONNX Runtime shared library.
type RuntimeInfo struct {
	LibraryPath string
	Version     string
	// Source says where the path came from: config, env var name, or "search".
	Source      string
	Initialized bool
}

var versionPattern = regexp.MustCompile(`([0-9]+\.[0-9]+\.[0-9]+)`)

var (
	bootstrapMu   sync.Mutex
	bootstrapInfo RuntimeInfo
	errBootstrap  error
	bootstrapped  bool
)

// Bootstrap locates the runtime once per process and exports its path via
// EnvORTLibrary. Later calls return the first result, including a failure,
// until Shutdown.
func Bootstrap(cfg config.RuntimeConfig) (RuntimeInfo, error) {
	bootstrapMu.Lock()
	defer bootstrapMu.Unlock()

	if bootstrapped {
		return bootstrapInfo, errBootstrap
	}
	bootstrapped = true

	info, err := DetectRuntime(cfg)
	if err != nil {
		errBootstrap = err
		return RuntimeInfo{}, err
	}

	// Runners created later in this process read the resolved path from here.
	if err := os.Setenv(EnvORTLibrary, info.LibraryPath); err != nil {
		errBootstrap = fmt.Errorf("set %s: %w", EnvORTLibrary, err)
		return RuntimeInfo{}, errBootstrap
	}

	slog.Info("onnx runtime located", "path", info.LibraryPath, "version", info.Version, "source", info.Source)

	info.Initialized = true
	bootstrapInfo = info

	return bootstrapInfo, nil
}

// Shutdown forgets the bootstrapped runtime so a later Bootstrap detects again.
func Shutdown() error {
	bootstrapMu.Lock()
	defer bootstrapMu.Unlock()

	bootstrapped = false
	bootstrapInfo = RuntimeInfo{}
	errBootstrap = nil

	return nil
}

// DetectRuntime resolves the library from cfg, then GENIETTS_ORT_LIB, then
// ORT_LIBRARY_PATH, then well-known install locations for this OS.
func DetectRuntime(cfg config.RuntimeConfig) (RuntimeInfo, error) {
	path, source := cfg.ORTLibraryPath, "config"
	for _, env := range []string{EnvORTLibrary, "ORT_LIBRARY_PATH"} {
		if path != "" {
			break
		}
		path, source = os.Getenv(env), env
	}

	if path == "" {
		source = "search"
		for _, c := range libraryCandidates(goruntime.GOOS) {
			if _, err := os.Stat(c); err == nil {
				path = c
				break
			}
		}
	}

	if path == "" {
		return RuntimeInfo{LibraryPath: "not found", Version: "unknown"}, errors.New("unable to detect ONNX Runtime library path")
	}

	if _, err := os.Stat(path); err != nil {
		return RuntimeInfo{LibraryPath: path, Version: "unknown", Source: source}, fmt.Errorf("onnx runtime library path check failed: %w", err)
	}

	version := cfg.ORTVersion
	if version == "" {
		version = os.Getenv("ORT_VERSION")
	}

	if version == "" {
		version = inferVersion(path)
	}

	if version == "" {
		version = "unknown"
	}

	return RuntimeInfo{LibraryPath: path, Version: version, Source: source}, nil
}

func libraryCandidates(goos string) []string {
	switch goos {
	case "darwin":
		return []string{
			"/opt/homebrew/lib/libonnxruntime.dylib",
			"/usr/local/lib/libonnxruntime.dylib",
		}
	case "windows":
		return []string{
			"C:/onnxruntime/lib/onnxruntime.dll",
			"C:/Program Files/onnxruntime/lib/onnxruntime.dll",
		}
	default:
		return []string{
			"/usr/lib/libonnxruntime.so",
			"/usr/local/lib/libonnxruntime.so",
			"/usr/lib/x86_64-linux-gnu/libonnxruntime.so",
			"/usr/lib/aarch64-linux-gnu/libonnxruntime.so",
		}
	}
}

// inferVersion reads a dotted version from the file name, following
// symlinks such as libonnxruntime.so -> libonnxruntime.so.1.23.2.
func inferVersion(path string) string {
	names := []string{path}
	if resolved, err := filepath.EvalSymlinks(path); err == nil && resolved != path {
		names = append(names, resolved)
	}

	for _, p := range names {
		if m := versionPattern.FindStringSubmatch(filepath.Base(p)); len(m) == 2 {
			return m[1]
		}
	}

	return ""
}
