// Package doctor provides environment preflight checks for genietts.
package doctor

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// PassMark and FailMark are the prefix symbols printed for each check result.
const (
	PassMark = "✓"
	FailMark = "✗"
)

// VersionFunc returns a version string or an error if the component is unavailable.
type VersionFunc func() (string, error)

// Config holds injectable dependencies for each doctor check.
type Config struct {
	// ORTVersion returns the detected ONNX Runtime version ("unknown" is accepted).
	ORTVersion VersionFunc
	// MinORTAPI is the ORT C API version runners request; the library's minor
	// version must be at least this.
	MinORTAPI int
	// Graphs lists the graph names in the model manifest.
	Graphs func() ([]string, error)
	// RequiredGraphs must all appear in Graphs.
	RequiredGraphs []string
	// Tokenizer loads the text-embedding tokenizer. Nil skips the check.
	Tokenizer func() error
	// Frontend runs the Japanese analysis front-end and describes it.
	Frontend VersionFunc
	// VoiceFiles is the list of reference audio paths to verify on disk.
	VoiceFiles []string
}

// Result collects the outcome of all checks.
type Result struct {
	failures []string
}

// Failed returns true if any check failed.
func (r *Result) Failed() bool { return len(r.failures) > 0 }

// Failures returns the list of failure messages.
func (r *Result) Failures() []string { return append([]string(nil), r.failures...) }

// AddFailure appends an external failure message to the result.
func (r *Result) AddFailure(msg string) { r.failures = append(r.failures, msg) }

func (r *Result) fail(msg string) { r.failures = append(r.failures, msg) }

// Run executes all configured checks and writes human-readable output to w.
// Each check line is prefixed with PassMark or FailMark. Nil checks are skipped.
func Run(cfg Config, w io.Writer) Result {
	var res Result

	// ---- Japanese front-end -------------------------------------------------
	if cfg.Frontend != nil {
		desc, err := cfg.Frontend()
		if err != nil {
			res.fail(fmt.Sprintf("japanese frontend: %v", err))
			fmt.Fprintf(w, "%s japanese frontend: %v\n", FailMark, err)
		} else {
			fmt.Fprintf(w, "%s japanese frontend: %s\n", PassMark, desc)
		}
	}

	// ---- ONNX Runtime -------------------------------------------------------
	if cfg.ORTVersion != nil {
		ver, err := cfg.ORTVersion()
		if err != nil {
			res.fail(fmt.Sprintf("onnx runtime: %v", err))
			fmt.Fprintf(w, "%s onnx runtime: not found (%v)\n", FailMark, err)
		} else if verErr := checkORTVersion(ver, cfg.MinORTAPI); verErr != nil {
			res.fail(fmt.Sprintf("onnx runtime: %v", verErr))
			fmt.Fprintf(w, "%s onnx runtime %s: %v\n", FailMark, ver, verErr)
		} else {
			fmt.Fprintf(w, "%s onnx runtime: %s\n", PassMark, ver)
		}
	}

	// ---- model manifest -----------------------------------------------------
	if cfg.Graphs != nil {
		graphs, err := cfg.Graphs()
		if err != nil {
			res.fail(fmt.Sprintf("model manifest: %v", err))
			fmt.Fprintf(w, "%s model manifest: %v\n", FailMark, err)
		} else {
			fmt.Fprintf(w, "%s model manifest: %s\n", PassMark, strings.Join(graphs, ", "))

			for _, name := range missing(cfg.RequiredGraphs, graphs) {
				res.fail(fmt.Sprintf("graph %q: not in manifest", name))
				fmt.Fprintf(w, "%s graph %s: not in manifest\n", FailMark, name)
			}
		}
	}

	// ---- text-embedding tokenizer -------------------------------------------
	if cfg.Tokenizer != nil {
		if err := cfg.Tokenizer(); err != nil {
			res.fail(fmt.Sprintf("bert tokenizer: %v", err))
			fmt.Fprintf(w, "%s bert tokenizer: %v\n", FailMark, err)
		} else {
			fmt.Fprintf(w, "%s bert tokenizer: ok\n", PassMark)
		}
	}

	// ---- voice files --------------------------------------------------------
	for _, path := range cfg.VoiceFiles {
		if _, err := os.Stat(path); err != nil {
			res.fail(fmt.Sprintf("voice file %q: %v", path, err))
			fmt.Fprintf(w, "%s voice file %s: not found\n", FailMark, path)
		} else {
			fmt.Fprintf(w, "%s voice file: %s\n", PassMark, path)
		}
	}

	return res
}

func missing(want, have []string) []string {
	seen := make(map[string]bool, len(have))
	for _, h := range have {
		seen[h] = true
	}

	var out []string
	for _, w := range want {
		if !seen[w] {
			out = append(out, w)
		}
	}

	return out
}

// checkORTVersion returns an error if ver is not a 1.x release whose minor
// version reaches minAPI. An unknown version passes.
func checkORTVersion(ver string, minAPI int) error {
	if ver == "" || ver == "unknown" {
		return nil
	}

	major, minor, err := parseMajorMinor(ver)
	if err != nil {
		return fmt.Errorf("cannot parse %q: %w", ver, err)
	}
	if major != 1 {
		return fmt.Errorf("requires ONNX Runtime 1.x, got %d", major)
	}
	if minor < minAPI {
		return fmt.Errorf("requires ONNX Runtime >=1.%d, got 1.%d", minAPI, minor)
	}
	return nil
}

func parseMajorMinor(ver string) (major, minor int, err error) {
	parts := strings.SplitN(ver, ".", 3)
	if len(parts) < 2 {
		return 0, 0, fmt.Errorf("unexpected version format %q", ver)
	}
	major, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("bad major in %q: %w", ver, err)
	}
	minor, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("bad minor in %q: %w", ver, err)
	}
	return major, minor, nil
}
