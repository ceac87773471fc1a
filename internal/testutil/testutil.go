// Package testutil provides shared skip helpers and WAV assertions for tests.
//
// Each Require helper calls t.Skip with a clear human-readable reason when
// the named prerequisite is absent, so integration tests remain runnable in
// partial environments without failing noisily.
//
// Typical usage:
//
//	func TestMyIntegration(t *testing.T) {
//	    lib := testutil.RequireONNXRuntime(t)
//	    model := testutil.RequireFileEnv(t, "GENIETTS_TEST_IDENTITY_MODEL")
//	    ...
//	}
package testutil

import (
	"os"
	"testing"
)

// RequireONNXRuntime skips the test if no ONNX Runtime shared library can be
// located and returns its path otherwise. It checks (in order): the
// GENIETTS_ORT_LIB env var, the ORT_LIBRARY_PATH env var, then common system
// library paths.
func RequireONNXRuntime(tb testing.TB) string {
	tb.Helper()

	for _, env := range []string{"GENIETTS_ORT_LIB", "ORT_LIBRARY_PATH"} {
		if p := os.Getenv(env); p != "" {
			// #nosec G703 -- Integration tests intentionally accept explicit env-provided local library paths.
			_, err := os.Stat(p)
			if err == nil {
				return p
			}

			tb.Skipf("ONNX Runtime library not found at %s=%q", env, p)
		}
	}
	// Fall back to common system locations.
	candidates := []string{
		"/usr/lib/libonnxruntime.so",
		"/usr/local/lib/libonnxruntime.so",
		"/usr/lib/x86_64-linux-gnu/libonnxruntime.so",
	}
	for _, p := range candidates {
		_, err := os.Stat(p)
		if err == nil {
			return p
		}
	}

	tb.Skip("ONNX Runtime shared library not found; set GENIETTS_ORT_LIB or ORT_LIBRARY_PATH")

	return ""
}

// RequireFileEnv skips the test unless env names an existing file, and
// returns that path.
func RequireFileEnv(tb testing.TB, env string) string {
	tb.Helper()

	p := os.Getenv(env)
	if p == "" {
		tb.Skipf("%s not set", env)
	}

	if _, err := os.Stat(p); err != nil {
		tb.Skipf("%s=%q not usable: %v", env, p, err)
	}

	return p
}
