package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
)

// fakeBinder wraps a pflag.FlagSet to satisfy the flagBinder interface.
type fakeBinder struct {
	fs *pflag.FlagSet
}

func (f *fakeBinder) Flags() *pflag.FlagSet { return f.fs }

// newFlagBinder registers all config flags and parses args.
func newFlagBinder(t *testing.T, defaults Config, args ...string) *fakeBinder {
	t.Helper()

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs, defaults)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	return &fakeBinder{fs: fs}
}

// chdirTemp runs the test in an empty directory so no genietts.yaml is
// picked up, with the explicitly bound env vars cleared.
func chdirTemp(t *testing.T) string {
	t.Helper()

	for _, name := range []string{"GENIETTS_ORT_LIB", "ORT_LIBRARY_PATH", "GENIETTS_CACHE_CAPACITY", EnvCacheCapacity} {
		t.Setenv(name, "")
	}

	dir := t.TempDir()
	t.Chdir(dir)

	return dir
}

// --- DefaultConfig ---

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Cache.Capacity != 10 {
		t.Errorf("Cache.Capacity = %d; want 10", cfg.Cache.Capacity)
	}

	if cfg.G2P.Language != "ja" {
		t.Errorf("G2P.Language = %q; want %q", cfg.G2P.Language, "ja")
	}

	if cfg.G2P.JapaneseFrontend != FrontendKagome {
		t.Errorf("G2P.JapaneseFrontend = %q; want %q", cfg.G2P.JapaneseFrontend, FrontendKagome)
	}

	if !cfg.G2P.Prosody {
		t.Error("G2P.Prosody = false; want true")
	}

	if cfg.Runtime.Threads != 4 {
		t.Errorf("Runtime.Threads = %d; want 4", cfg.Runtime.Threads)
	}

	if cfg.Server.ListenAddr != ":8080" {
		t.Errorf("Server.ListenAddr = %q; want %q", cfg.Server.ListenAddr, ":8080")
	}

	if cfg.Server.Workers != 2 {
		t.Errorf("Server.Workers = %d; want 2", cfg.Server.Workers)
	}

	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q; want %q", cfg.LogLevel, "info")
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v; want nil", err)
	}
}

// --- NormalizeFrontend ---

func TestNormalizeFrontend(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"kagome", "kagome", FrontendKagome, false},
		{"empty defaults to kagome", "", FrontendKagome, false},
		{"command mixed case", " Command ", FrontendCommand, false},
		{"openjtalk alias", "openjtalk", FrontendCommand, false},
		{"invalid", "mecab", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeFrontend(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("NormalizeFrontend(%q) = %q, nil; want error", tt.input, got)
				}

				return
			}

			if err != nil {
				t.Errorf("NormalizeFrontend(%q) unexpected error: %v", tt.input, err)
				return
			}

			if got != tt.want {
				t.Errorf("NormalizeFrontend(%q) = %q; want %q", tt.input, got, tt.want)
			}
		})
	}
}

// --- RegisterFlags ---

func TestRegisterFlags(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs, DefaultConfig())

	checks := []struct {
		flag string
		want string
	}{
		{"cache-capacity", "10"},
		{"language", "ja"},
		{"japanese-frontend", "kagome"},
		{"prosody", "true"},
		{"listen", ":8080"},
		{"log-level", "info"},
	}

	for _, c := range checks {
		f := fs.Lookup(c.flag)
		if f == nil {
			t.Errorf("flag %q not registered", c.flag)
			continue
		}

		if f.DefValue != c.want {
			t.Errorf("flag %q default = %q; want %q", c.flag, f.DefValue, c.want)
		}
	}

	fs.VisitAll(func(f *pflag.Flag) {
		if _, ok := flagKeys[f.Name]; !ok {
			t.Errorf("flag %q has no config key", f.Name)
		}
	})
}

func TestAudioRoot(t *testing.T) {
	tests := []struct {
		name   string
		voices string
		root   string
		want   string
	}{
		{"defaults to manifest dir", "voices/voices.json", "", "voices"},
		{"explicit root wins", "voices/voices.json", "/srv/audio", "/srv/audio"},
		{"bare manifest name", "voices.json", "", "."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Paths.Voices = tt.voices
			cfg.Server.AudioRoot = tt.root

			if got := cfg.AudioRoot(); got != tt.want {
				t.Fatalf("AudioRoot() = %q; want %q", got, tt.want)
			}
		})
	}
}

// --- Load ---

func TestLoad_Defaults(t *testing.T) {
	chdirTemp(t)
	defaults := DefaultConfig()

	cfg, err := Load(LoadOptions{
		Cmd:      newFlagBinder(t, defaults),
		Defaults: defaults,
	})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg != defaults {
		t.Errorf("Load() = %+v; want %+v", cfg, defaults)
	}
}

func TestLoad_FlagOverride(t *testing.T) {
	chdirTemp(t)
	defaults := DefaultConfig()

	cfg, err := Load(LoadOptions{
		Cmd: newFlagBinder(t, defaults,
			"--cache-capacity=3",
			"--language=zh",
			"--prosody=false",
			"--workers=8",
			"--log-level=debug",
		),
		Defaults: defaults,
	})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Cache.Capacity != 3 {
		t.Errorf("Cache.Capacity = %d; want 3", cfg.Cache.Capacity)
	}

	if cfg.G2P.Language != "zh" {
		t.Errorf("G2P.Language = %q; want %q", cfg.G2P.Language, "zh")
	}

	if cfg.G2P.Prosody {
		t.Error("G2P.Prosody = true; want false")
	}

	if cfg.Server.Workers != 8 {
		t.Errorf("Server.Workers = %d; want 8", cfg.Server.Workers)
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q; want %q", cfg.LogLevel, "debug")
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	chdirTemp(t)
	t.Setenv("GENIETTS_LOG_LEVEL", "warn")
	t.Setenv("GENIETTS_SERVER_LISTEN_ADDR", ":9999")
	t.Setenv("GENIETTS_ORT_LIB", "/opt/ort/libonnxruntime.so")

	cfg, err := Load(LoadOptions{Defaults: DefaultConfig()})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q; want %q", cfg.LogLevel, "warn")
	}

	if cfg.Server.ListenAddr != ":9999" {
		t.Errorf("Server.ListenAddr = %q; want %q", cfg.Server.ListenAddr, ":9999")
	}

	if cfg.Runtime.ORTLibraryPath != "/opt/ort/libonnxruntime.so" {
		t.Errorf("Runtime.ORTLibraryPath = %q", cfg.Runtime.ORTLibraryPath)
	}
}

func TestLoad_LegacyCacheCapacityEnv(t *testing.T) {
	chdirTemp(t)
	t.Setenv(EnvCacheCapacity, "25")

	cfg, err := Load(LoadOptions{Defaults: DefaultConfig()})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Cache.Capacity != 25 {
		t.Errorf("Cache.Capacity = %d; want 25", cfg.Cache.Capacity)
	}
}

func TestLoad_FlagBeatsEnv(t *testing.T) {
	chdirTemp(t)
	t.Setenv(EnvCacheCapacity, "25")
	defaults := DefaultConfig()

	cfg, err := Load(LoadOptions{
		Cmd:      newFlagBinder(t, defaults, "--cache-capacity=4"),
		Defaults: defaults,
	})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Cache.Capacity != 4 {
		t.Errorf("Cache.Capacity = %d; want 4", cfg.Cache.Capacity)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := chdirTemp(t)
	cfgFile := filepath.Join(dir, "custom.yaml")

	content := `
log_level: error
cache:
  capacity: 5
g2p:
  language: auto
  japanese_frontend: command
  frontend_command: /usr/local/bin/jtalk-labels
server:
  workers: 16
  listen_addr: ":7777"
`

	if err := os.WriteFile(cfgFile, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	defaults := DefaultConfig()

	cfg, err := Load(LoadOptions{
		Cmd:        newFlagBinder(t, defaults),
		ConfigFile: cfgFile,
		Defaults:   defaults,
	})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.LogLevel != "error" {
		t.Errorf("LogLevel = %q; want %q", cfg.LogLevel, "error")
	}

	if cfg.Cache.Capacity != 5 {
		t.Errorf("Cache.Capacity = %d; want 5", cfg.Cache.Capacity)
	}

	if cfg.G2P.JapaneseFrontend != FrontendCommand || cfg.G2P.FrontendCommand != "/usr/local/bin/jtalk-labels" {
		t.Errorf("G2P = %+v", cfg.G2P)
	}

	if cfg.Server.Workers != 16 || cfg.Server.ListenAddr != ":7777" {
		t.Errorf("Server = %+v", cfg.Server)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestLoad_DiscoversConfigInWorkingDir(t *testing.T) {
	dir := chdirTemp(t)

	if err := os.WriteFile(filepath.Join(dir, "genietts.yaml"), []byte("log_level: debug\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(LoadOptions{Defaults: DefaultConfig()})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q; want %q", cfg.LogLevel, "debug")
	}
}

func TestLoad_InvalidConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "bad.yaml")

	if err := os.WriteFile(cfgFile, []byte(":\t:bad yaml:::"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	_, err := Load(LoadOptions{
		ConfigFile: cfgFile,
		Defaults:   DefaultConfig(),
	})
	if err == nil {
		t.Error("Load() = nil; want error for invalid config file")
	}
}

func TestLoad_MissingExplicitConfigFile(t *testing.T) {
	_, err := Load(LoadOptions{
		ConfigFile: "/nonexistent/path/genietts.yaml",
		Defaults:   DefaultConfig(),
	})
	if err == nil {
		t.Error("Load() = nil; want error for missing explicit config file")
	}
}

// --- Validate ---

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero capacity", func(c *Config) { c.Cache.Capacity = 0 }},
		{"unknown language", func(c *Config) { c.G2P.Language = "ko" }},
		{"unknown frontend", func(c *Config) { c.G2P.JapaneseFrontend = "mecab" }},
		{"command without path", func(c *Config) { c.G2P.JapaneseFrontend = FrontendCommand }},
		{"zero threads", func(c *Config) { c.Runtime.Threads = 0 }},
		{"zero workers", func(c *Config) { c.Server.Workers = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			if err := cfg.Validate(); err == nil {
				t.Error("Validate() = nil; want error")
			}
		})
	}
}
