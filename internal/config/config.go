// Package config loads layered settings: defaults, an optional config file,
// GENIETTS_* environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/example/go-genie-tts/internal/g2p"
)

// EnvCacheCapacity is the legacy variable that sets the reference cache size.
const EnvCacheCapacity = "Max_Cached_Reference_Audio"

type Config struct {
	Paths    PathsConfig   `mapstructure:"paths"`
	Runtime  RuntimeConfig `mapstructure:"runtime"`
	Cache    CacheConfig   `mapstructure:"cache"`
	G2P      G2PConfig     `mapstructure:"g2p"`
	Server   ServerConfig  `mapstructure:"server"`
	LogLevel string        `mapstructure:"log_level"`
}

type PathsConfig struct {
	ModelManifest string `mapstructure:"model_manifest"`
	BertTokenizer string `mapstructure:"bert_tokenizer"`
	Voices        string `mapstructure:"voices"`
}

type RuntimeConfig struct {
	Threads        int    `mapstructure:"threads"`
	InterOpThreads int    `mapstructure:"inter_op_threads"`
	ORTLibraryPath string `mapstructure:"ort_library_path"`
	ORTVersion     string `mapstructure:"ort_version"`
}

type CacheConfig struct {
	Capacity int `mapstructure:"capacity"`
}

type G2PConfig struct {
	Language         string `mapstructure:"language"`
	JapaneseFrontend string `mapstructure:"japanese_frontend"`
	FrontendCommand  string `mapstructure:"frontend_command"`
	Prosody          bool   `mapstructure:"prosody"`
}

type ServerConfig struct {
	ListenAddr      string `mapstructure:"listen_addr"`
	Workers         int    `mapstructure:"workers"`
	MaxTextBytes    int    `mapstructure:"max_text_bytes"`
	RequestTimeout  int    `mapstructure:"request_timeout"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"`
	AudioRoot       string `mapstructure:"audio_root"`
}

type LoadOptions struct {
	Cmd        flagBinder
	ConfigFile string
	Defaults   Config
}

type flagBinder interface {
	Flags() *pflag.FlagSet
}

func DefaultConfig() Config {
	return Config{
		Paths: PathsConfig{
			ModelManifest: "models/manifest.json",
			BertTokenizer: "models/bert",
			Voices:        "voices/voices.json",
		},
		Runtime: RuntimeConfig{
			Threads:        4,
			InterOpThreads: 1,
		},
		Cache: CacheConfig{
			Capacity: 10,
		},
		G2P: G2PConfig{
			Language:         string(g2p.LanguageJapanese),
			JapaneseFrontend: FrontendKagome,
			Prosody:          true,
		},
		Server: ServerConfig{
			ListenAddr:      ":8080",
			Workers:         2,
			MaxTextBytes:    4096,
			RequestTimeout:  60,
			ShutdownTimeout: 30,
		},
		LogLevel: "info",
	}
}

// flagKeys maps every flag registered by RegisterFlags to its config key.
var flagKeys = map[string]string{
	"paths-model-manifest":     "paths.model_manifest",
	"paths-bert-tokenizer":     "paths.bert_tokenizer",
	"paths-voices":             "paths.voices",
	"runtime-threads":          "runtime.threads",
	"runtime-inter-op-threads": "runtime.inter_op_threads",
	"ort-lib":                  "runtime.ort_library_path",
	"runtime-ort-version":      "runtime.ort_version",
	"cache-capacity":           "cache.capacity",
	"language":                 "g2p.language",
	"japanese-frontend":        "g2p.japanese_frontend",
	"frontend-command":         "g2p.frontend_command",
	"prosody":                  "g2p.prosody",
	"listen":                   "server.listen_addr",
	"workers":                  "server.workers",
	"max-text-bytes":           "server.max_text_bytes",
	"request-timeout":          "server.request_timeout",
	"shutdown-timeout":         "server.shutdown_timeout",
	"audio-root":               "server.audio_root",
	"log-level":                "log_level",
}

func RegisterFlags(fs *pflag.FlagSet, defaults Config) {
	fs.String("paths-model-manifest", defaults.Paths.ModelManifest, "Path to the ONNX graph manifest")
	fs.String("paths-bert-tokenizer", defaults.Paths.BertTokenizer, "Directory or file of the text embedding tokenizer")
	fs.String("paths-voices", defaults.Paths.Voices, "Path to the reference voice manifest")
	fs.Int("runtime-threads", defaults.Runtime.Threads, "ONNX Runtime intra-op thread count")
	fs.Int("runtime-inter-op-threads", defaults.Runtime.InterOpThreads, "ONNX Runtime inter-op thread count")
	fs.String("ort-lib", defaults.Runtime.ORTLibraryPath, "Path to ONNX Runtime shared library")
	fs.String("runtime-ort-version", defaults.Runtime.ORTVersion, "Expected ONNX Runtime version")
	fs.Int("cache-capacity", defaults.Cache.Capacity, "Maximum number of cached reference audio entries")
	fs.String("language", defaults.G2P.Language, "Default text language (ja|zh|auto)")
	fs.String("japanese-frontend", defaults.G2P.JapaneseFrontend, "Japanese analysis front-end (kagome|command)")
	fs.String("frontend-command", defaults.G2P.FrontendCommand, "OpenJTalk-compatible helper used by the command front-end")
	fs.Bool("prosody", defaults.G2P.Prosody, "Emit Japanese accent and boundary marks")
	fs.String("listen", defaults.Server.ListenAddr, "HTTP listen address")
	fs.Int("workers", defaults.Server.Workers, "Maximum concurrent HTTP requests doing G2P or feature work")
	fs.Int("max-text-bytes", defaults.Server.MaxTextBytes, "Maximum request text size in bytes")
	fs.Int("request-timeout", defaults.Server.RequestTimeout, "Per-request timeout in seconds")
	fs.Int("shutdown-timeout", defaults.Server.ShutdownTimeout, "Graceful shutdown timeout in seconds")
	fs.String("audio-root", defaults.Server.AudioRoot, "Directory HTTP reference audio must live under (default: the voice manifest directory)")
	fs.String("log-level", defaults.LogLevel, "Log level (debug|info|warn|error)")
}

func Load(opts LoadOptions) (Config, error) {
	v := viper.New()

	setDefaults(v, opts.Defaults)
	if opts.Cmd != nil {
		if err := bindFlags(v, opts.Cmd.Flags()); err != nil {
			return Config{}, err
		}
	}

	v.SetEnvPrefix("GENIETTS")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	if err := v.BindEnv("runtime.ort_library_path", "GENIETTS_ORT_LIB", "ORT_LIBRARY_PATH"); err != nil {
		return Config{}, fmt.Errorf("bind ort env vars: %w", err)
	}
	if err := v.BindEnv("cache.capacity", "GENIETTS_CACHE_CAPACITY", EnvCacheCapacity); err != nil {
		return Config{}, fmt.Errorf("bind cache env vars: %w", err)
	}
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("genietts")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	return cfg, nil
}

// Validate reports the first setting that cannot be used.
func (c Config) Validate() error {
	if c.Cache.Capacity < 1 {
		return fmt.Errorf("cache.capacity must be >= 1, got %d", c.Cache.Capacity)
	}
	if _, err := g2p.ParseLanguage(c.G2P.Language); err != nil {
		return fmt.Errorf("g2p.language: %w", err)
	}
	frontend, err := NormalizeFrontend(c.G2P.JapaneseFrontend)
	if err != nil {
		return err
	}
	if frontend == FrontendCommand && strings.TrimSpace(c.G2P.FrontendCommand) == "" {
		return errors.New("g2p.frontend_command is required for the command front-end")
	}
	if c.Runtime.Threads < 1 {
		return fmt.Errorf("runtime.threads must be >= 1, got %d", c.Runtime.Threads)
	}
	if c.Server.Workers < 1 {
		return fmt.Errorf("server.workers must be >= 1, got %d", c.Server.Workers)
	}

	return nil
}

// AudioRoot is the directory the HTTP server accepts reference audio from:
// server.audio_root, or the voice manifest directory when that is unset.
func (c Config) AudioRoot() string {
	if c.Server.AudioRoot != "" {
		return c.Server.AudioRoot
	}

	return filepath.Dir(c.Paths.Voices)
}

func setDefaults(v *viper.Viper, c Config) {
	v.SetDefault("paths.model_manifest", c.Paths.ModelManifest)
	v.SetDefault("paths.bert_tokenizer", c.Paths.BertTokenizer)
	v.SetDefault("paths.voices", c.Paths.Voices)
	v.SetDefault("runtime.threads", c.Runtime.Threads)
	v.SetDefault("runtime.inter_op_threads", c.Runtime.InterOpThreads)
	v.SetDefault("runtime.ort_library_path", c.Runtime.ORTLibraryPath)
	v.SetDefault("runtime.ort_version", c.Runtime.ORTVersion)
	v.SetDefault("cache.capacity", c.Cache.Capacity)
	v.SetDefault("g2p.language", c.G2P.Language)
	v.SetDefault("g2p.japanese_frontend", c.G2P.JapaneseFrontend)
	v.SetDefault("g2p.frontend_command", c.G2P.FrontendCommand)
	v.SetDefault("g2p.prosody", c.G2P.Prosody)
	v.SetDefault("server.listen_addr", c.Server.ListenAddr)
	v.SetDefault("server.workers", c.Server.Workers)
	v.SetDefault("server.max_text_bytes", c.Server.MaxTextBytes)
	v.SetDefault("server.request_timeout", c.Server.RequestTimeout)
	v.SetDefault("server.shutdown_timeout", c.Server.ShutdownTimeout)
	v.SetDefault("server.audio_root", c.Server.AudioRoot)
	v.SetDefault("log_level", c.LogLevel)
}

// bindFlags binds each known flag present in fs to its config key, so an
// explicitly set flag wins over env and file values.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %q: %w", name, err)
		}
	}

	return nil
}
