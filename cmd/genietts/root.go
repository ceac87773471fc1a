package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/go-genie-tts/internal/config"
	"github.com/example/go-genie-tts/internal/server"
)

var (
	cfgFile   string
	activeCfg config.Config
)

func NewRootCmd() *cobra.Command {
	defaults := config.DefaultConfig()

	cmd := &cobra.Command{
		Use:           "genietts",
		Short:         "Japanese and Chinese text front-end and reference audio tools",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			loaded, err := config.Load(config.LoadOptions{
				Cmd:        cmd,
				ConfigFile: cfgFile,
				Defaults:   defaults,
			})
			if err != nil {
				return err
			}
			if err := loaded.Validate(); err != nil {
				return err
			}
			activeCfg = loaded
			setupLogger(loaded.LogLevel)
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Optional config file (yaml|toml|json)")
	config.RegisterFlags(cmd.PersistentFlags(), defaults)

	cmd.AddCommand(newG2PCmd())
	cmd.AddCommand(newSplitCmd())
	cmd.AddCommand(newReferenceCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newHealthCmd())
	cmd.AddCommand(newDoctorCmd())
	cmd.AddCommand(newBenchCmd())
	cmd.AddCommand(newModelCmd())

	return cmd
}

// setupLogger configures the process-wide slog default logger.
func setupLogger(levelStr string) {
	lvl, err := server.ParseLogLevel(levelStr)
	if err != nil {
		lvl = slog.LevelInfo
	}
	h := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(h))
}

func requireConfig() (config.Config, error) {
	if activeCfg.Cache.Capacity == 0 {
		return config.Config{}, errors.New("configuration not loaded")
	}
	return activeCfg, nil
}

// readText returns text, or stdin when text is blank.
func readText(text string, stdin io.Reader) (string, error) {
	if strings.TrimSpace(text) != "" {
		return text, nil
	}

	b, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	input := strings.TrimSpace(string(b))
	if input == "" {
		return "", errors.New("either provide --text or pipe text on stdin")
	}
	return input, nil
}
