package main

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/go-genie-tts/internal/config"
	"github.com/example/go-genie-tts/internal/doctor"
	"github.com/example/go-genie-tts/internal/japanese"
	"github.com/example/go-genie-tts/internal/onnx"
	"github.com/example/go-genie-tts/internal/tokenizer"
	"github.com/example/go-genie-tts/internal/tts"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Run local runtime and model checks",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			result := doctor.Run(doctorConfig(cfg), out)

			if result.Failed() {
				for _, f := range result.Failures() {
					// #nosec G705 -- Writes plain diagnostic text to stderr for CLI output, not HTML rendering.
					fmt.Fprintf(cmd.ErrOrStderr(), "FAIL: %s\n", f)
				}

				return errors.New("doctor checks failed")
			}

			_, _ = fmt.Fprintln(out, "doctor checks passed")

			return nil
		},
	}
}

func doctorConfig(cfg config.Config) doctor.Config {
	return doctor.Config{
		Frontend: func() (string, error) { return checkFrontend(cfg.G2P) },
		ORTVersion: func() (string, error) {
			info, err := onnx.DetectRuntime(cfg.Runtime)
			if err != nil {
				return "", err
			}
			return info.Version, nil
		},
		MinORTAPI: onnx.DefaultAPIVersion,
		Graphs: func() ([]string, error) {
			sm, err := onnx.NewSessionManager(cfg.Paths.ModelManifest)
			if err != nil {
				return nil, err
			}
			return sm.Names(), nil
		},
		RequiredGraphs: []string{onnx.HubertGraph, onnx.BertGraph},
		Tokenizer: func() error {
			_, err := tokenizer.Resolve(cfg.Paths.BertTokenizer)
			return err
		},
		VoiceFiles: collectVoiceFiles(cfg.Paths.Voices),
	}
}

// checkFrontend runs the configured Japanese front-end on a short phrase.
func checkFrontend(cfg config.G2PConfig) (string, error) {
	frontend, err := config.NormalizeFrontend(cfg.JapaneseFrontend)
	if err != nil {
		return "", err
	}

	if frontend == config.FrontendCommand {
		fields := strings.Fields(cfg.FrontendCommand)
		if len(fields) == 0 {
			return "", japanese.ErrNoCommand
		}

		path, err := exec.LookPath(fields[0])
		if err != nil {
			return "", err
		}

		return "command " + path, nil
	}

	phones, err := japanese.NewKagomeFrontend().G2P(context.Background(), "テスト")
	if err != nil {
		return "", err
	}

	return "kagome (" + strings.Join(phones, " ") + ")", nil
}

// collectVoiceFiles returns resolved absolute reference audio paths from the
// manifest. Paths are resolved relative to the manifest directory, not to the
// working directory, so doctor checks are correct regardless of CWD.
func collectVoiceFiles(manifest string) []string {
	vm, err := tts.NewVoiceManager(manifest)
	if err != nil {
		return nil
	}

	voices := vm.ListVoices()

	paths := make([]string, 0, len(voices))
	for _, v := range voices {
		resolved, err := vm.Voice(v.ID)
		if err != nil {
			// Include the raw path so the doctor check reports the failure.
			paths = append(paths, v.Audio)
			continue
		}

		abs, err := filepath.Abs(resolved.Audio)
		if err == nil {
			resolved.Audio = abs
		}

		paths = append(paths, resolved.Audio)
	}

	return paths
}
