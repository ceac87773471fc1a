package main

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/go-genie-tts/internal/bench"
	"github.com/example/go-genie-tts/internal/refaudio"
	"github.com/example/go-genie-tts/internal/tts"
)

func newBenchCmd() *cobra.Command {
	var (
		text         string
		lang         string
		audioPath    string
		warm         bool
		runs         int
		format       string
		rtfThreshold float64
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Benchmark G2P and reference feature extraction latency",
		Long: "Without --audio each run phonemizes --text. With --audio each run " +
			"computes reference features; the cache is cleared between runs unless --warm is set.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			if strings.TrimSpace(text) == "" {
				return errors.New("--text is required for bench")
			}
			if runs < 1 {
				return errors.New("--runs must be at least 1")
			}
			if format != "table" && format != "json" {
				return errors.New("--format must be 'table' or 'json'")
			}

			svc, err := tts.NewService(cfg)
			if err != nil {
				return err
			}
			defer svc.Close()

			fn := g2pBenchFunc(svc, text, lang)
			if audioPath != "" {
				fn = referenceBenchFunc(svc, audioPath, text, lang, warm)
			}

			results, err := bench.Run(cmd.Context(), runs, fn)
			if err != nil {
				return err
			}

			stats := bench.ComputeStats(bench.Durations(results))
			switch format {
			case "json":
				if err := bench.FormatJSON(results, stats, cmd.OutOrStdout()); err != nil {
					return err
				}
			default:
				bench.FormatTable(results, stats, cmd.OutOrStdout())
			}

			return bench.CheckRTFThreshold(bench.MeanRTF(results), rtfThreshold)
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "Text to phonemize, or the reference transcript with --audio (required)")
	cmd.Flags().StringVar(&lang, "lang", "", "Language (ja|zh|auto); defaults to --language")
	cmd.Flags().StringVar(&audioPath, "audio", "", "Reference audio file; switches to reference extraction")
	cmd.Flags().BoolVar(&warm, "warm", false, "Keep the reference cache between runs")
	cmd.Flags().IntVar(&runs, "runs", 5, "Number of runs")
	cmd.Flags().StringVar(&format, "format", "table", "Output format: table|json")
	cmd.Flags().Float64Var(&rtfThreshold, "rtf-threshold", 0, "Exit non-zero if mean RTF exceeds this value (0 = disabled)")

	return cmd
}

func g2pBenchFunc(svc *tts.Service, text, lang string) bench.Func {
	return func(ctx context.Context, _ int) (time.Duration, error) {
		_, err := svc.Phonemize(ctx, text, lang)
		return 0, err
	}
}

func referenceBenchFunc(svc *tts.Service, path, text, lang string, warm bool) bench.Func {
	return func(ctx context.Context, _ int) (time.Duration, error) {
		if !warm {
			svc.ClearReferences()
		}
		entry, err := svc.SetReference(ctx, path, text, lang)
		if err != nil {
			return 0, err
		}
		return bench.SamplesDuration(len(entry.Audio()), refaudio.LoadRate), nil
	}
}
