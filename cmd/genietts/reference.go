package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/go-genie-tts/internal/audio"
	"github.com/example/go-genie-tts/internal/refaudio"
	"github.com/example/go-genie-tts/internal/tts"
)

type referenceSummary struct {
	Key          string  `json:"key"`
	Speaker      string  `json:"speaker,omitempty"`
	Language     string  `json:"language"`
	Text         string  `json:"text"`
	PhonemeIDs   []int64 `json:"phoneme_ids"`
	TextFeatures [2]int  `json:"text_features"`
	AudioSamples int     `json:"audio_samples"`
	SSLContent   [2]int  `json:"ssl_content"`
}

func newReferenceCmd() *cobra.Command {
	var (
		audioPath string
		text      string
		lang      string
		voice     string
		exportWAV string
	)

	cmd := &cobra.Command{
		Use:   "reference",
		Short: "Compute reference prompt features for an audio clip",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			if (voice == "") == (audioPath == "") {
				return errors.New("provide exactly one of --voice or --audio")
			}

			svc, err := tts.NewService(cfg)
			if err != nil {
				return err
			}
			defer svc.Close()

			var entry *refaudio.Entry
			if voice != "" {
				entry, err = svc.UseVoice(cmd.Context(), voice)
			} else {
				entry, err = svc.SetReference(cmd.Context(), audioPath, text, lang)
			}
			if err != nil {
				return err
			}

			if exportWAV != "" {
				if err := exportReferenceWAV(exportWAV, entry); err != nil {
					return err
				}
			}

			return writeReference(cmd.OutOrStdout(), entry, svc.Speaker())
		},
	}

	cmd.Flags().StringVar(&audioPath, "audio", "", "Reference audio file (WAV)")
	cmd.Flags().StringVar(&text, "text", "", "Transcript of the reference audio")
	cmd.Flags().StringVar(&lang, "lang", "", "Transcript language (ja|zh|auto); defaults to --language")
	cmd.Flags().StringVar(&voice, "voice", "", "Voice id from the voice manifest")
	cmd.Flags().StringVar(&exportWAV, "export-wav", "", "Write the decoded 32 kHz mono prompt to this WAV path")

	return cmd
}

func writeReference(w io.Writer, e *refaudio.Entry, speaker string) error {
	s := e.Snapshot()

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(referenceSummary{
		Key:          s.Key,
		Speaker:      speaker,
		Language:     s.Language.String(),
		Text:         s.Text,
		PhonemeIDs:   nonNil(s.PhonemeIDs),
		TextFeatures: [2]int{s.TextFeatures.Rows, s.TextFeatures.Cols},
		AudioSamples: len(s.Audio),
		SSLContent:   [2]int{s.SSLContent.Rows, s.SSLContent.Cols},
	})
}

func exportReferenceWAV(path string, e *refaudio.Entry) error {
	samples := e.Audio()
	data, err := audio.EncodeWAV(samples, refaudio.LoadRate)
	if err != nil {
		return fmt.Errorf("encode prompt wav: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write prompt wav: %w", err)
	}

	slog.Info("prompt audio exported", "path", path, "samples", len(samples))

	return nil
}
