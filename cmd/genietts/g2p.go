package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"github.com/spf13/cobra"

	"github.com/example/go-genie-tts/internal/tts"
)

func newG2PCmd() *cobra.Command {
	var (
		text    string
		lang    string
		showIDs bool
		asJSON  bool
		decode  bool
	)

	cmd := &cobra.Command{
		Use:   "g2p",
		Short: "Convert text to phoneme symbols and ids",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			input, err := readText(text, cmd.InOrStdin())
			if err != nil {
				return err
			}

			svc, err := tts.NewService(cfg)
			if err != nil {
				return err
			}
			defer svc.Close()

			if decode {
				ids, err := parseIDs(input)
				if err != nil {
					return err
				}

				res := tts.Phonemes{
					Language: svc.Language(),
					Symbols:  svc.Encoder().Table().Decode(ids),
					IDs:      ids,
				}

				return writePhonemes(cmd.OutOrStdout(), res, showIDs, asJSON)
			}

			res, err := svc.Phonemize(cmd.Context(), input, lang)
			if err != nil {
				return err
			}

			return writePhonemes(cmd.OutOrStdout(), res, showIDs, asJSON)
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "Text to convert (if empty, read from stdin)")
	cmd.Flags().StringVar(&lang, "lang", "", "Text language (ja|zh|auto); defaults to --language")
	cmd.Flags().BoolVar(&showIDs, "ids", false, "Also print symbol ids")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print a JSON object")
	cmd.Flags().BoolVar(&decode, "decode", false, "Treat the input as symbol ids and print their symbols")

	return cmd
}

func writePhonemes(w io.Writer, res tts.Phonemes, showIDs, asJSON bool) error {
	if asJSON {
		return json.NewEncoder(w).Encode(map[string]any{
			"language": res.Language.String(),
			"phonemes": nonNil(res.Symbols),
			"ids":      nonNil(res.IDs),
		})
	}

	if _, err := fmt.Fprintln(w, strings.Join(res.Symbols, " ")); err != nil {
		return err
	}

	if !showIDs {
		return nil
	}

	ids := make([]string, len(res.IDs))
	for i, id := range res.IDs {
		ids[i] = strconv.FormatInt(id, 10)
	}

	_, err := fmt.Fprintln(w, strings.Join(ids, " "))

	return err
}

// parseIDs reads symbol ids separated by spaces or commas.
func parseIDs(s string) ([]int64, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})

	ids := make([]int64, len(fields))
	for i, f := range fields {
		id, err := strconv.ParseInt(f, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid symbol id %q: %w", f, err)
		}
		ids[i] = id
	}

	return ids, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
