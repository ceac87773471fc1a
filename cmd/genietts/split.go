package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/go-genie-tts/internal/text"
)

func newSplitCmd() *cobra.Command {
	var (
		input  string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "split",
		Short: "Split long text into sentence chunks",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := requireConfig(); err != nil {
				return err
			}

			src, err := readText(input, cmd.InOrStdin())
			if err != nil {
				return err
			}

			chunks := text.SplitSentences(src)
			if asJSON {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(nonNil(chunks))
			}

			for _, c := range chunks {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), c); err != nil {
					return err
				}
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&input, "text", "", "Text to split (if empty, read from stdin)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print a JSON array")

	return cmd
}
