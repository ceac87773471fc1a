package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/go-genie-tts/internal/model"
	"github.com/example/go-genie-tts/internal/onnx"
)

func newModelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "model",
		Short: "Model acquisition and verification commands",
	}

	cmd.AddCommand(newModelDownloadCmd())
	cmd.AddCommand(newModelVerifyCmd())
	return cmd
}

func newModelDownloadCmd() *cobra.Command {
	var (
		manifestPath string
		outDir       string
		hfToken      string
		baseURL      string
	)

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download model files listed in a download manifest from Hugging Face",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if manifestPath == "" {
				return fmt.Errorf("--files is required")
			}

			m, err := model.LoadManifest(manifestPath)
			if err != nil {
				return err
			}

			if hfToken == "" {
				hfToken = os.Getenv("HF_TOKEN")
			}

			err = model.Download(cmd.Context(), model.DownloadOptions{
				Manifest: m,
				OutDir:   outDir,
				HFToken:  hfToken,
				BaseURL:  baseURL,
				Stdout:   cmd.OutOrStdout(),
			})
			if err != nil {
				return fmt.Errorf("model download failed: %w", err)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&manifestPath, "files", "", "Download manifest JSON: {\"repo\":..., \"files\":[{\"filename\",\"revision\",\"sha256\"}]}")
	cmd.Flags().StringVar(&outDir, "out-dir", "models", "Directory where model files are stored")
	cmd.Flags().StringVar(&hfToken, "hf-token", "", "Hugging Face token (falls back to HF_TOKEN env var)")
	cmd.Flags().StringVar(&baseURL, "hub-url", model.DefaultBaseURL, "Hugging Face hub base URL")

	return cmd
}

func newModelVerifyCmd() *cobra.Command {
	var graphs []string

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Run zero-input smoke inference on every graph of the model manifest",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			info, err := onnx.Bootstrap(cfg.Runtime)
			if err != nil {
				return fmt.Errorf("bootstrap onnx runtime: %w", err)
			}

			engine, err := onnx.NewEngine(cfg.Paths.ModelManifest, onnx.RunnerConfig{LibraryPath: info.LibraryPath})
			if err != nil {
				return fmt.Errorf("load model manifest: %w", err)
			}
			defer engine.Close()

			return model.Verify(cmd.Context(), engine, model.VerifyOptions{
				Graphs: graphs,
				Stdout: cmd.OutOrStdout(),
				Stderr: cmd.ErrOrStderr(),
			})
		},
	}

	cmd.Flags().StringSliceVar(&graphs, "graph", nil, "Graph names to verify (default: all)")

	return cmd
}
