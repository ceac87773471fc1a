package tts

import (
	"fmt"
	"log/slog"

	"github.com/example/go-genie-tts/internal/audio"
	"github.com/example/go-genie-tts/internal/config"
	"github.com/example/go-genie-tts/internal/g2p"
	"github.com/example/go-genie-tts/internal/onnx"
	"github.com/example/go-genie-tts/internal/refaudio"
	"github.com/example/go-genie-tts/internal/tokenizer"
)

// newReferenceCache locates ONNX Runtime, opens the graph manifest and
// builds a cache backed by the HuBERT encoder and, when the manifest has a
// bert graph, the BERT embedder for Chinese transcripts.
func newReferenceCache(cfg config.Config, enc *g2p.Encoder) (*refaudio.Cache, func(), error) {
	info, err := onnx.Bootstrap(cfg.Runtime)
	if err != nil {
		return nil, nil, fmt.Errorf("bootstrap onnx runtime: %w", err)
	}

	engine, err := onnx.NewEngine(cfg.Paths.ModelManifest, onnx.RunnerConfig{LibraryPath: info.LibraryPath})
	if err != nil {
		return nil, nil, fmt.Errorf("load model manifest: %w", err)
	}

	if err := engine.Sessions().Require(onnx.HubertGraph); err != nil {
		engine.Close()
		return nil, nil, fmt.Errorf("model manifest %s: %w", cfg.Paths.ModelManifest, err)
	}

	opts := []refaudio.Option{refaudio.WithLogger(slog.Default())}

	embedder, err := newBertEmbedder(cfg, engine)
	if err != nil {
		engine.Close()
		return nil, nil, err
	}

	if embedder != nil {
		opts = append(opts, refaudio.WithTextEmbedder(embedder))
	}

	cache, err := refaudio.New(
		cfg.Cache.Capacity,
		audio.NewLoader(),
		onnx.NewHubertEncoder(engine, ""),
		enc,
		opts...,
	)
	if err != nil {
		engine.Close()
		return nil, nil, err
	}

	return cache, engine.Close, nil
}

func newBertEmbedder(cfg config.Config, engine *onnx.Engine) (*onnx.BertEmbedder, error) {
	if err := engine.Sessions().Require(onnx.BertGraph); err != nil {
		slog.Warn("model manifest has no bert graph; Chinese references are unavailable",
			"manifest", cfg.Paths.ModelManifest)

		return nil, nil
	}

	tok, err := tokenizer.Resolve(cfg.Paths.BertTokenizer, tokenizer.WithMaxTokens(onnx.DefaultBertMaxTokens))
	if err != nil {
		return nil, fmt.Errorf("bert tokenizer: %w", err)
	}

	return onnx.NewBertEmbedder(engine, tok, onnx.DefaultBertMaxTokens), nil
}
