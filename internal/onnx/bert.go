package onnx

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/go-genie-tts/internal/refaudio"
	"github.com/example/go-genie-tts/internal/tokenizer"
)

const (
	BertGraph         = "bert"
	BertInputIDs      = "input_ids"
	BertAttentionMask = "attention_mask"

	// DefaultBertMaxTokens bounds the token sequence, special tokens included.
	DefaultBertMaxTokens = 128
)

// BertEmbedder produces per-token contextual features for Chinese text
// using the bert graph. Rows of the result follow the tokenizer output.
type BertEmbedder struct {
	engine    *Engine
	tok       tokenizer.Tokenizer
	maxTokens int
}

var _ refaudio.TextEmbedder = (*BertEmbedder)(nil)

func NewBertEmbedder(engine *Engine, tok tokenizer.Tokenizer, maxTokens int) *BertEmbedder {
	if maxTokens < 1 {
		maxTokens = DefaultBertMaxTokens
	}

	return &BertEmbedder{engine: engine, tok: tok, maxTokens: maxTokens}
}

// Embed returns an [L, hidden] matrix, hidden being 1024 for the
// shipped model.
func (b *BertEmbedder) Embed(ctx context.Context, text string) (refaudio.Matrix, error) {
	ids, err := b.tok.Encode(text)
	if err != nil {
		return refaudio.Matrix{}, fmt.Errorf("bert tokenize: %w", err)
	}

	if len(ids) == 0 {
		return refaudio.Matrix{}, errors.New("bert: text produced no tokens")
	}

	if len(ids) > b.maxTokens {
		ids = ids[:b.maxTokens]
	}

	runner, err := b.engine.Runner(BertGraph)
	if err != nil {
		return refaudio.Matrix{}, err
	}

	shape := []int64{1, int64(len(ids))}

	idTensor, err := NewTensor(ids, shape)
	if err != nil {
		return refaudio.Matrix{}, fmt.Errorf("bert input ids: %w", err)
	}

	mask := make([]int64, len(ids))
	for i := range mask {
		mask[i] = 1
	}

	maskTensor, err := NewTensor(mask, shape)
	if err != nil {
		return refaudio.Matrix{}, fmt.Errorf("bert attention mask: %w", err)
	}

	outputs, err := runner.Run(ctx, map[string]*Tensor{
		BertInputIDs:      idTensor,
		BertAttentionMask: maskTensor,
	})
	if err != nil {
		return refaudio.Matrix{}, err
	}

	out, err := pickOutput(b.engine.sessions, BertGraph, "", outputs)
	if err != nil {
		return refaudio.Matrix{}, err
	}

	m, err := matrixFromTensor(out)
	if err != nil {
		return refaudio.Matrix{}, fmt.Errorf("bert output: %w", err)
	}

	if m.Rows != len(ids) {
		return refaudio.Matrix{}, fmt.Errorf("bert output has %d rows for %d tokens", m.Rows, len(ids))
	}

	return m, nil
}
