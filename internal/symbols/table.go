// Package symbols holds the closed phoneme vocabulary consumed by the
// acoustic models and the bidirectional symbol/id mapping over it.
package symbols

import (
	"errors"
	"fmt"
)

// ErrNoUnknown is returned when a vocabulary lacks the Unknown symbol.
var ErrNoUnknown = errors.New("vocabulary has no unknown symbol")

// Table is an immutable mapping between symbols and dense ids.
type Table struct {
	version   string
	symbols   []string
	ids       map[string]int64
	unknownID int64
}

// New builds a table whose ids are the positions of vocab.
func New(version string, vocab []string) (*Table, error) {
	t := &Table{
		version: version,
		symbols: append([]string(nil), vocab...),
		ids:     make(map[string]int64, len(vocab)),
	}

	for i, s := range vocab {
		if _, exists := t.ids[s]; exists {
			return nil, fmt.Errorf("duplicate symbol %q at id %d", s, i)
		}
		t.ids[s] = int64(i)
	}

	unk, ok := t.ids[Unknown]
	if !ok {
		return nil, ErrNoUnknown
	}
	t.unknownID = unk

	return t, nil
}

// Version returns the vocabulary version tag.
func (t *Table) Version() string { return t.version }

// Len returns the vocabulary size.
func (t *Table) Len() int { return len(t.symbols) }

// UnknownID returns the id used for out-of-vocabulary symbols.
func (t *Table) UnknownID() int64 { return t.unknownID }

// Contains reports whether symbol is part of the vocabulary.
func (t *Table) Contains(symbol string) bool {
	_, ok := t.ids[symbol]
	return ok
}

// ID returns the id of symbol, or UnknownID when it is not in the vocabulary.
func (t *Table) ID(symbol string) int64 {
	if id, ok := t.ids[symbol]; ok {
		return id
	}

	return t.unknownID
}

// Symbol returns the symbol with the given id.
func (t *Table) Symbol(id int64) (string, bool) {
	if id < 0 || id >= int64(len(t.symbols)) {
		return "", false
	}

	return t.symbols[id], true
}

// Encode maps a symbol sequence to ids, substituting UnknownID for
// out-of-vocabulary symbols. It never fails.
func (t *Table) Encode(symbols []string) []int64 {
	ids := make([]int64, len(symbols))
	for i, s := range symbols {
		ids[i] = t.ID(s)
	}

	return ids
}

// Decode maps ids back to symbols. Ids outside the table decode to Unknown.
func (t *Table) Decode(ids []int64) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		s, ok := t.Symbol(id)
		if !ok {
			s = Unknown
		}
		out[i] = s
	}

	return out
}
