package symbols

import (
	"errors"
	"testing"
)

func TestV2_BidirectionalMapping(t *testing.T) {
	table := V2()

	if table.Len() == 0 {
		t.Fatal("expected non-empty vocabulary")
	}

	for id := int64(0); id < int64(table.Len()); id++ {
		sym, ok := table.Symbol(id)
		if !ok {
			t.Fatalf("Symbol(%d) not defined", id)
		}

		if got := table.ID(sym); got != id {
			t.Fatalf("ID(Symbol(%d)=%q) = %d", id, sym, got)
		}
	}
}

func TestV2_UnknownRoundTrip(t *testing.T) {
	table := V2()

	for _, s := range []string{"", "not-a-phoneme", "ü", "xyz9"} {
		if got := table.ID(s); got != table.UnknownID() {
			t.Errorf("ID(%q) = %d, want unknown id %d", s, got, table.UnknownID())
		}
	}

	sym, ok := table.Symbol(table.UnknownID())
	if !ok || sym != Unknown {
		t.Fatalf("Symbol(unknown id) = %q, %v; want %q", sym, ok, Unknown)
	}
}

func TestV2_ContainsPipelineSymbols(t *testing.T) {
	table := V2()

	want := []string{
		"_", "n", "i3", "h", "ao3", "sh", "i4", "j", "ie4", "zh", "er5",
		"k", "o", "N", "cl", "ts", "#", "[", "]", "!", "?", "…", ",", ".",
	}
	for _, s := range want {
		if !table.Contains(s) {
			t.Errorf("vocabulary missing %q", s)
		}
	}
}

func TestV2_PitchMarkersAppended(t *testing.T) {
	table := V2()
	n := int64(table.Len())

	if s, _ := table.Symbol(n - 2); s != "[" {
		t.Errorf("Symbol(len-2) = %q, want %q", s, "[")
	}
	if s, _ := table.Symbol(n - 1); s != "]" {
		t.Errorf("Symbol(len-1) = %q, want %q", s, "]")
	}
}

func TestV2_IsSingleton(t *testing.T) {
	if V2() != V2() {
		t.Fatal("V2 should return the same table")
	}
}

func TestSymbol_OutOfRange(t *testing.T) {
	table := V2()

	for _, id := range []int64{-1, int64(table.Len()), 1 << 40} {
		if _, ok := table.Symbol(id); ok {
			t.Errorf("Symbol(%d) should be undefined", id)
		}
	}
}

func TestEncodeDecode(t *testing.T) {
	table := V2()

	ids := table.Encode([]string{"n", "i3", "bogus"})
	if len(ids) != 3 {
		t.Fatalf("len(ids) = %d, want 3", len(ids))
	}
	if ids[2] != table.UnknownID() {
		t.Errorf("unknown symbol encoded as %d, want %d", ids[2], table.UnknownID())
	}

	got := table.Decode(append(ids, -7))
	want := []string{"n", "i3", Unknown, Unknown}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Decode[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestNew_Errors(t *testing.T) {
	tests := []struct {
		name    string
		vocab   []string
		wantErr error
	}{
		{name: "missing unknown", vocab: []string{"a", "b"}, wantErr: ErrNoUnknown},
		{name: "duplicate symbol", vocab: []string{"a", "a", Unknown}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New("test", tt.vocab)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNew_IDsFollowOrder(t *testing.T) {
	table, err := New("test", []string{"x", Unknown, "y"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if table.ID("y") != 2 || table.UnknownID() != 1 {
		t.Fatalf("unexpected ids: y=%d unk=%d", table.ID("y"), table.UnknownID())
	}
	if table.Version() != "test" {
		t.Fatalf("Version() = %q", table.Version())
	}
}
