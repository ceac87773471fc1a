package japanese

import (
	"context"
	"reflect"
	"testing"
)

func TestSpellOut(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "ゼロ"},
		{"5", "ゴ"},
		{"10", "ジュウ"},
		{"123", "ヒャクニジュウサン"},
		{"３００", "サンビャク"},
		{"680", "ロッピャクハチジュウ"},
		{"8000", "ハッセン"},
		{"3333", "サンゼンサンビャクサンジュウサン"},
		{"10000", "イチマン"},
		{"20001", "ニマンイチ"},
		{"100000000", "イチオク"},
		{"007", "ゼロゼロナナ"},
		{"abc", "エービーシー"},
		{"ＡＩ", "エーアイ"},
		{"第2回", "第ニ回"},
		{"かな", "かな"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := SpellOut(tt.in); got != tt.want {
				t.Fatalf("SpellOut(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestKagomeFrontend_DigitsAndLatin(t *testing.T) {
	fe := NewKagomeFrontend()

	for _, in := range []string{"123", "abc"} {
		got, err := fe.G2P(context.Background(), in)
		if err != nil {
			t.Fatalf("G2P(%q): %v", in, err)
		}

		want := KanaToPhones(SpellOut(in))
		if !reflect.DeepEqual(got, want) {
			t.Errorf("G2P(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPhonemize_DigitsNotDropped(t *testing.T) {
	p, err := New(NewKagomeFrontend(), WithProsody(false))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	got, err := p.Phonemize(context.Background(), "123")
	if err != nil {
		t.Fatalf("Phonemize: %v", err)
	}

	want := []string{"hy", "a", "k", "u", "n", "i", "j", "u", "u", "s", "a", "N"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Phonemize(123) = %q, want %q", got, want)
	}
}
