package japanese

import (
	"reflect"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{in: "50%", want: "50パーセント"},
		{in: "50％", want: "50パーセント"},
		{in: "えっ!!!", want: "えっ!"},
		{in: "まあ……", want: "まあ…"},
		{in: "ABCです", want: "abcです"},
		{in: "!?!?", want: "!?!?"},
	}

	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSplit(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []Segment
	}{
		{
			name: "content then mark",
			in:   "はし。",
			want: []Segment{{Content: "はし", Mark: "。"}, {}},
		},
		{
			name: "mark between content",
			in:   "東京、大阪",
			want: []Segment{{Content: "東京", Mark: "、"}, {Content: "大阪"}},
		},
		{
			name: "leading mark",
			in:   "「あ",
			want: []Segment{{Mark: "「"}, {Content: "あ"}},
		},
		{
			name: "empty",
			in:   "",
			want: []Segment{{}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Split(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Split(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestIsContent(t *testing.T) {
	for _, r := range "aZ9あアｱ漢々１Ａｚ" {
		if !IsContent(r) {
			t.Errorf("IsContent(%q) = false", r)
		}
	}
	for _, r := range "。、!? 「」" {
		if IsContent(r) {
			t.Errorf("IsContent(%q) = true", r)
		}
	}
}
