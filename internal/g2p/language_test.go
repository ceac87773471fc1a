package g2p

import (
	"errors"
	"testing"
)

func TestParseLanguage(t *testing.T) {
	tests := []struct {
		in      string
		want    Language
		wantErr bool
	}{
		{in: "ja", want: LanguageJapanese},
		{in: " JP ", want: LanguageJapanese},
		{in: "zh", want: LanguageChinese},
		{in: "Chinese", want: LanguageChinese},
		{in: "auto", want: LanguageAuto},
		{in: "", want: LanguageAuto},
		{in: "ko", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLanguage(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrUnsupportedLanguage) {
					t.Fatalf("err = %v, want ErrUnsupportedLanguage", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseLanguage: %v", err)
			}
			if got != tt.want {
				t.Fatalf("ParseLanguage(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		in   string
		want Language
	}{
		{in: "こんにちは", want: LanguageJapanese},
		{in: "東京タワー", want: LanguageJapanese},
		{in: "你好世界", want: LanguageChinese},
		{in: "hello", want: LanguageJapanese},
		{in: "", want: LanguageJapanese},
	}

	for _, tt := range tests {
		if got := DetectLanguage(tt.in); got != tt.want {
			t.Errorf("DetectLanguage(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
