package g2p

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// Language identifies a phonemizer.
type Language string

const (
	LanguageJapanese Language = "ja"
	LanguageChinese  Language = "zh"
	// LanguageAuto picks Japanese or Chinese per request from the script.
	LanguageAuto Language = "auto"
)

// ErrUnsupportedLanguage is returned for languages without a phonemizer.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// ParseLanguage normalizes a language tag. Common aliases are accepted.
func ParseLanguage(s string) (Language, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ja", "jp", "japanese":
		return LanguageJapanese, nil
	case "zh", "cn", "chinese":
		return LanguageChinese, nil
	case "auto", "":
		return LanguageAuto, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedLanguage, s)
	}
}

func (l Language) String() string { return string(l) }

// DetectLanguage returns LanguageJapanese when text contains kana,
// LanguageChinese when it contains Han ideographs but no kana, and
// LanguageJapanese otherwise.
func DetectLanguage(text string) Language {
	var han bool
	for _, r := range text {
		switch {
		case unicode.In(r, unicode.Hiragana, unicode.Katakana):
			return LanguageJapanese
		case unicode.Is(unicode.Han, r):
			han = true
		}
	}

	if han {
		return LanguageChinese
	}

	return LanguageJapanese
}
