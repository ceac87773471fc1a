package japanese

import (
	"strings"

	"golang.org/x/text/width"
)

var digitReadings = [10]string{"ゼロ", "イチ", "ニ", "サン", "ヨン", "ゴ", "ロク", "ナナ", "ハチ", "キュウ"}

// letterNames are the katakana names of the Latin letters.
var letterNames = [26]string{
	"エー", "ビー", "シー", "ディー", "イー", "エフ", "ジー", "エイチ", "アイ",
	"ジェー", "ケー", "エル", "エム", "エヌ", "オー", "ピー", "キュー", "アール",
	"エス", "ティー", "ユー", "ブイ", "ダブリュー", "エックス", "ワイ", "ゼット",
}

// groupUnits name each group of four digits, lowest first.
var groupUnits = []string{"", "マン", "オク", "チョウ"}

// SpellOut rewrites digit runs as their Japanese number reading and Latin
// letters as their katakana names, both in half or full width. Other text
// is returned unchanged.
func SpellOut(text string) string {
	var b strings.Builder
	b.Grow(len(text) * 2)

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := halfWidth(runes[i])
		switch {
		case r >= '0' && r <= '9':
			j := i
			for j < len(runes) && isDigit(halfWidth(runes[j])) {
				j++
			}
			digits := make([]byte, 0, j-i)
			for _, d := range runes[i:j] {
				digits = append(digits, byte(halfWidth(d)))
			}
			b.WriteString(readNumber(string(digits)))
			i = j - 1
		case r >= 'a' && r <= 'z':
			b.WriteString(letterNames[r-'a'])
		case r >= 'A' && r <= 'Z':
			b.WriteString(letterNames[r-'A'])
		default:
			b.WriteRune(runes[i])
		}
	}

	return b.String()
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

// halfWidth folds a full-width rune to its narrow form.
func halfWidth(r rune) rune {
	if n := width.LookupRune(r).Narrow(); n != 0 {
		return n
	}

	return r
}

// readNumber reads a decimal digit string. Numbers with a leading zero or
// beyond the chō range are read digit by digit.
func readNumber(digits string) string {
	if (len(digits) > 1 && digits[0] == '0') || len(digits) > 4*len(groupUnits) {
		var b strings.Builder
		for i := range len(digits) {
			b.WriteString(digitReadings[digits[i]-'0'])
		}
		return b.String()
	}
	if digits == "0" {
		return digitReadings[0]
	}

	var groups []string
	for end := len(digits); end > 0; end -= 4 {
		groups = append(groups, digits[max(0, end-4):end])
	}

	var b strings.Builder
	for g := len(groups) - 1; g >= 0; g-- {
		reading := readGroup(groups[g])
		if reading == "" {
			continue
		}
		b.WriteString(reading)
		b.WriteString(groupUnits[g])
	}

	return b.String()
}

// readGroup reads up to four digits, applying the sound changes of 300,
// 600, 800, 3000 and 8000.
func readGroup(group string) string {
	group = strings.Repeat("0", 4-len(group)) + group
	th, hu, te, on := group[0]-'0', group[1]-'0', group[2]-'0', group[3]-'0'

	var b strings.Builder
	switch th {
	case 0:
	case 1:
		b.WriteString("セン")
	case 3:
		b.WriteString("サンゼン")
	case 8:
		b.WriteString("ハッセン")
	default:
		b.WriteString(digitReadings[th] + "セン")
	}

	switch hu {
	case 0:
	case 1:
		b.WriteString("ヒャク")
	case 3:
		b.WriteString("サンビャク")
	case 6:
		b.WriteString("ロッピャク")
	case 8:
		b.WriteString("ハッピャク")
	default:
		b.WriteString(digitReadings[hu] + "ヒャク")
	}

	switch te {
	case 0:
	case 1:
		b.WriteString("ジュウ")
	default:
		b.WriteString(digitReadings[te] + "ジュウ")
	}

	if on != 0 {
		b.WriteString(digitReadings[on])
	}

	return b.String()
}
