package japanese

// Prosody symbols emitted alongside phones.
const (
	MarkStart        = "^"
	MarkEnd          = "$"
	MarkQuestionEnd  = "?"
	MarkPause        = "_"
	MarkPhraseBorder = "#"
	MarkPitchFall    = "]"
	MarkPitchRise    = "["
)

// phraseFinal lists the phones after which an accent phrase boundary can be
// marked.
var phraseFinal = map[string]bool{
	"a": true, "e": true, "i": true, "o": true, "u": true,
	"A": true, "E": true, "I": true, "O": true, "U": true,
	"N": true, "cl": true,
}

// ProsodyPhones turns a label stream into phones interleaved with prosody
// marks. A leading silence becomes MarkStart and a trailing one MarkEnd or
// MarkQuestionEnd; other silences are dropped and pauses become MarkPause.
// At most one boundary mark follows each phone.
func ProsodyPhones(labels []Label) []string {
	phones := make([]string, 0, len(labels)*2)

	for n, cur := range labels {
		switch cur.Phone {
		case "":
			continue
		case PhoneSilence:
			switch n {
			case 0:
				phones = append(phones, MarkStart)
			case len(labels) - 1:
				if cur.E3 == 1 {
					phones = append(phones, MarkQuestionEnd)
				} else {
					phones = append(phones, MarkEnd)
				}
			}
			continue
		case PhonePause:
			phones = append(phones, MarkPause)
			continue
		}

		phones = append(phones, cur.Phone)

		nextA2 := Absent
		if n+1 < len(labels) {
			nextA2 = labels[n+1].A2
		}

		if mark := boundaryMark(cur, nextA2); mark != "" {
			phones = append(phones, mark)
		}
	}

	return phones
}

// boundaryMark picks the first matching boundary rule. Rules that read an
// Absent feature never match.
func boundaryMark(cur Label, nextA2 int) string {
	switch {
	case cur.A3 == 1 && nextA2 == 1 && phraseFinal[cur.Phone]:
		return MarkPhraseBorder
	case cur.A1 == 0 && cur.A2 != Absent && cur.F1 != Absent &&
		nextA2 == cur.A2+1 && cur.A2 != cur.F1:
		return MarkPitchFall
	case cur.A2 == 1 && nextA2 == 2:
		return MarkPitchRise
	}

	return ""
}

// StripUtteranceMarks removes a leading MarkStart and a trailing MarkEnd or
// MarkQuestionEnd.
func StripUtteranceMarks(phones []string) []string {
	if len(phones) > 0 && phones[0] == MarkStart {
		phones = phones[1:]
	}
	if n := len(phones); n > 0 && (phones[n-1] == MarkEnd || phones[n-1] == MarkQuestionEnd) {
		phones = phones[:n-1]
	}

	return phones
}
