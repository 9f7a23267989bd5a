// Package speech normalizes caller input into structured values.
//
// DTMF digits pass through unchanged. Spoken input goes through
// phase-specific extractors that each return a value and a confidence
// in [0,1]; callers compare the confidence against their configured
// acceptance threshold.
package speech

import "strings"

// Result is a normalized extraction. An empty Value means the extractor
// found nothing usable; Confidence is 0 in that case.
type Result struct {
	Value      string
	Confidence float64
}

// DefaultMinConfidence is the acceptance threshold used when the
// deployment does not configure one.
const DefaultMinConfidence = 0.6

var digitWords = map[string]rune{
	"zero": '0', "oh": '0', "o": '0',
	"one": '1', "won": '1',
	"two": '2', "to": '2', "too": '2',
	"three": '3', "tree": '3',
	"four": '4', "for": '4', "fore": '4',
	"five": '5', "fife": '5',
	"six":   '6',
	"seven": '7',
	"eight": '8', "ate": '8',
	"nine": '9', "niner": '9',
}

var natoWords = map[string]rune{
	"alpha": 'A', "alfa": 'A', "bravo": 'B', "charlie": 'C', "delta": 'D',
	"echo": 'E', "foxtrot": 'F', "golf": 'G', "hotel": 'H', "india": 'I',
	"juliet": 'J', "juliett": 'J', "kilo": 'K', "lima": 'L', "mike": 'M',
	"november": 'N', "oscar": 'O', "papa": 'P', "quebec": 'Q', "romeo": 'R',
	"sierra": 'S', "tango": 'T', "uniform": 'U', "victor": 'V',
	"whiskey": 'W', "xray": 'X', "yankee": 'Y', "zulu": 'Z',
}

var fillerWords = map[string]bool{
	"a": true, "an": true, "and": true, "the": true, "my": true, "is": true,
	"it": true, "its": true, "it's": true, "um": true, "uh": true,
	"like": true, "please": true, "number": true, "pin": true, "code": true,
	"job": true, "yeah": true, "so": true, "that": true, "i": true,
	"think": true, "thanks": true, "ok": true, "okay": true,
}

// tokenize lowercases text, maps punctuation to spaces, and splits on
// whitespace. Hyphens split compound words ("twenty-first").
func tokenize(text string) []string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '\'':
			b.WriteRune(r)
		default:
			b.WriteByte(' ')
		}
	}
	return strings.Fields(b.String())
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func isAlnum(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}

// CleanDigits strips whitespace and gather terminator keys from a DTMF
// buffer, leaving only the digits the caller typed.
func CleanDigits(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
