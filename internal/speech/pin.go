package speech

import "strings"

// pinLength is the only PIN size the record store issues.
const pinLength = 4

// ExtractPIN converts a spoken utterance into a four digit PIN. Digits,
// digit words, and run-together groups ("forty eight twenty one") are all
// accepted; anything that does not resolve to exactly four digits is
// rejected with zero confidence.
func ExtractPIN(text string) Result {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return Result{}
	}

	var digits strings.Builder
	noise := 0
	for _, tok := range tokens {
		switch {
		case isAllDigits(tok):
			digits.WriteString(tok)
		case digitWords[tok] != 0:
			digits.WriteRune(digitWords[tok])
		case tensWords[tok] != "":
			digits.WriteString(tensWords[tok])
		case fillerWords[tok]:
			// ignored
		default:
			noise++
		}
	}

	pin := digits.String()
	if len(pin) != pinLength {
		return Result{}
	}
	conf := 0.95
	if noise > 0 {
		conf = 0.75
	}
	return Result{Value: pin, Confidence: conf}
}

// tensWords expands compact spoken pairs. "forty eight twenty one" is a
// common reading of 4821.
var tensWords = map[string]string{
	"ten":       "10",
	"eleven":    "11",
	"twelve":    "12",
	"thirteen":  "13",
	"fourteen":  "14",
	"fifteen":   "15",
	"sixteen":   "16",
	"seventeen": "17",
	"eighteen":  "18",
	"nineteen":  "19",
	"twenty":    "2",
	"thirty":    "3",
	"forty":     "4",
	"fifty":     "5",
	"sixty":     "6",
	"seventy":   "7",
	"eighty":    "8",
	"ninety":    "9",
}
