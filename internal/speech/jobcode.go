package speech

import "strings"

// ExtractJobCode reads an alphanumeric job code out of an utterance.
//
// The strict pass accepts digits, digit words, single letters, phonetic
// alphabet words, and "X as in word" spellings, in order. When the strict
// pass cannot account for the utterance, a fallback extractor strips
// filler and keeps the longest alphanumeric run it can assemble, at a
// reduced confidence.
func ExtractJobCode(text string) Result {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return Result{}
	}

	if code, ok := strictCode(tokens); ok {
		return Result{Value: code, Confidence: 0.9}
	}
	if code := smartCode(tokens); code != "" {
		return Result{Value: code, Confidence: 0.65}
	}
	return Result{}
}

// strictCode succeeds only when every non-filler token contributes a
// character to the code.
func strictCode(tokens []string) (string, bool) {
	var b strings.Builder
	i := 0
	for i < len(tokens) {
		tok := tokens[i]
		switch {
		case asInLetter(tokens, i) != 0:
			b.WriteRune(asInLetter(tokens, i))
			i += 4
			continue
		case isAllDigits(tok):
			b.WriteString(tok)
		case digitWords[tok] != 0:
			b.WriteRune(digitWords[tok])
		case tensWords[tok] != "":
			b.WriteString(tensWords[tok])
		case natoWords[tok] != 0:
			b.WriteRune(natoWords[tok])
		case len(tok) == 1 && tok[0] >= 'a' && tok[0] <= 'z':
			b.WriteRune(rune(tok[0] - 'a' + 'A'))
		case fillerWords[tok]:
			// contributes nothing but does not break the pass
		default:
			return "", false
		}
		i++
	}
	code := b.String()
	if len(code) < 2 {
		return "", false
	}
	return code, true
}

// asInLetter recognizes the "B as in boy" spelling at position i and
// returns the letter, or 0 when the pattern is not present.
func asInLetter(tokens []string, i int) rune {
	if i+3 >= len(tokens) || tokens[i+1] != "as" || tokens[i+2] != "in" {
		return 0
	}
	lead, follow := tokens[i], tokens[i+3]
	if len(lead) == 1 && lead[0] >= 'a' && lead[0] <= 'z' {
		return rune(lead[0] - 'a' + 'A')
	}
	if len(follow) > 0 && follow[0] >= 'a' && follow[0] <= 'z' {
		return rune(follow[0] - 'a' + 'A')
	}
	return 0
}

// smartCode drops everything it cannot interpret and keeps the longest
// contiguous run of code characters.
func smartCode(tokens []string) string {
	var best, cur strings.Builder
	flush := func() {
		if cur.Len() > best.Len() {
			best.Reset()
			best.WriteString(cur.String())
		}
		cur.Reset()
	}
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		switch {
		case asInLetter(tokens, i) != 0:
			cur.WriteRune(asInLetter(tokens, i))
			i += 3
		case isAllDigits(tok):
			cur.WriteString(tok)
		case digitWords[tok] != 0:
			cur.WriteRune(digitWords[tok])
		case tensWords[tok] != "":
			cur.WriteString(tensWords[tok])
		case natoWords[tok] != 0:
			cur.WriteRune(natoWords[tok])
		case len(tok) == 1 && tok[0] >= 'a' && tok[0] <= 'z':
			cur.WriteRune(rune(tok[0] - 'a' + 'A'))
		case fillerWords[tok]:
			// filler inside a spelled code does not break the run
		default:
			flush()
		}
	}
	flush()
	if best.Len() < 2 {
		return ""
	}
	return best.String()
}
