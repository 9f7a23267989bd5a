package speech

import "strings"

// MenuOption pairs a selectable value with the words that select it. The
// Value is what a DTMF press would produce for the same choice.
type MenuOption struct {
	Value    string
	Keywords []string
}

// ClassifyIntent maps a free utterance onto one of the options valid for
// the current phase. Matching is keyword based; a clear winner scores
// high, a tie between options is reported with low confidence so the
// caller is asked to clarify rather than guessed at.
func ClassifyIntent(text string, options []MenuOption) Result {
	tokens := tokenize(text)
	if len(tokens) == 0 || len(options) == 0 {
		return Result{}
	}
	joined := " " + strings.Join(tokens, " ") + " "

	present := make(map[string]bool, len(tokens))
	for _, tok := range tokens {
		present[tok] = true
	}

	best, runnerUp := -1, 0
	var winner MenuOption
	for _, opt := range options {
		score := 0
		if present[opt.Value] || present[spokenDigit(opt.Value)] {
			score += 2
		}
		for _, kw := range opt.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw == "" {
				continue
			}
			if strings.Contains(kw, " ") {
				if strings.Contains(joined, " "+kw+" ") {
					score += 2
				}
				continue
			}
			if present[kw] {
				score++
			}
		}
		if score > best {
			runnerUp = best
			best = score
			winner = opt
		} else if score > runnerUp {
			runnerUp = score
		}
	}
	if best <= 0 {
		return Result{}
	}
	if runnerUp == best {
		// ambiguous between two options
		return Result{Value: winner.Value, Confidence: 0.3}
	}
	conf := 0.5 + 0.2*float64(best)
	if conf > 0.95 {
		conf = 0.95
	}
	return Result{Value: winner.Value, Confidence: conf}
}

// spokenDigit returns the word form of a single-digit option value so
// "press one" style utterances match option "1".
func spokenDigit(value string) string {
	switch value {
	case "0":
		return "zero"
	case "1":
		return "one"
	case "2":
		return "two"
	case "3":
		return "three"
	case "4":
		return "four"
	case "5":
		return "five"
	case "6":
		return "six"
	case "7":
		return "seven"
	case "8":
		return "eight"
	case "9":
		return "nine"
	}
	return ""
}
