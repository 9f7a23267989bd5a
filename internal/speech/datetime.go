package speech

import (
	"strconv"
	"strings"
	"time"
)

// Date is a resolved calendar date.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// At combines the date with a time of day in the given location.
func (d Date) At(t TimeOfDay, loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, t.Hour, t.Minute, 0, 0, loc)
}

// TimeOfDay is a 24-hour clock time.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// When is the outcome of a natural-language date/time parse. Date and
// Time are independent; either may be nil when the utterance only
// mentions the other.
type When struct {
	Date       *Date
	Time       *TimeOfDay
	Confidence float64
}

// ParseWhen extracts an optional date and an optional time from an
// utterance, resolving relative forms ("tomorrow", "next tuesday")
// against ref. Dates without a year roll forward to the next occurrence
// on or after ref's day.
func ParseWhen(text string, ref time.Time) When {
	p := &whenParser{tokens: tokenize(text), ref: ref}
	p.run()
	w := When{Date: p.date, Time: p.tod}
	switch {
	case p.date != nil && p.tod != nil:
		w.Confidence = 0.95
	case p.date != nil || p.tod != nil:
		w.Confidence = 0.8
	}
	return w
}

const (
	meridiemUnknown = iota
	meridiemAM
	meridiemPM
)

type whenParser struct {
	tokens []string
	ref    time.Time

	date *Date
	tod  *TimeOfDay

	meridiem int
	// assumed marks an hour taken without an explicit am/pm, so the
	// business-hours heuristic may adjust it in finalize.
	assumed bool
}

func (p *whenParser) run() {
	for i := 0; i < len(p.tokens); {
		if n := p.tryDate(i); n > 0 {
			i += n
			continue
		}
		if n := p.tryTime(i); n > 0 {
			i += n
			continue
		}
		if n := p.tryMeridiemWord(i); n > 0 {
			i += n
			continue
		}
		i++
	}
	p.finalize()
}

func (p *whenParser) tryDate(i int) int {
	if p.date != nil {
		return 0
	}
	tok := p.tokens[i]
	switch tok {
	case "today":
		p.setDate(p.ref)
		return 1
	case "tonight":
		p.setDate(p.ref)
		p.meridiem = meridiemPM
		return 1
	case "tomorrow":
		p.setDate(p.ref.AddDate(0, 0, 1))
		return 1
	case "next":
		if i+1 < len(p.tokens) {
			if w, ok := weekdayNames[p.tokens[i+1]]; ok {
				p.setWeekday(w)
				return 2
			}
		}
		return 0
	}
	if w, ok := weekdayNames[tok]; ok {
		p.setWeekday(w)
		return 1
	}
	if m, ok := monthNames[tok]; ok {
		// "march fifth", "march the fifth", "march 5"
		j := i + 1
		if j < len(p.tokens) && p.tokens[j] == "the" {
			j++
		}
		if j < len(p.tokens) {
			if day, c, ok := dayToken(p.tokens, j); ok && p.setMonthDay(m, day) {
				return j - i + c
			}
		}
		return 0
	}
	// "fifth of march", "5 march"
	if day, c, ok := dayToken(p.tokens, i); ok {
		j := i + c
		if j < len(p.tokens) && p.tokens[j] == "of" {
			j++
		}
		if j < len(p.tokens) {
			if m, ok := monthNames[p.tokens[j]]; ok && p.setMonthDay(m, day) {
				return j - i + 1
			}
		}
	}
	return 0
}

func (p *whenParser) tryTime(i int) int {
	if p.tod != nil {
		return 0
	}
	tok := p.tokens[i]
	switch tok {
	case "noon":
		p.tod = &TimeOfDay{Hour: 12}
		return 1
	case "midnight":
		p.tod = &TimeOfDay{Hour: 0}
		return 1
	case "half":
		if i+1 < len(p.tokens) && p.tokens[i+1] == "past" {
			if h, c, ok := hourToken(p.tokens, i+2); ok {
				p.setTime(h, 30, false)
				return 2 + c
			}
		}
		return 0
	case "quarter":
		if i+1 >= len(p.tokens) {
			return 0
		}
		switch p.tokens[i+1] {
		case "past":
			if h, c, ok := hourToken(p.tokens, i+2); ok {
				p.setTime(h, 15, false)
				return 2 + c
			}
		case "to", "till", "til":
			if h, c, ok := hourToken(p.tokens, i+2); ok {
				p.setTime((h+23)%24, 45, false)
				return 2 + c
			}
		}
		return 0
	case "at":
		if h, c, ok := hourToken(p.tokens, i+1); ok {
			n := 1 + c
			min, mc := minutesAt(p.tokens, i+n)
			n += mc
			p.setTime(h, min, h >= 13)
			return n + p.trailing(i+n)
		}
		return 0
	}

	// spoken military clock: "1430"
	if v, ok := numericToken(tok); ok && v >= 100 && v <= 2359 {
		h, m := v/100, v%100
		if m <= 59 {
			p.setTime(h, m, true)
			return 1 + p.trailing(i+1)
		}
	}
	if h, c, ok := hourToken(p.tokens, i); ok {
		n := c
		min, mc := minutesAt(p.tokens, i+n)
		n += mc
		if h >= 13 || mc > 0 {
			p.setTime(h, min, h >= 13)
			return n + p.trailing(i+n)
		}
		// a bare low number is only a time with explicit context
		if timeContextAt(p.tokens, i+n) {
			p.setTime(h, 0, false)
			return n + p.trailing(i+n)
		}
	}
	return 0
}

// trailing consumes a meridiem or o'clock marker directly after a
// parsed time; returns tokens consumed.
func (p *whenParser) trailing(i int) int {
	if n := p.meridiemAt(i); n > 0 {
		p.applyMeridiemNow()
		return n
	}
	if i < len(p.tokens) && isOClock(p.tokens[i]) {
		n := 1
		if m := p.meridiemAt(i + 1); m > 0 {
			p.applyMeridiemNow()
			n += m
		}
		return n
	}
	return 0
}

func (p *whenParser) tryMeridiemWord(i int) int {
	switch p.tokens[i] {
	case "morning":
		p.meridiem = meridiemAM
		return 1
	case "afternoon", "evening":
		p.meridiem = meridiemPM
		return 1
	}
	return p.meridiemAt(i)
}

// meridiemAt consumes "am"/"pm" or the split "a m"/"p m" at i and
// records it; returns tokens consumed.
func (p *whenParser) meridiemAt(i int) int {
	if i >= len(p.tokens) {
		return 0
	}
	switch p.tokens[i] {
	case "am":
		p.meridiem = meridiemAM
		return 1
	case "pm":
		p.meridiem = meridiemPM
		return 1
	case "a", "p":
		if i+1 < len(p.tokens) && p.tokens[i+1] == "m" {
			if p.tokens[i] == "a" {
				p.meridiem = meridiemAM
			} else {
				p.meridiem = meridiemPM
			}
			return 2
		}
	}
	return 0
}

func (p *whenParser) applyMeridiemNow() {
	if p.tod == nil {
		return
	}
	switch p.meridiem {
	case meridiemPM:
		if p.tod.Hour < 12 {
			p.tod.Hour += 12
		}
		p.assumed = false
	case meridiemAM:
		if p.tod.Hour == 12 {
			p.tod.Hour = 0
		}
		p.assumed = false
	}
}

func (p *whenParser) setTime(hour, minute int, military bool) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return
	}
	p.tod = &TimeOfDay{Hour: hour, Minute: minute}
	p.assumed = !military && hour >= 1 && hour <= 12 && p.meridiem == meridiemUnknown
	p.applyMeridiemNow()
}

func (p *whenParser) setDate(t time.Time) {
	p.date = &Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

func (p *whenParser) setWeekday(w time.Weekday) {
	delta := (int(w) - int(p.ref.Weekday()) + 7) % 7
	if delta == 0 {
		delta = 7
	}
	p.setDate(p.ref.AddDate(0, 0, delta))
}

func (p *whenParser) setMonthDay(m time.Month, day int) bool {
	if day < 1 || day > 31 {
		return false
	}
	loc := p.ref.Location()
	t := time.Date(p.ref.Year(), m, day, 0, 0, 0, 0, loc)
	if t.Month() != m || t.Day() != day {
		return false
	}
	refDay := time.Date(p.ref.Year(), p.ref.Month(), p.ref.Day(), 0, 0, 0, 0, loc)
	if t.Before(refDay) {
		t = time.Date(p.ref.Year()+1, m, day, 0, 0, 0, 0, loc)
		if t.Month() != m || t.Day() != day {
			return false
		}
	}
	p.setDate(t)
	return true
}

// finalize applies a recorded meridiem, or a shift-hours guess, to an
// hour that arrived without one. One through six read as afternoon,
// seven through eleven as morning, twelve as noon.
func (p *whenParser) finalize() {
	if p.tod == nil {
		return
	}
	if p.meridiem != meridiemUnknown {
		p.applyMeridiemNow()
		return
	}
	if p.assumed && p.tod.Hour >= 1 && p.tod.Hour <= 6 {
		p.tod.Hour += 12
	}
}

func isOClock(tok string) bool {
	return tok == "oclock" || tok == "o'clock"
}

func timeContextAt(tokens []string, i int) bool {
	if i >= len(tokens) {
		return false
	}
	switch tokens[i] {
	case "am", "pm":
		return true
	case "a", "p":
		return i+1 < len(tokens) && tokens[i+1] == "m"
	}
	return isOClock(tokens[i])
}

func hourToken(tokens []string, i int) (int, int, bool) {
	if i >= len(tokens) {
		return 0, 0, false
	}
	tok := tokens[i]
	if isAllDigits(tok) && len(tok) <= 2 {
		v, _ := strconv.Atoi(tok)
		if v <= 23 {
			return v, 1, true
		}
		return 0, 0, false
	}
	if v, ok := hourWords[tok]; ok {
		return v, 1, true
	}
	if v, ok := teenNumbers[tok]; ok && v <= 23 {
		return v, 1, true
	}
	if tok == "twenty" && i+1 < len(tokens) {
		if u, ok := unitDigit(tokens[i+1]); ok && 20+u <= 23 {
			return 20 + u, 2, true
		}
	}
	return 0, 0, false
}

// minutesAt parses a minutes group at i ("30", "thirty", "forty five",
// "oh five"); returns the value and tokens consumed, zero when absent.
func minutesAt(tokens []string, i int) (int, int) {
	if i >= len(tokens) {
		return 0, 0
	}
	tok := tokens[i]
	if isAllDigits(tok) && len(tok) == 2 {
		v, _ := strconv.Atoi(tok)
		if v <= 59 {
			return v, 1
		}
		return 0, 0
	}
	if v, ok := teenNumbers[tok]; ok {
		return v, 1
	}
	if v, ok := minuteTens[tok]; ok {
		if i+1 < len(tokens) {
			if u, ok := unitDigit(tokens[i+1]); ok {
				return v + u, 2
			}
		}
		return v, 1
	}
	if tok == "oh" || tok == "o" {
		if i+1 < len(tokens) {
			if u, ok := unitDigit(tokens[i+1]); ok {
				return u, 2
			}
		}
	}
	return 0, 0
}

func numericToken(tok string) (int, bool) {
	if !isAllDigits(tok) {
		return 0, false
	}
	v, err := strconv.Atoi(tok)
	if err != nil {
		return 0, false
	}
	return v, true
}

func unitDigit(tok string) (int, bool) {
	if r, ok := digitWords[tok]; ok && r >= '1' && r <= '9' {
		return int(r - '0'), true
	}
	if isAllDigits(tok) && len(tok) == 1 && tok != "0" {
		v, _ := strconv.Atoi(tok)
		return v, true
	}
	return 0, false
}

// dayToken reads a day of month at i: "5", "5th", "fifth",
// "twenty first". Returns the day, tokens consumed, and success.
func dayToken(tokens []string, i int) (int, int, bool) {
	if i >= len(tokens) {
		return 0, 0, false
	}
	tok := tokens[i]
	if isAllDigits(tok) && len(tok) <= 2 {
		v, _ := strconv.Atoi(tok)
		if v >= 1 && v <= 31 {
			return v, 1, true
		}
		return 0, 0, false
	}
	if d, ok := strippedOrdinal(tok); ok {
		return d, 1, true
	}
	if v, ok := ordinalWords[tok]; ok {
		return v, 1, true
	}
	if v, ok := ordinalTens[tok]; ok {
		return v, 1, true
	}
	if tok == "twenty" || tok == "thirty" {
		base := 20
		if tok == "thirty" {
			base = 30
		}
		if i+1 < len(tokens) {
			if u, ok := ordinalWords[tokens[i+1]]; ok && u <= 9 && base+u <= 31 {
				return base + u, 2, true
			}
		}
	}
	return 0, 0, false
}

// strippedOrdinal handles digit ordinals like "5th" or "21st".
func strippedOrdinal(tok string) (int, bool) {
	for _, suf := range []string{"st", "nd", "rd", "th"} {
		if strings.HasSuffix(tok, suf) {
			num := strings.TrimSuffix(tok, suf)
			if isAllDigits(num) {
				v, _ := strconv.Atoi(num)
				if v >= 1 && v <= 31 {
					return v, true
				}
			}
		}
	}
	return 0, false
}

var weekdayNames = map[string]time.Weekday{
	"sunday": time.Sunday, "sun": time.Sunday,
	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday, "tues": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday, "thur": time.Thursday, "thurs": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
}

var monthNames = map[string]time.Month{
	"january": time.January, "jan": time.January,
	"february": time.February, "feb": time.February,
	"march": time.March, "mar": time.March,
	"april": time.April, "apr": time.April,
	"may": time.May,
	"june": time.June, "jun": time.June,
	"july": time.July, "jul": time.July,
	"august": time.August, "aug": time.August,
	"september": time.September, "sep": time.September, "sept": time.September,
	"october": time.October, "oct": time.October,
	"november": time.November, "nov": time.November,
	"december": time.December, "dec": time.December,
}

var hourWords = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5, "six": 6,
	"seven": 7, "eight": 8, "nine": 9, "ten": 10, "eleven": 11, "twelve": 12,
}

var teenNumbers = map[string]int{
	"ten": 10, "eleven": 11, "twelve": 12, "thirteen": 13, "fourteen": 14,
	"fifteen": 15, "sixteen": 16, "seventeen": 17, "eighteen": 18, "nineteen": 19,
}

var minuteTens = map[string]int{
	"twenty": 20, "thirty": 30, "forty": 40, "fifty": 50,
}

var ordinalWords = map[string]int{
	"first": 1, "second": 2, "third": 3, "fourth": 4, "fifth": 5,
	"sixth": 6, "seventh": 7, "eighth": 8, "ninth": 9, "tenth": 10,
	"eleventh": 11, "twelfth": 12, "thirteenth": 13, "fourteenth": 14,
	"fifteenth": 15, "sixteenth": 16, "seventeenth": 17, "eighteenth": 18,
	"nineteenth": 19,
}

var ordinalTens = map[string]int{
	"twentieth": 20, "thirtieth": 30,
}
