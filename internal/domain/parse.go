package domain

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// ErrUnrecognized is returned when no schedule can be read from the input.
var ErrUnrecognized = errors.New("could not recognize a time")

// NoMessage replaces a reminder text that parsing stripped to nothing.
const NoMessage = "(no message)"

var timeRe = regexp.MustCompile(`(\d{1,2})[:.](\d{2})`)

type span struct{ start, end int }

type token struct {
	text string
	span
}

// Intent is a parsed schedule together with the parts of the input that
// were used to build it.
type Intent struct {
	Schedule Schedule
	consumed []span
}

// Parse reads a schedule from free text. Rules are tried in order and the
// first one that matches wins:
//
//  1. the first HH:MM (or HH.MM) token is the time of day;
//  2. weekday names make a weekly schedule and require a time;
//  3. a month name takes its day from the left, then the right, neighbour;
//  4. a bare number with a time is a day of the current month;
//  5. a lone time is today, or tomorrow when already passed.
//
// now supplies both the reference instant and the timezone.
func Parse(text string, now time.Time) (Intent, error) {
	normalized := normalizeSeparators(text)

	var (
		hasTime      bool
		hour, minute int
		consumed     []span
	)
	rest := normalized
	if loc := timeRe.FindStringSubmatchIndex(normalized); loc != nil {
		hour, minute = clock(normalized[loc[2]:loc[3]], normalized[loc[4]:loc[5]])
		hasTime = true
		consumed = append(consumed, span{loc[0], loc[1]})
		rest = blank(normalized, loc[0], loc[1])
	}
	tokens := tokenize(rest)

	var days []Weekday
	for _, tk := range tokens {
		if d, ok := LookupWeekday(tk.text); ok {
			days = append(days, d)
			consumed = append(consumed, tk.span)
		}
	}
	if len(days) > 0 {
		if !hasTime {
			return Intent{}, ErrUnrecognized
		}
		return Intent{Schedule: Weekly(hour, minute, days), consumed: consumed}, nil
	}

	for i, tk := range tokens {
		month, ok := LookupMonth(tk.text)
		if !ok {
			continue
		}
		dayIdx, day := -1, 0
		if i > 0 {
			if n, found := digitsOf(tokens[i-1].text); found {
				dayIdx, day = i-1, n
			}
		}
		if dayIdx < 0 && i+1 < len(tokens) {
			if n, found := digitsOf(tokens[i+1].text); found {
				dayIdx, day = i+1, n
			}
		}
		if dayIdx < 0 {
			return Intent{}, ErrUnrecognized
		}
		at, ok := nextDate(now, month, day, hour, minute)
		if !ok {
			return Intent{}, ErrUnrecognized
		}
		consumed = append(consumed, tk.span, tokens[dayIdx].span)
		return Intent{Schedule: Once(at), consumed: consumed}, nil
	}

	if hasTime {
		for _, tk := range tokens {
			if !isAllDigits(tk.text) {
				continue
			}
			if day, err := strconv.Atoi(tk.text); err == nil {
				if at, ok := nextDate(now, now.Month(), day, hour, minute); ok {
					consumed = append(consumed, tk.span)
					return Intent{Schedule: Once(at), consumed: consumed}, nil
				}
			}
			break
		}
	}

	if hasTime && len(tokens) == 0 {
		return Intent{Schedule: Once(todayOrTomorrow(now, hour, minute)), consumed: consumed}, nil
	}
	return Intent{}, ErrUnrecognized
}

// ParseLoose takes the first HH:MM or HH.MM anywhere in the raw text and
// schedules it for today, or tomorrow when already passed.
func ParseLoose(text string, now time.Time) (Intent, error) {
	loc := timeRe.FindStringSubmatchIndex(text)
	if loc == nil {
		return Intent{}, ErrUnrecognized
	}
	hour, minute := clock(text[loc[2]:loc[3]], text[loc[4]:loc[5]])
	return Intent{
		Schedule: Once(todayOrTomorrow(now, hour, minute)),
		consumed: []span{{loc[0], loc[1]}},
	}, nil
}

// Resolve runs Parse and falls back to ParseLoose.
func Resolve(text string, now time.Time) (Intent, error) {
	if in, err := Parse(text, now); err == nil {
		return in, nil
	}
	return ParseLoose(text, now)
}

// Message returns what is left of the original input once the tokens used
// for the schedule are removed.
func (in Intent) Message(original string) string {
	b := []byte(original)
	for _, sp := range in.consumed {
		start, end := sp.start, min(sp.end, len(b))
		// separators glued to a consumed token belong to it ("ke-3", "10/")
		for start > 0 && isDateSeparator(b[start-1]) {
			start--
		}
		for end < len(b) && isDateSeparator(b[end]) {
			end++
		}
		for i := start; i < end; i++ {
			b[i] = ' '
		}
	}
	msg := strings.Join(strings.Fields(string(b)), " ")
	msg = strings.Trim(msg, " ,.;:-/")
	if msg == "" {
		return NoMessage
	}
	return msg
}

// normalizeSeparators turns date separators into spaces. Byte offsets are
// preserved so spans found in the result also address the original text.
func normalizeSeparators(s string) string {
	b := []byte(s)
	for i, c := range b {
		if isDateSeparator(c) {
			b[i] = ' '
		}
	}
	return string(b)
}

func isDateSeparator(c byte) bool {
	return c == '/' || c == '-' || c == '.'
}

func blank(s string, start, end int) string {
	return s[:start] + strings.Repeat(" ", end-start) + s[end:]
}

// tokenize splits on whitespace and commas, remembering byte spans.
func tokenize(s string) []token {
	var (
		out   []token
		start = -1
	)
	for i, r := range s {
		sep := unicode.IsSpace(r) || r == ','
		switch {
		case sep && start >= 0:
			out = append(out, token{text: s[start:i], span: span{start, i}})
			start = -1
		case !sep && start < 0:
			start = i
		}
	}
	if start >= 0 {
		out = append(out, token{text: s[start:], span: span{start, len(s)}})
	}
	return out
}

func normalizeWord(w string) string {
	return strings.ToLower(strings.TrimFunc(w, unicode.IsPunct))
}

func clock(h, m string) (int, int) {
	hour, _ := strconv.Atoi(h)
	minute, _ := strconv.Atoi(m)
	return hour % 24, minute % 60
}

// digitsOf keeps only the digits of s ("10," -> 10). found is false when s
// has no digits; an overflowing number yields -1 so date building fails.
func digitsOf(s string) (n int, found bool) {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(b.String())
	if err != nil {
		return -1, true
	}
	return n, true
}

func isAllDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// nextDate returns the first valid month/day at hour:minute, this year or
// next, that is not before now.
func nextDate(now time.Time, month time.Month, day, hour, minute int) (time.Time, bool) {
	for year := now.Year(); year <= now.Year()+1; year++ {
		at, ok := date(year, month, day, hour, minute, now.Location())
		if ok && !at.Before(now) {
			return at, true
		}
	}
	return time.Time{}, false
}

// date rejects combinations time.Date would normalize, like 30 February.
func date(year int, month time.Month, day, hour, minute int, loc *time.Location) (time.Time, bool) {
	if day < 1 || day > 31 {
		return time.Time{}, false
	}
	t := time.Date(year, month, day, hour, minute, 0, 0, loc)
	if t.Month() != month || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

func todayOrTomorrow(now time.Time, hour, minute int) time.Time {
	at := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if at.Before(now) {
		at = at.AddDate(0, 0, 1)
	}
	return at
}
