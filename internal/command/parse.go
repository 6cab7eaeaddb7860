package command

import (
	"strings"
	"unicode"
)

// ParseCommand strips one of the prefixes (case-insensitive) and splits the
// remainder into a lower-cased command name and its raw arguments.
func ParseCommand(text string, prefixes []string) (name, args string, ok bool) {
	text = strings.TrimSpace(text)
	lower := strings.ToLower(text)
	for _, p := range prefixes {
		if p == "" || !strings.HasPrefix(lower, strings.ToLower(p)) {
			continue
		}
		name, args = splitFirst(text[len(p):])
		if name == "" {
			return "", "", false
		}
		return strings.ToLower(name), args, true
	}
	return "", "", false
}

// splitFirst returns the first word of s and the trimmed remainder.
func splitFirst(s string) (first, rest string) {
	s = strings.TrimSpace(s)
	end := strings.IndexFunc(s, unicode.IsSpace)
	if end < 0 {
		return s, ""
	}
	return s[:end], strings.TrimSpace(s[end:])
}

// Chunks splits a reply into pieces of at most limit bytes, preferring line
// breaks. Platforms cap message length (Discord 2000, Telegram 4096).
func Chunks(text string, limit int) []string {
	if limit <= 0 || len(text) <= limit {
		return []string{text}
	}
	var (
		out []string
		cur strings.Builder
	)
	flush := func() {
		if cur.Len() > 0 {
			out = append(out, cur.String())
			cur.Reset()
		}
	}
	for _, line := range strings.Split(text, "\n") {
		for len(line) > limit {
			flush()
			cut := limit
			for cut > 0 && !utf8Start(line[cut]) {
				cut--
			}
			if cut == 0 {
				cut = limit
			}
			out = append(out, line[:cut])
			line = line[cut:]
		}
		if cur.Len() > 0 && cur.Len()+1+len(line) > limit {
			flush()
		}
		if cur.Len() > 0 {
			cur.WriteByte('\n')
		}
		cur.WriteString(line)
	}
	flush()
	return out
}

func utf8Start(b byte) bool { return b&0xC0 != 0x80 }
