package command

import (
	"strings"
	"testing"
)

func TestParseCommand(t *testing.T) {
	prefixes := []string{"rem!", "!r"}
	cases := []struct {
		text, name, args string
		ok               bool
	}{
		{"rem!rem 08:30 minum air", "rem", "08:30 minum air", true},
		{"REM!List", "list", "", true},
		{"Rem! edit 3  senin 08:00  gym ", "edit", "3  senin 08:00  gym", true},
		{"!r hapus 4", "hapus", "4", true},
		{"rem!", "", "", false},
		{"hello rem!rem", "", "", false},
		{"", "", "", false},
	}
	for _, tc := range cases {
		name, args, ok := ParseCommand(tc.text, prefixes)
		if name != tc.name || args != tc.args || ok != tc.ok {
			t.Fatalf("%q: want (%q, %q, %v), got (%q, %q, %v)", tc.text, tc.name, tc.args, tc.ok, name, args, ok)
		}
	}
}

func TestChunks(t *testing.T) {
	if got := Chunks("short", 10); len(got) != 1 || got[0] != "short" {
		t.Fatalf("short text split: %q", got)
	}

	text := strings.Join([]string{"aaaa", "bbbb", "cccc"}, "\n")
	got := Chunks(text, 9)
	if len(got) != 2 || got[0] != "aaaa\nbbbb" || got[1] != "cccc" {
		t.Fatalf("line split: %q", got)
	}

	long := strings.Repeat("x", 25)
	got = Chunks(long, 10)
	if len(got) != 3 || got[2] != "xxxxx" {
		t.Fatalf("hard split: %q", got)
	}
	for _, c := range Chunks(strings.Repeat("⏰", 10), 10) {
		if !strings.HasPrefix(c, "⏰") || len(c)%len("⏰") != 0 {
			t.Fatalf("rune cut in half: %q", c)
		}
	}
}
