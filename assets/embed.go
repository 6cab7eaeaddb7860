package assets

import (
	_ "embed"
	"strings"
)

//go:embed help.txt
var helpText string

// Help returns the usage text with command examples written for prefix,
// e.g. "rem!" on Discord or "/" on Telegram.
func Help(prefix string) string {
	return strings.ReplaceAll(helpText, "{p}", prefix)
}
