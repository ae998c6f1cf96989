package youtube

import (
	"regexp"
	"strings"
)

// maxTitleLength bounds sanitized titles; longer ones are truncated with
// a trailing ellipsis.
const maxTitleLength = 200

// titleReplacer swaps characters that break file systems or media
// managers for harmless stand-ins.
var titleReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", " -",
	"*", "",
	"?", "",
	`"`, "'",
	"<", "(",
	">", ")",
	"|", "-",
	"\n", " ",
	"\r", " ",
	"\t", " ",
)

var spaceRun = regexp.MustCompile(`\s+`)

// SanitizeTitle makes text safe for use as a file name or library title:
// problematic characters are replaced, whitespace is collapsed, and the
// result is truncated to maxTitleLength characters.
func SanitizeTitle(text string) string {
	text = titleReplacer.Replace(text)
	text = strings.TrimSpace(spaceRun.ReplaceAllString(text, " "))

	runes := []rune(text)
	if len(runes) > maxTitleLength {
		text = string(runes[:maxTitleLength-3]) + "..."
	}
	return text
}

// FormatTitle builds the canonical "channel - title" display name.
func FormatTitle(channel, title string) string {
	return SanitizeTitle(channel) + " - " + SanitizeTitle(title)
}
