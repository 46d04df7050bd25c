package speech

import (
	"regexp"
	"strings"
)

var (
	labelRE      = regexp.MustCompile(`(?i)\[(?:Host|Speaker)\s*[A-Z]\]\s*`)
	colonLabelRE = regexp.MustCompile(`(?im)^(?:Host|Speaker)\s*[A-Z]\s*:\s*`)
	urlRE        = regexp.MustCompile(`(?i)https?://\S+|www\.\S+`)
	emailRE      = regexp.MustCompile(`\b\S+@\S+\b`)
	hyphenRE     = regexp.MustCompile(`-\s*\n\s*`)
	symbolRunRE  = regexp.MustCompile("[_*/#=<>{}\\\\\\[\\]|`~^]+")
	bulletRE     = regexp.MustCompile(`[•·]\s*`)
	spaceRE      = regexp.MustCompile(`\s+`)
)

// CleanForSpeech normalizes a script for narration: host labels such as
// "[Host A]" or a line-leading "Host B:" are removed, URLs and emails are
// stripped, words hyphenated across line breaks are rejoined, symbol runs
// from tables or code are flattened, bullets become commas, and whitespace is
// collapsed to single spaces.
func CleanForSpeech(text string) string {
	text = labelRE.ReplaceAllString(text, "")
	text = colonLabelRE.ReplaceAllString(text, "")
	text = urlRE.ReplaceAllString(text, "")
	text = emailRE.ReplaceAllString(text, "")
	text = hyphenRE.ReplaceAllString(text, "")
	text = symbolRunRE.ReplaceAllString(text, " ")
	text = bulletRE.ReplaceAllString(text, ", ")
	text = spaceRE.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
