package ocr

import (
	"regexp"
	"strings"
)

var (
	reCRLF       = regexp.MustCompile(`\r\n?`)
	reTrailWS    = regexp.MustCompile(`[ \t]+\n`)
	reManyBlanks = regexp.MustCompile(`\n{3,}`)
)

// Normalize cleans up decoder output: unix newlines, trimmed trailing
// whitespace, collapsed blank runs.
func Normalize(s string) string {
	s = reCRLF.ReplaceAllString(s, "\n")
	s = reTrailWS.ReplaceAllString(s, "\n")
	s = reManyBlanks.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
