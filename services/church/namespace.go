package main

import (
	"regexp"
	"strings"
)

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	invalidChars  = regexp.MustCompile(`[^a-z0-9-]`)
	hyphenRun     = regexp.MustCompile(`-{2,}`)
)

// normalizeNamespace converts a raw namespace string into its canonical
// URL-safe form: lower-case, whitespace runs collapsed to hyphens,
// anything outside [a-z0-9-] stripped, hyphen runs collapsed, edge
// hyphens trimmed. The result is idempotent under re-normalization.
func normalizeNamespace(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = whitespaceRun.ReplaceAllString(s, "-")
	s = invalidChars.ReplaceAllString(s, "")
	s = hyphenRun.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
