package utils

import "unicode/utf8"

// Truncate shortens s to at most n bytes for log output without splitting a rune.
func Truncate(s string, n int) string {
	if n < 0 || len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// YesNo renders presence flags the way the diagnostic log reports them.
func YesNo(present bool, no string) string {
	if present {
		return "yes"
	}
	return no
}
