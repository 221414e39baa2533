package common

import "unicode/utf8"

// TruncateRunes cuts s to at most n characters. n <= 0 leaves s unchanged.
func TruncateRunes(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
