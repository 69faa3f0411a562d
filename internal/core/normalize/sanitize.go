package normalize

import (
	"strings"
	"unicode/utf8"
)

// dropped reports whether the rune at the head of s is removed by Sanitize
func dropped(s string) (drop bool, size int) {
	c := s[0]
	if c < utf8.RuneSelf {
		switch {
		case c == '\n' || c == '\r' || c == '\t':
			return false, 1
		case c < 0x20 || c == 0x7f:
			return true, 1
		}
		return false, 1
	}
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError && size == 1 {
		return true, 1
	}
	return r >= 0x80 && r <= 0x9f, size
}

// Sanitize drops NUL, ASCII controls other than \n \r \t, DEL, C1 controls
// and invalid UTF-8. Clean input is returned unchanged without allocating.
// Lead messages pass through it before they are stored
func Sanitize(s string) string {
	i := 0
	for i < len(s) {
		drop, size := dropped(s[i:])
		if drop {
			break
		}
		i += size
	}
	if i == len(s) {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	b.WriteString(s[:i])
	for i < len(s) {
		drop, size := dropped(s[i:])
		if !drop {
			b.WriteString(s[i : i+size])
		}
		i += size
	}
	return b.String()
}
