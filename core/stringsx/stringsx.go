// Package stringsx holds the member-name helpers used when inferring
// accessors from method names and naming synthesized operators.
package stringsx

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// TrimAccessorPrefix removes the first of prefixes that is followed by an
// upper case letter, so "GetName" yields "Name" and "Getaway" is left alone.
// The second result reports whether a prefix was removed.
func TrimAccessorPrefix(s string, prefixes ...string) (string, bool) {
	for _, prefix := range prefixes {
		if prefix == "" || !strings.HasPrefix(s, prefix) {
			continue
		}
		if rest := s[len(prefix):]; StartsUpper(rest) {
			return rest, true
		}
	}
	return s, false
}

// StartsUpper reports whether the first rune of s is an upper case letter.
func StartsUpper(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return r != utf8.RuneError && unicode.IsUpper(r)
}

// UpperFirstChar returns s with its first rune converted to upper case.
func UpperFirstChar(s string) string {
	if s == "" {
		return ""
	}

	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}
