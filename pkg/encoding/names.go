// Package encoding provides text utilities for names stored in VXS snapshots.
package encoding

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// MaxNameBytes is the longest name a VXS layer record can hold.
const MaxNameBytes = 1<<16 - 1

// NormalizeName cleans a user supplied name for storage.
// Invalid UTF-8 is replaced, control characters are dropped, surrounding
// space is trimmed and the result is NFC-normalized so that visually equal
// names compare equal. Names longer than MaxNameBytes are cut on a rune boundary.
func NormalizeName(s string) string {
	s = strings.ToValidUTF8(s, "\uFFFD")
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
	s = norm.NFC.String(strings.TrimSpace(s))
	return truncate(s, MaxNameBytes)
}

// EqualNames reports whether two names are equal after normalization,
// ignoring case.
func EqualNames(a, b string) bool {
	return strings.EqualFold(NormalizeName(a), NormalizeName(b))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func utf8RuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
