package domain

import "strings"

// ZeroAddress is never a valid recipient or owner.
const ZeroAddress = "0x0000000000000000000000000000000000000000"

// ValidAddress reports whether s is a well-formed account address
// (0x followed by 40 hex digits).
func ValidAddress(s string) bool {
	if len(s) != 42 || s[0] != '0' || (s[1] != 'x' && s[1] != 'X') {
		return false
	}
	for _, c := range s[2:] {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

// NormalizeAddress lowercases an address so it can be used as a map or
// database key. Callers validate first; normalization never fails.
func NormalizeAddress(s string) string {
	return strings.ToLower(s)
}
