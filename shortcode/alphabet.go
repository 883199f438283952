// Package shortcode derives deterministic fixed-length link codes from a
// canonical URL and tenant id, encoded over a 58-symbol alphabet that
// excludes the visually ambiguous characters 0, O, I and l.
package shortcode

import "strings"

// Alphabet is the 58-symbol encoding alphabet. Index 0 is the zero symbol
// used for left padding.
const Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

const base = uint64(len(Alphabet))

// Encode converts n to its base-58 representation.
func Encode(n uint64) string {
	if n == 0 {
		return string(Alphabet[0])
	}
	buf := make([]byte, 0, 11)
	for n > 0 {
		buf = append(buf, Alphabet[n%base])
		n /= base
	}
	for i, j := 0, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}
	return string(buf)
}

// IsValid reports whether code is non-empty and uses only alphabet symbols.
func IsValid(code string) bool {
	if code == "" {
		return false
	}
	for _, r := range code {
		if !strings.ContainsRune(Alphabet, r) {
			return false
		}
	}
	return true
}
