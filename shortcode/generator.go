package shortcode

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// DefaultLength is the code length used when the caller does not override it.
const DefaultLength = 10

var ErrInvalidInput = errors.New("shortcode: invalid input")

// Generate derives the deterministic code for (canonicalURL, tenantID, salt).
// The digest input is canonicalURL|tenantID, with |salt appended only when
// salt is positive so that salt zero matches the unsalted form. The leading
// eight digest bytes are read as a big-endian unsigned integer, base-58
// encoded, then left-padded with the zero symbol to length or truncated when
// the natural encoding is longer. Identical input yields identical output
// across processes and time.
func Generate(canonicalURL, tenantID string, salt, length int) (string, error) {
	if strings.TrimSpace(canonicalURL) == "" {
		return "", fmt.Errorf("%w: canonical url is required", ErrInvalidInput)
	}
	if strings.TrimSpace(tenantID) == "" {
		return "", fmt.Errorf("%w: tenant id is required", ErrInvalidInput)
	}
	if salt < 0 {
		return "", fmt.Errorf("%w: salt must not be negative", ErrInvalidInput)
	}
	if length < 1 {
		return "", fmt.Errorf("%w: length must be at least 1", ErrInvalidInput)
	}

	input := canonicalURL + "|" + tenantID
	if salt > 0 {
		input += "|" + strconv.Itoa(salt)
	}

	digest := sha256.Sum256([]byte(input))
	encoded := Encode(binary.BigEndian.Uint64(digest[:8]))

	if len(encoded) > length {
		return encoded[:length], nil
	}
	if len(encoded) < length {
		encoded = strings.Repeat(string(Alphabet[0]), length-len(encoded)) + encoded
	}
	return encoded, nil
}
