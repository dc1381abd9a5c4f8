package presignd

import (
	"strings"
	"unicode/utf8"
)

// MaxKeyLength is the longest object key, in bytes, the provider accepts.
const MaxKeyLength = 1024

// IsValidKey validates that a string can be used as an object key.
// It checks that the key:
//   - is not empty and at most MaxKeyLength bytes
//   - does not start or end with "/"
//   - has no empty segments ("//")
//   - has no "." or ".." segments
//   - does not contain a backslash
//   - is valid UTF-8
//   - does not contain null bytes, control characters (< 0x20) or DEL (0x7f)
//
// Keys that would resolve to the bucket root or escape a key prefix are
// rejected here instead of being left to the provider.
func IsValidKey(key string) bool {
	if key == "" || len(key) > MaxKeyLength {
		return false
	}

	if strings.HasPrefix(key, "/") || strings.HasSuffix(key, "/") {
		return false
	}

	if strings.Contains(key, `\`) {
		return false
	}

	if !utf8.ValidString(key) {
		return false
	}

	for _, r := range key {
		if r < 0x20 || r == 0x7f {
			return false
		}
	}

	for _, seg := range strings.Split(key, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return false
		}
	}

	return true
}
