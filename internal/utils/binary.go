package utils

import (
	"unicode/utf8"
)

// binarySniffLength bounds how much of a payload IsBinary inspects.
const binarySniffLength = 8000

// IsBinary reports whether the provided byte slice appears to contain binary data: invalid
// UTF-8 or a NUL byte within the first binarySniffLength bytes.
func IsBinary(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	if len(data) > binarySniffLength {
		data = data[:binarySniffLength]
		// Trim a rune split by the cut.
		for trimmed := 0; trimmed < utf8.UTFMax && len(data) > 0 && !utf8.Valid(data); trimmed++ {
			data = data[:len(data)-1]
		}
	}
	if !utf8.Valid(data) {
		return true
	}
	for _, byteValue := range data {
		if byteValue == 0 {
			return true
		}
	}
	return false
}
