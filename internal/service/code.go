package service

import (
	"crypto/rand"
	"fmt"
	"strings"
)

// CodeAlphabet is the 32-symbol join-code alphabet. It leaves out I, O, 0
// and 1 so a code read aloud or off a phone screen has one spelling.
const CodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const (
	CodeLength = 6

	// maxCodeAttempts bounds the collision retry loop in CreateGroup.
	maxCodeAttempts = 10
)

// CodeGenerator produces candidate join codes.
type CodeGenerator func() (string, error)

// RandomCode draws CodeLength symbols from crypto/rand. The alphabet has
// exactly 32 entries, so masking a byte to 5 bits is unbiased.
func RandomCode() (string, error) {
	buf := make([]byte, CodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	for i, b := range buf {
		buf[i] = CodeAlphabet[b&0x1f]
	}
	return string(buf), nil
}

// NormalizeCode trims and upper-cases user input before lookup.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidCode reports whether code has the right length and alphabet.
func ValidCode(code string) bool {
	if len(code) != CodeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		if strings.IndexByte(CodeAlphabet, code[i]) < 0 {
			return false
		}
	}
	return true
}
