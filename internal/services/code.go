package services

import (
	"crypto/rand"
	"fmt"
)

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// CodeLength is the length of every verification and reset code.
const CodeLength = 6

// GenerateCode produces a random CodeLength-character code drawn
// uniformly from uppercase letters and digits. Codes gate account
// takeover, so the source must be crypto/rand, never math/rand.
func GenerateCode() (string, error) {
	return GenerateCodeN(CodeLength)
}

// GenerateCodeN produces a random code of the given length.
func GenerateCodeN(length int) (string, error) {
	if length < 1 {
		return "", fmt.Errorf("invalid code length %d", length)
	}

	buf := make([]byte, length)
	out := make([]byte, length)
	for filled := 0; filled < length; {
		if _, err := rand.Read(buf[:length-filled]); err != nil {
			return "", fmt.Errorf("read random bytes: %w", err)
		}
		for _, b := range buf[:length-filled] {
			// Rejection sampling keeps the draw uniform: 252 is the
			// largest multiple of 36 below 256.
			if b >= 252 {
				continue
			}
			out[filled] = codeAlphabet[int(b)%len(codeAlphabet)]
			filled++
		}
	}
	return string(out), nil
}
