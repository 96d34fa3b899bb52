package crypto

import (
	"crypto/rand"
	"fmt"
)

// codeAlphabet is the url-safe alphabet used for short game codes. Its
// length divides 256, so byte-to-rune mapping carries no modulo bias.
const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789_-"

// RandBytes fills the provided slice with cryptographically secure random
// bytes.
func RandBytes(out []byte) ([]byte, error) {
	if len(out) == 0 {
		return out, fmt.Errorf("output slice is empty")
	}
	if _, err := rand.Read(out); err != nil {
		return nil, fmt.Errorf("rand read: %w", err)
	}
	return out, nil
}

// NewGameCode returns a random short code of the given length, used as a
// game id. Uniqueness is enforced by the store; callers retry on
// collision.
func NewGameCode(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("invalid code length: %d", length)
	}
	buf, err := RandBytes(make([]byte, length))
	if err != nil {
		return "", err
	}
	code := make([]byte, length)
	for i, b := range buf {
		code[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(code), nil
}
