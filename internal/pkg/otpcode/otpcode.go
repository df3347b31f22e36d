// Package otpcode generates and checks the shape of numeric one-time codes and PINs.
package otpcode

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const Length = 6

var upper = big.NewInt(1_000_000)

// New returns a uniformly random 6-digit code. Leading zeros are preserved.
func New() (string, error) {
	n, err := rand.Int(rand.Reader, upper)
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%0*d", Length, n.Int64()), nil
}

// Valid reports whether s is exactly six ASCII digits.
func Valid(s string) bool {
	return len(s) == Length && Digits(s)
}

// Digits reports whether s is non-empty and made only of ASCII digits.
func Digits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
