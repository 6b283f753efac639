package services

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"math/big"
)

var codeSpace = big.NewInt(1_000_000)

// newResetCode returns a uniformly random 6-digit code.
func newResetCode() (string, error) {
	n, err := rand.Int(rand.Reader, codeSpace)
	if err != nil {
		return "", fmt.Errorf("generate reset code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// digestCode is the stored form of a reset code.
func digestCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

// codeMatches compares code against a stored digest in constant time.
func codeMatches(stored *string, code string) bool {
	if stored == nil || code == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(*stored), []byte(digestCode(code))) == 1
}
