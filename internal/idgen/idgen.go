// Package idgen provides cryptographically random identifier generation.
package idgen

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
)

const (
	tokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	codeAlphabet  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// New generates a UUID-like random ID (32 hex chars with dashes).
// Format: xxxxxxxx-xxxx-xxxx-xxxx-xxxxxxxxxxxx
func New() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		panic("crypto/rand failed: " + err.Error())
	}
	return fmt.Sprintf("%x-%x-%x-%x-%x", b[0:4], b[4:6], b[6:8], b[8:10], b[10:])
}

// WithPrefix generates a random ID with a prefix (e.g. "ct_", "pay_", "cmt_").
// Result is prefix + 24 hex chars (12 random bytes).
func WithPrefix(prefix string) string {
	b := make([]byte, 12)
	if _, err := rand.Read(b); err != nil {
		panic("crypto/rand failed: " + err.Error())
	}
	return prefix + hex.EncodeToString(b)
}

// Token generates an unguessable alphanumeric token of the given length.
// Used for contract link tokens shared with external parties.
func Token(length int) string {
	return fromAlphabet(tokenAlphabet, length)
}

// Code generates an uppercase alphanumeric code of the given length.
// Used for human-readable signature confirmation codes.
func Code(length int) string {
	return fromAlphabet(codeAlphabet, length)
}

func fromAlphabet(alphabet string, length int) string {
	out := make([]byte, length)
	max := big.NewInt(int64(len(alphabet)))
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic("crypto/rand failed: " + err.Error())
		}
		out[i] = alphabet[n.Int64()]
	}
	return string(out)
}
