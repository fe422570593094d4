// Package secret hashes and verifies credentials and other values that must
// never be stored in plaintext.
package secret

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// Cost is the bcrypt work factor. Tests lower it.
var Cost = bcrypt.DefaultCost

var (
	placeholderOnce sync.Once
	placeholder     string
)

// prehash folds arbitrarily long input under bcrypt's 72 byte limit.
func prehash(plain string) []byte {
	sum := sha256.Sum256([]byte(plain))
	out := make([]byte, base64.StdEncoding.EncodedLen(len(sum)))
	base64.StdEncoding.Encode(out, sum[:])
	return out
}

// Hash returns a salted hash of plain.
func Hash(plain string) (string, error) {
	h, err := bcrypt.GenerateFromPassword(prehash(plain), Cost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// Verify reports whether plain matches hash.
func Verify(hash, plain string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), prehash(plain)) == nil
}

// Placeholder returns a process-wide hash of a random value. Verifying
// against it costs as much as checking a real credential.
func Placeholder() string {
	placeholderOnce.Do(func() {
		seed := make([]byte, 32)
		if _, err := rand.Read(seed); err != nil {
			return
		}
		placeholder, _ = Hash(base64.StdEncoding.EncodeToString(seed))
	})
	return placeholder
}
