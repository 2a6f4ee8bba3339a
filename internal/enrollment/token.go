package enrollment

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"strings"
)

const tokenPrefix = "dl_"

// NewToken issues a capability token. The plaintext is shown exactly once;
// only its hash and last four characters are ever persisted.
func NewToken() (plain, hash, last4 string, err error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", "", err
	}
	plain = tokenPrefix + base64.RawURLEncoding.EncodeToString(buf)
	return plain, HashToken(plain), plain[len(plain)-4:], nil
}

// HashToken derives the stored lookup key from a plaintext token.
func HashToken(plain string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(plain)))
	return hex.EncodeToString(sum[:])
}
