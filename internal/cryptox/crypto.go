// Package cryptox holds the small set of primitives the portal relies on:
// argon2id password hashing, sha256 token digests and HMAC-SHA256 link
// signatures.
package cryptox

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"

	"github.com/dmitrijs2005/studioportal/internal/common"
	"golang.org/x/crypto/argon2"
)

const (
	SaltSize = 16
	keySize  = 32
)

// DeriveKey stretches password with salt using argon2id.
func DeriveKey(password []byte, salt []byte) []byte {
	return argon2.IDKey(password, salt, 1, 64*1024, 4, keySize)
}

// HashPassword returns a fresh random salt and the argon2id hash of password.
func HashPassword(password string) (hash, salt []byte) {
	salt = common.GenerateRandByteArray(SaltSize)
	hash = DeriveKey([]byte(password), salt)
	return hash, salt
}

// VerifyPassword compares candidate against the stored hash in constant time.
func VerifyPassword(candidate string, hash, salt []byte) bool {
	if len(hash) == 0 || len(salt) == 0 {
		return false
	}
	derived := DeriveKey([]byte(candidate), salt)
	defer common.WipeByteArray(derived)
	return subtle.ConstantTimeCompare(derived, hash) == 1
}

// HashToken returns the hex sha256 digest of a bearer token. Only digests
// are persisted for magic links.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Sign returns hex(HMAC-SHA256(key, message)).
func Sign(key []byte, message string) string {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(message))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a hex signature produced by Sign. Malformed hex is
// treated as a mismatch.
func VerifySignature(key []byte, message, signature string) bool {
	got, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(message))
	return hmac.Equal(got, mac.Sum(nil))
}
