package cryptox

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveKey_Deterministic(t *testing.T) {
	password := []byte("secret-password")
	salt := []byte("fixed-salt")

	key1 := DeriveKey(password, salt)
	key2 := DeriveKey(password, salt)

	if !bytes.Equal(key1, key2) {
		t.Errorf("expected same result for same inputs, got different")
	}

	expectedHex := "34f7a1c64df63ab1ad5b5ee06e64db5713b35f81839823304db63e8e5e6a6a39"
	if hex.EncodeToString(key1) != expectedHex {
		t.Errorf("expected %s, got %s", expectedHex, hex.EncodeToString(key1))
	}
}

func TestDeriveKey_DifferentSalts(t *testing.T) {
	password := []byte("secret-password")
	assert.NotEqual(t, DeriveKey(password, []byte("salt-1")), DeriveKey(password, []byte("salt-2")))
}

func TestHashAndVerifyPassword(t *testing.T) {
	hash, salt := HashPassword("hunter2")
	require.Len(t, salt, SaltSize)
	require.Len(t, hash, keySize)

	assert.True(t, VerifyPassword("hunter2", hash, salt))
	assert.False(t, VerifyPassword("hunter3", hash, salt))
	assert.False(t, VerifyPassword("hunter2", nil, salt))
	assert.False(t, VerifyPassword("hunter2", hash, nil))
}

func TestHashPassword_FreshSalt(t *testing.T) {
	h1, s1 := HashPassword("same")
	h2, s2 := HashPassword("same")
	assert.NotEqual(t, s1, s2)
	assert.NotEqual(t, h1, h2)
}

func TestHashToken(t *testing.T) {
	// sha256("abc")
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", HashToken("abc"))
}

func TestSignAndVerify(t *testing.T) {
	key := []byte("download-key")
	msg := fmt.Sprintf("%s:%d", "file-1", 1700000000)

	sig := Sign(key, msg)
	require.Len(t, sig, 64)

	tests := []struct {
		name string
		key  []byte
		msg  string
		sig  string
		want bool
	}{
		{"valid", key, msg, sig, true},
		{"tampered id", key, "file-2:1700000000", sig, false},
		{"tampered expiry", key, "file-1:1700000001", sig, false},
		{"wrong key", []byte("other"), msg, sig, false},
		{"not hex", key, msg, "zz", false},
		{"empty", key, msg, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, VerifySignature(tt.key, tt.msg, tt.sig))
		})
	}
}
