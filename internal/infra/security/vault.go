// File: internal/infra/security/vault.go
package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

// Vault provides symmetric encryption for provider API keys.
// AES-GCM (AEAD) with a randomly generated nonce per message; the nonce is
// embedded in the encoded output so decryption is self-contained.
type Vault struct {
	gcm cipher.AEAD
}

// NewVault derives the cipher key from the two host-supplied secret seeds
// via SHA-256. Missing seeds are a hard error: the host must supply both.
func NewVault(authSeed, secureSeed string) (*Vault, error) {
	if authSeed == "" || secureSeed == "" {
		return nil, errors.New("vault: both secret seeds are required")
	}
	key := sha256.Sum256([]byte(authSeed + secureSeed))
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("aes.NewCipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cipher.NewGCM: %w", err)
	}
	return &Vault{gcm: gcm}, nil
}

// Encrypt returns base64(nonce || ciphertext). Empty input short-circuits to
// empty output.
func (v *Vault) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	nonce := make([]byte, v.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("rand nonce: %w", err)
	}
	ct := v.gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(ct), nil
}

// Decrypt accepts output of Encrypt and returns the original plaintext.
// Empty and malformed inputs return "" without error: a value that cannot be
// decrypted is treated the same as no stored value.
func (v *Vault) Decrypt(encoded string) (string, error) {
	if encoded == "" {
		return "", nil
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", nil
	}
	ns := v.gcm.NonceSize()
	if len(data) < ns {
		return "", nil
	}
	nonce, ct := data[:ns], data[ns:]
	pt, err := v.gcm.Open(nil, nonce, ct, nil)
	if err != nil {
		return "", nil
	}
	return string(pt), nil
}

// LooksEncrypted is the heuristic used to avoid double-encrypting a value the
// settings surface echoes back: long and base64-alphabet-only.
func LooksEncrypted(value string) bool {
	if len(value) <= 250 {
		return false
	}
	for _, r := range value {
		switch {
		case r >= 'A' && r <= 'Z':
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
		case r == '+' || r == '/' || r == '=':
		default:
			return false
		}
	}
	return true
}
