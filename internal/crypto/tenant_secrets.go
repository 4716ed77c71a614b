// Package crypto encrypts tenant configuration values at rest.
// Tenant configuration is modeled as a string->string map; any entry
// that looks like a credential (API key, SMTP password, webhook
// secret) is stored as ciphertext, never plaintext, in the catalog
// schema.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
)

const encryptedPrefix = "enc:"

// SecretBox encrypts and decrypts tenant config values with
// AES-256-GCM under a single key. Ciphertext carries no key version,
// so a value sealed under a different key fails to decrypt here.
type SecretBox struct {
	key [32]byte
}

// NewSecretBox builds a SecretBox from a 32-byte key, hex-encoded (64
// characters).
func NewSecretBox(keyHex string) (*SecretBox, error) {
	if len(keyHex) != 64 {
		return nil, fmt.Errorf("crypto: key must be 32 bytes (64 hex characters), got %d chars", len(keyHex))
	}

	var key [32]byte
	n, err := hex.Decode(key[:], []byte(keyHex))
	if err != nil {
		return nil, fmt.Errorf("crypto: invalid key hex: %w", err)
	}
	if n != 32 {
		return nil, fmt.Errorf("crypto: key decoded to %d bytes, want 32", n)
	}

	return &SecretBox{key: key}, nil
}

// Encrypt returns plaintext sealed with a fresh random nonce,
// base64-encoded and prefixed so IsEncrypted and Decrypt can
// recognize ciphertext produced by this package.
func (b *SecretBox) Encrypt(plaintext string) (string, error) {
	gcm, err := b.gcm()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("crypto: generate nonce: %w", err)
	}

	ciphertext := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return encryptedPrefix + base64.StdEncoding.EncodeToString(ciphertext), nil
}

// Decrypt reverses Encrypt. It rejects input without the encrypted
// prefix so plaintext accidentally passed in is never silently
// "decrypted" into garbage.
func (b *SecretBox) Decrypt(encoded string) (string, error) {
	if len(encoded) < len(encryptedPrefix) || encoded[:len(encryptedPrefix)] != encryptedPrefix {
		return "", fmt.Errorf("crypto: missing %q prefix", encryptedPrefix)
	}

	ciphertext, err := base64.StdEncoding.DecodeString(encoded[len(encryptedPrefix):])
	if err != nil {
		return "", fmt.Errorf("crypto: invalid base64: %w", err)
	}

	gcm, err := b.gcm()
	if err != nil {
		return "", err
	}

	nonceSize := gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return "", fmt.Errorf("crypto: ciphertext shorter than nonce, likely corrupt")
	}

	nonce, sealed := ciphertext[:nonceSize], ciphertext[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("crypto: decryption failed (wrong key or tampered data): %w", err)
	}
	return string(plaintext), nil
}

func (b *SecretBox) gcm() (cipher.AEAD, error) {
	block, err := aes.NewCipher(b.key[:])
	if err != nil {
		return nil, fmt.Errorf("crypto: new cipher: %w", err)
	}
	return cipher.NewGCM(block)
}

// IsEncrypted reports whether value already carries the ciphertext
// prefix, so callers can skip re-encrypting an already-sealed value.
func IsEncrypted(value string) bool {
	return len(value) >= len(encryptedPrefix) && value[:len(encryptedPrefix)] == encryptedPrefix
}

// GenerateKey produces a fresh random 32-byte key, hex-encoded, for
// provisioning a new key version.
func GenerateKey() (string, error) {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return "", fmt.Errorf("crypto: generate key: %w", err)
	}
	return hex.EncodeToString(key), nil
}
