package httpkit

import "crypto/subtle"

// SecureCompare performs a constant-time comparison of two strings, for use
// on anything that must not leak timing information: raw refresh tokens,
// CSRF tokens, HMAC signatures.
func SecureCompare(provided, expected string) bool {
	return subtle.ConstantTimeCompare([]byte(provided), []byte(expected)) == 1
}
