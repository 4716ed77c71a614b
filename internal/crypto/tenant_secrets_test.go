package crypto

import "testing"

var testKeyHex = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"[:64]

func TestSecretBox_EncryptDecrypt_RoundTrip(t *testing.T) {
	box, err := NewSecretBox(testKeyHex)
	if err != nil {
		t.Fatalf("NewSecretBox failed: %v", err)
	}

	plaintext := "sk_live_supersecretapikey"
	encrypted, err := box.Encrypt(plaintext)
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	if !IsEncrypted(encrypted) {
		t.Errorf("expected IsEncrypted to report true for %q", encrypted)
	}

	decrypted, err := box.Decrypt(encrypted)
	if err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}
	if decrypted != plaintext {
		t.Errorf("got %q, want %q", decrypted, plaintext)
	}
}

func TestSecretBox_Decrypt_RejectsMissingPrefix(t *testing.T) {
	box, err := NewSecretBox(testKeyHex)
	if err != nil {
		t.Fatalf("NewSecretBox failed: %v", err)
	}

	if _, err := box.Decrypt("plaintext value"); err == nil {
		t.Error("expected error for value without enc: prefix")
	}
}

func TestSecretBox_Decrypt_RejectsTamperedCiphertext(t *testing.T) {
	box, err := NewSecretBox(testKeyHex)
	if err != nil {
		t.Fatalf("NewSecretBox failed: %v", err)
	}

	encrypted, err := box.Encrypt("test")
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	tampered := encrypted[:len(encrypted)-5] + "XXXXX"

	if _, err := box.Decrypt(tampered); err == nil {
		t.Error("expected error for tampered ciphertext")
	}
}

func TestSecretBox_DifferentKeys_CannotDecryptEachOther(t *testing.T) {
	boxA, err := NewSecretBox(testKeyHex)
	if err != nil {
		t.Fatalf("NewSecretBox failed: %v", err)
	}
	boxB, err := NewSecretBox("fedcba9876543210fedcba9876543210fedcba9876543210fedcba9876543210")
	if err != nil {
		t.Fatalf("NewSecretBox failed: %v", err)
	}

	encrypted, err := boxA.Encrypt("secret")
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	if _, err := boxB.Decrypt(encrypted); err == nil {
		t.Error("expected decryption under the wrong key to fail")
	}
}

func TestNewSecretBox_RejectsShortKey(t *testing.T) {
	if _, err := NewSecretBox("too-short"); err == nil {
		t.Error("expected error for key shorter than 64 hex characters")
	}
}

func TestGenerateKey_Produces64HexChars(t *testing.T) {
	key, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey failed: %v", err)
	}
	if len(key) != 64 {
		t.Errorf("got key of length %d, want 64", len(key))
	}
	if _, err := NewSecretBox(key); err != nil {
		t.Errorf("generated key should be a valid SecretBox key: %v", err)
	}
}
