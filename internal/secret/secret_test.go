package secret

import "testing"

const testKey = "0123456789abcdef0123456789abcdef"

func TestEncryptDecryptRoundtrip(t *testing.T) {
	c, err := NewCipher(testKey)
	if err != nil {
		t.Fatalf("NewCipher: %v", err)
	}

	ciphertext, err := c.Encrypt("db-password")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if ciphertext == "db-password" {
		t.Fatalf("ciphertext must differ from plaintext")
	}

	plaintext, err := c.Decrypt(ciphertext)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if plaintext != "db-password" {
		t.Fatalf("expected roundtrip, got %q", plaintext)
	}
}

func TestEncrypt_NonDeterministic(t *testing.T) {
	c, err := NewCipher(testKey)
	if err != nil {
		t.Fatalf("NewCipher: %v", err)
	}
	a, _ := c.Encrypt("x")
	b, _ := c.Encrypt("x")
	if a == b {
		t.Fatalf("expected random nonces to vary the ciphertext")
	}
}

func TestNewCipher_ShortKey(t *testing.T) {
	if _, err := NewCipher("too-short"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestDecrypt_Garbage(t *testing.T) {
	c, err := NewCipher(testKey)
	if err != nil {
		t.Fatalf("NewCipher: %v", err)
	}
	if _, err := c.Decrypt("not base64!!"); err == nil {
		t.Fatalf("expected error")
	}
	if _, err := c.Decrypt("YWJj"); err == nil {
		t.Fatalf("expected error for short ciphertext")
	}
}
