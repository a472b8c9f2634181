package auth

import (
	"testing"
	"time"
)

func testTokenConfig() TokenConfig {
	return TokenConfig{Secret: "secret", Expiry: time.Hour, Issuer: "test"}
}

func TestCreateAndVerifyToken(t *testing.T) {
	cfg := testTokenConfig()
	token, err := CreateToken("alice", cfg)
	if err != nil {
		t.Fatalf("CreateToken: %v", err)
	}

	claims, err := VerifyToken(token, cfg)
	if err != nil {
		t.Fatalf("VerifyToken: %v", err)
	}
	if claims.Username != "alice" {
		t.Fatalf("expected username alice, got %q", claims.Username)
	}
	if claims.ID == "" {
		t.Fatalf("expected a token ID")
	}
}

func TestCreateToken_MissingUsername(t *testing.T) {
	if _, err := CreateToken("", testTokenConfig()); err == nil {
		t.Fatalf("expected error")
	}
}

func TestCreateToken_MissingSecret(t *testing.T) {
	cfg := testTokenConfig()
	cfg.Secret = ""
	if _, err := CreateToken("alice", cfg); err == nil {
		t.Fatalf("expected error")
	}
}

func TestVerifyToken_WrongSecret(t *testing.T) {
	token, err := CreateToken("alice", testTokenConfig())
	if err != nil {
		t.Fatalf("CreateToken: %v", err)
	}

	other := testTokenConfig()
	other.Secret = "other"
	if _, err := VerifyToken(token, other); err == nil {
		t.Fatalf("expected verification failure")
	}
}

func TestVerifyToken_Expired(t *testing.T) {
	cfg := testTokenConfig()
	cfg.Expiry = time.Millisecond
	token, err := CreateToken("alice", cfg)
	if err != nil {
		t.Fatalf("CreateToken: %v", err)
	}

	time.Sleep(5 * time.Millisecond)
	if _, err := VerifyToken(token, cfg); err == nil {
		t.Fatalf("expected expired token to fail")
	}
}
