package jwtutil

import (
	"testing"

	"vendor-service/pkg/config"
)

func TestGenerateAndValidateToken(t *testing.T) {
	Initialize(&config.JWTConfig{
		SigningKey:      "test-signing-key",
		ExpirationHours: 1,
	})

	token, err := GenerateToken("buyer@example.com", 42)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.Email != "buyer@example.com" {
		t.Errorf("Email = %q, want buyer@example.com", claims.Email)
	}
	if claims.UserID != 42 {
		t.Errorf("UserID = %d, want 42", claims.UserID)
	}
}

func TestValidateTokenWithWrongKey(t *testing.T) {
	Initialize(&config.JWTConfig{SigningKey: "key-one", ExpirationHours: 1})
	token, err := GenerateToken("buyer@example.com", 1)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	Initialize(&config.JWTConfig{SigningKey: "key-two", ExpirationHours: 1})
	if _, err := ValidateToken(token); err == nil {
		t.Error("expected validation to fail with a different signing key")
	}
}

func TestValidateGarbageToken(t *testing.T) {
	Initialize(&config.JWTConfig{SigningKey: "test-signing-key", ExpirationHours: 1})
	if _, err := ValidateToken("not.a.token"); err == nil {
		t.Error("expected validation to fail for malformed token")
	}
}
