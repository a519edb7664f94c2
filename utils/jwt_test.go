package utils

import (
	"testing"
	"time"

	"thelocals/config"
)

func TestTokenRoundTrip(t *testing.T) {
	config.AppConfig.JWTSecret = "test-secret"

	token, err := GenerateToken("client-42", "client", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	subject, role, err := ExtractIdentityFromToken(token)
	if err != nil {
		t.Fatalf("ExtractIdentityFromToken failed: %v", err)
	}
	if subject != "client-42" || role != "client" {
		t.Errorf("identity = (%s, %s), want (client-42, client)", subject, role)
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	config.AppConfig.JWTSecret = "test-secret"

	token, err := GenerateToken("client-42", "client", -time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}
	if _, _, err := ExtractIdentityFromToken(token); err == nil {
		t.Error("expired token accepted")
	}
}

func TestTamperedTokenRejected(t *testing.T) {
	config.AppConfig.JWTSecret = "test-secret"

	token, err := GenerateToken("client-42", "provider", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	config.AppConfig.JWTSecret = "another-secret"
	if _, _, err := ExtractIdentityFromToken(token); err == nil {
		t.Error("token signed with a different secret accepted")
	}
}
