package auth

import (
	"errors"
	"testing"
	"time"
)

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}

	if !VerifyPassword("s3cret", hash) {
		t.Error("expected password to verify")
	}
	if VerifyPassword("wrong", hash) {
		t.Error("wrong password verified")
	}
	if VerifyPassword("s3cret", "") {
		t.Error("empty hash must never verify")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	secret := []byte("test-secret")

	token, err := GenerateToken(secret, "dj", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	claims, err := ParseToken(secret, token)
	if err != nil {
		t.Fatalf("ParseToken failed: %v", err)
	}
	if claims.Username != "dj" || claims.Subject != "dj" {
		t.Errorf("unexpected claims %+v", claims)
	}
}

func TestParseTokenRejects(t *testing.T) {
	secret := []byte("test-secret")

	expired, err := GenerateToken(secret, "dj", -time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	other, err := GenerateToken([]byte("other"), "dj", time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{"expired", expired},
		{"wrong secret", other},
		{"garbage", "not.a.token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseToken(secret, tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

func TestGenerateTokenWithoutSecret(t *testing.T) {
	if _, err := GenerateToken(nil, "dj", time.Hour); err == nil {
		t.Error("expected error without secret")
	}
}
