package auth

import (
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

const testUserID = "a3f1c9e0-7b2d-4f6e-8a1c-5d9e3b7f2a10"

func signToken(t *testing.T, secret, subject, email string, expiresIn time.Duration) string {
	t.Helper()

	now := time.Now().UTC()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   subject,
		"email": email,
		"iat":   now.Unix(),
		"exp":   now.Add(expiresIn).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestParseAccessToken(t *testing.T) {
	verifier := NewVerifier("project-secret")
	raw := signToken(t, "project-secret", testUserID, "listener@example.com", time.Hour)

	claims, err := verifier.ParseAccessToken(raw)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.UserID != testUserID {
		t.Fatalf("unexpected user id: %q", claims.UserID)
	}
	if claims.Email != "listener@example.com" {
		t.Fatalf("unexpected email: %q", claims.Email)
	}
}

func TestParseAccessTokenRejectsWrongSecret(t *testing.T) {
	verifier := NewVerifier("project-secret")
	raw := signToken(t, "another-secret", testUserID, "listener@example.com", time.Hour)

	if _, err := verifier.ParseAccessToken(raw); err != ErrUnauthorized {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestParseAccessTokenRejectsExpired(t *testing.T) {
	verifier := NewVerifier("project-secret")
	raw := signToken(t, "project-secret", testUserID, "listener@example.com", -time.Minute)

	if _, err := verifier.ParseAccessToken(raw); err != ErrUnauthorized {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestParseAccessTokenRejectsNonUUIDSubject(t *testing.T) {
	verifier := NewVerifier("project-secret")
	raw := signToken(t, "project-secret", "user-42", "listener@example.com", time.Hour)

	if _, err := verifier.ParseAccessToken(raw); err != ErrUnauthorized {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestParseAccessTokenRejectsEmpty(t *testing.T) {
	verifier := NewVerifier("project-secret")

	if _, err := verifier.ParseAccessToken(""); err != ErrUnauthorized {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}
