package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

const testSecret = "test-secret-at-least-32-chars-long!!"

func TestJWTManager_RoundTrip(t *testing.T) {
	t.Parallel()

	m := NewJWTManager(testSecret, "blvq", 15*time.Minute)
	userID := uuid.New()

	token, err := m.GenerateAccessToken(userID, "admin")
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}

	gotID, gotRole, err := m.ValidateAccessToken(token)
	if err != nil {
		t.Fatalf("ValidateAccessToken: %v", err)
	}
	if gotID != userID {
		t.Errorf("user ID mismatch: got %s, want %s", gotID, userID)
	}
	if gotRole != "admin" {
		t.Errorf("role mismatch: got %q, want admin", gotRole)
	}
}

func TestJWTManager_ExpiredToken(t *testing.T) {
	t.Parallel()

	m := NewJWTManager(testSecret, "blvq", -time.Minute)

	token, err := m.GenerateAccessToken(uuid.New(), "admin")
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}

	if _, _, err := m.ValidateAccessToken(token); err == nil {
		t.Fatal("expected error for expired token")
	}
}

func TestJWTManager_WrongSecret(t *testing.T) {
	t.Parallel()

	m1 := NewJWTManager(testSecret, "blvq", 15*time.Minute)
	m2 := NewJWTManager(strings.Repeat("x", 32), "blvq", 15*time.Minute)

	token, err := m1.GenerateAccessToken(uuid.New(), "admin")
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}

	if _, _, err := m2.ValidateAccessToken(token); err == nil {
		t.Fatal("expected error for wrong secret")
	}
}

func TestJWTManager_WrongIssuer(t *testing.T) {
	t.Parallel()

	m1 := NewJWTManager(testSecret, "other-service", 15*time.Minute)
	m2 := NewJWTManager(testSecret, "blvq", 15*time.Minute)

	token, err := m1.GenerateAccessToken(uuid.New(), "admin")
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}

	if _, _, err := m2.ValidateAccessToken(token); err == nil {
		t.Fatal("expected error for wrong issuer")
	}
}

func TestJWTManager_EmptyToken(t *testing.T) {
	t.Parallel()

	m := NewJWTManager(testSecret, "blvq", 15*time.Minute)
	if _, _, err := m.ValidateAccessToken(""); err == nil {
		t.Fatal("expected error for empty token")
	}
}

func TestHashPassword_RoundTrip(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("s3cret", 4)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}

	if !CheckPassword(hash, "s3cret") {
		t.Error("correct password rejected")
	}
	if CheckPassword(hash, "wrong") {
		t.Error("wrong password accepted")
	}
}
