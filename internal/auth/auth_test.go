package auth

import (
	"errors"
	"strings"
	"testing"

	"github.com/spec-kit/engagement-marketplace/internal/domain"
	apperrors "github.com/spec-kit/engagement-marketplace/pkg/util/errorutil"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", "marketplace", 5)
	token, exp, err := tm.GenerateToken("user-1", domain.RoleAdmin)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if exp.IsZero() {
		t.Fatalf("expiry not set")
	}
	claims, err := tm.ParseToken(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID() != "user-1" || claims.Role != domain.RoleAdmin || claims.Issuer != "marketplace" {
		t.Errorf("unexpected claims: %+v", claims)
	}
}

func TestTokenRejectsForeignSecret(t *testing.T) {
	token, _, _ := NewTokenManager("one", "m", 5).GenerateToken("user-1", domain.RoleEngager)
	if _, err := NewTokenManager("two", "m", 5).ParseToken(token); err == nil {
		t.Fatalf("token signed with another secret was accepted")
	}
	if _, err := NewTokenManager("one", "m", 5).ParseToken(token + "x"); err == nil {
		t.Fatalf("tampered token was accepted")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse", 4)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if err := ComparePassword(hash, "correct horse"); err != nil {
		t.Errorf("matching password rejected: %v", err)
	}
	if err := ComparePassword(hash, "wrong horse"); err == nil {
		t.Errorf("wrong password accepted")
	}
}

func TestValidatePassword(t *testing.T) {
	if err := ValidatePassword("short"); !errors.Is(err, apperrors.ErrValidation) {
		t.Errorf("short password: %v", err)
	}
	if err := ValidatePassword(strings.Repeat("a", 73)); !errors.Is(err, apperrors.ErrValidation) {
		t.Errorf("long password: %v", err)
	}
	if err := ValidatePassword("long enough"); err != nil {
		t.Errorf("valid password: %v", err)
	}
}
