package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
)

func TestSentinelsMatchByCode(t *testing.T) {
	err := fmt.Errorf("approve: %w", NewInsufficientFunds(map[string]any{"balance": "0.10"}))
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("wrapped error does not match its sentinel")
	}
	if errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("error matched a different code")
	}
}

func TestForbiddenKeepsUnauthorizedCode(t *testing.T) {
	unauthorized := ToDomainError(NewUnauthorized("missing token"))
	forbidden := ToDomainError(NewForbidden("wrong role"))
	if unauthorized.Code != CodeUnauthorized || forbidden.Code != CodeUnauthorized {
		t.Fatalf("codes = %s, %s", unauthorized.Code, forbidden.Code)
	}
	if unauthorized.HTTPStatus != http.StatusUnauthorized || forbidden.HTTPStatus != http.StatusForbidden {
		t.Fatalf("statuses = %d, %d", unauthorized.HTTPStatus, forbidden.HTTPStatus)
	}
}

func TestToDomainError(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		code   string
		status int
	}{
		{"no rows", pgx.ErrNoRows, CodeNotFound, http.StatusNotFound},
		{"plain error", errors.New("boom"), CodeInternal, http.StatusInternalServerError},
		{"sentinel without status", ErrConflict, CodeConflict, http.StatusInternalServerError},
		{"subscription", NewSubscriptionRequired(), CodeSubscriptionRequired, http.StatusPaymentRequired},
		{"transition", NewInvalidTransition("submission", "APPROVED", "REJECTED"), CodeInvalidTransition, http.StatusConflict},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ToDomainError(tc.err)
			if got.Code != tc.code || got.HTTPStatus != tc.status {
				t.Fatalf("got %s/%d, want %s/%d", got.Code, got.HTTPStatus, tc.code, tc.status)
			}
		})
	}
	if ToDomainError(nil) != nil || CodeOf(nil) != "" {
		t.Fatalf("nil error should stay nil")
	}
	if ErrConflict.HTTPStatus != 0 {
		t.Fatalf("sentinel was mutated")
	}
}
