package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestWrapKeepsSentinelIdentity(t *testing.T) {
	cause := fmt.Errorf("connection reset")
	err := Wrap(ErrInternalServer, cause)

	if !errors.Is(err, ErrInternalServer) {
		t.Error("wrapped error should match its sentinel")
	}
	if !errors.Is(err, cause) {
		t.Error("wrapped error should unwrap to its cause")
	}
	if err.Message != ErrInternalServer.Message {
		t.Errorf("internal details must not leak into the message, got %q", err.Message)
	}
}

func TestWithMessage(t *testing.T) {
	err := WithMessage(ErrInvalidInput, "amount must be positive")

	if err.Message != "amount must be positive" {
		t.Errorf("unexpected message %q", err.Message)
	}
	if err.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", err.StatusCode)
	}
	if !errors.Is(err, ErrInvalidInput) {
		t.Error("custom message should still match the sentinel")
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("should not match an unrelated sentinel")
	}
}

func TestAsThroughFmtWrap(t *testing.T) {
	err := fmt.Errorf("create transaction: %w", ErrSameAccountTransfer)

	var appErr *AppError
	if !errors.As(err, &appErr) {
		t.Fatal("expected errors.As to find the AppError")
	}
	if appErr.Code != "SAME_ACCOUNT_TRANSFER" {
		t.Errorf("unexpected code %s", appErr.Code)
	}
}
