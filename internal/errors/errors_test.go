package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeValidation, "missing email")
	if err.Code != ErrCodeValidation {
		t.Errorf("expected code %s, got %s", ErrCodeValidation, err.Code)
	}
	if err.Cause != nil {
		t.Errorf("expected nil cause, got %v", err.Cause)
	}
	if got := err.Error(); got != "[VALIDATION] missing email" {
		t.Errorf("Error() = %q", got)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(ErrCodeIO, "write table", cause)

	if !errors.Is(err, cause) {
		t.Errorf("expected cause to be wrapped")
	}
	if got := err.Error(); got != "[IO] write table: disk full" {
		t.Errorf("Error() = %q", got)
	}
}

func TestWrapWithContext(t *testing.T) {
	err := WrapWithContext(ErrCodeCredential, "assume role", errors.New("denied"), map[string]any{
		"account": "111122223333",
	})
	if err.Context["account"] != "111122223333" {
		t.Errorf("context not preserved: %v", err.Context)
	}
}

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"nil", nil, ""},
		{"plain", errors.New("boom"), ErrCodeInternal},
		{"structured", New(ErrCodeNotification, "send"), ErrCodeNotification},
		{"fmt wrapped", fmt.Errorf("outer: %w", New(ErrCodeIO, "zip")), ErrCodeIO},
		{"outermost wins", Wrap(ErrCodeResolution, "resolve", New(ErrCodeNotFound, "ou")), ErrCodeResolution},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CodeOf(tt.err); got != tt.want {
				t.Errorf("CodeOf() = %q; want %q", got, tt.want)
			}
		})
	}
}

func TestHasCode(t *testing.T) {
	err := fmt.Errorf("run: %w", Wrap(ErrCodeResolution, "resolve scope", New(ErrCodeNotFound, "OU \"Prod\" not found")))

	if !HasCode(err, ErrCodeResolution) {
		t.Error("expected RESOLUTION in chain")
	}
	if !HasCode(err, ErrCodeNotFound) {
		t.Error("expected NOT_FOUND in chain")
	}
	if HasCode(err, ErrCodeIO) {
		t.Error("did not expect IO in chain")
	}
	if HasCode(errors.New("plain"), ErrCodeInternal) {
		t.Error("plain errors carry no code")
	}
}
