package services

import (
	"errors"
	"fmt"
	"testing"

	"google.golang.org/genai"
)

func TestIsEntityNotFound(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"sentinel", ErrEntityNotFound, true},
		{"wrapped sentinel", fmt.Errorf("step: %w", ErrEntityNotFound), true},
		{"api error", genai.APIError{Code: 404, Message: "Requested entity was not found.", Status: "NOT_FOUND"}, true},
		{"wrapped api error", fmt.Errorf("call: %w", genai.APIError{Code: 404, Message: "Requested entity was not found."}), true},
		{"api error pointer", &genai.APIError{Code: 404, Message: "Requested entity was not found."}, true},
		{"model missing", genai.APIError{Code: 404, Message: "models/foo is not found", Status: "NOT_FOUND"}, false},
		{"plain message", errors.New("rpc error: Requested entity was not found"), true},
		{"other", errors.New("deadline exceeded"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsEntityNotFound(tt.err); got != tt.want {
				t.Errorf("IsEntityNotFound(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestIsCredentialError(t *testing.T) {
	if !IsCredentialError(fmt.Errorf("start: %w", ErrCredentialRequired)) {
		t.Error("Expected wrapped ErrCredentialRequired to be a credential error")
	}
	if IsCredentialError(errors.New("boom")) {
		t.Error("Expected generic error not to be a credential error")
	}
}

func TestKeyRing(t *testing.T) {
	kr := NewKeyRing("  ")
	if kr.HasSelectedKey() {
		t.Fatal("Expected no key for blank seed")
	}
	if err := kr.SelectKey(""); !errors.Is(err, ErrCredentialRequired) {
		t.Errorf("Expected ErrCredentialRequired for empty key, got %v", err)
	}

	if err := kr.SelectKey("k1"); err != nil {
		t.Fatalf("SelectKey failed: %v", err)
	}
	key, v1 := kr.Key()
	if key != "k1" {
		t.Errorf("Expected k1, got %q", key)
	}

	if err := kr.SelectKey("k2"); err != nil {
		t.Fatalf("SelectKey failed: %v", err)
	}
	if kr.Invalidate(v1) {
		t.Error("Invalidate with a stale version must not clear a newer key")
	}
	if !kr.HasSelectedKey() {
		t.Error("Expected k2 to remain selected")
	}

	_, v2 := kr.Key()
	if !kr.Invalidate(v2) {
		t.Error("Expected Invalidate to clear current key")
	}
	if kr.HasSelectedKey() {
		t.Error("Expected no key after Invalidate")
	}
}
