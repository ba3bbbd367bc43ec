package providers

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestNetworkError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *NetworkError
		want string
	}{
		{
			name: "with status code",
			err:  &NetworkError{Provider: "openai", StatusCode: 502, Message: "bad gateway"},
			want: `provider "openai" request failed (status 502): bad gateway`,
		},
		{
			name: "transport failure",
			err:  &NetworkError{Provider: "openai", Message: "connection refused"},
			want: `provider "openai" request failed: connection refused`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNetworkError_Unwrap(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := &NetworkError{Provider: "openai", Message: "request failed", Cause: cause}

	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to find the cause")
	}
}

func TestDecodeError_Unwrap(t *testing.T) {
	cause := errors.New("unexpected end of JSON input")
	err := &DecodeError{Provider: "anthropic", RawResponse: "{", Cause: cause}

	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to find the cause")
	}
	if !strings.Contains(err.Error(), "anthropic") {
		t.Errorf("expected provider name in message, got %q", err.Error())
	}
}

func TestConfigError_Error(t *testing.T) {
	procWide := &ConfigError{Field: "OPENAI_API_KEY", Message: "not set"}
	if !strings.Contains(procWide.Error(), "OPENAI_API_KEY") {
		t.Errorf("expected variable name in message, got %q", procWide.Error())
	}

	perProvider := &ConfigError{Provider: "bedrock", Field: "role_arn", Message: "role ARN is required"}
	if !strings.Contains(perProvider.Error(), "bedrock") {
		t.Errorf("expected provider name in message, got %q", perProvider.Error())
	}
}

func TestErrorClassification(t *testing.T) {
	// Wrapped errors must still classify via errors.As at the poll boundary.
	wrapped := fmt.Errorf("fetch failed: %w", &AuthError{Provider: "openai", Message: "invalid key"})

	var authErr *AuthError
	if !errors.As(wrapped, &authErr) {
		t.Fatal("expected errors.As to match *AuthError")
	}
	if authErr.Provider != "openai" {
		t.Errorf("expected provider openai, got %s", authErr.Provider)
	}
}
