package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeServer, "server unavailable")

	if err.Code != ErrCodeServer {
		t.Errorf("expected code %s, got %s", ErrCodeServer, err.Code)
	}
	if err.Kind != KindServer {
		t.Errorf("expected kind server, got %s", err.Kind)
	}
	if err.Error() != "server unavailable" {
		t.Errorf("Error() should be the bare message, got %q", err.Error())
	}
	if err.Cause != nil {
		t.Errorf("expected nil cause, got %v", err.Cause)
	}
}

func TestWrap(t *testing.T) {
	cause := fmt.Errorf("dial tcp: connection refused")
	err := Wrap(ErrCodeNetwork, "network error", cause)

	if err.Kind != KindNetwork {
		t.Errorf("expected kind network, got %s", err.Kind)
	}
	if !errors.Is(err, cause) {
		t.Errorf("Wrap should support errors.Is")
	}
}

func TestDetail(t *testing.T) {
	err := New(ErrCodeClient, "bad input").
		WithStatus(400).
		WithFields(map[string][]string{"email": {"already used"}, "department": {"required"}}).
		WithSuggestion("check the form")

	detail := err.Detail()
	for _, want := range []string{"[HTTP-004] bad input", "(status 400)", "department: required", "email: already used", "• check the form"} {
		if !strings.Contains(detail, want) {
			t.Errorf("Detail() missing %q in %q", want, detail)
		}
	}
	if strings.Index(detail, "department") > strings.Index(detail, "email") {
		t.Errorf("fields should be sorted by name")
	}
}

func TestChainHelpers(t *testing.T) {
	base := New(ErrCodeUnauthorized, "session expired").WithStatus(401)
	wrapped := fmt.Errorf("load attendances: %w", base)

	if got := KindOf(wrapped); got != KindUnauthorized {
		t.Errorf("KindOf = %s, want unauthorized", got)
	}
	if got := StatusOf(wrapped); got != 401 {
		t.Errorf("StatusOf = %d, want 401", got)
	}
	if !IsKind(wrapped, KindUnauthorized) {
		t.Errorf("IsKind should match through wrapping")
	}
	if IsKind(nil, KindUnknown) {
		t.Errorf("IsKind(nil) should be false")
	}
	if KindOf(fmt.Errorf("plain")) != KindUnknown {
		t.Errorf("plain errors should be unknown")
	}
}

func TestKindRetryable(t *testing.T) {
	tests := []struct {
		kind Kind
		want bool
	}{
		{KindTimeout, false},
		{KindNetwork, true},
		{KindServer, true},
		{KindClient, false},
		{KindUnauthorized, false},
		{KindUnknown, false},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			if got := tt.kind.Retryable(); got != tt.want {
				t.Errorf("Retryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestKindString(t *testing.T) {
	if Kind(999).String() != "unknown" {
		t.Errorf("out-of-range kinds should print as unknown")
	}
	if KindPermission.String() != "permission" {
		t.Errorf("KindPermission.String() = %q", KindPermission.String())
	}
}
