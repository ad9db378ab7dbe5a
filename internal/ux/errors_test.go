package ux

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	oaerrors "github.com/felixgeelhaar/oactl/internal/errors"
)

func TestNewErrorWithSuggestion(t *testing.T) {
	if NewErrorWithSuggestion(nil, "x") != nil {
		t.Fatal("nil error should stay nil")
	}

	err := NewErrorWithSuggestion(errors.New("something failed"), "try this fix")
	if !strings.Contains(err.Error(), "something failed") || !strings.Contains(err.Error(), "try this fix") {
		t.Errorf("Error() = %q", err.Error())
	}
	if errors.Unwrap(err).Error() != "something failed" {
		t.Error("Unwrap lost the original error")
	}

	plain := NewErrorWithSuggestion(errors.New("bare"), "")
	if plain.Error() != "bare" {
		t.Errorf("Error() = %q", plain.Error())
	}
}

func TestSuggest(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"unauthorized", oaerrors.New(oaerrors.ErrCodeUnauthorized, "session expired, please log in again"), "oactl login"},
		{"wrapped network", fmt.Errorf("load: %w", oaerrors.New(oaerrors.ErrCodeNetwork, "network error")), "api_url"},
		{"timeout", oaerrors.New(oaerrors.ErrCodeTimeout, "timed out"), "timeout"},
		{"own suggestion wins", oaerrors.New(oaerrors.ErrCodeConfigInvalid, "bad").WithSuggestion("fix the file"), "fix the file"},
		{"client has none", oaerrors.New(oaerrors.ErrCodeClient, "bad input"), ""},
		{"missing file", errors.New("open x: no such file or directory"), "Check the path"},
		{"plain", errors.New("boom"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Suggest(tt.err)
			if tt.want == "" {
				if got != "" {
					t.Errorf("Suggest() = %q, want none", got)
				}
				return
			}
			if !strings.Contains(got, tt.want) {
				t.Errorf("Suggest() = %q, want it to mention %q", got, tt.want)
			}
		})
	}
}

func TestFormatError(t *testing.T) {
	if FormatError(nil, "ctx") != nil {
		t.Fatal("nil error should stay nil")
	}

	base := oaerrors.New(oaerrors.ErrCodeServer, "server unavailable, please try again later")
	err := FormatError(base, "loading staff")
	if !strings.HasPrefix(err.Error(), "loading staff: server unavailable") {
		t.Errorf("Error() = %q", err.Error())
	}
	if !oaerrors.IsKind(err, oaerrors.KindServer) {
		t.Error("kind lost through FormatError")
	}
}

func TestDescribe(t *testing.T) {
	err := oaerrors.New(oaerrors.ErrCodeClient, "request failed, please check your input").
		WithStatus(400).
		WithFields(map[string][]string{"email": {"already taken"}})

	short := Describe(err, false)
	if short != "request failed, please check your input" {
		t.Errorf("Describe(false) = %q", short)
	}

	long := Describe(err, true)
	for _, want := range []string{"[HTTP-004]", "status 400", "email: already taken"} {
		if !strings.Contains(long, want) {
			t.Errorf("Describe(true) missing %q:\n%s", want, long)
		}
	}

	if got := Describe(oaerrors.New(oaerrors.ErrCodeNotLoggedIn, "not logged in"), false); !strings.Contains(got, "oactl login") {
		t.Errorf("Describe() = %q", got)
	}
}
