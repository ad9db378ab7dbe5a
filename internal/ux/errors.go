package ux

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/oactl/internal/errors"
)

// ErrorWithSuggestion wraps an error with helpful recovery suggestions
type ErrorWithSuggestion struct {
	Err        error
	Suggestion string
}

func (e *ErrorWithSuggestion) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%v\n\n💡 Suggestion: %s", e.Err, e.Suggestion)
	}
	return e.Err.Error()
}

func (e *ErrorWithSuggestion) Unwrap() error {
	return e.Err
}

// NewErrorWithSuggestion creates a new error with a suggestion
func NewErrorWithSuggestion(err error, suggestion string) error {
	if err == nil {
		return nil
	}
	return &ErrorWithSuggestion{
		Err:        err,
		Suggestion: suggestion,
	}
}

// Suggest returns the recovery hint for err, or "".
// Suggestions carried on the error itself take precedence.
func Suggest(err error) string {
	if err == nil {
		return ""
	}
	if oaErr, ok := errors.As(err); ok {
		if len(oaErr.Suggestions) > 0 {
			return strings.Join(oaErr.Suggestions, "; ")
		}
		switch oaErr.Kind {
		case errors.KindUnauthorized, errors.KindSession:
			return "Log in again with 'oactl login'"
		case errors.KindNetwork:
			return "Check that the backend is running and 'oactl config get api_url' points at it"
		case errors.KindTimeout:
			return "Raise the timeout with 'oactl config set timeout 10s' or retry later"
		case errors.KindServer:
			return "The backend reported an internal error; retry later or contact an administrator"
		case errors.KindPermission:
			return "Ask a department leader or administrator to perform this action"
		case errors.KindStorage:
			return "Check permissions on ~/.oactl or switch backends with 'oactl config set storage.backend memory'"
		case errors.KindConfig:
			return "Inspect the configuration with 'oactl config show'"
		}
		return ""
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "no such file or directory"):
		return "Check the path and try again"
	case strings.Contains(msg, "permission denied"):
		return "Check file permissions and ensure you have access to the required files/directories"
	}
	return ""
}

// EnhanceError attaches a suggestion when one is known.
func EnhanceError(err error) error {
	if s := Suggest(err); s != "" {
		return NewErrorWithSuggestion(err, s)
	}
	return err
}

// FormatError provides consistent error formatting with context
func FormatError(err error, context string) error {
	if err == nil {
		return nil
	}

	enhanced := EnhanceError(err)
	if context != "" {
		return fmt.Errorf("%s: %w", context, enhanced)
	}
	return enhanced
}

// Describe renders err for stderr. Verbose output includes the error code,
// status, field messages and cause.
func Describe(err error, verbose bool) string {
	if err == nil {
		return ""
	}
	if oaErr, ok := errors.As(err); ok && verbose {
		return oaErr.Detail()
	}
	if s := Suggest(err); s != "" {
		return fmt.Sprintf("%v\n\n💡 Suggestion: %s", err, s)
	}
	return err.Error()
}
