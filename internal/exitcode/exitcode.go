package exitcode

import (
	"os"
	"strings"

	"github.com/felixgeelhaar/oactl/internal/errors"
)

// Exit codes for consistent error handling across the CLI
const (
	// Success indicates successful execution
	Success = 0

	// GeneralError indicates a general error condition
	GeneralError = 1

	// UsageError indicates invalid command usage or rejected input
	UsageError = 2

	// AuthError indicates a missing, rejected or expired session
	AuthError = 5

	// NetworkError indicates the backend could not be reached or failed
	NetworkError = 6

	// PermissionDenied indicates the session user lacks the required role
	PermissionDenied = 7

	// Interrupted indicates the user stopped the command with a signal
	Interrupted = 130
)

// Exit terminates the program with the given exit code
func Exit(code int) {
	os.Exit(code)
}

// ExitWithError exits with an appropriate code based on error type
func ExitWithError(err error) {
	if err == nil {
		Exit(Success)
		return
	}

	Exit(DetermineExitCode(err))
}

// DetermineExitCode maps the error's kind to an exit code. Errors from outside
// the project taxonomy (cobra usage errors) fall back to message inspection.
func DetermineExitCode(err error) int {
	if err == nil {
		return Success
	}

	if _, ok := errors.As(err); ok {
		switch errors.KindOf(err) {
		case errors.KindUnauthorized, errors.KindSession:
			return AuthError
		case errors.KindTimeout, errors.KindNetwork, errors.KindServer:
			return NetworkError
		case errors.KindValidation:
			return UsageError
		case errors.KindPermission:
			return PermissionDenied
		default:
			return GeneralError
		}
	}

	errMsg := strings.ToLower(err.Error())
	if strings.Contains(errMsg, "unknown flag") || strings.Contains(errMsg, "unknown command") {
		return UsageError
	}
	if strings.Contains(errMsg, "required flag") || strings.Contains(errMsg, "accepts ") {
		return UsageError
	}

	return GeneralError
}

// GetExitCodeDescription returns a human-readable description of an exit code
func GetExitCodeDescription(code int) string {
	switch code {
	case Success:
		return "Success"
	case GeneralError:
		return "General error"
	case UsageError:
		return "Usage error (invalid flags, arguments or input)"
	case AuthError:
		return "Authentication error"
	case NetworkError:
		return "Network error"
	case PermissionDenied:
		return "Permission denied"
	default:
		return "Unknown error"
	}
}
