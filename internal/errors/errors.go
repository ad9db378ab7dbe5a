package errors

import (
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
)

// ErrorCode represents a unique error identifier
type ErrorCode string

// Error categories
const (
	// Transport errors (HTTP-001 to HTTP-099)
	ErrCodeTimeout ErrorCode = "HTTP-001"
	ErrCodeNetwork ErrorCode = "HTTP-002"
	ErrCodeServer  ErrorCode = "HTTP-003"
	ErrCodeClient  ErrorCode = "HTTP-004"
	ErrCodeUnknown ErrorCode = "HTTP-005"
	ErrCodeDecode  ErrorCode = "HTTP-006"

	// Authentication errors (AUTH-001 to AUTH-099)
	ErrCodeUnauthorized   ErrorCode = "AUTH-001"
	ErrCodeNotLoggedIn    ErrorCode = "AUTH-002"
	ErrCodeTokenMalformed ErrorCode = "AUTH-003"

	// Durable storage errors (STORE-001 to STORE-099)
	ErrCodeStorageRead    ErrorCode = "STORE-001"
	ErrCodeStorageWrite   ErrorCode = "STORE-002"
	ErrCodeStorageCorrupt ErrorCode = "STORE-003"

	// Routing errors (ROUTE-001 to ROUTE-099)
	ErrCodePermissionDenied ErrorCode = "ROUTE-001"
	ErrCodeRouteNotFound    ErrorCode = "ROUTE-002"

	// Input errors (INPUT-001 to INPUT-099)
	ErrCodeValidation ErrorCode = "INPUT-001"
	ErrCodeCancelled  ErrorCode = "INPUT-002"

	// Configuration errors (CFG-001 to CFG-099)
	ErrCodeConfigInvalid ErrorCode = "CFG-001"
	ErrCodeConfigIO      ErrorCode = "CFG-002"
)

// Kind is the coarse class of a failure. Callers branch on Kind, never on message text.
type Kind int

const (
	KindUnknown Kind = iota
	KindTimeout
	KindNetwork
	KindServer
	KindClient
	KindUnauthorized
	KindValidation
	KindPermission
	KindSession
	KindStorage
	KindConfig
	KindCancelled
)

var kindNames = map[Kind]string{
	KindUnknown:      "unknown",
	KindTimeout:      "timeout",
	KindNetwork:      "network",
	KindServer:       "server",
	KindClient:       "client",
	KindUnauthorized: "unauthorized",
	KindValidation:   "validation",
	KindPermission:   "permission",
	KindSession:      "session",
	KindStorage:      "storage",
	KindConfig:       "config",
	KindCancelled:    "cancelled",
}

// String returns the lowercase name of the kind
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Retryable reports whether a request that failed with this kind may succeed if repeated.
// Timeouts are final: the configured timeout bounds the whole request.
func (k Kind) Retryable() bool {
	return k == KindNetwork || k == KindServer
}

var codeKinds = map[ErrorCode]Kind{
	ErrCodeTimeout:          KindTimeout,
	ErrCodeNetwork:          KindNetwork,
	ErrCodeServer:           KindServer,
	ErrCodeClient:           KindClient,
	ErrCodeUnknown:          KindUnknown,
	ErrCodeDecode:           KindUnknown,
	ErrCodeUnauthorized:     KindUnauthorized,
	ErrCodeNotLoggedIn:      KindSession,
	ErrCodeTokenMalformed:   KindSession,
	ErrCodeStorageRead:      KindStorage,
	ErrCodeStorageWrite:     KindStorage,
	ErrCodeStorageCorrupt:   KindStorage,
	ErrCodePermissionDenied: KindPermission,
	ErrCodeRouteNotFound:    KindClient,
	ErrCodeValidation:       KindValidation,
	ErrCodeCancelled:        KindCancelled,
	ErrCodeConfigInvalid:    KindConfig,
	ErrCodeConfigIO:         KindConfig,
}

// OAError is the normalized error every layer above the HTTP client receives.
// Error() returns Message alone so it can be shown to the user verbatim.
type OAError struct {
	Code        ErrorCode
	Kind        Kind
	Message     string
	Status      int
	Fields      map[string][]string
	Body        []byte
	Suggestions []string
	Cause       error
}

// Error implements the error interface
func (e *OAError) Error() string {
	return e.Message
}

// Unwrap implements error unwrapping for errors.Is and errors.As
func (e *OAError) Unwrap() error {
	return e.Cause
}

// Detail renders the code, message, cause and suggestions for verbose output.
func (e *OAError) Detail() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))
	if e.Status != 0 {
		b.WriteString(fmt.Sprintf(" (status %d)", e.Status))
	}
	if e.Cause != nil {
		b.WriteString(fmt.Sprintf(": %v", e.Cause))
	}

	if len(e.Fields) > 0 {
		names := make([]string, 0, len(e.Fields))
		for name := range e.Fields {
			names = append(names, name)
		}
		sort.Strings(names)
		b.WriteString("\n\nFields:")
		for _, name := range names {
			b.WriteString(fmt.Sprintf("\n  %s: %s", name, strings.Join(e.Fields[name], ", ")))
		}
	}

	if len(e.Suggestions) > 0 {
		b.WriteString("\n\nSuggestions:")
		for _, suggestion := range e.Suggestions {
			b.WriteString(fmt.Sprintf("\n  • %s", suggestion))
		}
	}

	return b.String()
}

// New creates a new OAError
func New(code ErrorCode, message string) *OAError {
	return &OAError{
		Code:    code,
		Kind:    codeKinds[code],
		Message: message,
	}
}

// Wrap creates a new OAError wrapping an existing error
func Wrap(code ErrorCode, message string, cause error) *OAError {
	e := New(code, message)
	e.Cause = cause
	return e
}

// Newf creates a new OAError with a formatted message
func Newf(code ErrorCode, format string, args ...any) *OAError {
	return New(code, fmt.Sprintf(format, args...))
}

// WithStatus records the HTTP status that produced the error
func (e *OAError) WithStatus(status int) *OAError {
	e.Status = status
	return e
}

// WithFields attaches field-level validation messages
func (e *OAError) WithFields(fields map[string][]string) *OAError {
	e.Fields = fields
	return e
}

// WithBody keeps the raw response body for callers that inspect it further
func (e *OAError) WithBody(body []byte) *OAError {
	e.Body = body
	return e
}

// WithSuggestion adds a suggestion to the error
func (e *OAError) WithSuggestion(suggestion string) *OAError {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

// WithSuggestions adds multiple suggestions to the error
func (e *OAError) WithSuggestions(suggestions ...string) *OAError {
	e.Suggestions = append(e.Suggestions, suggestions...)
	return e
}

// As returns the first OAError in err's chain.
func As(err error) (*OAError, bool) {
	var oaErr *OAError
	if stderrors.As(err, &oaErr) {
		return oaErr, true
	}
	return nil, false
}

// KindOf returns the kind of the first OAError in err's chain, or KindUnknown.
func KindOf(err error) Kind {
	if oaErr, ok := As(err); ok {
		return oaErr.Kind
	}
	return KindUnknown
}

// StatusOf returns the HTTP status recorded on err, or 0.
func StatusOf(err error) int {
	if oaErr, ok := As(err); ok {
		return oaErr.Status
	}
	return 0
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
