package domain

import "errors"

// RetriableError defines an interface for errors that can be retried
type RetriableError interface {
	error
	IsRetriable() bool
}

// IsRetriable checks if an error is retriable
func IsRetriable(err error) bool {
	var re RetriableError
	if errors.As(err, &re) {
		return re.IsRetriable()
	}
	return false
}

// NetworkError represents a network-related error that may be retriable
type NetworkError struct {
	Op        string // Operation that failed (e.g., "request", "decode")
	Err       error  // Underlying error
	Retriable bool   // Whether this error is retriable
}

func (e *NetworkError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *NetworkError) IsRetriable() bool {
	return e.Retriable
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// NewNetworkError creates a new retriable network error
func NewNetworkError(op string, err error) *NetworkError {
	return &NetworkError{Op: op, Err: err, Retriable: true}
}

// NewFatalNetworkError creates a non-retriable network error
func NewFatalNetworkError(op string, err error) *NetworkError {
	return &NetworkError{Op: op, Err: err, Retriable: false}
}

// APIError represents a structured error response from the backend.
// Message carries the backend's user-facing text when present.
type APIError struct {
	Status  int
	Message string
	Err     error
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return "api error [" + e.Message + "]"
	}
	if e.Err != nil {
		return "api error: " + e.Err.Error()
	}
	return "api error"
}

// IsRetriable is always false: the backend already rejected the request,
// and financial mutations must never be replayed.
func (e *APIError) IsRetriable() bool {
	return false
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// ErrorMessage extracts a user-facing message from an error chain.
// Structured backend errors contribute their message; anything else
// falls back to the provided string.
func ErrorMessage(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

// ConfigError represents a configuration error (never retriable)
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return "config error [" + e.Field + "]: " + e.Err.Error()
}

func (e *ConfigError) IsRetriable() bool {
	return false
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

var (
	// ErrSessionExpired is returned when the backend answers 401. The
	// current-user query reacts by clearing its cache entry and firing the
	// login redirect; nothing retries it.
	ErrSessionExpired = errors.New("session expired")

	// ErrNotFound is returned when a resource does not exist on the backend
	ErrNotFound = errors.New("not found")

	// ErrConnectionFailed is returned when the stream connection fails. Usually retriable.
	ErrConnectionFailed = errors.New("connection failed")

	// ErrConfigNotFound is returned when configuration file is missing
	ErrConfigNotFound = errors.New("configuration not found")
)

// IsSessionExpired checks if an error chain contains a session expiry.
func IsSessionExpired(err error) bool {
	return errors.Is(err, ErrSessionExpired)
}
