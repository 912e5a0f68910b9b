package types

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConfig means required configuration or input is missing or invalid. Never retried.
	ErrConfig = errors.New("configuration error")
	// ErrAuth means the credential exchange was rejected by the provider.
	ErrAuth = errors.New("authentication error")
	// ErrUpstream means a vendor endpoint answered with a non-success status or an unparseable body,
	// or could not be reached at all.
	ErrUpstream = errors.New("upstream error")
	// ErrStorage means the durable state could not be read or written.
	ErrStorage = errors.New("storage error")

	ErrNotFound       = errors.New("not found")
	ErrEmptyInventory = errors.New("inventory query returned no service entries")
)

func Err(typedError error, innerErr error, msgTemplate string, args ...any) error {
	if msgTemplate == "" {
		return errors.Join(typedError, innerErr)
	} else {
		return errors.Join(typedError, innerErr, fmt.Errorf(msgTemplate, args...))
	}
}

// MissingErr returns an ErrConfig naming every missing key, or nil when none are missing.
func MissingErr(op string, missing []string) error {
	if len(missing) == 0 {
		return nil
	}
	return Err(ErrConfig, nil, "%s: missing required values: %s", op, strings.Join(missing, ", "))
}

// maxErrorBody caps how much of a vendor response body is kept on an UpstreamError.
const maxErrorBody = 2048

// UpstreamError is returned when a vendor endpoint answers with a non-success status or a body
// that can't be decoded. It matches ErrUpstream under errors.Is.
type UpstreamError struct {
	Op         string
	StatusCode int
	Body       string
	Cause      error
}

func NewUpstreamError(op string, statusCode int, body []byte, cause error) *UpstreamError {
	b := string(body)
	if len(b) > maxErrorBody {
		b = b[:maxErrorBody] + "...(truncated)"
	}
	return &UpstreamError{Op: op, StatusCode: statusCode, Body: b, Cause: cause}
}

func (e *UpstreamError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: status %d: %v: %s", e.Op, e.StatusCode, e.Cause, e.Body)
	}
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Op, e.StatusCode, e.Body)
}

func (e *UpstreamError) Unwrap() []error {
	if e.Cause != nil {
		return []error{ErrUpstream, e.Cause}
	}
	return []error{ErrUpstream}
}
