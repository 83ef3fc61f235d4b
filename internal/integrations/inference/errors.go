package inference

import (
	"errors"
	"fmt"
)

// CredentialKey is the configuration key holding the bearer credential.
const CredentialKey = "GITHUB_TOKEN"

// ConfigError reports a client that cannot be constructed because required
// configuration is missing. It is only ever returned by NewClient.
type ConfigError struct {
	Key    string
	Remedy string
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("%s environment variable is not set.", e.Key)
	if e.Remedy != "" {
		msg += " Please set it with: " + e.Remedy
	}
	return msg
}

func missingCredential() *ConfigError {
	return &ConfigError{
		Key:    CredentialKey,
		Remedy: fmt.Sprintf("export %s='your_token'", CredentialKey),
	}
}

// IsConfigError reports whether err is, or wraps, a *ConfigError.
func IsConfigError(err error) bool {
	var cfgErr *ConfigError
	return errors.As(err, &cfgErr)
}

type ErrorKind string

const (
	KindInvalidInput  ErrorKind = "invalid_input"
	KindTransport     ErrorKind = "transport"
	KindStatus        ErrorKind = "status"
	KindMalformed     ErrorKind = "malformed_response"
	KindEmptyResponse ErrorKind = "empty_response"
	KindUnknown       ErrorKind = "unknown"
)

// Error is a failed completion call. StatusCode is set for KindStatus only.
type Error struct {
	Kind       ErrorKind
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	switch {
	case e.Kind == KindStatus && e.Err != nil:
		return fmt.Sprintf("inference: unexpected status %d: %v", e.StatusCode, e.Err)
	case e.Kind == KindStatus:
		return fmt.Sprintf("inference: unexpected status %d", e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("inference: %s: %v", e.Kind, e.Err)
	default:
		return fmt.Sprintf("inference: %s", e.Kind)
	}
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// HTTPStatusCode returns the upstream status for KindStatus errors and 0 otherwise.
func (e *Error) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

func newError(kind ErrorKind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// KindOf returns the kind of an inference error, or KindUnknown when err does
// not wrap an *Error.
func KindOf(err error) ErrorKind {
	var infErr *Error
	if errors.As(err, &infErr) {
		return infErr.Kind
	}
	return KindUnknown
}
