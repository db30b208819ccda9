package assistant

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrorKind tags a failed generation call for diagnostics. It is never shown
// to the end user.
type ErrorKind string

const (
	KindAuth          ErrorKind = "auth"
	KindTimeout       ErrorKind = "timeout"
	KindNetwork       ErrorKind = "network"
	KindEmptyResponse ErrorKind = "empty_response"
	KindProvider      ErrorKind = "provider"
)

var (
	ErrMissingCredential = errors.New("provider credential not configured")
	ErrEmptyResponse     = errors.New("provider returned no usable text")
)

// ProviderError wraps a generation failure with its kind
type ProviderError struct {
	Kind     ErrorKind
	Provider string
	Err      error
}

func NewProviderError(kind ErrorKind, provider string, err error) *ProviderError {
	return &ProviderError{Kind: kind, Provider: provider, Err: err}
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s provider failed (%s): %v", e.Provider, e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Classify returns the kind of a generation failure, or "" for a nil error
func Classify(err error) ErrorKind {
	if err == nil {
		return ""
	}

	var providerErr *ProviderError
	if errors.As(err, &providerErr) {
		return providerErr.Kind
	}

	switch {
	case errors.Is(err, ErrMissingCredential):
		return KindAuth
	case errors.Is(err, ErrEmptyResponse):
		return KindEmptyResponse
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return KindTimeout
		}
		return KindNetwork
	}

	return KindProvider
}
