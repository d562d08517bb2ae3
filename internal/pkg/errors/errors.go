// Package errors provides the typed errors shared by the deploy tooling.
package errors

import (
	"errors"
	"fmt"
)

// Error is a coded error. Two errors are equal under errors.Is when their codes match,
// so callers can compare against the sentinels below regardless of message or details.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// Is reports whether target carries the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithDetails returns a copy of the error with additional details.
func (e *Error) WithDetails(details any) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
	}
}

// WithMessage returns a copy of the error with a custom message.
func (e *Error) WithMessage(message string) *Error {
	return &Error{
		Code:    e.Code,
		Message: message,
		Details: e.Details,
	}
}

// Standard error definitions
var (
	// ErrUnsupportedNetwork is returned when a network or chain ID has no configuration.
	ErrUnsupportedNetwork = &Error{
		Code:    "unsupported_network",
		Message: "Network is not supported",
	}

	// ErrMissingParameter is returned when a network's parameter table entry is incomplete.
	ErrMissingParameter = &Error{
		Code:    "missing_parameter",
		Message: "Network parameter is missing",
	}

	// ErrDeploymentNotFound is returned when no deployment record exists for a contract.
	ErrDeploymentNotFound = &Error{
		Code:    "deployment_not_found",
		Message: "Deployment not found",
	}

	// ErrArtifactNotFound is returned when a compiled contract artifact cannot be located.
	ErrArtifactNotFound = &Error{
		Code:    "artifact_not_found",
		Message: "Contract artifact not found",
	}

	// ErrVerificationFailed is returned when the block explorer rejects a verification.
	ErrVerificationFailed = &Error{
		Code:    "verification_failed",
		Message: "Contract verification failed",
	}

	// ErrInvalidConfig is returned when configuration cannot be used as given.
	ErrInvalidConfig = &Error{
		Code:    "invalid_config",
		Message: "Invalid configuration",
	}

	// ErrLocked is returned when another run holds the deploy lock for a network.
	ErrLocked = &Error{
		Code:    "locked",
		Message: "Another deployment is in progress",
	}
)

// NewUnsupportedNetworkError creates an unsupported network error for a name or chain ID.
func NewUnsupportedNetworkError(network any) *Error {
	return &Error{
		Code:    ErrUnsupportedNetwork.Code,
		Message: fmt.Sprintf("network %v is not supported", network),
		Details: map[string]any{"network": network},
	}
}

// NewMissingParameterError creates an error for an unset key in a chain's parameter entry.
func NewMissingParameterError(chainID int64, field string) *Error {
	return &Error{
		Code:    ErrMissingParameter.Code,
		Message: fmt.Sprintf("chain %d: parameter %s is required", chainID, field),
		Details: map[string]any{
			"chain_id": chainID,
			"field":    field,
		},
	}
}

// NewDeploymentNotFoundError creates a not found error for a contract on a network.
func NewDeploymentNotFoundError(network, contract string) *Error {
	return &Error{
		Code:    ErrDeploymentNotFound.Code,
		Message: fmt.Sprintf("no deployment of %s on %s", contract, network),
		Details: map[string]string{
			"network":  network,
			"contract": contract,
		},
	}
}

// NewArtifactNotFoundError creates a not found error for a contract artifact.
func NewArtifactNotFoundError(contract, dir string) *Error {
	return &Error{
		Code:    ErrArtifactNotFound.Code,
		Message: fmt.Sprintf("artifact for %s not found in %s", contract, dir),
		Details: map[string]string{
			"contract": contract,
			"dir":      dir,
		},
	}
}

// NewVerificationError creates a verification error with the explorer's message.
func NewVerificationError(message string) *Error {
	return &Error{
		Code:    ErrVerificationFailed.Code,
		Message: fmt.Sprintf("verification failed: %s", message),
	}
}

// NewInvalidConfigError creates a configuration error for a specific key.
func NewInvalidConfigError(key, message string) *Error {
	return &Error{
		Code:    ErrInvalidConfig.Code,
		Message: fmt.Sprintf("invalid config %s: %s", key, message),
		Details: map[string]string{
			"key":   key,
			"error": message,
		},
	}
}

// IsError checks if an error is, or wraps, an *Error.
func IsError(err error) bool {
	var e *Error
	return errors.As(err, &e)
}

// AsError extracts the *Error from err's chain, or nil if there is none.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return nil
}
