// Package fault defines the failure taxonomy shared by all tempvault components.
//
// Components return typed failures instead of crashing; only the CLI and HTTP
// layers translate them into user-visible notices. Timeout failures are
// treated as transient network conditions and are suppressed from notices.
package fault

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind int

const (
	// Storage covers transaction and connection errors from the local store.
	// Surfaced to the user, operation aborted, no automatic retry.
	Storage Kind = iota

	// Network covers rejected fetches and non-2xx provider responses.
	// Surfaced only when not a timeout; the poll timer is the retry mechanism.
	Network

	// Timeout covers fetches that exceeded their deadline. Suppressed from
	// user notices and treated as a transient network condition.
	Timeout

	// Validation covers malformed import documents and invalid generated
	// emails. Surfaced, operation aborted, nothing partially applied.
	Validation
)

// String returns a short name for the kind.
func (k Kind) String() string {
	switch k {
	case Storage:
		return "storage"
	case Network:
		return "network"
	case Timeout:
		return "timeout"
	case Validation:
		return "validation"
	default:
		return "unknown"
	}
}

// Failure is a typed error carrying the failing operation and its cause.
type Failure struct {
	Kind Kind
	Op   string
	Err  error
}

// New creates a Failure. err may be nil when the operation itself is the
// whole story (e.g. "generated email has no @").
func New(kind Kind, op string, err error) *Failure {
	return &Failure{Kind: kind, Op: op, Err: err}
}

// Errorf creates a Failure with a formatted message and no underlying cause.
func Errorf(kind Kind, format string, args ...interface{}) *Failure {
	return &Failure{Kind: kind, Op: fmt.Sprintf(format, args...)}
}

func (f *Failure) Error() string {
	if f.Err == nil {
		return fmt.Sprintf("%s: %s failure", f.Op, f.Kind)
	}
	return fmt.Sprintf("%s: %s failure: %v", f.Op, f.Kind, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

func is(err error, kind Kind) bool {
	var f *Failure
	return errors.As(err, &f) && f.Kind == kind
}

// IsStorage reports whether err is (or wraps) a storage failure.
func IsStorage(err error) bool { return is(err, Storage) }

// IsNetwork reports whether err is (or wraps) a network failure.
func IsNetwork(err error) bool { return is(err, Network) }

// IsTimeout reports whether err is (or wraps) a timeout failure.
func IsTimeout(err error) bool { return is(err, Timeout) }

// IsValidation reports whether err is (or wraps) a validation failure.
func IsValidation(err error) bool { return is(err, Validation) }
