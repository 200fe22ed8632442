package call

import "fmt"

// FailureKind classifies why a session entered StateFailed.
type FailureKind int

const (
	// FailureUnknown is an unclassified failure.
	FailureUnknown FailureKind = iota

	// FailurePermission is a microphone permission denial. Requires
	// user action; not retryable automatically.
	FailurePermission

	// FailureCapture is a capture failure other than permission denial.
	FailureCapture

	// FailureSessionStart is a backend session-start failure, either a
	// rejection or an unreachable service.
	FailureSessionStart

	// FailureTransport is a channel failure: the dial failed, a send
	// was refused, or the channel closed unexpectedly.
	FailureTransport

	// FailureProtocol is a malformed or unrecognized protocol message.
	FailureProtocol
)

// String returns the string representation of the kind.
func (k FailureKind) String() string {
	switch k {
	case FailurePermission:
		return "permission"
	case FailureCapture:
		return "capture"
	case FailureSessionStart:
		return "session_start"
	case FailureTransport:
		return "transport"
	case FailureProtocol:
		return "protocol"
	default:
		return "unknown"
	}
}

// Failure is the typed cause carried by a session in StateFailed.
type Failure struct {
	Kind FailureKind
	Err  error
}

// Error implements the error interface.
func (f *Failure) Error() string {
	return fmt.Sprintf("call: %s failure: %v", f.Kind, f.Err)
}

// Unwrap returns the underlying error.
func (f *Failure) Unwrap() error { return f.Err }

// Retryable reports whether Retry can reasonably be offered. Permission
// denials need user action first.
func (f *Failure) Retryable() bool {
	return f.Kind != FailurePermission
}
