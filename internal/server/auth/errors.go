package auth

import "fmt"

// Reason classifies why a request gate refused a request.
type Reason int

const (
	ReasonMissingHeader Reason = iota + 1
	ReasonMalformedHeader
	ReasonInvalidToken
	ReasonInsufficientRole
)

func (r Reason) String() string {
	switch r {
	case ReasonMissingHeader:
		return "missing_header"
	case ReasonMalformedHeader:
		return "malformed_header"
	case ReasonInvalidToken:
		return "invalid_token"
	case ReasonInsufficientRole:
		return "insufficient_role"
	default:
		return fmt.Sprintf("Reason(%d)", int(r))
	}
}

// Message is the client-facing text for the reason.
func (r Reason) Message() string {
	switch r {
	case ReasonMissingHeader:
		return "No authorization token provided"
	case ReasonMalformedHeader:
		return "Invalid authorization format"
	case ReasonInsufficientRole:
		return "Insufficient permissions"
	default:
		return "Invalid or expired token"
	}
}

// Error is a gate rejection. Err carries the verifier error, if any.
type Error struct {
	Reason Reason
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Reason.Message() + ": " + e.Err.Error()
	}
	return e.Reason.Message()
}

func (e *Error) Unwrap() error {
	return e.Err
}
