package services

import (
	"errors"
	"fmt"
)

// Kind groups service failures by how the HTTP edge reports them.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindConflict
	KindVerification
	KindUnauthorized
	KindUpstream
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindVerification:
		return "verification"
	case KindUnauthorized:
		return "unauthorized"
	case KindUpstream:
		return "upstream"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Error is a failure the caller may show to the client. Message is the
// client-facing text; Err is the sentinel or cause for errors.Is.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Kind.String() + ": " + e.Message + ": " + e.Err.Error()
	}
	return e.Kind.String() + ": " + e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

var (
	ErrPasswordMismatch    = errors.New("passwords do not match")
	ErrPasswordTooShort    = errors.New("password too short")
	ErrInvalidField        = errors.New("invalid field")
	ErrEmailTaken          = errors.New("email already registered")
	ErrPhoneTaken          = errors.New("phone number already registered")
	ErrAccountNotFound     = errors.New("account not found")
	ErrAlreadyVerified     = errors.New("email already verified")
	ErrCodeMismatch        = errors.New("verification code mismatch")
	ErrCodeExpired         = errors.New("verification code expired")
	ErrVerificationPending = errors.New("no verification started")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrEmailNotVerified    = errors.New("email not verified")
)

func validationError(msg string, err error) *Error {
	return &Error{Kind: KindValidation, Message: msg, Err: err}
}

func conflictError(msg string, err error) *Error {
	return &Error{Kind: KindConflict, Message: msg, Err: err}
}

func verificationError(msg string, err error) *Error {
	return &Error{Kind: KindVerification, Message: msg, Err: err}
}

func unauthorizedError(msg string, err error) *Error {
	return &Error{Kind: KindUnauthorized, Message: msg, Err: err}
}

func upstreamError(err error) *Error {
	return &Error{Kind: KindUpstream, Message: "Database error", Err: err}
}
