// Package models defines server-side data models persisted in the database.
package models

import "time"

// AccountKind separates storefront users from administrators. Both live in
// the same table and share the email namespace.
type AccountKind string

const (
	KindUser  AccountKind = "user"
	KindAdmin AccountKind = "admin"
)

// Account is a persisted identity.
//
// PasswordHash holds a bcrypt digest, never the plaintext. The two
// verification fields are either both set or both nil.
type Account struct {
	ID          string
	Kind        AccountKind
	FirstName   string
	LastName    string
	Email       string
	PhoneNumber string

	PasswordHash string
	IsActive     bool

	EmailVerified             bool
	VerificationCode          *string
	VerificationCodeExpiresAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsAdmin reports whether the account belongs to an administrator.
func (a *Account) IsAdmin() bool {
	return a.Kind == KindAdmin
}

// HasPendingCode reports whether a verification code has been issued and
// not yet consumed.
func (a *Account) HasPendingCode() bool {
	return a.VerificationCode != nil && a.VerificationCodeExpiresAt != nil
}
