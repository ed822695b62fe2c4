// Package accounts persists storefront and admin accounts.
package accounts

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/storegate/internal/common"
	"github.com/dmitrijs2005/storegate/internal/server/models"
)

// Both wrap common.ErrorAlreadyExists.
var (
	ErrDuplicateEmail = fmt.Errorf("email: %w", common.ErrorAlreadyExists)
	ErrDuplicatePhone = fmt.Errorf("phone number: %w", common.ErrorAlreadyExists)
)

// Repository is the record store for accounts.
//
// Lookups return common.ErrorNotFound when nothing matches. Create returns
// ErrDuplicateEmail or ErrDuplicatePhone naming the field that is taken.
type Repository interface {
	Create(ctx context.Context, account *models.Account) (*models.Account, error)
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
	FindByPhone(ctx context.Context, phone string) (*models.Account, error)

	// UpdateVerificationCode overwrites the pending code for email.
	UpdateVerificationCode(ctx context.Context, email, code string, expiresAt time.Time) error

	// MarkEmailVerified sets email_verified. The last code stays stored but
	// is never consulted again.
	MarkEmailVerified(ctx context.Context, email string) error
}
