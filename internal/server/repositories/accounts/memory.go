package accounts

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/storegate/internal/common"
	"github.com/dmitrijs2005/storegate/internal/server/models"
	"github.com/google/uuid"
)

// MemoryRepository keeps accounts in process memory. It backs local
// development without PostgreSQL and the service-level tests.
type MemoryRepository struct {
	mu      sync.RWMutex
	byEmail map[string]*models.Account
	now     func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byEmail: make(map[string]*models.Account),
		now:     time.Now,
	}
}

func clone(a *models.Account) *models.Account {
	c := *a
	if a.VerificationCode != nil {
		code := *a.VerificationCode
		c.VerificationCode = &code
	}
	if a.VerificationCodeExpiresAt != nil {
		exp := *a.VerificationCodeExpiresAt
		c.VerificationCodeExpiresAt = &exp
	}
	return &c
}

func (r *MemoryRepository) Create(_ context.Context, account *models.Account) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byEmail[account.Email]; ok {
		return nil, ErrDuplicateEmail
	}
	if account.PhoneNumber != "" {
		for _, existing := range r.byEmail {
			if existing.PhoneNumber == account.PhoneNumber {
				return nil, ErrDuplicatePhone
			}
		}
	}

	now := r.now()
	account.ID = uuid.NewString()
	account.CreatedAt = now
	account.UpdatedAt = now
	r.byEmail[account.Email] = clone(account)

	return account, nil
}

func (r *MemoryRepository) FindByEmail(_ context.Context, email string) (*models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.byEmail[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return clone(a), nil
}

func (r *MemoryRepository) FindByPhone(_ context.Context, phone string) (*models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, a := range r.byEmail {
		if phone != "" && a.PhoneNumber == phone {
			return clone(a), nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *MemoryRepository) UpdateVerificationCode(_ context.Context, email, code string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.byEmail[email]
	if !ok {
		return common.ErrorNotFound
	}
	a.VerificationCode = &code
	a.VerificationCodeExpiresAt = &expiresAt
	a.UpdatedAt = r.now()
	return nil
}

func (r *MemoryRepository) MarkEmailVerified(_ context.Context, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.byEmail[email]
	if !ok {
		return common.ErrorNotFound
	}
	a.EmailVerified = true
	a.UpdatedAt = r.now()
	return nil
}
