// Package services contains server-side business logic. AccountService
// drives the storefront account lifecycle: registration, email
// verification, code resend and login for users and administrators.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/storegate/internal/common"
	"github.com/dmitrijs2005/storegate/internal/logging"
	"github.com/dmitrijs2005/storegate/internal/server/auth"
	"github.com/dmitrijs2005/storegate/internal/server/mail"
	"github.com/dmitrijs2005/storegate/internal/server/models"
	"github.com/dmitrijs2005/storegate/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/storegate/internal/server/repositories/repomanager"
	"github.com/go-playground/validator/v10"
)

const (
	minPasswordLength      = 8
	minAdminPasswordLength = 6
)

// RegisterInput is the registration request.
type RegisterInput struct {
	FirstName       string `json:"first_name" validate:"required,min=2,max=50"`
	LastName        string `json:"last_name" validate:"required,min=2,max=50"`
	Email           string `json:"email" validate:"required,email"`
	PhoneNumber     string `json:"phone_number" validate:"required,min=10,max=15"`
	Password        string `json:"password" validate:"required,min=8,max=72"`
	ConfirmPassword string `json:"confirm_password"`
}

// Credentials is an email and password pair.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AccountService struct {
	repomanager repomanager.RepositoryManager
	hasher      *auth.PasswordHasher
	codes       *auth.CodeManager
	mailer      *mail.Dispatcher
	validate    *validator.Validate
	logger      logging.Logger

	// dummyDigest is compared against when no account matches, so unknown
	// emails cost one bcrypt comparison like known ones.
	dummyDigest string
}

func NewAccountService(
	m repomanager.RepositoryManager,
	hasher *auth.PasswordHasher,
	codes *auth.CodeManager,
	mailer *mail.Dispatcher,
	logger logging.Logger,
) *AccountService {
	dummy, _ := hasher.Hash("storegate-timing-equalizer")
	return &AccountService{
		repomanager: m,
		hasher:      hasher,
		codes:       codes,
		mailer:      mailer,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		logger:      logger.With("module", "accounts"),
		dummyDigest: dummy,
	}
}

// Register creates an unverified user account and mails it a verification
// code. The account exists once this returns, whatever happens to the mail.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*models.Account, error) {
	if in.Password != in.ConfirmPassword {
		return nil, validationError("Passwords do not match", ErrPasswordMismatch)
	}
	if len(in.Password) < minPasswordLength {
		return nil, validationError("Password must be at least 8 characters long", ErrPasswordTooShort)
	}
	if err := s.validate.Struct(in); err != nil {
		return nil, validationError(fieldMessage(err), ErrInvalidField)
	}

	repo := s.repomanager.Accounts()

	if err := s.ensureFree(ctx, repo.FindByEmail, in.Email); err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, conflictError("Email already registered", ErrEmailTaken)
		}
		return nil, upstreamError(err)
	}
	if err := s.ensureFree(ctx, repo.FindByPhone, in.PhoneNumber); err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, conflictError("Phone number already registered", ErrPhoneTaken)
		}
		return nil, upstreamError(err)
	}

	digest, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	code, expiresAt, err := s.codes.New()
	if err != nil {
		return nil, err
	}

	account, err := repo.Create(ctx, &models.Account{
		Kind:                      models.KindUser,
		FirstName:                 in.FirstName,
		LastName:                  in.LastName,
		Email:                     in.Email,
		PhoneNumber:               in.PhoneNumber,
		PasswordHash:              digest,
		IsActive:                  true,
		VerificationCode:          &code,
		VerificationCodeExpiresAt: &expiresAt,
	})
	if err != nil {
		// Lost a race with a concurrent registration.
		switch {
		case errors.Is(err, accounts.ErrDuplicatePhone):
			return nil, conflictError("Phone number already registered", ErrPhoneTaken)
		case errors.Is(err, common.ErrorAlreadyExists):
			return nil, conflictError("Email already registered", ErrEmailTaken)
		}
		return nil, upstreamError(err)
	}

	s.logger.Info(ctx, "account registered", "account_id", account.ID)
	s.sendVerification(ctx, account, code)

	return account, nil
}

// ensureFree returns common.ErrorAlreadyExists when find locates a record.
func (s *AccountService) ensureFree(ctx context.Context, find func(context.Context, string) (*models.Account, error), key string) error {
	_, err := find(ctx, key)
	switch {
	case err == nil:
		return common.ErrorAlreadyExists
	case errors.Is(err, common.ErrorNotFound):
		return nil
	default:
		return err
	}
}

// findUser loads a storefront account by email. Admin accounts are not
// visible here.
func (s *AccountService) findUser(ctx context.Context, repo accounts.Repository, email string) (*models.Account, error) {
	account, err := repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, verificationError("User not found.", ErrAccountNotFound)
		}
		return nil, upstreamError(err)
	}
	if account.IsAdmin() {
		return nil, verificationError("User not found.", ErrAccountNotFound)
	}
	return account, nil
}

// VerifyEmail marks the account verified when code matches the pending one.
func (s *AccountService) VerifyEmail(ctx context.Context, email, code string) error {
	repo := s.repomanager.Accounts()

	account, err := s.findUser(ctx, repo, email)
	if err != nil {
		return err
	}
	if account.EmailVerified {
		return verificationError("Email is already verified.", ErrAlreadyVerified)
	}

	switch result := s.codes.Check(account, code); result {
	case auth.CheckNotStarted:
		return verificationError("No verification process started for this user.", ErrVerificationPending)
	case auth.CheckMismatch:
		return verificationError("Invalid or expired verification code.", ErrCodeMismatch)
	case auth.CheckExpired:
		return verificationError("Invalid or expired verification code.", ErrCodeExpired)
	case auth.CheckOK:
	default:
		return fmt.Errorf("unexpected verification result %v", result)
	}

	if err := repo.MarkEmailVerified(ctx, account.Email); err != nil {
		return upstreamError(err)
	}

	s.logger.Info(ctx, "email verified", "account_id", account.ID)
	return nil
}

// ResendVerification replaces the pending code and mails the new one.
func (s *AccountService) ResendVerification(ctx context.Context, email string) error {
	if email == "" {
		return validationError("Email is required.", ErrInvalidField)
	}

	repo := s.repomanager.Accounts()

	account, err := s.findUser(ctx, repo, email)
	if err != nil {
		return err
	}
	if account.EmailVerified {
		return verificationError("Email is already verified.", ErrAlreadyVerified)
	}

	code, _, err := s.codes.IssueFor(ctx, repo, account.Email)
	if err != nil {
		return upstreamError(err)
	}

	s.logger.Info(ctx, "verification code reissued", "account_id", account.ID)
	s.sendVerification(ctx, account, code)
	return nil
}

// Login checks user credentials and returns the account for token minting.
func (s *AccountService) Login(ctx context.Context, cred Credentials) (*models.Account, error) {
	if cred.Password == "" {
		return nil, validationError("Password cannot be empty", ErrInvalidField)
	}

	account, err := s.authenticate(ctx, cred, models.KindUser)
	if err != nil {
		return nil, err
	}
	if !account.EmailVerified {
		return nil, unauthorizedError("Please verify your email before logging in", ErrEmailNotVerified)
	}

	return account, nil
}

// AdminLogin checks administrator credentials.
func (s *AccountService) AdminLogin(ctx context.Context, cred Credentials) (*models.Account, error) {
	if err := s.validate.Var(cred.Email, "required,email"); err != nil {
		return nil, validationError("Invalid email format", ErrInvalidField)
	}
	if len(cred.Password) < minAdminPasswordLength {
		return nil, validationError("Password must be at least 6 characters long", ErrInvalidField)
	}

	return s.authenticate(ctx, cred, models.KindAdmin)
}

// authenticate verifies the password of an active account of the given
// kind. Every failure reads the same to the caller.
func (s *AccountService) authenticate(ctx context.Context, cred Credentials, kind models.AccountKind) (*models.Account, error) {
	invalid := unauthorizedError("Invalid email or password", ErrInvalidCredentials)

	account, err := s.repomanager.Accounts().FindByEmail(ctx, cred.Email)
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			return nil, upstreamError(err)
		}
		s.hasher.Verify(cred.Password, s.dummyDigest)
		return nil, invalid
	}

	if !s.hasher.Verify(cred.Password, account.PasswordHash) {
		return nil, invalid
	}
	if account.Kind != kind || !account.IsActive {
		return nil, invalid
	}

	return account, nil
}

// BootstrapAdmin creates the administrator account unless one with email
// already exists. It reports whether an account was created.
func (s *AccountService) BootstrapAdmin(ctx context.Context, email, password string) (bool, error) {
	if email == "" || password == "" {
		return false, errors.New("admin email and password are required")
	}

	digest, err := s.hasher.Hash(password)
	if err != nil {
		return false, err
	}

	created := false
	err = s.repomanager.InTx(ctx, func(ctx context.Context, repo accounts.Repository) error {
		_, err := repo.FindByEmail(ctx, email)
		if err == nil {
			return nil
		}
		if !errors.Is(err, common.ErrorNotFound) {
			return err
		}

		_, err = repo.Create(ctx, &models.Account{
			Kind:          models.KindAdmin,
			FirstName:     "Admin",
			LastName:      "User",
			Email:         email,
			PasswordHash:  digest,
			IsActive:      true,
			EmailVerified: true,
		})
		if err != nil {
			return err
		}
		created = true
		return nil
	})
	if errors.Is(err, common.ErrorAlreadyExists) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("bootstrap admin: %w", err)
	}

	if created {
		s.logger.Info(ctx, "admin account created", "email", email)
	}
	return created, nil
}

func (s *AccountService) sendVerification(ctx context.Context, account *models.Account, code string) {
	msg, err := mail.VerificationEmail(account.Email, mail.VerificationData{
		FirstName: account.FirstName,
		LastName:  account.LastName,
		Code:      code,
		ValidFor:  auth.CodeTTL,
	})
	if err != nil {
		s.logger.Error(ctx, "render verification email", "account_id", account.ID, "error", err)
		return
	}
	s.mailer.Dispatch(ctx, msg)
}
