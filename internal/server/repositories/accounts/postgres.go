package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/storegate/internal/common"
	"github.com/dmitrijs2005/storegate/internal/dbx"
	"github.com/dmitrijs2005/storegate/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

// uniqueViolation is the PostgreSQL SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// phoneConstraint is the unique index on phone_number. Any other unique
// violation on accounts is the email index.
const phoneConstraint = "accounts_phone_number_key"

const accountColumns = `id, kind, first_name, last_name, email, phone_number, password_hash,
	is_active, email_verified, verification_code, verification_code_expires_at,
	created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*models.Account, error) {
	var (
		a       models.Account
		kind    string
		phone   sql.NullString
		code    sql.NullString
		expires sql.NullTime
	)

	err := row.Scan(&a.ID, &kind, &a.FirstName, &a.LastName, &a.Email, &phone, &a.PasswordHash,
		&a.IsActive, &a.EmailVerified, &code, &expires, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}

	a.Kind = models.AccountKind(kind)
	a.PhoneNumber = phone.String
	if code.Valid && expires.Valid {
		c, e := code.String, expires.Time
		a.VerificationCode = &c
		a.VerificationCodeExpiresAt = &e
	}

	return &a, nil
}

func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func (r *PostgresRepository) Create(ctx context.Context, account *models.Account) (*models.Account, error) {
	query :=
		`INSERT INTO accounts (kind, first_name, last_name, email, phone_number, password_hash,
			is_active, email_verified, verification_code, verification_code_expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id, created_at, updated_at`

	var (
		code    sql.NullString
		expires sql.NullTime
	)
	if account.HasPendingCode() {
		code = sql.NullString{String: *account.VerificationCode, Valid: true}
		expires = sql.NullTime{Time: *account.VerificationCodeExpiresAt, Valid: true}
	}

	err := r.db.QueryRowContext(ctx, query,
		string(account.Kind), account.FirstName, account.LastName, account.Email,
		nullIfEmpty(account.PhoneNumber), account.PasswordHash,
		account.IsActive, account.EmailVerified, code, expires,
	).Scan(&account.ID, &account.CreatedAt, &account.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			if pgErr.ConstraintName == phoneConstraint {
				return nil, ErrDuplicatePhone
			}
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return account, nil
}

func (r *PostgresRepository) findOne(ctx context.Context, where string, arg any) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE ` + where

	account, err := scanAccount(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return account, nil
}

func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	return r.findOne(ctx, `email = $1`, email)
}

func (r *PostgresRepository) FindByPhone(ctx context.Context, phone string) (*models.Account, error) {
	return r.findOne(ctx, `phone_number = $1`, phone)
}

func (r *PostgresRepository) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}

	return nil
}

func (r *PostgresRepository) UpdateVerificationCode(ctx context.Context, email, code string, expiresAt time.Time) error {
	query :=
		`UPDATE accounts
		 SET verification_code = $2, verification_code_expires_at = $3, updated_at = now()
		 WHERE email = $1`

	return r.exec(ctx, query, email, code, expiresAt)
}

func (r *PostgresRepository) MarkEmailVerified(ctx context.Context, email string) error {
	query :=
		`UPDATE accounts
		 SET email_verified = TRUE, updated_at = now()
		 WHERE email = $1`

	return r.exec(ctx, query, email)
}
