package accounts

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/storegate/internal/common"
	"github.com/dmitrijs2005/storegate/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var columns = []string{
	"id", "kind", "first_name", "last_name", "email", "phone_number", "password_hash",
	"is_active", "email_verified", "verification_code", "verification_code_expires_at",
	"created_at", "updated_at",
}

const (
	insertQuery      = `(?s)^INSERT\s+INTO\s+accounts\s*\(kind,.*\)\s*VALUES\s*\(\$1,.*\$10\)\s*RETURNING\s+id,\s*created_at,\s*updated_at$`
	selectByEmail    = `(?s)^SELECT\s+id,\s*kind,.*FROM\s+accounts\s+WHERE\s+email\s*=\s*\$1$`
	selectByPhone    = `(?s)^SELECT\s+id,\s*kind,.*FROM\s+accounts\s+WHERE\s+phone_number\s*=\s*\$1$`
	updateCodeQuery  = `(?s)^UPDATE\s+accounts\s+SET\s+verification_code\s*=\s*\$2,\s*verification_code_expires_at\s*=\s*\$3.*WHERE\s+email\s*=\s*\$1$`
	markVerifiedStmt = `(?s)^UPDATE\s+accounts\s+SET\s+email_verified\s*=\s*TRUE,.*WHERE\s+email\s*=\s*\$1$`
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return NewPostgresRepository(db), mock
}

func TestCreate_Success(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	exp := created.Add(10 * time.Minute)
	code := "004217"

	mock.ExpectQuery(insertQuery).
		WithArgs("user", "Ada", "Lovelace", "ada@example.com", "5551234567", "$2a$digest",
			true, false, "004217", exp).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow("acc-1", created, created))

	got, err := repo.Create(context.Background(), &models.Account{
		Kind: models.KindUser, FirstName: "Ada", LastName: "Lovelace",
		Email: "ada@example.com", PhoneNumber: "5551234567", PasswordHash: "$2a$digest",
		IsActive: true, VerificationCode: &code, VerificationCodeExpiresAt: &exp,
	})
	require.NoError(t, err)
	assert.Equal(t, "acc-1", got.ID)
	assert.Equal(t, created, got.CreatedAt)
}

func TestCreate_AdminWithoutPhoneStoresNulls(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now()

	mock.ExpectQuery(insertQuery).
		WithArgs("admin", "", "", "root@example.com", nil, "$2a$digest", true, true, nil, nil).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow("adm-1", now, now))

	got, err := repo.Create(context.Background(), &models.Account{
		Kind: models.KindAdmin, Email: "root@example.com", PasswordHash: "$2a$digest",
		IsActive: true, EmailVerified: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "adm-1", got.ID)
}

func TestCreate_UniqueViolationMapsToAlreadyExists(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(insertQuery).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "accounts_email_key"})

	_, err := repo.Create(context.Background(), &models.Account{Kind: models.KindUser, Email: "dup@example.com"})
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)
	assert.ErrorIs(t, err, ErrDuplicateEmail)
	assert.NotErrorIs(t, err, ErrDuplicatePhone)
}

func TestCreate_PhoneUniqueViolationNamesPhone(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(insertQuery).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "accounts_phone_number_key"})

	_, err := repo.Create(context.Background(), &models.Account{
		Kind: models.KindUser, Email: "fresh@example.com", PhoneNumber: "5551234567",
	})
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)
	assert.ErrorIs(t, err, ErrDuplicatePhone)
	assert.NotErrorIs(t, err, ErrDuplicateEmail)
}

func TestCreate_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(insertQuery).WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.Account{Kind: models.KindUser, Email: "x@example.com"})
	require.Error(t, err)
	assert.Regexp(t, regexp.MustCompile(`db error: .*db down`), err.Error())
}

func TestFindByEmail_FoundWithPendingCode(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	exp := now.Add(10 * time.Minute)

	mock.ExpectQuery(selectByEmail).
		WithArgs("ada@example.com").
		WillReturnRows(sqlmock.NewRows(columns).AddRow(
			"acc-1", "user", "Ada", "Lovelace", "ada@example.com", "5551234567", "$2a$digest",
			true, false, "000042", exp, now, now))

	a, err := repo.FindByEmail(context.Background(), "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.KindUser, a.Kind)
	assert.Equal(t, "5551234567", a.PhoneNumber)
	require.True(t, a.HasPendingCode())
	assert.Equal(t, "000042", *a.VerificationCode)
	assert.Equal(t, exp, *a.VerificationCodeExpiresAt)
}

func TestFindByEmail_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(selectByEmail).WithArgs("ghost@example.com").WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByEmail(context.Background(), "ghost@example.com")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestFindByPhone_FoundWithoutCode(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now().UTC()

	mock.ExpectQuery(selectByPhone).
		WithArgs("5551234567").
		WillReturnRows(sqlmock.NewRows(columns).AddRow(
			"acc-2", "user", "Bob", "Stone", "bob@example.com", "5551234567", "$2a$digest",
			true, true, nil, nil, now, now))

	a, err := repo.FindByPhone(context.Background(), "5551234567")
	require.NoError(t, err)
	assert.Equal(t, "bob@example.com", a.Email)
	assert.True(t, a.EmailVerified)
	assert.False(t, a.HasPendingCode())
}

func TestFindByPhone_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(selectByPhone).WillReturnError(errors.New("conn reset"))

	_, err := repo.FindByPhone(context.Background(), "5551234567")
	require.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrorNotFound)
}

func TestUpdateVerificationCode(t *testing.T) {
	exp := time.Date(2026, 5, 1, 12, 10, 0, 0, time.UTC)

	t.Run("updated", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectExec(updateCodeQuery).
			WithArgs("ada@example.com", "123456", exp).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.UpdateVerificationCode(context.Background(), "ada@example.com", "123456", exp))
	})

	t.Run("no such email", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectExec(updateCodeQuery).
			WithArgs("ghost@example.com", "123456", exp).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.UpdateVerificationCode(context.Background(), "ghost@example.com", "123456", exp)
		assert.ErrorIs(t, err, common.ErrorNotFound)
	})

	t.Run("db error", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectExec(updateCodeQuery).WillReturnError(errors.New("timeout"))

		err := repo.UpdateVerificationCode(context.Background(), "ada@example.com", "123456", exp)
		assert.ErrorContains(t, err, "db error")
	})
}

func TestMarkEmailVerified(t *testing.T) {
	t.Run("updated", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectExec(markVerifiedStmt).
			WithArgs("ada@example.com").
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.MarkEmailVerified(context.Background(), "ada@example.com"))
	})

	t.Run("rows affected error", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectExec(markVerifiedStmt).
			WillReturnResult(sqlmock.NewErrorResult(errors.New("driver quirk")))

		err := repo.MarkEmailVerified(context.Background(), "ada@example.com")
		assert.ErrorContains(t, err, "driver quirk")
	})
}
