package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"io"
	"math/big"
	"time"

	"github.com/dmitrijs2005/storegate/internal/server/models"
)

const (
	// CodeTTL is how long an issued verification code stays usable.
	CodeTTL = 10 * time.Minute

	codeSpace = 1_000_000
)

// CheckResult is the outcome of comparing a submitted code.
type CheckResult int

const (
	CheckOK CheckResult = iota
	CheckMismatch
	CheckExpired
	CheckNotStarted
)

func (r CheckResult) String() string {
	switch r {
	case CheckOK:
		return "ok"
	case CheckMismatch:
		return "mismatch"
	case CheckExpired:
		return "expired"
	case CheckNotStarted:
		return "not_started"
	default:
		return fmt.Sprintf("CheckResult(%d)", int(r))
	}
}

// CodeStore persists a pending code for an email. The latest write wins.
type CodeStore interface {
	UpdateVerificationCode(ctx context.Context, email, code string, expiresAt time.Time) error
}

// CodeManager generates, stores and checks six-digit verification codes.
type CodeManager struct {
	random io.Reader
	now    func() time.Time
}

type CodeOption func(*CodeManager)

func WithCodeClock(now func() time.Time) CodeOption {
	return func(m *CodeManager) { m.now = now }
}

// WithCodeRandom replaces crypto/rand as the entropy source.
func WithCodeRandom(r io.Reader) CodeOption {
	return func(m *CodeManager) { m.random = r }
}

func NewCodeManager(opts ...CodeOption) *CodeManager {
	m := &CodeManager{random: rand.Reader, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Generate returns a uniformly random code in [000000, 999999], zero-padded.
func (m *CodeManager) Generate() (string, error) {
	n, err := rand.Int(m.random, big.NewInt(codeSpace))
	if err != nil {
		return "", fmt.Errorf("generate verification code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// New returns a fresh code together with its expiry instant.
func (m *CodeManager) New() (string, time.Time, error) {
	code, err := m.Generate()
	if err != nil {
		return "", time.Time{}, err
	}
	return code, m.now().Add(CodeTTL), nil
}

// IssueFor generates a code for email and writes it to store, replacing any
// earlier one.
func (m *CodeManager) IssueFor(ctx context.Context, store CodeStore, email string) (string, time.Time, error) {
	code, expiresAt, err := m.New()
	if err != nil {
		return "", time.Time{}, err
	}
	if err := store.UpdateVerificationCode(ctx, email, code, expiresAt); err != nil {
		return "", time.Time{}, err
	}
	return code, expiresAt, nil
}

// Check compares submitted against the account's pending code. A mismatch
// wins over expiry. The code expires at exactly expires_at.
func (m *CodeManager) Check(account *models.Account, submitted string) CheckResult {
	if !account.HasPendingCode() {
		return CheckNotStarted
	}
	if subtle.ConstantTimeCompare([]byte(*account.VerificationCode), []byte(submitted)) != 1 {
		return CheckMismatch
	}
	if !m.now().Before(*account.VerificationCodeExpiresAt) {
		return CheckExpired
	}
	return CheckOK
}
