// Package repomanager vends repositories bound to a storage backend and
// owns schema migrations for it.
package repomanager

import (
	"context"

	"github.com/dmitrijs2005/storegate/internal/server/repositories/accounts"
)

type RepositoryManager interface {
	RunMigrations(ctx context.Context) error

	// Ping reports whether the backing store is reachable.
	Ping(ctx context.Context) error

	// Accounts returns a repository outside of any transaction.
	Accounts() accounts.Repository

	// InTx runs fn with a repository bound to a single transaction.
	InTx(ctx context.Context, fn func(ctx context.Context, repo accounts.Repository) error) error
}
