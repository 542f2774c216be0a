package gormstore

import (
	"context"
	"fmt"

	"edusync/domain/shared"
	"edusync/infrastructure/persistence"
	"edusync/infrastructure/persistence/retry"

	"gorm.io/gorm"
)

// UnitOfWork implements the Unit of Work pattern with GORM.
// It keeps no per-call state and is safe for concurrent use.
type UnitOfWork struct {
	db     *gorm.DB
	policy retry.Policy
}

// NewUnitOfWork policy decides which failed attempts are re-run.
func NewUnitOfWork(db *gorm.DB, policy retry.Policy) *UnitOfWork {
	return &UnitOfWork{
		db:     db,
		policy: policy,
	}
}

// Execute runs fn inside a database transaction:
// 1. Begins a transaction (or joins the one already in ctx)
// 2. Injects the transaction into context for repositories to use
// 3. Commits on nil, rolls back on error or panic
// 4. Retries the whole attempt on transient errors (deadlock, lock timeout)
func (u *UnitOfWork) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	// 嵌套调用直接复用外层事务，由外层负责提交
	if persistence.TxFromContext(ctx) != nil {
		return fn(ctx)
	}

	executeOnce := func(ctx context.Context) error {
		tx := u.db.WithContext(ctx).Begin()
		if tx.Error != nil {
			return fmt.Errorf("failed to begin transaction: %w", tx.Error)
		}

		defer func() {
			if p := recover(); p != nil {
				tx.Rollback()
				panic(p)
			}
		}()

		txCtx := persistence.ContextWithTx(ctx, tx)

		if err := fn(txCtx); err != nil {
			tx.Rollback()
			return err
		}

		if err := tx.Commit().Error; err != nil {
			return fmt.Errorf("failed to commit transaction: %w", err)
		}
		return nil
	}

	return u.policy.Do(ctx, executeOnce)
}

// Compile-time check that UnitOfWork implements shared.UnitOfWork
var _ shared.UnitOfWork = (*UnitOfWork)(nil)
