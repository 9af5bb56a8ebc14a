package driver

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// TxManager runs a unit of work inside a single transactional commit
// boundary. Services depend on this interface so tests can substitute a
// pass-through implementation.
type TxManager interface {
	ExecuteTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error
	ExecuteSerializableTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error
}

type TransactionManager struct {
	conn PostgresPool
}

func NewTransactionManager(conn PostgresPool) TxManager {
	return &TransactionManager{conn: conn}
}

func (tm *TransactionManager) ExecuteTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error {

	tx, err := tm.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err = fn(tx); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (tm *TransactionManager) ExecuteSerializableTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error {

	tx, err := tm.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if _, err = tx.Exec(ctx, "SET TRANSACTION ISOLATION LEVEL SERIALIZABLE"); err != nil {
		return fmt.Errorf("failed to set isolation level: %w", err)
	}

	if err = fn(tx); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
