// repository/notification/repository.go

package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"goflare.io/loyalty/driver"
)

// Repository is the notification ledger: one row per (card holder, discount)
// pair that has already been notified. Entries are written the moment a
// dispatch succeeds and are never deleted by the job.
type Repository interface {
	Exists(ctx context.Context, cardHolderID uuid.UUID, discountID string) (bool, error)
	Record(ctx context.Context, cardHolderID uuid.UUID, discountID string, sentAt time.Time) error
}

type repository struct {
	conn driver.PostgresPool
}

func NewRepository(conn driver.PostgresPool) Repository {
	return &repository{conn: conn}
}

func (r *repository) Exists(ctx context.Context, cardHolderID uuid.UUID, discountID string) (bool, error) {
	const query = `
    SELECT EXISTS (
        SELECT 1 FROM notification_ledger
        WHERE card_holder_id = @card_holder_id AND discount_id = @discount_id
    )
    `

	args := pgx.NamedArgs{
		"card_holder_id": cardHolderID,
		"discount_id":    discountID,
	}

	var exists bool
	if err := r.conn.QueryRow(ctx, query, args).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check notification ledger: %w", err)
	}

	return exists, nil
}

func (r *repository) Record(ctx context.Context, cardHolderID uuid.UUID, discountID string, sentAt time.Time) error {
	const query = `
    INSERT INTO notification_ledger (card_holder_id, discount_id, sent_at)
    VALUES (@card_holder_id, @discount_id, @sent_at)
    ON CONFLICT (card_holder_id, discount_id) DO NOTHING
    `

	args := pgx.NamedArgs{
		"card_holder_id": cardHolderID,
		"discount_id":    discountID,
		"sent_at":        sentAt,
	}

	if _, err := r.conn.Exec(ctx, query, args); err != nil {
		return fmt.Errorf("failed to record notification: %w", err)
	}

	return nil
}
