// repository/cardholder/repository.go

package cardholder

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"goflare.io/loyalty/driver"
	"goflare.io/loyalty/models"
)

type Repository interface {
	Add(ctx context.Context, tx pgx.Tx, cardHolder *models.CardHolder) error
	List(ctx context.Context) ([]*models.CardHolder, error)
}

type repository struct {
	conn driver.PostgresPool
}

func NewRepository(conn driver.PostgresPool) Repository {
	return &repository{conn: conn}
}

// Add persists a card holder. One row per (user, payment card): re-adding
// the same pair is a no-op.
func (r *repository) Add(ctx context.Context, tx pgx.Tx, cardHolder *models.CardHolder) error {
	const query = `
    INSERT INTO card_holders (id, user_id, payment_card_number, payment_card_valid_until, registered_on)
    VALUES (@id, @user_id, @payment_card_number, @payment_card_valid_until, @registered_on)
    ON CONFLICT (user_id, payment_card_number) DO NOTHING
    `

	args := pgx.NamedArgs{
		"id":                       cardHolder.ID,
		"user_id":                  cardHolder.UserID,
		"payment_card_number":      cardHolder.PaymentCardNumber,
		"payment_card_valid_until": cardHolder.PaymentCardValidUntil,
		"registered_on":            cardHolder.RegisteredOn,
	}

	if _, err := tx.Exec(ctx, query, args); err != nil {
		return fmt.Errorf("failed to add card holder: %w", err)
	}

	return nil
}

func (r *repository) List(ctx context.Context) ([]*models.CardHolder, error) {
	const query = `
    SELECT id, user_id, payment_card_number, payment_card_valid_until, registered_on
    FROM card_holders
    `

	rows, err := r.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list card holders: %w", err)
	}
	defer rows.Close()

	var holders []*models.CardHolder
	for rows.Next() {
		var ch models.CardHolder
		if err = rows.Scan(
			&ch.ID,
			&ch.UserID,
			&ch.PaymentCardNumber,
			&ch.PaymentCardValidUntil,
			&ch.RegisteredOn,
		); err != nil {
			return nil, fmt.Errorf("failed to scan card holder: %w", err)
		}
		holders = append(holders, &ch)
	}

	return holders, rows.Err()
}
