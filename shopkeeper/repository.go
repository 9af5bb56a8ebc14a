// repository/shopkeeper/repository.go

package shopkeeper

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"goflare.io/loyalty/driver"
	"goflare.io/loyalty/models"
)

type Repository interface {
	Upsert(ctx context.Context, tx pgx.Tx, shopkeeper *models.Shopkeeper) error
}

type repository struct {
	conn driver.PostgresPool
}

func NewRepository(conn driver.PostgresPool) Repository {
	return &repository{conn: conn}
}

// Upsert inserts or overwrites a shopkeeper keyed by username. The password
// column only ever holds the opaque hash.
func (r *repository) Upsert(ctx context.Context, tx pgx.Tx, shopkeeper *models.Shopkeeper) error {
	const query = `
    INSERT INTO shopkeepers (id, username, email, password_hash, phone_number, registered_on)
    VALUES (@id, @username, @email, @password_hash, @phone_number, @registered_on)
    ON CONFLICT (username) DO UPDATE SET
        email = @email,
        password_hash = @password_hash,
        phone_number = @phone_number
    `

	args := pgx.NamedArgs{
		"id":            shopkeeper.ID,
		"username":      shopkeeper.Username,
		"email":         shopkeeper.Email,
		"password_hash": shopkeeper.PasswordHash,
		"phone_number":  shopkeeper.PhoneNumber,
		"registered_on": shopkeeper.RegisteredOn,
	}

	if _, err := tx.Exec(ctx, query, args); err != nil {
		return fmt.Errorf("failed to upsert shopkeeper: %w", err)
	}

	return nil
}
