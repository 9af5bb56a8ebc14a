// repository/discount/repository.go

package discount

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"goflare.io/loyalty/driver"
	"goflare.io/loyalty/models"
)

type Repository interface {
	Upsert(ctx context.Context, tx pgx.Tx, discount *models.Discount) error
	List(ctx context.Context) ([]*models.Discount, error)
}

type repository struct {
	conn driver.PostgresPool
}

func NewRepository(conn driver.PostgresPool) Repository {
	return &repository{conn: conn}
}

// Upsert inserts or overwrites a discount keyed by its external identifier.
// Last write wins, no conflict detection.
func (r *repository) Upsert(ctx context.Context, tx pgx.Tx, discount *models.Discount) error {
	const query = `
    INSERT INTO discounts (id, name, description, percentage, status, start_date, end_date, created_at, updated_at)
    VALUES (@id, @name, @description, @percentage, @status, @start_date, @end_date, COALESCE(@created_at, NOW()), NOW())
    ON CONFLICT (id) DO UPDATE SET
        name = @name,
        description = @description,
        percentage = @percentage,
        status = @status,
        start_date = @start_date,
        end_date = @end_date,
        updated_at = NOW()
    `

	args := pgx.NamedArgs{
		"id":          discount.ID,
		"name":        discount.Name,
		"description": discount.Description,
		"percentage":  discount.Percentage,
		"status":      discount.Status,
		"start_date":  discount.StartDate,
		"end_date":    discount.EndDate,
		"created_at":  discount.CreatedAt,
	}

	if _, err := tx.Exec(ctx, query, args); err != nil {
		return fmt.Errorf("failed to upsert discount: %w", err)
	}

	return nil
}

func (r *repository) List(ctx context.Context) ([]*models.Discount, error) {
	const query = `
    SELECT id, name, description, percentage, status, start_date, end_date, created_at, updated_at
    FROM discounts
    `

	rows, err := r.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list discounts: %w", err)
	}
	defer rows.Close()

	var discounts []*models.Discount
	for rows.Next() {
		var d models.Discount
		if err = rows.Scan(
			&d.ID,
			&d.Name,
			&d.Description,
			&d.Percentage,
			&d.Status,
			&d.StartDate,
			&d.EndDate,
			&d.CreatedAt,
			&d.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan discount: %w", err)
		}
		discounts = append(discounts, &d)
	}

	return discounts, rows.Err()
}
