// repository/records/repository.go

package records

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"goflare.io/loyalty/driver"
)

// CursorRepository persists the sync watermark for an external source. The
// cursor is only ever advanced inside the same transaction as the data
// writes it covers.
type CursorRepository interface {
	Position(ctx context.Context, source string) (int64, error)
	Advance(ctx context.Context, tx pgx.Tx, source string, position int64) error
}

type cursorRepository struct {
	conn driver.PostgresPool
}

func NewCursorRepository(conn driver.PostgresPool) CursorRepository {
	return &cursorRepository{conn: conn}
}

// Position returns the marker of the last successfully merged record, or
// zero when the source has never been synced.
func (r *cursorRepository) Position(ctx context.Context, source string) (int64, error) {
	const query = `
    SELECT COALESCE(MAX(position), 0) FROM sync_cursors WHERE source = @source
    `

	var position int64
	err := r.conn.QueryRow(ctx, query, pgx.NamedArgs{"source": source}).Scan(&position)
	if err != nil {
		return 0, fmt.Errorf("failed to read sync cursor: %w", err)
	}

	return position, nil
}

func (r *cursorRepository) Advance(ctx context.Context, tx pgx.Tx, source string, position int64) error {
	const query = `
    INSERT INTO sync_cursors (source, position, updated_at)
    VALUES (@source, @position, NOW())
    ON CONFLICT (source) DO UPDATE SET
        position = @position,
        updated_at = NOW()
    `

	args := pgx.NamedArgs{
		"source":   source,
		"position": position,
	}

	if _, err := tx.Exec(ctx, query, args); err != nil {
		return fmt.Errorf("failed to advance sync cursor: %w", err)
	}

	return nil
}
