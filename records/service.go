// Package records merges changed records from the data warehouse into local
// state without duplication.
package records

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"goflare.io/loyalty/discount"
	"goflare.io/loyalty/driver"
	"goflare.io/loyalty/dwh"
	"goflare.io/loyalty/shopkeeper"
)

// SourceDWH names the warehouse cursor row.
const SourceDWH = "dwh"

type Service interface {
	// Run fetches every record past the persisted cursor, upserts each one
	// keyed by its external identifier and advances the cursor to the last
	// marker in the same transaction. A failure to reach the warehouse
	// aborts the run without moving the cursor; the next scheduled firing
	// retries from the same point, so upserts are safe to repeat.
	Run(ctx context.Context) error
}

type service struct {
	client      dwh.Client
	discounts   discount.Repository
	shopkeepers shopkeeper.Repository
	cursor      CursorRepository
	tm          driver.TxManager
	logger      *zap.Logger
}

func NewService(
	client dwh.Client,
	discounts discount.Repository,
	shopkeepers shopkeeper.Repository,
	cursor CursorRepository,
	tm driver.TxManager,
	logger *zap.Logger,
) Service {
	return &service{
		client:      client,
		discounts:   discounts,
		shopkeepers: shopkeepers,
		cursor:      cursor,
		tm:          tm,
		logger:      logger,
	}
}

func (s *service) Run(ctx context.Context) error {

	position, err := s.cursor.Position(ctx, SourceDWH)
	if err != nil {
		return err
	}

	changes, err := s.client.ChangesSince(ctx, position)
	if err != nil {
		return fmt.Errorf("failed to fetch dwh changes: %w", err)
	}
	if len(changes) == 0 {
		s.logger.Info("dwh sync: no new records", zap.Int64("cursor", position))
		return nil
	}

	err = s.tm.ExecuteTransaction(ctx, func(tx pgx.Tx) error {
		for _, record := range changes {
			if err := s.apply(ctx, tx, record); err != nil {
				return err
			}
		}
		return s.cursor.Advance(ctx, tx, SourceDWH, changes[len(changes)-1].Marker)
	})
	if err != nil {
		return fmt.Errorf("failed to merge dwh changes: %w", err)
	}

	s.logger.Info("dwh sync completed",
		zap.Int("records", len(changes)),
		zap.Int64("cursor", changes[len(changes)-1].Marker))

	return nil
}

func (s *service) apply(ctx context.Context, tx pgx.Tx, record dwh.ChangedRecord) error {
	switch record.Kind {
	case dwh.RecordKindDiscount:
		if record.Discount == nil {
			return fmt.Errorf("dwh record %d has kind discount but no payload", record.Marker)
		}
		return s.discounts.Upsert(ctx, tx, record.Discount)
	case dwh.RecordKindShopkeeper:
		if record.Shopkeeper == nil {
			return fmt.Errorf("dwh record %d has kind shopkeeper but no payload", record.Marker)
		}
		return s.shopkeepers.Upsert(ctx, tx, record.Shopkeeper)
	default:
		// Unknown kinds are skipped, not fatal: the warehouse may ship new
		// record types before this service learns about them.
		s.logger.Warn("dwh sync: skipping unknown record kind",
			zap.Int64("marker", record.Marker),
			zap.String("kind", string(record.Kind)))
		return nil
	}
}
