// Package notification sends each eligible card holder exactly one
// notification per newly active discount.
package notification

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"goflare.io/loyalty/cardholder"
	"goflare.io/loyalty/clock"
	"goflare.io/loyalty/discount"
	"goflare.io/loyalty/models"
)

// Audience selects the card holders to notify about a discount. The default
// program rule is every registered card holder; deployments may plug in a
// narrower membership rule.
type Audience interface {
	EligibleCardHolders(ctx context.Context, d *models.Discount) ([]*models.CardHolder, error)
}

type Service interface {
	// Run dispatches one notification per (card holder, active discount)
	// pair not yet present in the ledger. A failed dispatch is logged and
	// skipped; the pair stays out of the ledger and is retried on the next
	// firing while the discount remains active.
	Run(ctx context.Context) error
}

type service struct {
	eligibility discount.Service
	audience    Audience
	ledger      Repository
	sender      Sender
	clock       clock.Clock
	logger      *zap.Logger
}

func NewService(
	eligibility discount.Service,
	audience Audience,
	ledger Repository,
	sender Sender,
	clk clock.Clock,
	logger *zap.Logger,
) Service {
	return &service{
		eligibility: eligibility,
		audience:    audience,
		ledger:      ledger,
		sender:      sender,
		clock:       clk,
		logger:      logger,
	}
}

func (s *service) Run(ctx context.Context) error {

	active, err := s.eligibility.ActiveDiscounts(ctx)
	if err != nil {
		return fmt.Errorf("failed to load active discounts: %w", err)
	}

	var dispatched, skipped, failed int
	for _, d := range active {
		holders, err := s.audience.EligibleCardHolders(ctx, d)
		if err != nil {
			return fmt.Errorf("failed to load audience for discount %s: %w", d.ID, err)
		}

		for _, holder := range holders {
			notified, err := s.ledger.Exists(ctx, holder.ID, d.ID)
			if err != nil {
				return fmt.Errorf("failed to check ledger: %w", err)
			}
			if notified {
				skipped++
				continue
			}

			if err = s.sender.Send(ctx, holder, d); err != nil {
				// Per-pair failure is isolated: the ledger entry is never
				// written, so the next firing retries this pair.
				failed++
				s.logger.Warn("failed to dispatch notification",
					zap.String("card_holder_id", holder.ID.String()),
					zap.String("discount_id", d.ID),
					zap.Error(err))
				continue
			}

			if err = s.ledger.Record(ctx, holder.ID, d.ID, s.clock.Now().UTC()); err != nil {
				s.logger.Error("failed to record notification",
					zap.String("card_holder_id", holder.ID.String()),
					zap.String("discount_id", d.ID),
					zap.Error(err))
				continue
			}
			dispatched++
		}
	}

	s.logger.Info("discount notification run completed",
		zap.Int("active_discounts", len(active)),
		zap.Int("dispatched", dispatched),
		zap.Int("already_notified", skipped),
		zap.Int("failed", failed))

	return nil
}

type allCardHolders struct {
	repo cardholder.Repository
}

// NewAllCardHoldersAudience returns the default Audience: every registered
// card holder is notified about every active discount.
func NewAllCardHoldersAudience(repo cardholder.Repository) Audience {
	return allCardHolders{repo: repo}
}

func (a allCardHolders) EligibleCardHolders(ctx context.Context, _ *models.Discount) ([]*models.CardHolder, error) {
	return a.repo.List(ctx)
}
