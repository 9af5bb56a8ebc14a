package discount

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"goflare.io/loyalty/clock"
	"goflare.io/loyalty/models"
)

type Service interface {
	// ActiveDiscounts returns the discounts currently eligible for the
	// program: status ACTIVE and the UTC instant of the call inside the
	// inclusive start/end range. The result is re-evaluated on every call.
	ActiveDiscounts(ctx context.Context) ([]*models.Discount, error)
}

type service struct {
	repo   Repository
	clock  clock.Clock
	logger *zap.Logger
}

func NewService(repo Repository, clk clock.Clock, logger *zap.Logger) Service {
	return &service{
		repo:   repo,
		clock:  clk,
		logger: logger,
	}
}

func (s *service) ActiveDiscounts(ctx context.Context) ([]*models.Discount, error) {

	discounts, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load discounts: %w", err)
	}

	nowUTC := s.clock.Now().UTC()

	var active []*models.Discount
	for _, d := range discounts {
		if d.IsEligibleAt(nowUTC) {
			active = append(active, d)
		}
	}

	return active, nil
}
