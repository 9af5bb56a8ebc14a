package discount

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"goflare.io/loyalty/clock"
	"goflare.io/loyalty/models"
	"goflare.io/loyalty/models/enum"
)

type fakeRepository struct {
	discounts []*models.Discount
	err       error
}

func (f *fakeRepository) Upsert(_ context.Context, _ pgx.Tx, d *models.Discount) error {
	f.discounts = append(f.discounts, d)
	return nil
}

func (f *fakeRepository) List(_ context.Context) ([]*models.Discount, error) {
	return f.discounts, f.err
}

func TestActiveDiscounts(t *testing.T) {
	now := time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC)

	repo := &fakeRepository{discounts: []*models.Discount{
		{
			ID:        "starts-tomorrow",
			Status:    enum.DiscountStatusActive,
			StartDate: now.Add(24 * time.Hour),
			EndDate:   now.Add(48 * time.Hour),
		},
		{
			ID:        "ended-yesterday",
			Status:    enum.DiscountStatusActive,
			StartDate: now.Add(-48 * time.Hour),
			EndDate:   now.Add(-24 * time.Hour),
		},
		{
			ID:        "in-window",
			Status:    enum.DiscountStatusActive,
			StartDate: now.Add(-24 * time.Hour),
			EndDate:   now.Add(24 * time.Hour),
		},
		{
			ID:        "draft-in-window",
			Status:    enum.DiscountStatusDraft,
			StartDate: now.Add(-24 * time.Hour),
			EndDate:   now.Add(24 * time.Hour),
		},
		{
			ID:        "rejected-in-window",
			Status:    enum.DiscountStatusRejected,
			StartDate: now.Add(-24 * time.Hour),
			EndDate:   now.Add(24 * time.Hour),
		},
	}}

	svc := NewService(repo, clock.Fixed(now), zap.NewNop())

	active, err := svc.ActiveDiscounts(context.Background())
	require.NoError(t, err)
	require.Len(t, active, 1)
	require.Equal(t, "in-window", active[0].ID)
}

func TestActiveDiscountsInclusiveBounds(t *testing.T) {
	now := time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC)

	repo := &fakeRepository{discounts: []*models.Discount{
		{
			ID:        "starts-now",
			Status:    enum.DiscountStatusActive,
			StartDate: now,
			EndDate:   now.Add(time.Hour),
		},
		{
			ID:        "ends-now",
			Status:    enum.DiscountStatusActive,
			StartDate: now.Add(-time.Hour),
			EndDate:   now,
		},
	}}

	svc := NewService(repo, clock.Fixed(now), zap.NewNop())

	active, err := svc.ActiveDiscounts(context.Background())
	require.NoError(t, err)
	require.Len(t, active, 2)
}
