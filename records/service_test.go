package records

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"goflare.io/loyalty/dwh"
	"goflare.io/loyalty/models"
	"goflare.io/loyalty/models/enum"
)

type fakeClient struct {
	changes []dwh.ChangedRecord
	err     error
	asked   []int64
}

func (f *fakeClient) ChangesSince(_ context.Context, after int64) ([]dwh.ChangedRecord, error) {
	f.asked = append(f.asked, after)
	if f.err != nil {
		return nil, f.err
	}
	var out []dwh.ChangedRecord
	for _, r := range f.changes {
		if r.Marker > after {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeDiscountRepo struct {
	byID    map[string]*models.Discount
	upserts int
}

func (f *fakeDiscountRepo) Upsert(_ context.Context, _ pgx.Tx, d *models.Discount) error {
	if f.byID == nil {
		f.byID = make(map[string]*models.Discount)
	}
	f.byID[d.ID] = d
	f.upserts++
	return nil
}

func (f *fakeDiscountRepo) List(_ context.Context) ([]*models.Discount, error) {
	var out []*models.Discount
	for _, d := range f.byID {
		out = append(out, d)
	}
	return out, nil
}

type fakeShopkeeperRepo struct {
	byUsername map[string]*models.Shopkeeper
}

func (f *fakeShopkeeperRepo) Upsert(_ context.Context, _ pgx.Tx, sk *models.Shopkeeper) error {
	if f.byUsername == nil {
		f.byUsername = make(map[string]*models.Shopkeeper)
	}
	f.byUsername[sk.Username] = sk
	return nil
}

type fakeCursorRepo struct {
	position int64
	advances []int64
}

func (f *fakeCursorRepo) Position(_ context.Context, _ string) (int64, error) {
	return f.position, nil
}

func (f *fakeCursorRepo) Advance(_ context.Context, _ pgx.Tx, _ string, position int64) error {
	f.position = position
	f.advances = append(f.advances, position)
	return nil
}

type passthroughTxManager struct{}

func (passthroughTxManager) ExecuteTransaction(_ context.Context, fn func(tx pgx.Tx) error) error {
	return fn(nil)
}

func (passthroughTxManager) ExecuteSerializableTransaction(_ context.Context, fn func(tx pgx.Tx) error) error {
	return fn(nil)
}

func discountRecord(marker int64, id string) dwh.ChangedRecord {
	return dwh.ChangedRecord{
		Marker: marker,
		Kind:   dwh.RecordKindDiscount,
		Discount: &models.Discount{
			ID:        id,
			Status:    enum.DiscountStatusActive,
			StartDate: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		},
	}
}

func TestRunMergesAndAdvancesCursor(t *testing.T) {
	client := &fakeClient{changes: []dwh.ChangedRecord{
		discountRecord(1, "d-1"),
		discountRecord(2, "d-2"),
		discountRecord(3, "d-3"),
	}}
	discounts := &fakeDiscountRepo{}
	cursor := &fakeCursorRepo{}

	svc := NewService(client, discounts, &fakeShopkeeperRepo{}, cursor, passthroughTxManager{}, zap.NewNop())

	require.NoError(t, svc.Run(context.Background()))
	assert.Equal(t, int64(3), cursor.position)
	assert.Len(t, discounts.byID, 3)

	// No new records: a re-run is a no-op and asks from the cursor.
	require.NoError(t, svc.Run(context.Background()))
	assert.Equal(t, []int64{0, 3}, client.asked)
	assert.Equal(t, []int64{3}, cursor.advances)
}

func TestRunRedeliveredMarkerUpsertsWithoutDuplicate(t *testing.T) {
	client := &fakeClient{changes: []dwh.ChangedRecord{
		discountRecord(3, "d-3"),
		discountRecord(4, "d-4"),
	}}
	discounts := &fakeDiscountRepo{}
	// Cursor behind the feed: marker 3 is re-delivered.
	cursor := &fakeCursorRepo{position: 2}

	svc := NewService(client, discounts, &fakeShopkeeperRepo{}, cursor, passthroughTxManager{}, zap.NewNop())

	require.NoError(t, svc.Run(context.Background()))
	assert.Equal(t, int64(4), cursor.position)
	assert.Len(t, discounts.byID, 2)
	assert.Equal(t, 2, discounts.upserts)
}

func TestRunUnreachableSourceLeavesCursor(t *testing.T) {
	client := &fakeClient{err: errors.New("connection refused")}
	cursor := &fakeCursorRepo{position: 7}

	svc := NewService(client, &fakeDiscountRepo{}, &fakeShopkeeperRepo{}, cursor, passthroughTxManager{}, zap.NewNop())

	require.Error(t, svc.Run(context.Background()))
	assert.Equal(t, int64(7), cursor.position)
	assert.Empty(t, cursor.advances)
}

func TestRunAppliesShopkeeperRecords(t *testing.T) {
	client := &fakeClient{changes: []dwh.ChangedRecord{
		{
			Marker: 1,
			Kind:   dwh.RecordKindShopkeeper,
			Shopkeeper: &models.Shopkeeper{
				Username:     "corner-shop",
				PasswordHash: "$2a$10$opaque",
			},
		},
	}}
	shopkeepers := &fakeShopkeeperRepo{}
	cursor := &fakeCursorRepo{}

	svc := NewService(client, &fakeDiscountRepo{}, shopkeepers, cursor, passthroughTxManager{}, zap.NewNop())

	require.NoError(t, svc.Run(context.Background()))
	require.Contains(t, shopkeepers.byUsername, "corner-shop")
	assert.Equal(t, int64(1), cursor.position)
}

func TestRunSkipsUnknownKinds(t *testing.T) {
	client := &fakeClient{changes: []dwh.ChangedRecord{
		{Marker: 1, Kind: "terminal"},
		discountRecord(2, "d-2"),
	}}
	discounts := &fakeDiscountRepo{}
	cursor := &fakeCursorRepo{}

	svc := NewService(client, discounts, &fakeShopkeeperRepo{}, cursor, passthroughTxManager{}, zap.NewNop())

	require.NoError(t, svc.Run(context.Background()))
	assert.Len(t, discounts.byID, 1)
	assert.Equal(t, int64(2), cursor.position)
}
