package shopkeeper

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"goflare.io/loyalty/clock"
	"goflare.io/loyalty/models"
)

type fakeRepository struct {
	upserted []*models.Shopkeeper
}

func (f *fakeRepository) Upsert(_ context.Context, _ pgx.Tx, sk *models.Shopkeeper) error {
	f.upserted = append(f.upserted, sk)
	return nil
}

type passthroughTxManager struct{}

func (passthroughTxManager) ExecuteTransaction(_ context.Context, fn func(tx pgx.Tx) error) error {
	return fn(nil)
}

func (passthroughTxManager) ExecuteSerializableTransaction(_ context.Context, fn func(tx pgx.Tx) error) error {
	return fn(nil)
}

func TestRegisterHashesPassword(t *testing.T) {
	now := time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC)
	repo := &fakeRepository{}
	svc := NewService(repo, passthroughTxManager{}, clock.Fixed(now), zap.NewNop())

	err := svc.Register(context.Background(), RegisterInput{
		Username:    "corner-shop",
		Email:       "owner@corner.example",
		Password:    "plaintext-secret",
		PhoneNumber: "0123456789",
	})
	require.NoError(t, err)
	require.Len(t, repo.upserted, 1)

	sk := repo.upserted[0]
	assert.Equal(t, "corner-shop", sk.Username)
	assert.Equal(t, now, sk.RegisteredOn)
	assert.NotEqual(t, "plaintext-secret", sk.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(sk.PasswordHash), []byte("plaintext-secret")))
}
