package shopkeeper

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"goflare.io/loyalty/clock"
	"goflare.io/loyalty/driver"
	"goflare.io/loyalty/models"
)

type RegisterInput struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	PhoneNumber string `json:"phone_number"`
}

type Service interface {
	Register(ctx context.Context, input RegisterInput) error
}

type service struct {
	repo   Repository
	tm     driver.TxManager
	clock  clock.Clock
	logger *zap.Logger
}

func NewService(repo Repository, tm driver.TxManager, clk clock.Clock, logger *zap.Logger) Service {
	return &service{
		repo:   repo,
		tm:     tm,
		clock:  clk,
		logger: logger,
	}
}

func (s *service) Register(ctx context.Context, input RegisterInput) error {

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	sk := &models.Shopkeeper{
		ID:           uuid.New(),
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: string(hashed),
		PhoneNumber:  input.PhoneNumber,
		RegisteredOn: s.clock.Now().UTC(),
	}

	err = s.tm.ExecuteTransaction(ctx, func(tx pgx.Tx) error {
		return s.repo.Upsert(ctx, tx, sk)
	})
	if err != nil {
		return fmt.Errorf("failed to register shopkeeper: %w", err)
	}

	s.logger.Info("shopkeeper registered", zap.String("username", input.Username))

	return nil
}
