package cardholder

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"goflare.io/loyalty/clock"
	"goflare.io/loyalty/config"
	"goflare.io/loyalty/driver"
	"goflare.io/loyalty/models"
)

const invalidValidThruMessage = "Payment Card valid thru is invalid"

// RegistrationInput carries the raw registration form values submitted by
// the web layer.
type RegistrationInput struct {
	PhoneNumber           string `json:"phone_number"`
	PaymentCardNumber     uint64 `json:"payment_card_number"`
	PaymentCardValidUntil string `json:"payment_card_valid_until"`
	UserID                string `json:"user_id"`
}

type Service interface {
	// ValidateRegistration checks the raw form values against the program
	// rules and returns every violated rule as a message. An empty slice
	// means the input is valid. Pure: no I/O.
	ValidateRegistration(input RegistrationInput) []string

	// AddCardHolder persists a card holder for already-validated input.
	// Callers must run ValidateRegistration first; a malformed expiry here
	// is a programming error and panics.
	AddCardHolder(ctx context.Context, cardNumber uint64, validUntilText, userID string) error
}

type service struct {
	repo        Repository
	tm          driver.TxManager
	clock       clock.Clock
	phonePrefix string
	logger      *zap.Logger
}

func NewService(repo Repository, tm driver.TxManager, clk clock.Clock, program config.ProgramConfig, logger *zap.Logger) Service {
	return &service{
		repo:        repo,
		tm:          tm,
		clock:       clk,
		phonePrefix: program.PhonePrefix,
		logger:      logger,
	}
}

func (s *service) ValidateRegistration(input RegistrationInput) []string {

	errors := []string{}

	if !(strings.HasPrefix(input.PhoneNumber, s.phonePrefix) || strings.HasPrefix(input.PhoneNumber, "0")) {
		errors = append(errors, fmt.Sprintf("Phone number must start with %s or 0", s.phonePrefix))
	} else {
		withoutBigStart := strings.ReplaceAll(input.PhoneNumber, s.phonePrefix, "0")
		if len(withoutBigStart) != 10 {
			errors = append(errors, "Phone number length must be 10")
		}
	}

	if ok := s.validateValidThru(input.PaymentCardValidUntil); !ok {
		errors = append(errors, invalidValidThruMessage)
	}

	return errors
}

// validateValidThru checks the MM/YY expiry text. Any shape, parse or range
// failure yields the single invalid-expiry outcome.
func (s *service) validateValidThru(text string) bool {

	if len(text) != 5 {
		return false
	}

	parts := strings.Split(text, "/")
	if len(parts) != 2 {
		return false
	}
	for _, part := range parts {
		if _, err := strconv.Atoi(part); err != nil {
			return false
		}
	}

	month, err := strconv.Atoi(text[:2])
	if err != nil {
		return false
	}
	year, err := strconv.Atoi(text[3:])
	if err != nil {
		return false
	}

	// The upper bound deliberately rejects a two-digit year of exactly 99.
	return month > 0 && month < 13 && year >= s.clock.Now().Year()%100 && year < 99
}

func (s *service) AddCardHolder(ctx context.Context, cardNumber uint64, validUntilText, userID string) error {

	month, err := strconv.Atoi(validUntilText[:2])
	if err != nil {
		panic(fmt.Sprintf("cardholder: unvalidated valid-thru month %q: %v", validUntilText, err))
	}
	year, err := strconv.Atoi(validUntilText[3:])
	if err != nil {
		panic(fmt.Sprintf("cardholder: unvalidated valid-thru year %q: %v", validUntilText, err))
	}

	validUntil := time.Date(2000+year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)

	cardHolder := &models.CardHolder{
		ID:                    uuid.New(),
		UserID:                userID,
		PaymentCardNumber:     cardNumber,
		PaymentCardValidUntil: validUntil,
		RegisteredOn:          s.clock.Now().UTC(),
	}

	err = s.tm.ExecuteTransaction(ctx, func(tx pgx.Tx) error {
		return s.repo.Add(ctx, tx, cardHolder)
	})
	if err != nil {
		return fmt.Errorf("failed to register card holder: %w", err)
	}

	s.logger.Info("card holder registered",
		zap.String("user_id", userID),
		zap.Time("valid_until", validUntil))

	return nil
}
