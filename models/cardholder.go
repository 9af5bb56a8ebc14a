package models

import (
	"time"

	"github.com/google/uuid"
)

// CardHolder 代表已註冊支付卡的持卡人
// CardHolder represents a registered payment card holder in the system
type CardHolder struct {
	ID                    uuid.UUID `json:"id"`
	UserID                string    `json:"user_id"`
	PaymentCardNumber     uint64    `json:"payment_card_number"`
	PaymentCardValidUntil time.Time `json:"payment_card_valid_until"`
	RegisteredOn          time.Time `json:"registered_on"`
}
