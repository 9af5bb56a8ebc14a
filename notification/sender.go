package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"goflare.io/loyalty/models"
)

// Sender dispatches one notification about a discount to one card holder.
// The transport behind it (the mail relay) is an external collaborator.
type Sender interface {
	Send(ctx context.Context, recipient *models.CardHolder, discount *models.Discount) error
}

const sendSubject = "loyalty.notify.discount"

type dispatchMessage struct {
	UserID       string    `json:"user_id"`
	CardHolderID string    `json:"card_holder_id"`
	DiscountID   string    `json:"discount_id"`
	DiscountName string    `json:"discount_name"`
	Percentage   float64   `json:"percentage"`
	EndDate      time.Time `json:"end_date"`
}

type natsSender struct {
	conn *nats.Conn
}

// NewNATSSender returns a Sender that publishes dispatch requests for the
// external mail relay.
func NewNATSSender(conn *nats.Conn) Sender {
	return &natsSender{conn: conn}
}

func (s *natsSender) Send(_ context.Context, recipient *models.CardHolder, discount *models.Discount) error {

	data, err := json.Marshal(dispatchMessage{
		UserID:       recipient.UserID,
		CardHolderID: recipient.ID.String(),
		DiscountID:   discount.ID,
		DiscountName: discount.Name,
		Percentage:   discount.Percentage,
		EndDate:      discount.EndDate,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	if err = s.conn.Publish(sendSubject, data); err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}

	return nil
}
