package loyalty

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"goflare.io/loyalty/cardholder"
	"goflare.io/loyalty/discount"
	"goflare.io/loyalty/models"
	"goflare.io/loyalty/notification"
	"goflare.io/loyalty/records"
	"goflare.io/loyalty/scheduler"
	"goflare.io/loyalty/shopkeeper"
)

// Recurring job names. Registration is idempotent by name, so these must
// stay stable across deployments.
const (
	JobUpdateRecords     = "UpdateRecordsFromDWH"
	JobNotifyCardHolders = "NotifyCardHoldersAboutNewAcceptedDiscounts"

	scheduleUpdateRecords     = "@hourly"
	scheduleNotifyCardHolders = "30 7 * * 3"
)

type Loyalty interface {
	ValidateRegistration(input cardholder.RegistrationInput) []string
	AddCardHolder(ctx context.Context, cardNumber uint64, validUntilText, userID string) error
	ActiveDiscounts(ctx context.Context) ([]*models.Discount, error)
	RegisterShopkeeper(ctx context.Context, input shopkeeper.RegisterInput) error
	RegisterJobs(ctx context.Context, manager *scheduler.Manager) error
	Close()
}

// CardProgram aggregates the loyalty services behind one surface consumed by
// the handlers and the composition root.
type CardProgram struct {
	natsConn     *nats.Conn
	eventManager *EventManager
	dispatcher   *Dispatcher
	logger       *zap.Logger

	cardHolder   cardholder.Service
	discount     discount.Service
	shopkeeper   shopkeeper.Service
	records      records.Service
	notification notification.Service
}

func NewCardProgram(
	natsConn *nats.Conn,
	logger *zap.Logger,
	cardHolder cardholder.Service,
	discountService discount.Service,
	shopkeeperService shopkeeper.Service,
	recordsService records.Service,
	notificationService notification.Service,
) (Loyalty, error) {

	cp := &CardProgram{
		natsConn:     natsConn,
		eventManager: NewEventManager(natsConn, logger),
		logger:       logger,
		cardHolder:   cardHolder,
		discount:     discountService,
		shopkeeper:   shopkeeperService,
		records:      recordsService,
		notification: notificationService,
	}

	cp.dispatcher = NewDispatcher(4, 64, cp)
	cp.registerEventHandlers()
	cp.dispatcher.Run()

	if err := cp.eventManager.SubscribeToEvents(cp.dispatcher); err != nil {
		return nil, fmt.Errorf("failed to subscribe to events: %w", err)
	}

	return cp, nil
}

func (cp *CardProgram) ValidateRegistration(input cardholder.RegistrationInput) []string {
	return cp.cardHolder.ValidateRegistration(input)
}

func (cp *CardProgram) AddCardHolder(ctx context.Context, cardNumber uint64, validUntilText, userID string) error {

	if err := cp.cardHolder.AddCardHolder(ctx, cardNumber, validUntilText, userID); err != nil {
		return err
	}

	cp.publish(EventTypeCardHolderRegistered, map[string]string{"user_id": userID})
	return nil
}

func (cp *CardProgram) ActiveDiscounts(ctx context.Context) ([]*models.Discount, error) {
	return cp.discount.ActiveDiscounts(ctx)
}

func (cp *CardProgram) RegisterShopkeeper(ctx context.Context, input shopkeeper.RegisterInput) error {

	if err := cp.shopkeeper.Register(ctx, input); err != nil {
		return err
	}

	cp.publish(EventTypeShopkeeperRegistered, map[string]string{"username": input.Username})
	return nil
}

// RegisterJobs seeds the recurring jobs on the scheduler: the hourly
// warehouse sync and the weekly new-discount notification.
func (cp *CardProgram) RegisterJobs(ctx context.Context, manager *scheduler.Manager) error {

	err := manager.AddOrUpdate(ctx, JobUpdateRecords, scheduleUpdateRecords, func(ctx context.Context) error {
		if err := cp.records.Run(ctx); err != nil {
			return err
		}
		cp.publish(EventTypeRecordsSynced, nil)
		return nil
	})
	if err != nil {
		return err
	}

	err = manager.AddOrUpdate(ctx, JobNotifyCardHolders, scheduleNotifyCardHolders, func(ctx context.Context) error {
		if err := cp.notification.Run(ctx); err != nil {
			return err
		}
		cp.publish(EventTypeDiscountsNotified, nil)
		return nil
	})
	if err != nil {
		return err
	}

	return nil
}

func (cp *CardProgram) Close() {
	cp.dispatcher.Stop()
	cp.natsConn.Close()
}

func (cp *CardProgram) publish(eventType EventType, payload any) {

	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			cp.logger.Error("failed to marshal event payload",
				zap.String("event_type", string(eventType)),
				zap.Error(err))
			return
		}
		raw = data
	}

	event := &Event{
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Payload:    raw,
	}

	if err := cp.eventManager.PublishEvent(event); err != nil {
		cp.logger.Error("failed to publish event",
			zap.String("event_type", string(eventType)),
			zap.Error(err))
	}
}

func (cp *CardProgram) processEvent(ctx context.Context, event *Event) error {

	handler, exists := cp.eventManager.GetHandler(event.Type)
	if !exists {
		cp.logger.Debug("no handler for event", zap.String("event_type", string(event.Type)))
		return nil
	}

	return handler(ctx, event)
}

func (cp *CardProgram) registerEventHandlers() {

	eventHandlers := map[EventType]EventHandler{
		EventTypeCardHolderRegistered: cp.handleAuditEvent,
		EventTypeShopkeeperRegistered: cp.handleAuditEvent,
		EventTypeRecordsSynced:        cp.handleAuditEvent,
		EventTypeDiscountsNotified:    cp.handleAuditEvent,
	}

	for eventType, handler := range eventHandlers {
		cp.eventManager.RegisterHandler(eventType, handler)
	}
}

// handleAuditEvent writes domain events to the audit log.
func (cp *CardProgram) handleAuditEvent(_ context.Context, event *Event) error {
	cp.logger.Info("audit",
		zap.String("event_type", string(event.Type)),
		zap.Time("occurred_at", event.OccurredAt),
		zap.ByteString("payload", event.Payload))
	return nil
}
