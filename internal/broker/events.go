package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"pos-service/internal/models"
	"pos-service/internal/util"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Publisher sends events to a topic
type Publisher interface {
	PublishEvent(ctx context.Context, key string, event interface{}) error
}

// EventPublisher handles publishing POS domain events
type EventPublisher struct {
	producer Publisher
	now      func() time.Time
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer Publisher) *EventPublisher {
	return &EventPublisher{producer: producer, now: time.Now}
}

func (ep *EventPublisher) base(eventType string) models.BaseEvent {
	return models.BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: ep.now(),
	}
}

// PublishSaleCompleted publishes SaleCompleted event keyed by invoice
func (ep *EventPublisher) PublishSaleCompleted(ctx context.Context, receipt models.Receipt) error {
	event := &models.SaleCompletedEvent{
		BaseEvent: ep.base(models.EventTypeSaleCompleted),
		Receipt:   receipt,
	}
	return ep.producer.PublishEvent(ctx, "sale-"+receipt.InvoiceID, event)
}

// PublishBillPaused publishes BillPaused event
func (ep *EventPublisher) PublishBillPaused(ctx context.Context, bill models.HeldBill) error {
	event := &models.BillPausedEvent{
		BaseEvent: ep.base(models.EventTypeBillPaused),
		BillID:    bill.ID,
		OwnerID:   bill.OwnerID,
		Total:     bill.Total,
		Lines:     len(bill.Items),
	}
	return ep.producer.PublishEvent(ctx, "bill-"+bill.ID, event)
}

// PublishBillResumed publishes BillResumed event
func (ep *EventPublisher) PublishBillResumed(ctx context.Context, billID, sessionID string) error {
	event := &models.BillResumedEvent{
		BaseEvent: ep.base(models.EventTypeBillResumed),
		BillID:    billID,
		SessionID: sessionID,
	}
	return ep.producer.PublishEvent(ctx, "bill-"+billID, event)
}

// PublishStockRequestProcessed publishes StockRequestProcessed event
func (ep *EventPublisher) PublishStockRequestProcessed(ctx context.Context, req models.StockRequest) error {
	event := &models.StockRequestProcessedEvent{
		BaseEvent:   ep.base(models.EventTypeStockRequestProcessed),
		RequestID:   req.ID,
		Status:      req.Status,
		ProcessedBy: req.ProcessedBy,
		Response:    req.AdminResponse,
	}
	return ep.producer.PublishEvent(ctx, "request-"+req.ID, event)
}

// EventHandler handles incoming events
type EventHandler struct {
	onSaleCompleted func(context.Context, *models.SaleCompletedEvent) error
	logger          *zap.Logger
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{logger: util.GetLogger()}
}

// OnSaleCompleted registers a handler for SaleCompleted events
func (eh *EventHandler) OnSaleCompleted(handler func(context.Context, *models.SaleCompletedEvent) error) {
	eh.onSaleCompleted = handler
}

// HandleMessage routes messages to appropriate handlers. Event types with no
// registered handler are acknowledged and skipped.
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	eh.logger.Debug("Handling event",
		zap.String("type", baseEvent.EventType),
		zap.String("id", baseEvent.EventID))

	switch baseEvent.EventType {
	case models.EventTypeSaleCompleted:
		if eh.onSaleCompleted != nil {
			var event models.SaleCompletedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal SaleCompleted event: %w", err)
			}
			return eh.onSaleCompleted(ctx, &event)
		}
	}

	return nil
}
