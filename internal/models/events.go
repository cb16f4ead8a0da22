package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event types
const (
	EventTypeSaleCompleted         = "SALE_COMPLETED"
	EventTypeBillPaused            = "BILL_PAUSED"
	EventTypeBillResumed           = "BILL_RESUMED"
	EventTypeStockRequestProcessed = "STOCK_REQUEST_PROCESSED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// SaleCompletedEvent published when a payment is processed
type SaleCompletedEvent struct {
	BaseEvent
	Receipt Receipt `json:"receipt"`
}

// BillPausedEvent published when a cart is moved to the held list
type BillPausedEvent struct {
	BaseEvent
	BillID  string          `json:"bill_id"`
	OwnerID string          `json:"owner_id"`
	Total   decimal.Decimal `json:"total"`
	Lines   int             `json:"lines"`
}

// BillResumedEvent published when a held bill is restored
type BillResumedEvent struct {
	BaseEvent
	BillID    string `json:"bill_id"`
	SessionID string `json:"session_id"`
}

// StockRequestProcessedEvent published when an admin approves or rejects a request
type StockRequestProcessedEvent struct {
	BaseEvent
	RequestID   string        `json:"request_id"`
	Status      RequestStatus `json:"status"`
	ProcessedBy string        `json:"processed_by"`
	Response    string        `json:"response,omitempty"`
}
