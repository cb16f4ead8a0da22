package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"pos-service/internal/models"
	"pos-service/internal/notify"
)

// IdentityStore persists the logged-in identity of a session
type IdentityStore interface {
	SaveIdentity(ctx context.Context, sessionID string, identity models.Identity) error
	LoadIdentity(ctx context.Context, sessionID string) (models.Identity, error)
	DeleteIdentity(ctx context.Context, sessionID string) error
}

// EventPublisher emits POS domain events
type EventPublisher interface {
	PublishSaleCompleted(ctx context.Context, receipt models.Receipt) error
	PublishBillPaused(ctx context.Context, bill models.HeldBill) error
	PublishBillResumed(ctx context.Context, billID, sessionID string) error
	PublishStockRequestProcessed(ctx context.Context, req models.StockRequest) error
}

// NopPublisher drops every event
type NopPublisher struct{}

func (NopPublisher) PublishSaleCompleted(context.Context, models.Receipt) error { return nil }
func (NopPublisher) PublishBillPaused(context.Context, models.HeldBill) error   { return nil }
func (NopPublisher) PublishBillResumed(context.Context, string, string) error   { return nil }
func (NopPublisher) PublishStockRequestProcessed(context.Context, models.StockRequest) error {
	return nil
}

// MemoryIdentityStore keeps identities in process memory
type MemoryIdentityStore struct {
	mu    sync.RWMutex
	items map[string]models.Identity
}

// NewMemoryIdentityStore creates an empty store
func NewMemoryIdentityStore() *MemoryIdentityStore {
	return &MemoryIdentityStore{items: make(map[string]models.Identity)}
}

func (m *MemoryIdentityStore) SaveIdentity(_ context.Context, sessionID string, identity models.Identity) error {
	m.mu.Lock()
	m.items[sessionID] = identity
	m.mu.Unlock()
	return nil
}

func (m *MemoryIdentityStore) LoadIdentity(_ context.Context, sessionID string) (models.Identity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	identity, ok := m.items[sessionID]
	if !ok {
		return models.Identity{}, fmt.Errorf("session %s: %w", sessionID, models.ErrNotFound)
	}
	return identity, nil
}

func (m *MemoryIdentityStore) DeleteIdentity(_ context.Context, sessionID string) error {
	m.mu.Lock()
	delete(m.items, sessionID)
	m.mu.Unlock()
	return nil
}

// Caller is the user performing an operation and where its notifications go
type Caller struct {
	Identity models.Identity
	Notifier notify.Notifier
}

func (c Caller) notify(msg notify.Message) {
	if c.Notifier != nil {
		c.Notifier.Notify(msg)
	}
}

// require fails with ErrForbidden unless the caller holds one of roles
func (c Caller) require(op string, roles ...models.Role) error {
	for _, r := range roles {
		if c.Identity.Role == r {
			return nil
		}
	}
	return fmt.Errorf("%s as %q: %w", op, c.Identity.Role, models.ErrForbidden)
}

func (c Caller) fail(err error) error {
	c.notify(notify.Failure("Error", describe(err)))
	return err
}

// describe renders an error for an operator-facing message
func describe(err error) string {
	var fe *models.InvalidFieldError
	if errors.As(err, &fe) {
		return fmt.Sprintf("%s %s", fe.Field, fe.Reason)
	}
	return err.Error()
}
