package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"pos-service/internal/catalog"
	"pos-service/internal/checkout"
	"pos-service/internal/models"
	"pos-service/internal/navigator"
	"pos-service/internal/notify"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// evening of the day the seeded sales were made
var testNow = time.Date(2024, 8, 15, 18, 0, 0, 0, time.UTC)

func clock() time.Time { return testNow }

type recordingPublisher struct {
	mu        sync.Mutex
	sales     []models.Receipt
	paused    []models.HeldBill
	resumed   []string
	processed []models.StockRequest
}

func (p *recordingPublisher) PublishSaleCompleted(_ context.Context, r models.Receipt) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sales = append(p.sales, r)
	return nil
}

func (p *recordingPublisher) PublishBillPaused(_ context.Context, b models.HeldBill) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paused = append(p.paused, b)
	return nil
}

func (p *recordingPublisher) PublishBillResumed(_ context.Context, billID, _ string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resumed = append(p.resumed, billID)
	return nil
}

func (p *recordingPublisher) PublishStockRequestProcessed(_ context.Context, r models.StockRequest) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.processed = append(p.processed, r)
	return nil
}

type testEnv struct {
	seed       *Seed
	users      *UserService
	inventory  *InventoryService
	requests   *RequestService
	history    *MemorySaleHistory
	terminal   *TerminalService
	reports    *ReportService
	auth       *AuthService
	identities *MemoryIdentityStore
	publisher  *recordingPublisher
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	seed, err := LoadSeed()
	require.NoError(t, err)
	index, err := catalog.LoadEmbedded()
	require.NoError(t, err)

	e := &testEnv{
		seed:       seed,
		users:      NewUserService(seed.Users),
		inventory:  NewInventoryService(seed.Inventory, 5),
		history:    NewMemorySaleHistory(seed.Sales),
		identities: NewMemoryIdentityStore(),
		publisher:  &recordingPublisher{},
	}
	e.requests = NewRequestService(seed.Requests, e.publisher)
	e.requests.now = clock
	e.terminal = NewTerminalService(index, e.history, e.publisher)
	e.reports = NewReportService(e.history, e.inventory, e.users, decimal.RequireFromString("0.30"))
	e.reports.now = clock
	e.auth = NewAuthService(e.users, e.identities, NewSessionRegistry(), SessionConfig{
		Catalog:   index,
		Invoices:  checkout.NewInvoiceSequence(clock),
		Keymap:    navigator.DefaultKeymap(),
		HeldBills: seed.HeldBillsFor,
		Now:       clock,
	})
	return e
}

func (e *testEnv) login(t *testing.T, email string) *Session {
	t.Helper()
	s, ok, err := e.auth.Login(context.Background(), email, "password")
	require.NoError(t, err)
	require.True(t, ok)
	s.DrainNotices()
	return s
}

func caller(id string, role models.Role) (Caller, *notify.Recorder) {
	rec := notify.NewRecorder()
	return Caller{Identity: models.Identity{ID: id, Name: string(role), Role: role, IsActive: true}, Notifier: rec}, rec
}

func titles(msgs []notify.Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Title
	}
	return out
}

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
