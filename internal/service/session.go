package service

import (
	"fmt"
	"sync"
	"time"

	"pos-service/internal/cart"
	"pos-service/internal/catalog"
	"pos-service/internal/checkout"
	"pos-service/internal/models"
	"pos-service/internal/navigator"
	"pos-service/internal/notify"
	"pos-service/internal/util"

	"github.com/shopspring/decimal"
)

// Session is the application state of one logged-in terminal. Every
// operation on a session runs under its lock, one at a time.
type Session struct {
	ID        string
	User      models.Identity
	CreatedAt time.Time

	mu       sync.Mutex
	cart     *cart.Engine
	nav      *navigator.Navigator
	checkout *checkout.Checkout
	keymap   navigator.Keymap
	draft    *RequestDraft
	notices  *notify.Recorder
	notifier notify.Notifier
}

// SessionConfig carries what every new session is built from
type SessionConfig struct {
	Catalog     *catalog.Index
	Invoices    *checkout.InvoiceSequence
	Keymap      navigator.Keymap
	HeldBills   func(userID string) []models.HeldBill
	Notifier    notify.Notifier
	Now         func() time.Time
	CartOptions []cart.Option
}

func newSession(id string, user models.Identity, cfg SessionConfig) *Session {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	opts := append([]cart.Option{cart.WithClock(now)}, cfg.CartOptions...)
	if cfg.HeldBills != nil {
		opts = append(opts, cart.WithHeldBills(cfg.HeldBills(user.ID)))
	}
	engine := cart.NewEngine(opts...)

	s := &Session{
		ID:        id,
		User:      user,
		CreatedAt: now(),
		cart:      engine,
		checkout:  checkout.New(engine, cfg.Invoices),
		keymap:    cfg.Keymap,
		notices:   notify.NewRecorder(),
	}
	s.notifier = notify.Fanout{s.notices, cfg.Notifier}

	// Salesmen browse the catalog to draft stock requests, not bills.
	if user.Role == models.RoleSalesman {
		s.draft = &RequestDraft{}
		s.nav = navigator.New(cfg.Catalog, s.draft)
	} else {
		s.nav = navigator.New(cfg.Catalog, engine)
	}
	return s
}

// Caller returns the session user with the session's notification sink
func (s *Session) Caller() Caller {
	return Caller{Identity: s.User, Notifier: s.notifier}
}

// DrainNotices returns and forgets the pending notifications
func (s *Session) DrainNotices() []notify.Message {
	return s.notices.Drain()
}

// Cart returns a snapshot of the active cart and held bills
func (s *Session) Cart() CartView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cartView()
}

func (s *Session) cartView() CartView {
	return CartView{
		Lines:     s.cart.Lines(),
		Total:     s.cart.Total(),
		HeldBills: s.cart.HeldBills(),
	}
}

// Navigator returns a snapshot of the drill-down
func (s *Session) Navigator() NavigatorView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.navigatorView()
}

func (s *Session) navigatorView() NavigatorView {
	view := NavigatorView{
		State:   s.nav.State(),
		Entries: s.nav.Visible(),
	}
	if view.State.Level == navigator.LevelItems {
		view.Pending = make(map[string]int, len(view.Entries))
		for _, e := range view.Entries {
			view.Pending[e.ID] = s.nav.PendingQuantity(e.ID)
		}
	}
	if s.draft != nil {
		view.Draft = s.draft.Items()
	}
	return view
}

// CartView is the serializable state of a cart
type CartView struct {
	Lines     []models.LineItem `json:"lines"`
	Total     decimal.Decimal   `json:"total"`
	HeldBills []models.HeldBill `json:"held_bills"`
}

// NavigatorView is the serializable state of a navigator
type NavigatorView struct {
	State   navigator.State        `json:"state"`
	Entries []navigator.Entry      `json:"entries"`
	Pending map[string]int         `json:"pending,omitempty"`
	Draft   []models.RequestedItem `json:"draft,omitempty"`
}

// RequestDraft collects catalog items a salesman picks while browsing
type RequestDraft struct {
	items []models.RequestedItem
}

// AddItem merges quantity units of item into the draft
func (d *RequestDraft) AddItem(item catalog.Item, quantity int) error {
	if quantity <= 0 {
		return models.InvalidField("quantity", "must be a positive integer")
	}
	for i := range d.items {
		if d.items[i].ItemID == item.ID {
			d.items[i].Quantity += quantity
			return nil
		}
	}
	d.items = append(d.items, models.RequestedItem{ItemID: item.ID, ItemName: item.Name, Quantity: quantity})
	return nil
}

// Items returns a copy of the drafted items
func (d *RequestDraft) Items() []models.RequestedItem {
	out := make([]models.RequestedItem, len(d.items))
	copy(out, d.items)
	return out
}

// Reset empties the draft
func (d *RequestDraft) Reset() {
	d.items = nil
}

// SessionRegistry tracks open sessions by id
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewSessionRegistry creates an empty registry
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{sessions: make(map[string]*Session)}
}

// Get returns the session with id
func (r *SessionRegistry) Get(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, models.ErrNotFound)
	}
	return s, nil
}

// Len returns the number of open sessions
func (r *SessionRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// putIfAbsent stores s unless a session with the same id is already open,
// in which case the open one is returned
func (r *SessionRegistry) putIfAbsent(s *Session) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.sessions[s.ID]; ok {
		return existing
	}
	r.sessions[s.ID] = s
	util.ActiveSessions.Set(float64(len(r.sessions)))
	return s
}

func (r *SessionRegistry) put(s *Session) {
	r.mu.Lock()
	r.sessions[s.ID] = s
	util.ActiveSessions.Set(float64(len(r.sessions)))
	r.mu.Unlock()
}

func (r *SessionRegistry) remove(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	util.ActiveSessions.Set(float64(len(r.sessions)))
	r.mu.Unlock()
}
