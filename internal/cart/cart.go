// Package cart implements the in-progress bill of a terminal session and its
// held (paused) bills.
//
// An Engine is owned by exactly one session and is not safe for concurrent
// use; the session serializes access.
package cart

import (
	"fmt"
	"time"

	"pos-service/internal/catalog"
	"pos-service/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Engine holds the active cart and the held-bills collection
type Engine struct {
	lines []models.LineItem
	held  []models.HeldBill

	now   func() time.Time
	newID func() string
}

// Option configures an Engine
type Option func(*Engine)

// WithClock overrides the time source used for held bills
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDGenerator overrides how held bill and quick item ids are produced
func WithIDGenerator(newID func() string) Option {
	return func(e *Engine) { e.newID = newID }
}

// WithHeldBills seeds the held-bills collection
func WithHeldBills(bills []models.HeldBill) Option {
	return func(e *Engine) {
		for _, b := range bills {
			e.held = append(e.held, cloneBill(b))
		}
	}
}

// NewEngine creates an empty cart engine
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		now:   time.Now,
		newID: func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// AddItem adds quantity units of a catalog item, merging into an existing line.
// Available stock is not enforced.
func (e *Engine) AddItem(item catalog.Item, quantity int) error {
	if quantity <= 0 {
		return models.InvalidField("quantity", "must be a positive integer")
	}
	e.add(item.ID, item.Name, item.UnitPrice, quantity)
	return nil
}

// AddCustomItem adds an ad-hoc line that is not part of the catalog and
// returns its generated id
func (e *Engine) AddCustomItem(name string, price decimal.Decimal, quantity int) (string, error) {
	if price.IsNegative() {
		return "", models.InvalidField("price", "must not be negative")
	}
	if quantity <= 0 {
		return "", models.InvalidField("quantity", "must be a positive integer")
	}
	if name == "" {
		name = fmt.Sprintf("Item%d", e.now().UnixMilli())
	}
	id := "quick-" + e.newID()
	e.lines = append(e.lines, newLine(id, name, price, quantity))
	return id, nil
}

func (e *Engine) add(id, name string, price decimal.Decimal, quantity int) {
	if i := e.find(id); i >= 0 {
		line := &e.lines[i]
		line.Quantity += quantity
		line.LineTotal = lineTotal(line.UnitPrice, line.Quantity)
		return
	}
	e.lines = append(e.lines, newLine(id, name, price, quantity))
}

// SetQuantity sets the quantity of a line; zero or less removes it.
// Unknown ids are ignored.
func (e *Engine) SetQuantity(itemID string, quantity int) {
	i := e.find(itemID)
	if i < 0 {
		return
	}
	if quantity <= 0 {
		e.removeAt(i)
		return
	}
	e.lines[i].Quantity = quantity
	e.lines[i].LineTotal = lineTotal(e.lines[i].UnitPrice, quantity)
}

// RemoveItem deletes a line if present
func (e *Engine) RemoveItem(itemID string) {
	if i := e.find(itemID); i >= 0 {
		e.removeAt(i)
	}
}

// Clear empties the active cart
func (e *Engine) Clear() {
	e.lines = nil
}

// Total returns the sum of all line totals
func (e *Engine) Total() decimal.Decimal {
	return sum(e.lines)
}

// Lines returns a copy of the active cart lines in insertion order
func (e *Engine) Lines() []models.LineItem {
	return cloneLines(e.lines)
}

// Len returns the number of lines in the active cart
func (e *Engine) Len() int {
	return len(e.lines)
}

// IsEmpty reports whether the active cart has no lines
func (e *Engine) IsEmpty() bool {
	return len(e.lines) == 0
}

// Pause moves the active cart into the held list. It returns false and
// changes nothing when the cart is empty.
func (e *Engine) Pause(ownerID string) (models.HeldBill, bool) {
	if len(e.lines) == 0 {
		return models.HeldBill{}, false
	}
	bill := models.HeldBill{
		ID:        e.newID(),
		Items:     cloneLines(e.lines),
		Total:     sum(e.lines),
		CreatedAt: e.now(),
		OwnerID:   ownerID,
	}
	e.held = append(e.held, bill)
	e.lines = nil
	return cloneBill(bill), true
}

// Resume replaces the active cart with a held bill and removes it from the
// held list. Any unsaved active content is discarded.
func (e *Engine) Resume(billID string) (models.HeldBill, error) {
	for i, b := range e.held {
		if b.ID != billID {
			continue
		}
		e.lines = cloneLines(b.Items)
		e.held = append(e.held[:i:i], e.held[i+1:]...)
		return b, nil
	}
	return models.HeldBill{}, fmt.Errorf("held bill %s: %w", billID, models.ErrNotFound)
}

// HeldBills returns a copy of the held list, oldest first
func (e *Engine) HeldBills() []models.HeldBill {
	out := make([]models.HeldBill, len(e.held))
	for i, b := range e.held {
		out[i] = cloneBill(b)
	}
	return out
}

func (e *Engine) find(itemID string) int {
	for i := range e.lines {
		if e.lines[i].ItemID == itemID {
			return i
		}
	}
	return -1
}

func (e *Engine) removeAt(i int) {
	e.lines = append(e.lines[:i:i], e.lines[i+1:]...)
}

func newLine(id, name string, price decimal.Decimal, quantity int) models.LineItem {
	return models.LineItem{
		ItemID:    id,
		ItemName:  name,
		Quantity:  quantity,
		UnitPrice: price,
		LineTotal: lineTotal(price, quantity),
	}
}

func lineTotal(price decimal.Decimal, quantity int) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(quantity)))
}

func sum(lines []models.LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.LineTotal)
	}
	return total
}

func cloneLines(lines []models.LineItem) []models.LineItem {
	if len(lines) == 0 {
		return nil
	}
	out := make([]models.LineItem, len(lines))
	copy(out, lines)
	return out
}

func cloneBill(b models.HeldBill) models.HeldBill {
	b.Items = cloneLines(b.Items)
	return b
}
