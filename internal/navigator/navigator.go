// Package navigator implements the category → brand → item drill-down used
// at the terminal, with keyboard selection, per-level search and pending
// quantities for items.
package navigator

import (
	"errors"
	"fmt"
	"strings"

	"pos-service/internal/catalog"
	"pos-service/internal/models"

	"golang.org/x/text/cases"
)

// Level is the current depth of the drill-down
type Level int

// Drill-down levels
const (
	LevelCategories Level = iota
	LevelBrands
	LevelItems
)

func (l Level) String() string {
	switch l {
	case LevelCategories:
		return "categories"
	case LevelBrands:
		return "brands"
	case LevelItems:
		return "items"
	}
	return fmt.Sprintf("level(%d)", int(l))
}

// MarshalText encodes the level by name
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// ErrWrongLevel is returned when a transition is not valid from the current level
var ErrWrongLevel = errors.New("transition not valid at current level")

// Adder receives items activated at the items level
type Adder interface {
	AddItem(item catalog.Item, quantity int) error
}

// Entry is one visible card at the current level
type Entry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// State is a snapshot of the navigator
type State struct {
	Level            Level             `json:"level"`
	SelectedCategory *catalog.Category `json:"selected_category"`
	SelectedBrand    *catalog.Brand    `json:"selected_brand"`
	SelectionIndex   int               `json:"selection_index"`
	SearchText       string            `json:"search_text"`
}

// ActivationKind tells what ActivateSelection did
type ActivationKind int

// Activation outcomes
const (
	ActivatedNothing ActivationKind = iota
	ActivatedCategory
	ActivatedBrand
	ActivatedItem
)

// Activation describes the effect of ActivateSelection
type Activation struct {
	Kind     ActivationKind
	ID       string
	Item     catalog.Item
	Quantity int
}

// Navigator is the drill-down state machine. It is owned by one session and
// not safe for concurrent use.
type Navigator struct {
	index *catalog.Index
	cart  Adder
	fold  cases.Caser

	level      Level
	categoryID string
	brandID    string
	selection  int
	search     string
	pending    map[string]int
}

// New creates a navigator at the category root
func New(index *catalog.Index, cart Adder) *Navigator {
	return &Navigator{
		index:   index,
		cart:    cart,
		fold:    cases.Fold(),
		pending: make(map[string]int),
	}
}

// State returns a snapshot of the current state
func (n *Navigator) State() State {
	s := State{
		Level:          n.level,
		SelectionIndex: n.selection,
		SearchText:     n.search,
	}
	if n.categoryID != "" {
		if c, ok := n.index.Category(n.categoryID); ok {
			s.SelectedCategory = &c
		}
	}
	if n.brandID != "" {
		if b, ok := n.index.Brand(n.brandID); ok {
			s.SelectedBrand = &b
		}
	}
	return s
}

// Level returns the current level
func (n *Navigator) Level() Level {
	return n.level
}

// Visible returns the entries shown at the current level after search filtering
func (n *Navigator) Visible() []Entry {
	var all []Entry
	switch n.level {
	case LevelCategories:
		for _, c := range n.index.Categories() {
			all = append(all, Entry{ID: c.ID, Name: c.Name})
		}
	case LevelBrands:
		for _, b := range n.index.Brands(n.categoryID) {
			all = append(all, Entry{ID: b.ID, Name: b.Name})
		}
	case LevelItems:
		for _, it := range n.index.Items(n.brandID) {
			all = append(all, Entry{ID: it.ID, Name: it.Name})
		}
	}
	if n.search == "" {
		return all
	}

	needle := n.fold.String(n.search)
	out := make([]Entry, 0, len(all))
	for _, e := range all {
		if strings.Contains(n.fold.String(e.Name), needle) ||
			(n.level == LevelItems && strings.Contains(n.fold.String(e.ID), needle)) {
			out = append(out, e)
		}
	}
	return out
}

// Selected returns the entry under the selection index
func (n *Navigator) Selected() (Entry, bool) {
	visible := n.Visible()
	if n.selection < 0 || n.selection >= len(visible) {
		return Entry{}, false
	}
	return visible[n.selection], true
}

// EnterCategory moves from the category root into a category's brands
func (n *Navigator) EnterCategory(categoryID string) error {
	if n.level != LevelCategories {
		return fmt.Errorf("enter category at %s: %w", n.level, ErrWrongLevel)
	}
	if _, ok := n.index.Category(categoryID); !ok {
		return fmt.Errorf("category %s: %w", categoryID, models.ErrNotFound)
	}
	n.level = LevelBrands
	n.categoryID = categoryID
	n.reset()
	return nil
}

// EnterBrand moves from a category's brands into a brand's items
func (n *Navigator) EnterBrand(brandID string) error {
	if n.level != LevelBrands {
		return fmt.Errorf("enter brand at %s: %w", n.level, ErrWrongLevel)
	}
	if !n.index.BrandBelongsTo(brandID, n.categoryID) {
		return fmt.Errorf("brand %s in category %s: %w", brandID, n.categoryID, models.ErrNotFound)
	}
	n.level = LevelItems
	n.brandID = brandID
	n.reset()
	return nil
}

// GoBack moves up one level; no-op at the root
func (n *Navigator) GoBack() {
	switch n.level {
	case LevelItems:
		n.level = LevelBrands
		n.brandID = ""
	case LevelBrands:
		n.level = LevelCategories
		n.categoryID = ""
	default:
		return
	}
	n.reset()
}

// GoHome returns to the category root clearing selections and search
func (n *Navigator) GoHome() {
	n.level = LevelCategories
	n.categoryID = ""
	n.brandID = ""
	n.reset()
}

// SetSearch filters the current level. The selection resets to 0 when the
// filtered list changes and is always kept in bounds.
func (n *Navigator) SetSearch(text string) {
	before := n.Visible()
	n.search = text
	after := n.Visible()
	if !sameEntries(before, after) {
		n.selection = 0
	}
	n.clamp(len(after))
}

// MoveSelection moves the selection by delta, clamped to the visible list
func (n *Navigator) MoveSelection(delta int) {
	n.selection += delta
	n.clamp(len(n.Visible()))
}

// ActivateSelection enters the selected category or brand, or adds the
// selected item to the cart with its pending quantity and returns home
func (n *Navigator) ActivateSelection() (Activation, error) {
	entry, ok := n.Selected()
	if !ok {
		return Activation{Kind: ActivatedNothing}, nil
	}

	switch n.level {
	case LevelCategories:
		if err := n.EnterCategory(entry.ID); err != nil {
			return Activation{}, err
		}
		return Activation{Kind: ActivatedCategory, ID: entry.ID}, nil
	case LevelBrands:
		if err := n.EnterBrand(entry.ID); err != nil {
			return Activation{}, err
		}
		return Activation{Kind: ActivatedBrand, ID: entry.ID}, nil
	}

	item, ok := n.index.Item(entry.ID)
	if !ok {
		return Activation{}, fmt.Errorf("item %s: %w", entry.ID, models.ErrNotFound)
	}
	qty := n.PendingQuantity(item.ID)
	if err := n.cart.AddItem(item, qty); err != nil {
		return Activation{}, err
	}
	delete(n.pending, item.ID)
	n.GoHome()
	return Activation{Kind: ActivatedItem, ID: item.ID, Item: item, Quantity: qty}, nil
}

// PendingQuantity returns the quantity that activating itemID would add
func (n *Navigator) PendingQuantity(itemID string) int {
	if q, ok := n.pending[itemID]; ok {
		return q
	}
	return 1
}

// SetPendingQuantity sets the pending quantity of an item of the current brand
func (n *Navigator) SetPendingQuantity(itemID string, quantity int) error {
	if n.level != LevelItems {
		return fmt.Errorf("set quantity at %s: %w", n.level, ErrWrongLevel)
	}
	if quantity < 1 {
		return models.InvalidField("quantity", "must be at least 1")
	}
	if !n.inCurrentBrand(itemID) {
		return fmt.Errorf("item %s: %w", itemID, models.ErrNotFound)
	}
	n.pending[itemID] = quantity
	return nil
}

// IncrementPending raises the selected item's pending quantity by one
func (n *Navigator) IncrementPending() {
	if entry, ok := n.selectedItem(); ok {
		n.pending[entry.ID] = n.PendingQuantity(entry.ID) + 1
	}
}

// DecrementPending lowers the selected item's pending quantity, never below one
func (n *Navigator) DecrementPending() {
	if entry, ok := n.selectedItem(); ok {
		if q := n.PendingQuantity(entry.ID); q > 1 {
			n.pending[entry.ID] = q - 1
		}
	}
}

func (n *Navigator) selectedItem() (Entry, bool) {
	if n.level != LevelItems {
		return Entry{}, false
	}
	return n.Selected()
}

func (n *Navigator) inCurrentBrand(itemID string) bool {
	for _, it := range n.index.Items(n.brandID) {
		if it.ID == itemID {
			return true
		}
	}
	return false
}

func (n *Navigator) reset() {
	n.search = ""
	n.selection = 0
}

func (n *Navigator) clamp(length int) {
	if length == 0 || n.selection < 0 {
		n.selection = 0
		return
	}
	if n.selection > length-1 {
		n.selection = length - 1
	}
}

func sameEntries(a, b []Entry) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID {
			return false
		}
	}
	return true
}
