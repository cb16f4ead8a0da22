package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"pos-service/internal/models"
	"pos-service/internal/notify"
	"pos-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// restockMargin is how far above its threshold a bulk restock lifts an item
const restockMargin = 10

// InventoryFilter narrows List; empty fields match everything
type InventoryFilter struct {
	Search   string
	Category string
}

// InventoryService manages stocked items
type InventoryService struct {
	mu               sync.RWMutex
	items            []models.InventoryItem
	defaultThreshold int
	now              func() time.Time
	logger           *zap.Logger
}

// NewInventoryService creates an inventory seeded with items
func NewInventoryService(seed []models.InventoryItem, defaultThreshold int) *InventoryService {
	items := make([]models.InventoryItem, len(seed))
	copy(items, seed)
	return &InventoryService{
		items:            items,
		defaultThreshold: defaultThreshold,
		now:              time.Now,
		logger:           util.GetLogger(),
	}
}

// Snapshot returns a copy of every item
func (s *InventoryService) Snapshot() []models.InventoryItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.InventoryItem, len(s.items))
	copy(out, s.items)
	return out
}

// List returns items matching filter. Salesmen may browse to request stock.
func (s *InventoryService) List(c Caller, f InventoryFilter) ([]models.InventoryItem, error) {
	if err := c.require("list inventory", models.RoleAdmin, models.RoleSalesman); err != nil {
		return nil, err
	}
	m := newMatcher(f.Search)

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.InventoryItem, 0, len(s.items))
	for _, it := range s.items {
		if f.Category != "" && it.Category != f.Category {
			continue
		}
		if !m.matches(it.Name, it.Barcode, it.ID) {
			continue
		}
		out = append(out, it)
	}
	return out, nil
}

// Get returns an item by id
func (s *InventoryService) Get(id string) (models.InventoryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.index(id); i >= 0 {
		return s.items[i], nil
	}
	return models.InventoryItem{}, fmt.Errorf("item %s: %w", id, models.ErrNotFound)
}

// Categories returns the distinct categories in first-seen order
func (s *InventoryService) Categories() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]bool)
	var out []string
	for _, it := range s.items {
		if !seen[it.Category] {
			seen[it.Category] = true
			out = append(out, it.Category)
		}
	}
	return out
}

// LowStock returns items at or below their threshold
func (s *InventoryService) LowStock(c Caller) ([]models.InventoryItem, error) {
	if err := c.require("list low stock", models.RoleAdmin, models.RoleSalesman); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.InventoryItem
	for _, it := range s.items {
		if it.IsLowStock() {
			out = append(out, it)
		}
	}
	return out, nil
}

// Add creates an item, filling in the threshold and barcode when absent
func (s *InventoryService) Add(ctx context.Context, c Caller, it models.InventoryItem) (models.InventoryItem, error) {
	_, span := util.StartSpan(ctx, "InventoryService.Add")
	defer span.End()

	if err := c.require("add item", models.RoleAdmin); err != nil {
		return models.InventoryItem{}, err
	}
	it.Name = strings.TrimSpace(it.Name)
	it.Category = strings.TrimSpace(it.Category)
	if err := validateInventoryItem(it); err != nil {
		return models.InventoryItem{}, c.fail(err)
	}
	if it.LowStockThreshold <= 0 {
		it.LowStockThreshold = s.defaultThreshold
	}
	if it.Barcode == "" {
		it.Barcode = fmt.Sprintf("BC%d", s.now().UnixMilli())
	}
	it.ID = "item-" + uuid.New().String()

	s.mu.Lock()
	s.items = append(s.items, it)
	s.mu.Unlock()

	s.logger.Info("Inventory item added", zap.String("item_id", it.ID))
	c.notify(notify.Success("Success", fmt.Sprintf("%s has been added to inventory", it.Name)))
	return it, nil
}

// Update replaces the item with the same id
func (s *InventoryService) Update(ctx context.Context, c Caller, it models.InventoryItem) (models.InventoryItem, error) {
	_, span := util.StartSpan(ctx, "InventoryService.Update")
	defer span.End()

	if err := c.require("update item", models.RoleAdmin); err != nil {
		return models.InventoryItem{}, err
	}
	it.Name = strings.TrimSpace(it.Name)
	it.Category = strings.TrimSpace(it.Category)
	if err := validateInventoryItem(it); err != nil {
		return models.InventoryItem{}, c.fail(err)
	}

	s.mu.Lock()
	i := s.index(it.ID)
	if i < 0 {
		s.mu.Unlock()
		return models.InventoryItem{}, c.fail(fmt.Errorf("item %s: %w", it.ID, models.ErrNotFound))
	}
	if it.LowStockThreshold <= 0 {
		it.LowStockThreshold = s.items[i].LowStockThreshold
	}
	s.items[i] = it
	s.mu.Unlock()

	c.notify(notify.Success("Success", fmt.Sprintf("%s has been updated", it.Name)))
	return it, nil
}

// Delete removes an item by id
func (s *InventoryService) Delete(ctx context.Context, c Caller, id string) error {
	_, span := util.StartSpan(ctx, "InventoryService.Delete")
	defer span.End()

	if err := c.require("delete item", models.RoleAdmin); err != nil {
		return err
	}
	s.mu.Lock()
	i := s.index(id)
	if i < 0 {
		s.mu.Unlock()
		return c.fail(fmt.Errorf("item %s: %w", id, models.ErrNotFound))
	}
	removed := s.items[i]
	s.items = append(s.items[:i:i], s.items[i+1:]...)
	s.mu.Unlock()

	c.notify(notify.Success("Success", fmt.Sprintf("%s has been removed from inventory", removed.Name)))
	return nil
}

// UpdateStock sets the stock level of an item
func (s *InventoryService) UpdateStock(ctx context.Context, c Caller, id string, stock int) (models.InventoryItem, error) {
	_, span := util.StartSpan(ctx, "InventoryService.UpdateStock")
	defer span.End()

	if err := c.require("update stock", models.RoleAdmin); err != nil {
		return models.InventoryItem{}, err
	}
	if stock < 0 {
		return models.InventoryItem{}, c.fail(models.InvalidField("stock", "must not be negative"))
	}
	s.mu.Lock()
	i := s.index(id)
	if i < 0 {
		s.mu.Unlock()
		return models.InventoryItem{}, c.fail(fmt.Errorf("item %s: %w", id, models.ErrNotFound))
	}
	s.items[i].Stock = stock
	it := s.items[i]
	s.mu.Unlock()

	c.notify(notify.Success("Stock Updated", fmt.Sprintf("%s stock updated to %d", it.Name, stock)))
	return it, nil
}

// BulkRestock lifts every low-stock item to its threshold plus a margin and
// returns how many items changed
func (s *InventoryService) BulkRestock(ctx context.Context, c Caller) (int, error) {
	_, span := util.StartSpan(ctx, "InventoryService.BulkRestock")
	defer span.End()

	if err := c.require("bulk restock", models.RoleAdmin); err != nil {
		return 0, err
	}
	s.mu.Lock()
	n := 0
	for i := range s.items {
		if s.items[i].IsLowStock() {
			s.items[i].Stock = s.items[i].LowStockThreshold + restockMargin
			n++
		}
	}
	s.mu.Unlock()

	s.logger.Info("Bulk restock", zap.Int("items", n))
	c.notify(notify.Success("Bulk Update Complete", fmt.Sprintf("Updated stock for %d low stock items", n)))
	return n, nil
}

func (s *InventoryService) index(id string) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

func validateInventoryItem(it models.InventoryItem) error {
	switch {
	case it.Name == "":
		return models.InvalidField("name", "is required")
	case it.Category == "":
		return models.InvalidField("category", "is required")
	case it.Price.IsNegative():
		return models.InvalidField("price", "must not be negative")
	case it.Stock < 0:
		return models.InvalidField("stock", "must not be negative")
	case it.LowStockThreshold < 0:
		return models.InvalidField("low_stock_threshold", "must not be negative")
	}
	return nil
}
