package service

import (
	"context"
	"sync"
	"time"

	"pos-service/internal/models"
)

// SaleHistory keeps completed receipts
type SaleHistory interface {
	Record(ctx context.Context, r models.Receipt) error
	All(ctx context.Context) ([]models.Receipt, error)
}

// ArchiveReader lists receipts persisted since a point in time
type ArchiveReader interface {
	ListSales(ctx context.Context, since time.Time) ([]models.Receipt, error)
}

// MemorySaleHistory is a process-local SaleHistory in completion order
type MemorySaleHistory struct {
	mu    sync.RWMutex
	sales []models.Receipt
}

// NewMemorySaleHistory creates a history seeded with receipts
func NewMemorySaleHistory(seed []models.Receipt) *MemorySaleHistory {
	h := &MemorySaleHistory{sales: make([]models.Receipt, 0, len(seed))}
	for _, r := range seed {
		h.sales = append(h.sales, cloneReceipt(r))
	}
	return h
}

func (h *MemorySaleHistory) Record(_ context.Context, r models.Receipt) error {
	h.mu.Lock()
	h.sales = append(h.sales, cloneReceipt(r))
	h.mu.Unlock()
	return nil
}

func (h *MemorySaleHistory) All(_ context.Context) ([]models.Receipt, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]models.Receipt, len(h.sales))
	for i, r := range h.sales {
		out[i] = cloneReceipt(r)
	}
	return out, nil
}

// ArchivedSaleHistory reads receipts from the sales archive and falls back
// to the in-process history when the archive is unavailable
type ArchivedSaleHistory struct {
	*MemorySaleHistory
	archive ArchiveReader
}

// NewArchivedSaleHistory layers archive reads over local
func NewArchivedSaleHistory(local *MemorySaleHistory, archive ArchiveReader) *ArchivedSaleHistory {
	return &ArchivedSaleHistory{MemorySaleHistory: local, archive: archive}
}

// All merges archived receipts with local ones, deduplicated by invoice id
func (h *ArchivedSaleHistory) All(ctx context.Context) ([]models.Receipt, error) {
	local, _ := h.MemorySaleHistory.All(ctx)
	archived, err := h.archive.ListSales(ctx, time.Time{})
	if err != nil {
		return local, err
	}
	seen := make(map[string]bool, len(archived))
	out := make([]models.Receipt, 0, len(archived)+len(local))
	for _, r := range archived {
		seen[r.InvoiceID] = true
		out = append(out, r)
	}
	for _, r := range local {
		if !seen[r.InvoiceID] {
			out = append(out, r)
		}
	}
	return out, nil
}

func cloneReceipt(r models.Receipt) models.Receipt {
	r.Items = append([]models.LineItem(nil), r.Items...)
	if r.Customer != nil {
		c := *r.Customer
		r.Customer = &c
	}
	return r
}
