package store

import (
	"context"
	"fmt"
	"time"

	"pos-service/internal/models"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type saleRow struct {
	InvoiceID     string          `db:"invoice_id"`
	CashierID     string          `db:"cashier_id"`
	Total         decimal.Decimal `db:"total"`
	PaymentMethod string          `db:"payment_method"`
	CustomerName  string          `db:"customer_name"`
	CustomerPhone string          `db:"customer_phone"`
	CreatedAt     time.Time       `db:"created_at"`
}

type saleItemRow struct {
	InvoiceID string `db:"invoice_id"`
	models.LineItem
}

// SaveSale archives a receipt and its lines. Archiving the same invoice twice
// is a no-op; the returned bool reports whether a row was written.
func (s *Store) SaveSale(ctx context.Context, r models.Receipt) (bool, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var name, phone string
	if r.Customer != nil {
		name, phone = r.Customer.Name, r.Customer.Phone
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO sales (invoice_id, cashier_id, total, payment_method, customer_name, customer_phone, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (invoice_id) DO NOTHING`,
		r.InvoiceID, r.CashierID, r.Total, string(r.PaymentMethod), name, phone, r.Timestamp)
	if err != nil {
		return false, fmt.Errorf("failed to insert sale: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil || n == 0 {
		return false, err
	}

	for i, line := range r.Items {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO sale_items (invoice_id, position, item_id, item_name, quantity, unit_price, line_total)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			r.InvoiceID, i, line.ItemID, line.ItemName, line.Quantity, line.UnitPrice, line.LineTotal)
		if err != nil {
			return false, fmt.Errorf("failed to insert sale item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit sale: %w", err)
	}
	return true, nil
}

// ListSales returns archived receipts created at or after since, newest first
func (s *Store) ListSales(ctx context.Context, since time.Time) ([]models.Receipt, error) {
	var sales []saleRow
	err := s.db.SelectContext(ctx, &sales, `
		SELECT invoice_id, cashier_id, total, payment_method, customer_name, customer_phone, created_at
		FROM sales WHERE created_at >= $1 ORDER BY created_at DESC`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list sales: %w", err)
	}
	if len(sales) == 0 {
		return []models.Receipt{}, nil
	}

	ids := make([]string, len(sales))
	for i, sale := range sales {
		ids[i] = sale.InvoiceID
	}
	query, args, err := sqlx.In(`
		SELECT invoice_id, item_id, item_name, quantity, unit_price, line_total
		FROM sale_items WHERE invoice_id IN (?) ORDER BY invoice_id, position`, ids)
	if err != nil {
		return nil, err
	}

	var items []saleItemRow
	if err := s.db.SelectContext(ctx, &items, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list sale items: %w", err)
	}
	byInvoice := make(map[string][]models.LineItem, len(sales))
	for _, it := range items {
		byInvoice[it.InvoiceID] = append(byInvoice[it.InvoiceID], it.LineItem)
	}

	out := make([]models.Receipt, len(sales))
	for i, sale := range sales {
		out[i] = models.Receipt{
			InvoiceID:     sale.InvoiceID,
			CashierID:     sale.CashierID,
			Items:         byInvoice[sale.InvoiceID],
			Total:         sale.Total,
			PaymentMethod: models.PaymentMethod(sale.PaymentMethod),
			Timestamp:     sale.CreatedAt,
		}
		if sale.CustomerName != "" || sale.CustomerPhone != "" {
			out[i].Customer = &models.Customer{Name: sale.CustomerName, Phone: sale.CustomerPhone}
		}
	}
	return out, nil
}
