package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Role is the access role of a POS user
type Role string

// User roles
const (
	RoleAdmin    Role = "admin"
	RoleCashier  Role = "cashier"
	RoleSalesman Role = "salesman"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleCashier, RoleSalesman:
		return true
	}
	return false
}

// User represents a POS operator
type User struct {
	ID        string    `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	Email     string    `json:"email" yaml:"email"`
	Role      Role      `json:"role" yaml:"role"`
	IsActive  bool      `json:"is_active" yaml:"is_active"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// Identity is the part of a user that survives a session reload
type Identity struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
	IsActive bool   `json:"is_active"`
}

// Identity returns the persisted identity of u
func (u User) Identity() Identity {
	return Identity{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role, IsActive: u.IsActive}
}

// InventoryItem represents a stocked item managed by admins
type InventoryItem struct {
	ID                string          `json:"id" yaml:"id"`
	Name              string          `json:"name" yaml:"name"`
	Category          string          `json:"category" yaml:"category"`
	Price             decimal.Decimal `json:"price" yaml:"price"`
	Stock             int             `json:"stock" yaml:"stock"`
	LowStockThreshold int             `json:"low_stock_threshold" yaml:"low_stock_threshold"`
	Barcode           string          `json:"barcode,omitempty" yaml:"barcode"`
	Description       string          `json:"description,omitempty" yaml:"description"`
}

// Stock status labels
const (
	StockStatusOut = "Out of Stock"
	StockStatusLow = "Low Stock"
	StockStatusIn  = "In Stock"
)

// IsLowStock reports whether the item is at or below its threshold
func (i InventoryItem) IsLowStock() bool {
	return i.Stock <= i.LowStockThreshold
}

// StockStatus returns the display status of the item's stock level
func (i InventoryItem) StockStatus() string {
	switch {
	case i.Stock == 0:
		return StockStatusOut
	case i.IsLowStock():
		return StockStatusLow
	default:
		return StockStatusIn
	}
}

// LineItem is one product/quantity/price entry within a cart or receipt
type LineItem struct {
	ItemID    string          `json:"item_id" db:"item_id" yaml:"item_id"`
	ItemName  string          `json:"item_name" db:"item_name" yaml:"item_name"`
	Quantity  int             `json:"quantity" db:"quantity" yaml:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price" db:"unit_price" yaml:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total" db:"line_total" yaml:"line_total"`
}

// HeldBill is a paused snapshot of a cart
type HeldBill struct {
	ID        string          `json:"id" yaml:"id"`
	Items     []LineItem      `json:"items" yaml:"items"`
	Total     decimal.Decimal `json:"total" yaml:"total"`
	CreatedAt time.Time       `json:"created_at" yaml:"created_at"`
	OwnerID   string          `json:"owner_id" yaml:"owner_id"`
}

// PaymentMethod is how a bill was settled
type PaymentMethod string

// Payment methods
const (
	PaymentCash PaymentMethod = "cash"
	PaymentCard PaymentMethod = "card"
	PaymentUPI  PaymentMethod = "upi"
)

// Valid reports whether m is an accepted payment method
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentUPI:
		return true
	}
	return false
}

// Customer is optional buyer information attached to a receipt
type Customer struct {
	Name  string `json:"name,omitempty" yaml:"name"`
	Phone string `json:"phone,omitempty" yaml:"phone"`
}

// Receipt is the immutable record of a finalized cart
type Receipt struct {
	InvoiceID     string          `json:"invoice_id" yaml:"invoice_id"`
	CashierID     string          `json:"cashier_id" yaml:"cashier_id"`
	Items         []LineItem      `json:"items" yaml:"items"`
	Total         decimal.Decimal `json:"total" yaml:"total"`
	PaymentMethod PaymentMethod   `json:"payment_method" yaml:"payment_method"`
	Timestamp     time.Time       `json:"timestamp" yaml:"timestamp"`
	Customer      *Customer       `json:"customer,omitempty" yaml:"customer"`
}

// RequestStatus is the processing state of a stock request
type RequestStatus string

// Stock request statuses
const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

// RequestedItem is one line of a stock request
type RequestedItem struct {
	ItemID         string           `json:"item_id,omitempty" yaml:"item_id"`
	ItemName       string           `json:"item_name" yaml:"item_name"`
	Quantity       int              `json:"quantity" yaml:"quantity"`
	IsNewItem      bool             `json:"is_new_item" yaml:"is_new_item"`
	SuggestedPrice *decimal.Decimal `json:"suggested_price,omitempty" yaml:"suggested_price"`
	Category       string           `json:"category,omitempty" yaml:"category"`
}

// StockRequest is a salesman's restocking request awaiting admin review
type StockRequest struct {
	ID            string          `json:"id" yaml:"id"`
	SalesmanID    string          `json:"salesman_id" yaml:"salesman_id"`
	Items         []RequestedItem `json:"items" yaml:"items"`
	Status        RequestStatus   `json:"status" yaml:"status"`
	Message       string          `json:"message,omitempty" yaml:"message"`
	AdminResponse string          `json:"admin_response,omitempty" yaml:"admin_response"`
	CreatedAt     time.Time       `json:"created_at" yaml:"created_at"`
	ProcessedAt   *time.Time      `json:"processed_at,omitempty" yaml:"processed_at"`
	ProcessedBy   string          `json:"processed_by,omitempty" yaml:"processed_by"`
}

// Total returns the value of the request at suggested prices
func (r StockRequest) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range r.Items {
		if item.SuggestedPrice == nil {
			continue
		}
		total = total.Add(item.SuggestedPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}
