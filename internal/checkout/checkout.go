// Package checkout finalizes a session's cart into a receipt.
package checkout

import (
	"fmt"
	"strings"

	"pos-service/internal/models"

	"github.com/shopspring/decimal"
)

// Cart is the part of the cart engine checkout needs
type Cart interface {
	Lines() []models.LineItem
	Total() decimal.Decimal
	IsEmpty() bool
	Clear()
}

// Checkout settles the active cart of one session
type Checkout struct {
	cart     Cart
	invoices *InvoiceSequence
}

// New creates a checkout over cart. Invoices are shared by all sessions of a
// process so ids stay unique.
func New(cart Cart, invoices *InvoiceSequence) *Checkout {
	return &Checkout{cart: cart, invoices: invoices}
}

// ProcessPayment settles the cart and clears it. Nothing changes when the
// cart is empty or the method is unknown.
func (c *Checkout) ProcessPayment(method models.PaymentMethod, cashierID string, customer *models.Customer) (models.Receipt, error) {
	if c.cart.IsEmpty() {
		return models.Receipt{}, models.ErrEmptyCart
	}
	if !method.Valid() {
		return models.Receipt{}, models.InvalidField("payment_method", fmt.Sprintf("unsupported method %q", method))
	}

	invoiceID, ts := c.invoices.Next()
	receipt := models.Receipt{
		InvoiceID:     invoiceID,
		CashierID:     cashierID,
		Items:         c.cart.Lines(),
		Total:         c.cart.Total(),
		PaymentMethod: method,
		Timestamp:     ts,
		Customer:      normalizeCustomer(customer),
	}
	c.cart.Clear()
	return receipt, nil
}

func normalizeCustomer(c *models.Customer) *models.Customer {
	if c == nil {
		return nil
	}
	out := models.Customer{Name: strings.TrimSpace(c.Name), Phone: strings.TrimSpace(c.Phone)}
	if out.Name == "" && out.Phone == "" {
		return nil
	}
	return &out
}
