package checkout

import (
	"fmt"
	"strings"

	"pos-service/internal/models"
)

const rule = "============================="

// FormatReceipt renders the printable text receipt
func FormatReceipt(r models.Receipt, cashierName string) string {
	var b strings.Builder

	b.WriteString(rule + "\n")
	b.WriteString("POS SYSTEM RECEIPT\n")
	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "Invoice: %s\n", r.InvoiceID)
	fmt.Fprintf(&b, "Date: %s\n", r.Timestamp.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Cashier: %s\n", cashierName)
	if r.Customer != nil {
		if r.Customer.Name != "" {
			fmt.Fprintf(&b, "Customer: %s\n", r.Customer.Name)
		}
		if r.Customer.Phone != "" {
			fmt.Fprintf(&b, "Phone: %s\n", r.Customer.Phone)
		}
	}
	b.WriteString(rule + "\n")
	for _, line := range r.Items {
		fmt.Fprintf(&b, "%s x%d - $%s\n", line.ItemName, line.Quantity, line.LineTotal.StringFixed(2))
	}
	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "Total: $%s\n", r.Total.StringFixed(2))
	fmt.Fprintf(&b, "Payment: %s\n", strings.ToUpper(string(r.PaymentMethod)))
	b.WriteString(rule + "\n")
	b.WriteString("Thank you for your purchase!\n")

	return b.String()
}

// ReceiptFilename is the download name of a text receipt
func ReceiptFilename(invoiceID string) string {
	return fmt.Sprintf("receipt-%s.txt", invoiceID)
}
