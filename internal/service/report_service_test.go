package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"pos-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportService_Report(t *testing.T) {
	env := newTestEnv(t)
	admin, _ := caller("1", models.RoleAdmin)
	ctx := context.Background()

	tests := []struct {
		period       Period
		total        string
		transactions int
		profit       string
		average      string
	}{
		{PeriodDaily, "199.94", 2, "59.98", "99.97"},
		{PeriodWeekly, "275.88", 3, "82.76", "91.96"},
		{PeriodMonthly, "275.88", 3, "82.76", "91.96"},
		{PeriodYearly, "275.88", 3, "82.76", "91.96"},
	}

	for _, tt := range tests {
		t.Run(string(tt.period), func(t *testing.T) {
			report, err := env.reports.Report(ctx, admin, tt.period)
			require.NoError(t, err)
			assert.Equal(t, tt.total, report.TotalSales.StringFixed(2))
			assert.Equal(t, tt.transactions, report.Transactions)
			assert.Equal(t, tt.profit, report.Profit.StringFixed(2))
			assert.Equal(t, tt.average, report.AverageOrderValue.StringFixed(2))
		})
	}
}

func TestReportService_TopItemsAndStock(t *testing.T) {
	env := newTestEnv(t)
	admin, _ := caller("1", models.RoleAdmin)

	report, err := env.reports.Report(context.Background(), admin, PeriodMonthly)
	require.NoError(t, err)

	require.Len(t, report.TopItems, 5)
	assert.Equal(t, "Notebook A4", report.TopItems[0].Name)
	assert.Equal(t, 5, report.TopItems[0].Quantity)
	assert.Equal(t, "Cotton T-Shirt", report.TopItems[1].Name)
	assert.Equal(t, "59.97", report.TopItems[1].Revenue.StringFixed(2))

	require.Len(t, report.StockByCategory, 4)
	electronics := report.StockByCategory[0]
	assert.Equal(t, "Electronics", electronics.Category)
	assert.Equal(t, 2, electronics.Items)
	assert.Equal(t, 37, electronics.Units)
	assert.Equal(t, "2801.63", electronics.Value.StringFixed(2))
}

func TestReportService_EmptyPeriod(t *testing.T) {
	env := newTestEnv(t)
	admin, _ := caller("1", models.RoleAdmin)
	env.reports.now = func() time.Time { return time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC) }

	report, err := env.reports.Report(context.Background(), admin, PeriodYearly)
	require.NoError(t, err)
	assert.Zero(t, report.Transactions)
	assert.True(t, report.AverageOrderValue.IsZero())
	assert.Empty(t, report.TopItems)
}

func TestReportService_ExportReport(t *testing.T) {
	env := newTestEnv(t)
	admin, _ := caller("1", models.RoleAdmin)
	cashier, _ := caller("2", models.RoleCashier)
	ctx := context.Background()

	name, data, err := env.reports.ExportReport(ctx, admin, PeriodDaily)
	require.NoError(t, err)
	assert.Equal(t, "pos-report-daily-2024-08-15.json", name)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "daily", doc["period"])
	assert.EqualValues(t, 2, doc["total_transactions"])

	_, _, err = env.reports.ExportReport(ctx, cashier, PeriodDaily)
	assert.ErrorIs(t, err, models.ErrForbidden)

	_, err = ParsePeriod("hourly")
	assert.ErrorIs(t, err, models.ErrInvalidField)
}

func TestReportService_BillHistory(t *testing.T) {
	env := newTestEnv(t)
	cashier, _ := caller("2", models.RoleCashier)
	ctx := context.Background()

	invoices := func(rs []models.Receipt) []string {
		var out []string
		for _, r := range rs {
			out = append(out, r.InvoiceID)
		}
		return out
	}

	tests := []struct {
		name   string
		filter BillFilter
		want   []string
	}{
		{"all newest first", BillFilter{}, []string{"INV-2024-002", "INV-2024-001", "INV-2024-003"}},
		{"mine", BillFilter{Mine: true}, []string{"INV-2024-002", "INV-2024-001"}},
		{"customer name", BillFilter{Search: "john doe"}, []string{"INV-2024-001"}},
		{"invoice id", BillFilter{Search: "inv-2024-003"}, []string{"INV-2024-003"}},
		{"method", BillFilter{Method: models.PaymentUPI}, []string{"INV-2024-003"}},
		{"today", BillFilter{Window: WindowToday}, []string{"INV-2024-002", "INV-2024-001"}},
		{"week", BillFilter{Window: WindowWeek, Method: models.PaymentCash}, []string{"INV-2024-002"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bills, err := env.reports.BillHistory(ctx, cashier, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, invoices(bills))
		})
	}

	_, err := env.reports.BillHistory(ctx, cashier, BillFilter{Window: "decade"})
	assert.ErrorIs(t, err, models.ErrInvalidField)

	salesman, _ := caller("3", models.RoleSalesman)
	_, err = env.reports.BillHistory(ctx, salesman, BillFilter{})
	assert.ErrorIs(t, err, models.ErrForbidden)
}

func TestReportService_ExportBillHistory(t *testing.T) {
	env := newTestEnv(t)
	cashier, rec := caller("2", models.RoleCashier)

	name, data, err := env.reports.ExportBillHistory(context.Background(), cashier, BillFilter{Mine: true})
	require.NoError(t, err)
	assert.Equal(t, "bill-history-2024-08-15.json", name)

	var doc BillHistoryExport
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, 2, doc.TotalBills)
	assert.Equal(t, "199.94", doc.TotalAmount.StringFixed(2))
	assert.Equal(t, "all", doc.Period)
	assert.Equal(t, "Data Exported", rec.Messages()[0].Title)
}

func TestReportService_ReceiptText(t *testing.T) {
	env := newTestEnv(t)
	cashier, _ := caller("2", models.RoleCashier)
	ctx := context.Background()

	name, text, err := env.reports.ReceiptText(ctx, cashier, "INV-2024-003")
	require.NoError(t, err)
	assert.Equal(t, "receipt-INV-2024-003.txt", name)
	assert.Contains(t, text, "Cashier: Sarah Cashier")
	assert.Contains(t, text, "Notebook A4 x5 - $29.95")
	assert.Contains(t, text, "Payment: UPI")

	_, _, err = env.reports.ReceiptText(ctx, cashier, "INV-0000")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

type failingArchive struct{}

func (failingArchive) ListSales(context.Context, time.Time) ([]models.Receipt, error) {
	return nil, errors.New("connection refused")
}

type staticArchive []models.Receipt

func (a staticArchive) ListSales(context.Context, time.Time) ([]models.Receipt, error) {
	return a, nil
}

func TestArchivedSaleHistory(t *testing.T) {
	ctx := context.Background()
	local := NewMemorySaleHistory([]models.Receipt{
		{InvoiceID: "INV-A", Total: money("1.00")},
		{InvoiceID: "INV-B", Total: money("2.00")},
	})

	merged, err := NewArchivedSaleHistory(local, staticArchive{
		{InvoiceID: "INV-B", Total: money("2.00")},
		{InvoiceID: "INV-OLD", Total: money("3.00")},
	}).All(ctx)
	require.NoError(t, err)
	assert.Len(t, merged, 3)

	fallback, err := NewArchivedSaleHistory(local, failingArchive{}).All(ctx)
	assert.Error(t, err)
	assert.Len(t, fallback, 2)
}
