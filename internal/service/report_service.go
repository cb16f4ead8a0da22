package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"pos-service/internal/checkout"
	"pos-service/internal/models"
	"pos-service/internal/notify"
	"pos-service/internal/util"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Period is a reporting window relative to now
type Period string

// Report periods
const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
	PeriodYearly  Period = "yearly"
)

// Bill history windows
const (
	WindowAll   = "all"
	WindowToday = "today"
	WindowWeek  = "week"
	WindowMonth = "month"
)

const topItemsLimit = 5

const week = 7 * 24 * time.Hour

// TopItem is an item ranked by units sold
type TopItem struct {
	ItemID   string          `json:"item_id"`
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Revenue  decimal.Decimal `json:"revenue"`
}

// CategoryStock is the stock held in one inventory category
type CategoryStock struct {
	Category string          `json:"category"`
	Items    int             `json:"items"`
	Units    int             `json:"units"`
	Value    decimal.Decimal `json:"value"`
}

// SalesReport summarizes the sales of one period
type SalesReport struct {
	Period            Period          `json:"period"`
	TotalSales        decimal.Decimal `json:"total_sales"`
	Transactions      int             `json:"total_transactions"`
	Profit            decimal.Decimal `json:"total_profit"`
	ProfitMargin      decimal.Decimal `json:"profit_margin"`
	AverageOrderValue decimal.Decimal `json:"average_order_value"`
	Customers         int             `json:"customers"`
	TopItems          []TopItem       `json:"top_items"`
	StockByCategory   []CategoryStock `json:"stock_by_category"`
	GeneratedAt       time.Time       `json:"generated_at"`
}

// BillFilter narrows the bill history
type BillFilter struct {
	Search string
	Window string
	Method models.PaymentMethod
	Mine   bool
}

// BillHistoryExport is the downloadable bill history document
type BillHistoryExport struct {
	ExportDate  time.Time        `json:"export_date"`
	Cashier     string           `json:"cashier"`
	Period      string           `json:"period"`
	TotalBills  int              `json:"total_bills"`
	TotalAmount decimal.Decimal  `json:"total_amount"`
	Bills       []models.Receipt `json:"bills"`
}

// ReportService computes sales reports and bill history
type ReportService struct {
	history   SaleHistory
	inventory *InventoryService
	users     *UserService
	margin    decimal.Decimal
	now       func() time.Time
	logger    *zap.Logger
}

// NewReportService creates the reporting service. margin is the profit share
// of revenue.
func NewReportService(history SaleHistory, inventory *InventoryService, users *UserService, margin decimal.Decimal) *ReportService {
	return &ReportService{
		history:   history,
		inventory: inventory,
		users:     users,
		margin:    margin,
		now:       time.Now,
		logger:    util.GetLogger(),
	}
}

// ParsePeriod validates a period name
func ParsePeriod(s string) (Period, error) {
	switch p := Period(s); p {
	case PeriodDaily, PeriodWeekly, PeriodMonthly, PeriodYearly:
		return p, nil
	}
	return "", models.InvalidField("period", "must be daily, weekly, monthly or yearly")
}

// Report builds the sales report for period
func (r *ReportService) Report(ctx context.Context, c Caller, period Period) (SalesReport, error) {
	ctx, span := util.StartSpan(ctx, "ReportService.Report")
	defer span.End()

	if err := c.require("view reports", models.RoleAdmin); err != nil {
		return SalesReport{}, err
	}
	if _, err := ParsePeriod(string(period)); err != nil {
		return SalesReport{}, c.fail(err)
	}

	now := r.now()
	sales := r.sales(ctx)
	report := SalesReport{
		Period:            period,
		TotalSales:        decimal.Zero,
		ProfitMargin:      r.margin,
		AverageOrderValue: decimal.Zero,
		GeneratedAt:       now,
	}
	var inPeriod []models.Receipt
	for _, s := range sales {
		if inReportPeriod(s.Timestamp, now, period) {
			inPeriod = append(inPeriod, s)
			report.TotalSales = report.TotalSales.Add(s.Total)
			if s.Customer != nil {
				report.Customers++
			}
		}
	}
	report.Transactions = len(inPeriod)
	report.Profit = report.TotalSales.Mul(r.margin)
	if report.Transactions > 0 {
		report.AverageOrderValue = report.TotalSales.Div(decimal.NewFromInt(int64(report.Transactions))).Round(2)
	}
	report.TopItems = topItems(inPeriod, topItemsLimit)
	report.StockByCategory = stockByCategory(r.inventory.Snapshot())
	return report, nil
}

// ExportReport renders the period report as a JSON download
func (r *ReportService) ExportReport(ctx context.Context, c Caller, period Period) (string, []byte, error) {
	report, err := r.Report(ctx, c, period)
	if err != nil {
		return "", nil, err
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", nil, fmt.Errorf("failed to encode report: %w", err)
	}
	name := fmt.Sprintf("pos-report-%s-%s.json", period, report.GeneratedAt.Format("2006-01-02"))
	c.notify(notify.Success("Report Exported", fmt.Sprintf("%s report has been exported", period)))
	return name, data, nil
}

// BillHistory returns the receipts matching f, newest first
func (r *ReportService) BillHistory(ctx context.Context, c Caller, f BillFilter) ([]models.Receipt, error) {
	ctx, span := util.StartSpan(ctx, "ReportService.BillHistory")
	defer span.End()

	if err := c.require("view bill history", billingRoles...); err != nil {
		return nil, err
	}
	switch f.Window {
	case "", WindowAll, WindowToday, WindowWeek, WindowMonth:
	default:
		return nil, c.fail(models.InvalidField("period", "must be all, today, week or month"))
	}
	if f.Method != "" && !f.Method.Valid() {
		return nil, c.fail(models.InvalidField("payment_method", fmt.Sprintf("unsupported method %q", f.Method)))
	}

	now := r.now()
	m := newMatcher(f.Search)
	var out []models.Receipt
	for _, s := range r.sales(ctx) {
		if f.Mine && s.CashierID != c.Identity.ID {
			continue
		}
		if f.Method != "" && s.PaymentMethod != f.Method {
			continue
		}
		if !inWindow(s.Timestamp, now, f.Window) {
			continue
		}
		customer := ""
		if s.Customer != nil {
			customer = s.Customer.Name
		}
		if !m.matches(s.InvoiceID, customer) {
			continue
		}
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out, nil
}

// ExportBillHistory renders the filtered bill history as a JSON download
func (r *ReportService) ExportBillHistory(ctx context.Context, c Caller, f BillFilter) (string, []byte, error) {
	bills, err := r.BillHistory(ctx, c, f)
	if err != nil {
		return "", nil, err
	}
	window := f.Window
	if window == "" {
		window = WindowAll
	}
	doc := BillHistoryExport{
		ExportDate:  r.now(),
		Cashier:     c.Identity.Name,
		Period:      window,
		TotalBills:  len(bills),
		TotalAmount: decimal.Zero,
		Bills:       bills,
	}
	for _, b := range bills {
		doc.TotalAmount = doc.TotalAmount.Add(b.Total)
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", nil, fmt.Errorf("failed to encode bill history: %w", err)
	}
	c.notify(notify.Success("Data Exported", "Bill history has been exported successfully"))
	return fmt.Sprintf("bill-history-%s.json", doc.ExportDate.Format("2006-01-02")), data, nil
}

// ReceiptText renders the receipt of a past sale as a text download
func (r *ReportService) ReceiptText(ctx context.Context, c Caller, invoiceID string) (string, string, error) {
	ctx, span := util.StartSpan(ctx, "ReportService.ReceiptText")
	defer span.End()

	if err := c.require("download receipt", billingRoles...); err != nil {
		return "", "", err
	}
	for _, s := range r.sales(ctx) {
		if s.InvoiceID == invoiceID {
			c.notify(notify.Success("Receipt Downloaded", fmt.Sprintf("Receipt for %s has been downloaded", invoiceID)))
			return checkout.ReceiptFilename(invoiceID), checkout.FormatReceipt(s, r.users.Name(s.CashierID)), nil
		}
	}
	return "", "", c.fail(fmt.Errorf("invoice %s: %w", invoiceID, models.ErrNotFound))
}

func (r *ReportService) sales(ctx context.Context) []models.Receipt {
	sales, err := r.history.All(ctx)
	if err != nil {
		r.logger.Warn("Sale history incomplete", zap.Error(err))
	}
	return sales
}

func inReportPeriod(ts, now time.Time, p Period) bool {
	ts = ts.In(now.Location())
	switch p {
	case PeriodDaily:
		return sameDay(ts, now)
	case PeriodWeekly:
		return !ts.Before(now.Add(-week))
	case PeriodMonthly:
		return ts.Year() == now.Year() && ts.Month() == now.Month()
	case PeriodYearly:
		return ts.Year() == now.Year()
	}
	return false
}

func inWindow(ts, now time.Time, window string) bool {
	switch window {
	case WindowToday:
		return inReportPeriod(ts, now, PeriodDaily)
	case WindowWeek:
		return inReportPeriod(ts, now, PeriodWeekly)
	case WindowMonth:
		return inReportPeriod(ts, now, PeriodMonthly)
	}
	return true
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func topItems(sales []models.Receipt, limit int) []TopItem {
	byID := make(map[string]*TopItem)
	var order []string
	for _, s := range sales {
		for _, l := range s.Items {
			t, ok := byID[l.ItemID]
			if !ok {
				t = &TopItem{ItemID: l.ItemID, Name: l.ItemName, Revenue: decimal.Zero}
				byID[l.ItemID] = t
				order = append(order, l.ItemID)
			}
			t.Quantity += l.Quantity
			t.Revenue = t.Revenue.Add(l.LineTotal)
		}
	}
	out := make([]TopItem, 0, len(order))
	for _, id := range order {
		out = append(out, *byID[id])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Quantity > out[j].Quantity
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func stockByCategory(items []models.InventoryItem) []CategoryStock {
	idx := make(map[string]int)
	var out []CategoryStock
	for _, it := range items {
		i, ok := idx[it.Category]
		if !ok {
			i = len(out)
			idx[it.Category] = i
			out = append(out, CategoryStock{Category: it.Category, Value: decimal.Zero})
		}
		out[i].Items++
		out[i].Units += it.Stock
		out[i].Value = out[i].Value.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Stock))))
	}
	return out
}
