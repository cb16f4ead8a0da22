package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CartItemsAddedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_cart_items_added_total",
		Help: "Total number of cart add operations",
	}, []string{"source"})

	BillsPausedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pos_bills_paused_total",
		Help: "Total number of bills moved to the held list",
	})

	BillsResumedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pos_bills_resumed_total",
		Help: "Total number of held bills restored",
	})

	SalesCompletedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_sales_completed_total",
		Help: "Total number of completed sales",
	}, []string{"payment_method"})

	SalesAmountTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pos_sales_amount_total",
		Help: "Sum of completed sale totals",
	})

	CheckoutFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_checkout_failed_total",
		Help: "Total number of rejected checkouts",
	}, []string{"reason"})

	CheckoutLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pos_checkout_latency_seconds",
		Help:    "Latency of checkout processing",
		Buckets: prometheus.DefBuckets,
	})

	LoginsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_logins_total",
		Help: "Total number of login attempts",
	}, []string{"result"})

	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pos_active_sessions",
		Help: "Number of open terminal sessions",
	})

	StockRequestsProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_stock_requests_processed_total",
		Help: "Total number of stock requests approved or rejected",
	}, []string{"status"})

	SalesArchivedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_sales_archived_total",
		Help: "Total number of sales written to the archive",
	}, []string{"result"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
