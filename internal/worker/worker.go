package worker

import (
	"context"
	"fmt"

	"pos-service/internal/broker"
	"pos-service/internal/models"
	"pos-service/internal/util"

	"go.uber.org/zap"
)

// SaleArchiver persists completed sales
type SaleArchiver interface {
	SaveSale(ctx context.Context, r models.Receipt) (bool, error)
}

// Source delivers messages to a handler until its context ends
type Source interface {
	StartConsuming(ctx context.Context, handler broker.MessageHandler) error
	Close() error
}

// SaleArchiveWorker copies SaleCompleted events into the sales archive
type SaleArchiveWorker struct {
	source       Source
	eventHandler *broker.EventHandler
	archive      SaleArchiver
	logger       *zap.Logger
}

// NewSaleArchiveWorker creates a new archive worker
func NewSaleArchiveWorker(source Source, archive SaleArchiver) *SaleArchiveWorker {
	w := &SaleArchiveWorker{
		source:       source,
		eventHandler: broker.NewEventHandler(),
		archive:      archive,
		logger:       util.GetLogger(),
	}
	w.eventHandler.OnSaleCompleted(w.handleSaleCompleted)
	return w
}

// Start consumes events until ctx is cancelled
func (w *SaleArchiveWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting sale archive worker")
	return w.source.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop closes the underlying consumer
func (w *SaleArchiveWorker) Stop() error {
	w.logger.Info("Stopping sale archive worker")
	return w.source.Close()
}

func (w *SaleArchiveWorker) handleSaleCompleted(ctx context.Context, event *models.SaleCompletedEvent) error {
	ctx, span := util.StartSpan(ctx, "SaleArchiveWorker.HandleSaleCompleted")
	defer span.End()

	written, err := w.archive.SaveSale(ctx, event.Receipt)
	if err != nil {
		util.SalesArchivedTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("failed to archive sale %s: %w", event.Receipt.InvoiceID, err)
	}

	if !written {
		util.SalesArchivedTotal.WithLabelValues("duplicate").Inc()
		w.logger.Info("Sale already archived", zap.String("invoice_id", event.Receipt.InvoiceID))
		return nil
	}

	util.SalesArchivedTotal.WithLabelValues("written").Inc()
	w.logger.Info("Sale archived",
		zap.String("invoice_id", event.Receipt.InvoiceID),
		zap.String("event_id", event.EventID))
	return nil
}
