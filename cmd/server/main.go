package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pos-service/config"
	"pos-service/internal/api"
	"pos-service/internal/broker"
	"pos-service/internal/catalog"
	"pos-service/internal/checkout"
	"pos-service/internal/navigator"
	"pos-service/internal/notify"
	"pos-service/internal/redisclient"
	"pos-service/internal/service"
	"pos-service/internal/store"
	"pos-service/internal/util"
	"pos-service/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting POS service")

	tp, err := util.InitTracer(util.ServiceName, cfg.Observ.JaegerEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			logger.Error("Error shutting down tracer", zap.Error(err))
		}
	}()

	ctx := context.Background()
	checks := map[string]api.ReadinessCheck{}

	var db *store.Store
	if cfg.Database.URL != "" {
		db, err = store.NewStore(cfg.Database.URL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()
		if err := db.Migrate(ctx); err != nil {
			log.Fatalf("Failed to migrate database: %v", err)
		}
		checks["database"] = db.Ping
		logger.Info("Database connected")
	}

	index, err := loadCatalog(ctx, cfg, db)
	if err != nil {
		log.Fatalf("Failed to load catalog: %v", err)
	}
	categories, brands, items := index.Len()
	logger.Info("Catalog loaded",
		zap.String("source", cfg.Business.CatalogSource),
		zap.Int("categories", categories),
		zap.Int("brands", brands),
		zap.Int("items", items))

	seed, err := service.LoadSeed()
	if err != nil {
		log.Fatalf("Failed to load seed data: %v", err)
	}

	var identities service.IdentityStore
	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Warn("Redis unavailable, sessions will not survive a restart", zap.Error(err))
		identities = service.NewMemoryIdentityStore()
	} else {
		defer redisClient.Close()
		identities = redisClient
		checks["redis"] = redisClient.Ping
		logger.Info("Redis connected")
	}

	var publisher service.EventPublisher = service.NopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicEvents)
		defer producer.Close()
		publisher = broker.NewEventPublisher(producer)
		logger.Info("Kafka producer initialized", zap.String("topic", cfg.Kafka.TopicEvents))
	}

	local := service.NewMemorySaleHistory(seed.Sales)
	var history service.SaleHistory = local
	if db != nil {
		history = service.NewArchivedSaleHistory(local, db)
	}

	users := service.NewUserService(seed.Users)
	inventory := service.NewInventoryService(seed.Inventory, cfg.Business.LowStockThreshold)
	sessions := service.NewSessionRegistry()
	svc := api.Services{
		Auth: service.NewAuthService(users, identities, sessions, service.SessionConfig{
			Catalog:   index,
			Invoices:  checkout.NewInvoiceSequence(nil),
			Keymap:    navigator.Keymap{Columns: cfg.Business.GridColumns},
			HeldBills: seed.HeldBillsFor,
			Notifier:  notify.NewLogNotifier(logger),
		}),
		Terminal:  service.NewTerminalService(index, history, publisher),
		Inventory: inventory,
		Users:     users,
		Requests:  service.NewRequestService(seed.Requests, publisher),
		Reports:   service.NewReportService(history, inventory, users, cfg.Business.ProfitMargin),
	}

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	var archiveWorker *worker.SaleArchiveWorker
	if db != nil && len(cfg.Kafka.Brokers) > 0 {
		consumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicEvents, cfg.Kafka.ConsumerGroup)
		archiveWorker = worker.NewSaleArchiveWorker(consumer, db)
		go func() {
			if err := archiveWorker.Start(workerCtx); err != nil {
				logger.Error("Sale archive worker error", zap.Error(err))
			}
		}()
	}

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handler := api.NewHandler(svc, checks)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	var metricsSrv *http.Server
	if p := cfg.Observ.PrometheusPort; p != "" && p != cfg.Server.Port {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsSrv = &http.Server{Addr: fmt.Sprintf(":%s", p), Handler: mux}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("Metrics server error", zap.Error(err))
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(shutdownCtx)
	}

	workerCancel()
	if archiveWorker != nil {
		archiveWorker.Stop()
	}

	logger.Info("Server exited", zap.Int("open_sessions", sessions.Len()))
}

func loadCatalog(ctx context.Context, cfg *config.Config, db *store.Store) (*catalog.Index, error) {
	if cfg.Business.CatalogSource != config.CatalogPostgres {
		return catalog.LoadEmbedded()
	}
	if db == nil {
		return nil, fmt.Errorf("catalog source %s requires DATABASE_URL", config.CatalogPostgres)
	}
	return db.LoadCatalog(ctx)
}
