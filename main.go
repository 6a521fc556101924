package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"

	"github.com/yeremiapane/fantasteak-pos/config"
	"github.com/yeremiapane/fantasteak-pos/controllers"
	"github.com/yeremiapane/fantasteak-pos/database"
	"github.com/yeremiapane/fantasteak-pos/kds"
	"github.com/yeremiapane/fantasteak-pos/models"
	"github.com/yeremiapane/fantasteak-pos/printer"
	"github.com/yeremiapane/fantasteak-pos/router"
	"github.com/yeremiapane/fantasteak-pos/services"
	"github.com/yeremiapane/fantasteak-pos/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		utils.ErrorLogger.Fatalf("Invalid configuration: %v", err)
	}
	utils.InitLogger(cfg.LogLevel)

	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize DB
	db, err := database.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		utils.ErrorLogger.Fatalf("Failed to migrate: %v", err)
	}
	store := database.NewOrderStore(db)

	monitor := services.NewChangeMonitor(db)
	monitor.Interval = cfg.FeedInterval
	monitor.Batch = cfg.FeedBatch
	monitor.Retention = cfg.FeedRetain
	if err := monitor.Start(ctx); err != nil {
		utils.ErrorLogger.Fatalf("Failed to start change feed: %v", err)
	}
	defer monitor.Stop()

	hub := kds.NewHub()
	client := services.NewSyncClient(store, monitor)
	client.OnRefresh(func(orders []models.Order) {
		hub.BroadcastOrdersChanged(orders)
	})
	client.Start(ctx)
	defer client.Close()

	transport, err := newTransport(cfg)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to set up printer: %v", err)
	}

	r, err := router.SetupRouter(router.Deps{
		Client:   client,
		Orphans:  store,
		Printer:  printer.NewGuard(transport),
		Hub:      hub,
		Business: cfg.Business,
		Session: controllers.SessionConfig{
			CashierPasscode: cfg.CashierPasscode,
			AdminPasscode:   cfg.AdminPasscode,
			Secret:          cfg.SessionSecret,
			TTL:             cfg.SessionTTL,
			AppRole:         services.Role(cfg.AppRole),
		},
		CORSOrigin: cfg.CORSOrigin,
	})
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to set up router: %v", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		utils.InfoLogger.WithField("role", cfg.AppRole).Printf("Listening on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.ErrorLogger.Fatal(err)
		}
	}()

	<-ctx.Done()
	utils.InfoLogger.Println("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.ErrorLogger.WithError(err).Error("Server shutdown")
	}
}

func newTransport(cfg *config.Config) (printer.Transport, error) {
	switch cfg.PrinterTransport {
	case "tcp":
		return printer.NewNetwork(cfg.PrinterAddr, cfg.PrinterScanTimeout), nil
	case "none":
		return printer.Disabled{}, nil
	}

	service, err := printer.ParseUUID(cfg.PrinterServiceUUID)
	if err != nil {
		return nil, errors.Wrap(err, "PRINTER_SERVICE_UUID")
	}
	char, err := printer.ParseUUID(cfg.PrinterCharUUID)
	if err != nil {
		return nil, errors.Wrap(err, "PRINTER_CHAR_UUID")
	}
	return printer.NewBLE(nil, printer.BLEConfig{
		ServiceUUID: service,
		CharUUID:    char,
		NamePrefix:  cfg.PrinterName,
		ScanTimeout: cfg.PrinterScanTimeout,
		ChunkSize:   cfg.PrinterChunk,
	}), nil
}
