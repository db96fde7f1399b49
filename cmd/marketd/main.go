package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rentvault/internal/config"
	"rentvault/internal/domain"
	"rentvault/internal/escrow"
	"rentvault/internal/jobs"
	"rentvault/internal/logger"
	"rentvault/internal/metrics"
	"rentvault/internal/notify"
	"rentvault/internal/repository/memory"
	"rentvault/internal/scheduler"
	"rentvault/internal/security"
	"rentvault/internal/service"
	"rentvault/internal/token"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	demo := flag.Bool("demo", false, "Seed a demonstration rental lifecycle at startup")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting RentVault marketplace engine...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress())

	// Initialize the in-memory store, escrow vault and token mint
	store := memory.NewStore()
	vault := escrow.NewVault()
	mint := token.NewMint()

	// Seed escrow accounts from configuration
	for _, account := range cfg.Marketplace.SeedAccounts {
		vault.Fund(domain.Principal(account.Principal), account.BalanceCents)
		logger.Info("Seeded escrow account", "principal", account.Principal, "balance_cents", account.BalanceCents)
	}

	// Initialize Security
	signer := security.NewReceiptSigner(cfg.Receipt.SigningKey)

	// Initialize Metrics
	m := metrics.New()

	// Choose the dispute notifier
	var notifier notify.Notifier
	if cfg.Notify.SendGridAPIKey != "" {
		notifier = notify.NewSendGridNotifier(cfg.Notify.SendGridAPIKey, cfg.Notify.FromEmail, cfg.Notify.FromName, cfg.Notify.AdminEmail)
		logger.Info("Dispute notifications go to the arbiter by email", "admin_email", cfg.Notify.AdminEmail)
	} else {
		notifier = notify.NewLogNotifier()
		logger.Info("Dispute notifications go to the log only")
	}

	// Initialize Services
	gate := service.NewGate()
	admin := domain.Principal(cfg.Marketplace.AdminPrincipal)
	eventSvc := service.NewEventService(store.Events, m)
	identitySvc := service.NewIdentityService(gate, store.Identities, mint, signer, eventSvc, m, admin)
	rentalSvc := service.NewRentalService(gate, store.Rentals, store.Identities, vault, mint, eventSvc, notifier, m)
	disputeSvc := service.NewDisputeService(gate, store.Rentals, vault, eventSvc, m, admin)

	ctx := context.Background()

	// The arbiter takes part in the marketplace as a verified principal
	if _, err := identitySvc.SubmitIdentity(ctx, admin); err != nil {
		logger.Error("Failed to verify the arbiter principal", "error", err)
		log.Fatalf("Failed to verify the arbiter principal: %v", err)
	}
	logger.Info("Arbiter principal verified", "principal", string(admin))

	// Optionally seed a demonstration lifecycle
	if *demo {
		if err := runDemo(ctx, admin, vault, identitySvc, rentalSvc, disputeSvc); err != nil {
			logger.Error("Failed to seed the demo lifecycle", "error", err)
			log.Fatalf("Failed to seed the demo lifecycle: %v", err)
		}
	}

	// Watch and log the event stream
	eventCh, cancelWatch := eventSvc.Subscribe()
	go func() {
		for event := range eventCh {
			logger.Info("Marketplace event",
				"type", string(event.Type),
				"item_id", event.ItemID,
				"principal", string(event.Principal))
		}
	}()

	// Initialize Job Runner and Scheduler
	jobRunner := jobs.NewJobRunner(gate, store.Rentals, store.Events, vault, notifier, m, cfg)
	cronScheduler := scheduler.NewScheduler(jobRunner)
	cronScheduler.Start()

	// Observability endpoints
	router := mux.NewRouter()
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok\n"))
	}).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	httpServer := &http.Server{
		Addr:    cfg.GetServerAddress(),
		Handler: router,
	}
	go func() {
		logger.Info("Observability server listening", "address", cfg.GetServerAddress())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	logger.Info("Marketplace engine is running. Press Ctrl+C to stop.")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	logger.Info("Shutting down marketplace engine...")
	cronScheduler.Stop()
	cancelWatch()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to shut down the HTTP server", "error", err)
	}
	logger.Info("Marketplace engine stopped. Goodbye!")
}

// runDemo drives one finished rental, one open dispute and one settled dispute
// so the scheduler, metrics and event watcher have live state to report on.
func runDemo(ctx context.Context, admin domain.Principal, vault *escrow.Vault, identitySvc service.IdentityService, rentalSvc service.RentalService, disputeSvc service.DisputeService) error {
	seller := domain.Principal("demo-seller")
	buyer := domain.Principal("demo-buyer")

	for _, principal := range []domain.Principal{seller, buyer} {
		if _, err := identitySvc.SubmitIdentity(ctx, principal); err != nil {
			return err
		}
	}
	vault.Fund(buyer, 10000)

	// A completed lifecycle: list, rent, confirm.
	if _, err := rentalSvc.CreateRental(ctx, seller, 1, 2500); err != nil {
		return err
	}
	if _, err := rentalSvc.RentItem(ctx, buyer, 1, 2500); err != nil {
		return err
	}
	if _, err := rentalSvc.ConfirmReceipt(ctx, buyer, 1); err != nil {
		return err
	}

	// A dispute left open for the reminder job and the gauges.
	if _, err := rentalSvc.CreateRental(ctx, seller, 2, 4000); err != nil {
		return err
	}
	if _, err := rentalSvc.RentItem(ctx, buyer, 2, 4000); err != nil {
		return err
	}
	if _, err := rentalSvc.RaiseDispute(ctx, buyer, 2); err != nil {
		return err
	}

	// A dispute the arbiter settled in the buyer's favor.
	if _, err := rentalSvc.CreateRental(ctx, seller, 3, 1500); err != nil {
		return err
	}
	if _, err := rentalSvc.RentItem(ctx, buyer, 3, 1500); err != nil {
		return err
	}
	if _, err := rentalSvc.RaiseDispute(ctx, buyer, 3); err != nil {
		return err
	}
	if _, err := disputeSvc.ResolveDispute(ctx, admin, 3, false); err != nil {
		return err
	}

	logger.Info("Demo marketplace seeded",
		"seller", string(seller),
		"buyer", string(buyer),
		"open_disputes", 1)
	return nil
}
