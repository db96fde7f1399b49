package main

import (
	"context"
	"flag"
	"log"
	"os"

	"rentvault/internal/config"
	"rentvault/internal/domain"
	"rentvault/internal/escrow"
	"rentvault/internal/logger"
	"rentvault/internal/notify"
	"rentvault/internal/repository/memory"
	"rentvault/internal/security"
	"rentvault/internal/service"
	"rentvault/internal/token"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Running RentVault end-to-end scenario...")

	// Assemble an in-process engine
	gate := service.NewGate()
	store := memory.NewStore()
	vault := escrow.NewVault()
	mint := token.NewMint()
	signer := security.NewReceiptSigner(cfg.Receipt.SigningKey)
	admin := domain.Principal(cfg.Marketplace.AdminPrincipal)
	eventSvc := service.NewEventService(store.Events, nil)
	identitySvc := service.NewIdentityService(gate, store.Identities, mint, signer, eventSvc, nil, admin)
	rentalSvc := service.NewRentalService(gate, store.Rentals, store.Identities, vault, mint, eventSvc, notify.NewLogNotifier(), nil)
	disputeSvc := service.NewDisputeService(gate, store.Rentals, vault, eventSvc, nil, admin)

	ctx := context.Background()
	seller := domain.Principal("seller-s")
	buyer := domain.Principal("buyer-b")
	member := domain.Principal("member-c")

	// Identity verification: both self-declared paths and the arbiter approval
	step("verify seller", func() error {
		_, err := identitySvc.SubmitIdentity(ctx, seller)
		return err
	})
	step("verify buyer", func() error {
		_, err := identitySvc.SubmitIdentity(ctx, buyer)
		return err
	})
	step("arbiter approves a member", func() error {
		_, err := identitySvc.ApproveIdentity(ctx, admin, member)
		return err
	})

	var approved *domain.Identity
	step("fetch the approved identity", func() error {
		var err error
		approved, err = identitySvc.GetIdentity(ctx, member)
		return err
	})
	expect("approved member carries a credential", approved.CredentialTokenID != nil)

	claims, err := signer.VerifyReceipt(approved.CredentialReceipt)
	expect("credential receipt verifies", err == nil)
	expect("receipt names the member", claims.Principal == string(member))
	expect("receipt names the credential", approved.CredentialTokenID != nil && claims.TokenID == *approved.CredentialTokenID)

	vault.Fund(buyer, 200)

	// Act one: list, rent and confirm item 1 at a price of 100
	step("create rental", func() error {
		_, err := rentalSvc.CreateRental(ctx, seller, 1, 100)
		return err
	})

	var paid *domain.Rental
	step("rent item", func() error {
		var err error
		paid, err = rentalSvc.RentItem(ctx, buyer, 1, 100)
		return err
	})
	expect("payment recorded", paid.Paid)
	expect("buyer recorded", paid.Buyer != nil && *paid.Buyer == buyer)

	var confirmed *domain.Rental
	step("confirm receipt", func() error {
		var err error
		confirmed, err = rentalSvc.ConfirmReceipt(ctx, buyer, 1)
		return err
	})
	expect("rental confirmed", confirmed.Confirmed)
	expect("seller received the price", vault.BalanceOf(seller) == 100)

	owner, err := mint.AssetOwner(confirmed.AssetTokenID)
	expect("asset token moved to the buyer", err == nil && owner == buyer)

	_, err = rentalSvc.ConfirmReceipt(ctx, buyer, 1)
	expect("second confirm rejected", domain.CodeOf(err) == domain.CodeInvalidState)

	// Act two: dispute item 2 and let the arbiter refund the buyer
	step("create second rental", func() error {
		_, err := rentalSvc.CreateRental(ctx, seller, 2, 100)
		return err
	})
	step("rent second item", func() error {
		_, err := rentalSvc.RentItem(ctx, buyer, 2, 100)
		return err
	})
	step("raise dispute", func() error {
		_, err := rentalSvc.RaiseDispute(ctx, buyer, 2)
		return err
	})

	var resolved *domain.Rental
	step("arbiter resolves for the buyer", func() error {
		var err error
		resolved, err = disputeSvc.ResolveDispute(ctx, admin, 2, false)
		return err
	})
	expect("dispute closed", !resolved.Disputed)
	expect("payment reversed", !resolved.Paid && !resolved.Confirmed)
	expect("buyer refunded", vault.BalanceOf(buyer) == 100)
	expect("escrow empty", vault.TotalHeld() == 0)

	// Read back the event log
	events, total, err := eventSvc.Events(ctx, 0, 0)
	expect("event log readable", err == nil)
	for _, event := range events {
		logger.Info("Event",
			"type", string(event.Type),
			"item_id", event.ItemID,
			"principal", string(event.Principal))
	}

	logger.Info("Scenario completed successfully", "events", total)
}

// step runs one scripted action and aborts the scenario on failure
func step(name string, fn func() error) {
	if err := fn(); err != nil {
		logger.Error("Scenario step failed", "step", name, "error", err)
		os.Exit(1)
	}
	logger.Info("Scenario step completed", "step", name)
}

// expect aborts the scenario when a checked outcome does not hold
func expect(name string, ok bool) {
	if !ok {
		logger.Error("Scenario expectation failed", "expectation", name)
		os.Exit(1)
	}
	logger.Info("Scenario expectation holds", "expectation", name)
}
