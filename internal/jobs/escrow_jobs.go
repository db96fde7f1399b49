package jobs

import (
	"context"

	"rentvault/internal/logger"
)

// escrowReport summarizes one reconciliation sweep over the ledger.
type escrowReport struct {
	Rentals      int
	HeldCents    int64
	OpenDisputes int
	Mismatches   int
}

// ReconcileEscrow audits the escrow ledger against the rental book: every
// paid, unconfirmed rental must have exactly its price on hold, and nothing
// else may be held. It also refreshes the held-total and open-dispute gauges.
func (jr *JobRunner) ReconcileEscrow() {
	jr.runWithRecovery("ReconcileEscrow", func() {
		report, err := jr.auditEscrow(context.Background())
		if err != nil {
			logger.Error("Failed to reconcile escrow", "error", err)
			return
		}

		jr.metrics.SetEscrowHeldCents(report.HeldCents)
		jr.metrics.SetOpenDisputes(report.OpenDisputes)

		if report.Mismatches > 0 {
			logger.Error("Escrow reconciliation found mismatches",
				"rentals", report.Rentals,
				"held_cents", report.HeldCents,
				"mismatches", report.Mismatches)
			return
		}
		logger.Info("Escrow reconciliation completed",
			"rentals", report.Rentals,
			"held_cents", report.HeldCents,
			"open_disputes", report.OpenDisputes)
	})
}

// auditEscrow walks the rental book under the gate so no settlement can move
// money mid-sweep.
func (jr *JobRunner) auditEscrow(ctx context.Context) (escrowReport, error) {
	jr.gate.RLock()
	defer jr.gate.RUnlock()

	rentals, err := jr.rentals.ListAll(ctx)
	if err != nil {
		return escrowReport{}, err
	}

	report := escrowReport{Rentals: len(rentals)}
	var expected int64
	for _, rental := range rentals {
		if rental.Disputed {
			report.OpenDisputes++
		}

		held, ok := jr.vault.Held(rental.ItemID)
		if rental.Paid && !rental.Confirmed {
			expected += rental.PriceCents
			if !ok || held != rental.PriceCents {
				report.Mismatches++
				jr.metrics.IncrementAuditMismatches()
				logger.Error("Escrow hold does not match rental price",
					"item_id", rental.ItemID,
					"want_cents", rental.PriceCents,
					"held_cents", held)
			}
			continue
		}
		if ok {
			report.Mismatches++
			jr.metrics.IncrementAuditMismatches()
			logger.Error("Escrow holds funds for a settled rental",
				"item_id", rental.ItemID,
				"held_cents", held)
		}
	}

	report.HeldCents = jr.vault.TotalHeld()
	if report.HeldCents != expected {
		report.Mismatches++
		jr.metrics.IncrementAuditMismatches()
		logger.Error("Escrow total does not match open rentals",
			"held_cents", report.HeldCents,
			"want_cents", expected)
	}
	return report, nil
}
