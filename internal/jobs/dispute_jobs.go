package jobs

import (
	"context"
	"time"

	"rentvault/internal/domain"
	"rentvault/internal/logger"
)

// staleDispute is a dispute that has been open longer than the reminder window.
type staleDispute struct {
	ItemID    int64
	OpenFor   time.Duration
	HeldCents int64
}

// SendDisputeReminders nudges the arbiter about disputes that have been open
// longer than the configured window.
func (jr *JobRunner) SendDisputeReminders() {
	jr.runWithRecovery("SendDisputeReminders", func() {
		ctx := context.Background()
		window := time.Duration(jr.config.Scheduler.DisputeReminderAfterHours) * time.Hour

		stale, err := jr.collectStaleDisputes(ctx, window)
		if err != nil {
			logger.Error("Failed to list open disputes", "error", err)
			return
		}
		if len(stale) == 0 {
			logger.Info("No disputes need a reminder")
			return
		}

		sent := 0
		for _, dispute := range stale {
			if err := jr.notifier.DisputeReminder(ctx, dispute.ItemID, dispute.OpenFor, dispute.HeldCents); err != nil {
				logger.Error("Failed to send dispute reminder",
					"item_id", dispute.ItemID,
					"error", err)
				continue
			}
			sent++
		}
		logger.Info("Dispute reminders sent", "sent", sent, "stale", len(stale))
	})
}

// collectStaleDisputes snapshots the overdue disputes while the gate is held;
// reminders go out after it is released.
func (jr *JobRunner) collectStaleDisputes(ctx context.Context, window time.Duration) ([]staleDispute, error) {
	jr.gate.RLock()
	defer jr.gate.RUnlock()

	disputed, err := jr.rentals.ListDisputed(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	var stale []staleDispute
	for _, rental := range disputed {
		raisedAt, ok := jr.disputeRaisedAt(ctx, rental.ItemID)
		if !ok {
			continue
		}
		openFor := now.Sub(raisedAt)
		if openFor >= window {
			stale = append(stale, staleDispute{
				ItemID:    rental.ItemID,
				OpenFor:   openFor,
				HeldCents: rental.PriceCents,
			})
		}
	}
	return stale, nil
}

// disputeRaisedAt reads when the open dispute on an item was raised from the
// event log.
func (jr *JobRunner) disputeRaisedAt(ctx context.Context, itemID int64) (time.Time, bool) {
	events, err := jr.events.ListByItem(ctx, itemID)
	if err != nil {
		logger.Error("Failed to load events for disputed item",
			"item_id", itemID,
			"error", err)
		return time.Time{}, false
	}
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Type == domain.EventDisputeRaised {
			return events[i].EmittedAt, true
		}
	}
	return time.Time{}, false
}
