package notify

import (
	"context"
	"time"

	"rentvault/internal/domain"
	"rentvault/internal/logger"
	"rentvault/internal/utils"
)

// Notifier delivers dispute notices to the marketplace administrator.
// Delivery is best effort: operations never fail because a notice could not
// be sent.
type Notifier interface {
	DisputeAlert(ctx context.Context, itemID int64, raisedBy domain.Principal, heldCents int64) error
	DisputeReminder(ctx context.Context, itemID int64, openFor time.Duration, heldCents int64) error
}

// LogNotifier writes notices to the application log. It stands in when no
// delivery channel is configured.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) DisputeAlert(ctx context.Context, itemID int64, raisedBy domain.Principal, heldCents int64) error {
	logger.InfoContext(ctx, "dispute alert",
		"item_id", itemID,
		"raised_by", string(raisedBy),
		"held", utils.FormatCents(heldCents))
	return nil
}

func (n *LogNotifier) DisputeReminder(ctx context.Context, itemID int64, openFor time.Duration, heldCents int64) error {
	logger.InfoContext(ctx, "dispute reminder",
		"item_id", itemID,
		"open_for", openFor.String(),
		"held", utils.FormatCents(heldCents))
	return nil
}
