package domain

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventRentalCreated    EventType = "RENTAL_CREATED"
	EventRentalPaid       EventType = "RENTAL_PAID"
	EventReceiptConfirmed EventType = "RECEIPT_CONFIRMED"
	EventRefundIssued     EventType = "REFUND_ISSUED"
	EventDisputeRaised    EventType = "DISPUTE_RAISED"
	EventRentalResolved   EventType = "RENTAL_RESOLVED"
	EventIdentityVerified EventType = "IDENTITY_VERIFIED"
)

// Event is one entry of the append-only marketplace log. Fields beyond ID,
// Type and EmittedAt are populated per type: RentalCreated carries price and
// asset token, RentalPaid and RefundIssued carry the buyer, RentalResolved
// carries the arbiter decision, IdentityVerified carries the principal and,
// for the admin path, the credential token.
type Event struct {
	ID         uuid.UUID `json:"id"`
	Type       EventType `json:"type"`
	ItemID     int64     `json:"item_id,omitempty"`
	Principal  Principal `json:"principal,omitempty"`
	PriceCents int64     `json:"price_cents,omitempty"`
	TokenID    *int64    `json:"token_id,omitempty"`
	Decision   *bool     `json:"decision,omitempty"`
	EmittedAt  time.Time `json:"emitted_at"`
}

func (e *Event) Clone() *Event {
	c := *e
	if e.TokenID != nil {
		id := *e.TokenID
		c.TokenID = &id
	}
	if e.Decision != nil {
		d := *e.Decision
		c.Decision = &d
	}
	return &c
}
