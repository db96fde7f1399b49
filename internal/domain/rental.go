package domain

import "time"

type RentalStatus string

const (
	RentalStatusCreated   RentalStatus = "CREATED"
	RentalStatusPaid      RentalStatus = "PAID"
	RentalStatusDisputed  RentalStatus = "DISPUTED"
	RentalStatusConfirmed RentalStatus = "CONFIRMED"
	RentalStatusRefunded  RentalStatus = "REFUNDED"
)

type Rental struct {
	ItemID       int64      `json:"item_id"`
	Seller       Principal  `json:"seller"`
	Buyer        *Principal `json:"buyer,omitempty"`
	PriceCents   int64      `json:"price_cents"`
	AssetTokenID int64      `json:"asset_token_id"`
	Paid         bool       `json:"paid"`
	Received     bool       `json:"received"`
	Confirmed    bool       `json:"confirmed"`
	Disputed     bool       `json:"disputed"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Status derives the lifecycle state from the flag set. Confirmed and
// Refunded are terminal; a disputed rental is always paid and unconfirmed.
func (r *Rental) Status() RentalStatus {
	switch {
	case r.Confirmed:
		return RentalStatusConfirmed
	case r.Disputed:
		return RentalStatusDisputed
	case r.Paid:
		return RentalStatusPaid
	case r.Buyer != nil:
		return RentalStatusRefunded
	default:
		return RentalStatusCreated
	}
}

func (r *Rental) Clone() *Rental {
	c := *r
	if r.Buyer != nil {
		b := *r.Buyer
		c.Buyer = &b
	}
	return &c
}
