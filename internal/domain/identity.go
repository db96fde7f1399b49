package domain

import "time"

// Principal is an opaque marketplace address. The empty string is never a
// valid principal.
type Principal string

type Identity struct {
	Principal         Principal  `json:"principal"`
	Verified          bool       `json:"verified"`
	CredentialTokenID *int64     `json:"credential_token_id,omitempty"`
	CredentialReceipt string     `json:"credential_receipt,omitempty"`
	ApprovedBy        *Principal `json:"approved_by,omitempty"` // nil for the self-declared path
	VerifiedOn        time.Time  `json:"verified_on"`
}

func (i *Identity) Clone() *Identity {
	c := *i
	if i.CredentialTokenID != nil {
		id := *i.CredentialTokenID
		c.CredentialTokenID = &id
	}
	if i.ApprovedBy != nil {
		p := *i.ApprovedBy
		c.ApprovedBy = &p
	}
	return &c
}
