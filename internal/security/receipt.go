package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"rentvault/internal/domain"
)

var ErrInvalidReceipt = errors.New("invalid credential receipt")

// ReceiptClaims binds a verified principal to its credential token. Receipts
// carry no expiry; a credential holds for the life of the marketplace.
type ReceiptClaims struct {
	Principal string `json:"principal"`
	TokenID   int64  `json:"credential_token_id"`
	jwt.RegisteredClaims
}

type ReceiptSigner interface {
	SignReceipt(principal domain.Principal, tokenID int64) (string, error)
	VerifyReceipt(receipt string) (*ReceiptClaims, error)
}

type receiptSigner struct {
	secret []byte
}

func NewReceiptSigner(secret string) ReceiptSigner {
	return &receiptSigner{secret: []byte(secret)}
}

func (s *receiptSigner) SignReceipt(principal domain.Principal, tokenID int64) (string, error) {
	claims := ReceiptClaims{
		Principal: string(principal),
		TokenID:   tokenID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  string(principal),
			IssuedAt: jwt.NewNumericDate(time.Now()),
			Issuer:   "rentvault",
			Audience: jwt.ClaimStrings{"credential-receipt"},
			ID:       uuid.NewString(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *receiptSigner) VerifyReceipt(receipt string) (*ReceiptClaims, error) {
	token, err := jwt.ParseWithClaims(receipt, &ReceiptClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidReceipt
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidReceipt
	}

	claims, ok := token.Claims.(*ReceiptClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidReceipt
	}
	if claims.Principal == "" || claims.TokenID <= 0 {
		return nil, ErrInvalidReceipt
	}
	return claims, nil
}
