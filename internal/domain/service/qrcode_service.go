package service

import (
	"time"

	"github.com/google/uuid"
)

// CardVerification is the payload encoded into a card QR code.
type CardVerification struct {
	CardUniqueID string    `json:"card_unique_id"`
	MemberID     uuid.UUID `json:"member_id"`
	ValidTill    time.Time `json:"valid_till"`
	VerifyURL    string    `json:"verify_url,omitempty"`
}

// QRCodeService defines the interface for QR code generation and parsing services
type QRCodeService interface {
	// GenerateCardQR renders the verification payload as a PNG QR code
	GenerateCardQR(payload *CardVerification) ([]byte, error)

	// ParseCardQR decodes the JSON carried by a card QR code
	ParseCardQR(qrData string) (*CardVerification, error)
}
