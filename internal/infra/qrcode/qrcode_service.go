package qrcode

import (
	"encoding/json"
	"fmt"

	"enrollment/internal/domain/service"

	"github.com/skip2/go-qrcode"
)

type qrcodeService struct {
	size                 int
	errorCorrectionLevel qrcode.RecoveryLevel
}

// NewQRCodeService creates a new QR code service instance
func NewQRCodeService(size int, errorCorrectionLevel string) service.QRCodeService {
	// Set error correction level
	var level qrcode.RecoveryLevel
	switch errorCorrectionLevel {
	case "L":
		level = qrcode.Low
	case "M":
		level = qrcode.Medium
	case "Q":
		level = qrcode.High
	case "H":
		level = qrcode.Highest
	default:
		level = qrcode.Medium
	}

	return &qrcodeService{
		size:                 size,
		errorCorrectionLevel: level,
	}
}

// GenerateCardQR renders the card verification payload as a PNG
func (s *qrcodeService) GenerateCardQR(payload *service.CardVerification) ([]byte, error) {
	if payload == nil || payload.CardUniqueID == "" {
		return nil, fmt.Errorf("card verification payload requires a card unique id")
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal card verification: %w", err)
	}

	qrCode, err := qrcode.New(string(jsonData), s.errorCorrectionLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to create QR code: %w", err)
	}

	pngBytes, err := qrCode.PNG(s.size)
	if err != nil {
		return nil, fmt.Errorf("failed to generate PNG: %w", err)
	}

	return pngBytes, nil
}

// ParseCardQR decodes the JSON text read from a card QR code
func (s *qrcodeService) ParseCardQR(qrData string) (*service.CardVerification, error) {
	var data service.CardVerification
	if err := json.Unmarshal([]byte(qrData), &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal card verification: %w", err)
	}

	if data.CardUniqueID == "" {
		return nil, fmt.Errorf("card verification is missing the card unique id")
	}

	return &data, nil
}
