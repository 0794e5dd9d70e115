package domain

import (
	"time"

	"github.com/google/uuid"
)

type InvestmentStatus string

const (
	StatusPending InvestmentStatus = "pending"
	StatusActive  InvestmentStatus = "active"
	StatusFailed  InvestmentStatus = "failed"
)

// GatewayStatusSucceeded is the one gateway status that activates an
// investment. Everything else leaves it pending.
const GatewayStatusSucceeded = "succeeded"

type Investment struct {
	ID                string
	UserID            string
	PackageID         string
	PackageName       string
	Kind              PackageKind
	Amount            float64
	AnnualRatePercent float64
	TermMonths        int
	PaymentIntentID   string
	MaturityDate      time.Time
	CertificateNumber string
	Status            InvestmentStatus
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// PaymentTransaction mirrors one gateway payment intent, 1:1. Its status
// field carries the raw gateway status verbatim.
type PaymentTransaction struct {
	ID              string
	InvestmentID    string
	GatewayIntentID string
	Amount          float64
	Currency        string
	Status          string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func NewInvestment(userID string, pkg Package, amount float64, paymentIntentID string) Investment {
	now := time.Now().UTC()
	return Investment{
		ID:                uuid.NewString(),
		UserID:            userID,
		PackageID:         pkg.ID,
		PackageName:       pkg.Name,
		Kind:              pkg.Kind,
		Amount:            amount,
		AnnualRatePercent: pkg.AnnualRatePercent,
		TermMonths:        pkg.TermMonths,
		PaymentIntentID:   paymentIntentID,
		MaturityDate:      now.AddDate(0, pkg.TermMonths, 0),
		CertificateNumber: NewCertificateNumber(now),
		Status:            StatusPending,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

func NewPaymentTransaction(inv Investment, currency string) PaymentTransaction {
	now := time.Now().UTC()
	return PaymentTransaction{
		ID:              uuid.NewString(),
		InvestmentID:    inv.ID,
		GatewayIntentID: inv.PaymentIntentID,
		Amount:          inv.Amount,
		Currency:        currency,
		Status:          string(StatusPending),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// StatusForGateway maps an authoritative gateway status onto the investment
// lifecycle. Only "succeeded" activates; nothing flips to failed here, that
// transition is an explicit manual path.
func StatusForGateway(gatewayStatus string) InvestmentStatus {
	if gatewayStatus == GatewayStatusSucceeded {
		return StatusActive
	}
	return StatusPending
}
