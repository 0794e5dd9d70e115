package application

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/okivest/investment-platform/internal/catalog"
	"github.com/okivest/investment-platform/internal/invest/domain"
)

// AbsoluteMinimum is a hard floor independent of any package, guarding
// against a misconfigured catalog.
const AbsoluteMinimum = 100

const currency = "usd"

const (
	EventInvestmentCreated   = "InvestmentCreated"
	EventInvestmentActivated = "InvestmentActivated"
)

type InvestmentRequest struct {
	PackageID string
	Amount    float64
}

type CreateResult struct {
	ClientSecret      string
	InvestmentID      string
	CertificateNumber string
}

type ConfirmResult struct {
	Status           string
	InvestmentStatus domain.InvestmentStatus
}

type Service struct {
	log     *slog.Logger
	catalog *catalog.Catalog
	gateway Gateway
	repo    Repository
}

func NewService(log *slog.Logger, cat *catalog.Catalog, gateway Gateway, repo Repository) *Service {
	return &Service{log: log, catalog: cat, gateway: gateway, repo: repo}
}

// Create opens a payment intent with the gateway and records the pending
// investment plus its transaction mirror. Validation happens before any
// remote call; the gateway is called before the datastore so a persisted
// investment always has a backing intent. The reverse is not guaranteed:
// an intent orphaned by a persistence failure is left for the reconciler.
func (s *Service) Create(ctx context.Context, userID string, req InvestmentRequest, traceparent string) (CreateResult, error) {
	if userID == "" {
		return CreateResult{}, domain.ErrUnauthorized
	}
	pkg, err := s.catalog.Lookup(req.PackageID)
	if err != nil {
		return CreateResult{}, err
	}
	if err := domain.ValidateAmount(req.Amount, pkg); err != nil {
		return CreateResult{}, err
	}
	if req.Amount < AbsoluteMinimum {
		return CreateResult{}, domain.ErrBelowMinimum
	}

	intent, err := s.gateway.OpenIntent(ctx, domain.ToMinorUnits(req.Amount), currency, map[string]string{
		"user_id":         userID,
		"investment_type": string(pkg.Kind),
		"investment_name": pkg.Name,
		"term_months":     strconv.Itoa(pkg.TermMonths),
		"expected_return": strconv.FormatFloat(pkg.AnnualRatePercent, 'f', -1, 64),
	})
	if err != nil {
		return CreateResult{}, fmt.Errorf("%w: %s", domain.ErrGateway, err)
	}

	inv := domain.NewInvestment(userID, pkg, req.Amount, intent.ID)
	txn := domain.NewPaymentTransaction(inv, currency)

	payload, err := json.Marshal(domain.InvestmentCreated{
		InvestmentID:      inv.ID,
		UserID:            inv.UserID,
		PackageID:         inv.PackageID,
		Amount:            inv.Amount,
		TermMonths:        inv.TermMonths,
		PaymentIntentID:   inv.PaymentIntentID,
		CertificateNumber: inv.CertificateNumber,
	})
	if err != nil {
		return CreateResult{}, err
	}

	if err := s.repo.CreateWithOutbox(ctx, inv, txn, EventInvestmentCreated, payload, traceparent); err != nil {
		s.log.Error("investment persist failed, gateway intent orphaned",
			"payment_intent_id", intent.ID, "user_id", userID, "err", err)
		return CreateResult{}, fmt.Errorf("%w: %s", domain.ErrPersistence, err)
	}

	s.log.Info("investment created",
		"investment_id", inv.ID, "package_id", pkg.ID, "payment_intent_id", intent.ID)
	return CreateResult{
		ClientSecret:      intent.ClientSecret,
		InvestmentID:      inv.ID,
		CertificateNumber: inv.CertificateNumber,
	}, nil
}

// Confirm re-reads the intent's authoritative status from the gateway and
// reconciles both persisted rows with it. A client-reported success is never
// trusted. Safe to call repeatedly: once active, further calls return the
// same result without additional state changes.
func (s *Service) Confirm(ctx context.Context, userID, gatewayIntentID string, traceparent string) (ConfirmResult, error) {
	if userID == "" {
		return ConfirmResult{}, domain.ErrUnauthorized
	}

	intent, err := s.gateway.GetIntent(ctx, gatewayIntentID)
	if err != nil {
		return ConfirmResult{}, fmt.Errorf("%w: %s", domain.ErrGateway, err)
	}

	invStatus := domain.StatusForGateway(intent.Status)

	var eventType string
	var payload []byte
	if invStatus == domain.StatusActive {
		eventType = EventInvestmentActivated
		payload, err = json.Marshal(domain.InvestmentActivated{
			UserID:          userID,
			PaymentIntentID: gatewayIntentID,
		})
		if err != nil {
			return ConfirmResult{}, err
		}
	}

	found, err := s.repo.Reconcile(ctx, gatewayIntentID, userID, invStatus, intent.Status, eventType, payload, traceparent)
	if err != nil {
		return ConfirmResult{}, fmt.Errorf("%w: %s", domain.ErrPersistence, err)
	}
	if !found {
		return ConfirmResult{}, domain.ErrNotFound
	}

	s.log.Info("payment reconciled",
		"payment_intent_id", gatewayIntentID, "gateway_status", intent.Status, "investment_status", invStatus)
	return ConfirmResult{Status: intent.Status, InvestmentStatus: invStatus}, nil
}
