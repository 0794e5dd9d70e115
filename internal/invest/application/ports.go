package application

import (
	"context"
	"time"

	"github.com/okivest/investment-platform/internal/invest/domain"
)

// Intent is the slice of the gateway's payment intent the lifecycle needs.
type Intent struct {
	ID           string
	ClientSecret string
	Status       string
}

// Gateway is the hosted payment collector. OpenIntent starts one attempt to
// collect funds; GetIntent returns its authoritative status.
type Gateway interface {
	OpenIntent(ctx context.Context, amountMinorUnits int64, currency string, metadata map[string]string) (Intent, error)
	GetIntent(ctx context.Context, id string) (Intent, error)
}

// Repository owns the persisted Investment and PaymentTransaction rows.
type Repository interface {
	// CreateWithOutbox writes a pending investment, its transaction mirror
	// and an outbox event in one transaction.
	CreateWithOutbox(ctx context.Context, inv domain.Investment, txn domain.PaymentTransaction, eventType string, payload []byte, traceparent string) error

	// Reconcile updates both rows scoped to (gatewayIntentID, userID) to the
	// given statuses, appending an outbox event only when the investment
	// actually transitions. Returns false when no row matches.
	Reconcile(ctx context.Context, gatewayIntentID, userID string, investmentStatus domain.InvestmentStatus, gatewayStatus string, eventType string, payload []byte, traceparent string) (bool, error)

	// ListStalePending returns pending investments created before the cutoff,
	// oldest first.
	ListStalePending(ctx context.Context, cutoff time.Time, limit int) ([]domain.Investment, error)
}

// Authenticator resolves a bearer credential to a user id.
type Authenticator interface {
	GetUser(ctx context.Context, token string) (string, error)
}
