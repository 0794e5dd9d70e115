package postgres

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/okivest/investment-platform/internal/invest/domain"
	"github.com/okivest/investment-platform/pkg/outbox"
)

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

func (r *Repository) CreateWithOutbox(ctx context.Context, inv domain.Investment, txn domain.PaymentTransaction, eventType string, payload []byte, traceparent string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	_, err = tx.Exec(ctx, `INSERT INTO investments
			(id, user_id, package_id, package_name, kind, amount, annual_rate_percent, term_months,
			 payment_intent_id, maturity_date, certificate_number, status, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		inv.ID, inv.UserID, inv.PackageID, inv.PackageName, inv.Kind, inv.Amount,
		inv.AnnualRatePercent, inv.TermMonths, inv.PaymentIntentID, inv.MaturityDate,
		inv.CertificateNumber, inv.Status, inv.CreatedAt, inv.UpdatedAt)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `INSERT INTO payment_transactions
			(id, investment_id, payment_intent_id, amount, currency, status, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		txn.ID, txn.InvestmentID, txn.GatewayIntentID, txn.Amount, txn.Currency,
		txn.Status, txn.CreatedAt, txn.UpdatedAt)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `INSERT INTO outbox (aggregate_type, aggregate_id, type, payload, traceparent, status)
			VALUES ('investment',$1,$2,$3,$4,'pending')`,
		inv.ID, eventType, payload, traceparent)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *Repository) Reconcile(ctx context.Context, gatewayIntentID, userID string, investmentStatus domain.InvestmentStatus, gatewayStatus string, eventType string, payload []byte, traceparent string) (bool, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var invID string
	var current domain.InvestmentStatus
	var mirrored string
	err = tx.QueryRow(ctx, `SELECT i.id, i.status, t.status
			FROM investments i
			JOIN payment_transactions t ON t.payment_intent_id = i.payment_intent_id
			WHERE i.payment_intent_id=$1 AND i.user_id=$2
			FOR UPDATE OF i`,
		gatewayIntentID, userID).Scan(&invID, &current, &mirrored)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, tx.Commit(ctx)
	}
	if err != nil {
		return false, err
	}

	// Repeated confirms of an already reconciled intent change nothing.
	if current == investmentStatus && mirrored == gatewayStatus {
		return true, tx.Commit(ctx)
	}

	_, err = tx.Exec(ctx, `UPDATE investments SET status=$2, updated_at=now() WHERE id=$1`,
		invID, investmentStatus)
	if err != nil {
		return false, err
	}

	_, err = tx.Exec(ctx, `UPDATE payment_transactions SET status=$2, updated_at=now() WHERE payment_intent_id=$1`,
		gatewayIntentID, gatewayStatus)
	if err != nil {
		return false, err
	}

	if eventType != "" && current != investmentStatus {
		_, err = tx.Exec(ctx, `INSERT INTO outbox (aggregate_type, aggregate_id, type, payload, traceparent, status)
				VALUES ('investment',$1,$2,$3,$4,'pending')`,
			invID, eventType, payload, traceparent)
		if err != nil {
			return false, err
		}
	}

	return true, tx.Commit(ctx)
}

func (r *Repository) ListStalePending(ctx context.Context, cutoff time.Time, limit int) ([]domain.Investment, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, user_id, package_id, payment_intent_id, status, created_at
			FROM investments
			WHERE status='pending' AND created_at < $1
			ORDER BY created_at
			LIMIT $2`, cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Investment
	for rows.Next() {
		var inv domain.Investment
		if err := rows.Scan(&inv.ID, &inv.UserID, &inv.PackageID, &inv.PaymentIntentID, &inv.Status, &inv.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

type OutboxStore struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewOutboxStore(log *slog.Logger, pool *pgxpool.Pool) *OutboxStore {
	return &OutboxStore{log: log, pool: pool}
}

func (s *OutboxStore) LockBatch(ctx context.Context, relayID string, batchSize int, lease time.Duration) ([]outbox.Event, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	rows, err := tx.Query(ctx, `
		SELECT id, aggregate_type, aggregate_id, type, payload, traceparent, created_at
		FROM outbox
		WHERE status = 'pending'
		ORDER BY id
		FOR UPDATE SKIP LOCKED
		LIMIT $1
	`, batchSize)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []outbox.Event
	for rows.Next() {
		var event outbox.Event
		if err := rows.Scan(&event.ID, &event.AggregateType, &event.AggregateID, &event.Type, &event.Payload, &event.Traceparent, &event.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, tx.Commit(ctx)
	}

	ids := make([]int64, 0, len(events))
	for _, ev := range events {
		ids = append(ids, ev.ID)
	}

	_, err = tx.Exec(ctx, `UPDATE outbox SET status='in_progress', relay_id=$1, lease_until=now() + $2::interval WHERE id = ANY($3)`,
		relayID, lease.String(), ids)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return events, nil
}

func (s *OutboxStore) MarkSent(ctx context.Context, ids []int64) error {
	_, err := s.pool.Exec(ctx, `UPDATE outbox SET status='sent' WHERE id = ANY($1)`, ids)
	return err
}

func (s *OutboxStore) MarkFailed(ctx context.Context, id int64, errMsg string) error {
	_, err := s.pool.Exec(ctx, `UPDATE outbox SET status='failed', last_error=$2, retry_count=retry_count+1 WHERE id=$1`, id, errMsg)
	return err
}
