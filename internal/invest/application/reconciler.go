package application

import (
	"context"
	"log/slog"
	"time"
)

// Reconciler periodically re-checks investments stuck in pending against the
// gateway's authoritative status. It converges investments whose confirm call
// never arrived (closed tab, crashed client). Intents orphaned by a create
// persistence failure reference no investment and are never touched.
type Reconciler struct {
	log      *slog.Logger
	svc      *Service
	repo     Repository
	interval time.Duration
	grace    time.Duration
	batch    int
}

func NewReconciler(log *slog.Logger, svc *Service, repo Repository) *Reconciler {
	return &Reconciler{
		log:      log,
		svc:      svc,
		repo:     repo,
		interval: time.Minute,
		grace:    15 * time.Minute,
		batch:    50,
	}
}

func (r *Reconciler) Run(ctx context.Context) error {
	t := time.NewTicker(r.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.Info("reconciler stopping")
			return nil
		case <-t.C:
			r.sweep(ctx)
		}
	}
}

func (r *Reconciler) sweep(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-r.grace)
	stale, err := r.repo.ListStalePending(ctx, cutoff, r.batch)
	if err != nil {
		r.log.Error("reconciler list failed", "err", err)
		return
	}

	for _, inv := range stale {
		res, err := r.svc.Confirm(ctx, inv.UserID, inv.PaymentIntentID, "")
		if err != nil {
			r.log.Error("reconcile sweep failed",
				"investment_id", inv.ID, "payment_intent_id", inv.PaymentIntentID, "err", err)
			continue
		}
		if res.InvestmentStatus != inv.Status {
			r.log.Info("reconcile sweep transitioned investment",
				"investment_id", inv.ID, "status", res.InvestmentStatus)
		}
	}
}
