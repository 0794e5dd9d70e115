// Package stripe adapts the Stripe API to the lifecycle's Gateway port.
package stripe

import (
	"context"
	"log/slog"

	"github.com/okivest/investment-platform/internal/invest/application"
	stripeapi "github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
)

type Gateway struct {
	log *slog.Logger
	api *client.API
}

func NewGateway(log *slog.Logger, secretKey string) *Gateway {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &Gateway{log: log, api: api}
}

func (g *Gateway) OpenIntent(ctx context.Context, amountMinorUnits int64, currency string, metadata map[string]string) (application.Intent, error) {
	params := &stripeapi.PaymentIntentParams{
		Amount:   stripeapi.Int64(amountMinorUnits),
		Currency: stripeapi.String(currency),
		AutomaticPaymentMethods: &stripeapi.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripeapi.Bool(true),
		},
	}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		return application.Intent{}, err
	}
	g.log.Info("payment intent opened", "payment_intent_id", pi.ID, "amount", amountMinorUnits)
	return application.Intent{ID: pi.ID, ClientSecret: pi.ClientSecret, Status: string(pi.Status)}, nil
}

func (g *Gateway) GetIntent(ctx context.Context, id string) (application.Intent, error) {
	params := &stripeapi.PaymentIntentParams{}
	params.Context = ctx

	pi, err := g.api.PaymentIntents.Get(id, params)
	if err != nil {
		return application.Intent{}, err
	}
	return application.Intent{ID: pi.ID, ClientSecret: pi.ClientSecret, Status: string(pi.Status)}, nil
}
