package payment

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// intentAPI is the slice of the Stripe PaymentIntents client in use.
type intentAPI interface {
	New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	Get(id string, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

// StripeGateway backs Gateway with Stripe PaymentIntents.
type StripeGateway struct {
	intents intentAPI
}

// NewStripeGateway creates a client bound to secretKey.
func NewStripeGateway(secretKey string) *StripeGateway {
	sc := &client.API{}
	sc.Init(secretKey, nil)
	return &StripeGateway{intents: sc.PaymentIntents}
}

func (g *StripeGateway) Initialize(ctx context.Context, req InitRequest) (*InitResult, error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("amount must be positive")
	}
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(toMinorUnits(req.Amount)),
		Currency: stripe.String(normalizeCurrency(req.Currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	if req.Description != "" {
		params.Description = stripe.String(req.Description)
	}
	if req.Email != "" {
		params.ReceiptEmail = stripe.String(req.Email)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	params.Context = ctx

	pi, err := g.intents.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}
	return &InitResult{Reference: pi.ID, ClientSecret: pi.ClientSecret, Status: string(pi.Status)}, nil
}

func (g *StripeGateway) Verify(ctx context.Context, reference string) (*VerifyResult, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := g.intents.Get(reference, params)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch payment intent %s: %w", reference, err)
	}
	return &VerifyResult{
		Reference: pi.ID,
		Paid:      pi.Status == stripe.PaymentIntentStatusSucceeded,
		Amount:    fromMinorUnits(pi.Amount),
		Currency:  string(pi.Currency),
		Metadata:  pi.Metadata,
	}, nil
}
