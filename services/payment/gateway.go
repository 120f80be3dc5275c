package payment

import (
	"context"
	"errors"
	"math"
	"strings"
)

// ErrNotConfigured is returned by the no-op gateway when verification is attempted.
var ErrNotConfigured = errors.New("payment gateway is not configured")

// InitRequest describes a charge to prepare.
type InitRequest struct {
	Amount      float64
	Currency    string
	Description string
	Email       string
	Metadata    map[string]string
}

// InitResult is what the client needs to complete the payment.
type InitResult struct {
	Reference    string `json:"reference"`
	ClientSecret string `json:"clientSecret,omitempty"`
	Status       string `json:"status"`
}

// VerifyResult reports whether a prepared payment succeeded.
type VerifyResult struct {
	Reference string
	Paid      bool
	Amount    float64
	Currency  string
	Metadata  map[string]string
}

// Gateway initializes and verifies payments.
type Gateway interface {
	Initialize(ctx context.Context, req InitRequest) (*InitResult, error)
	Verify(ctx context.Context, reference string) (*VerifyResult, error)
}

// toMinorUnits converts 12.34 into 1234.
func toMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func fromMinorUnits(amount int64) float64 {
	return float64(amount) / 100
}

func normalizeCurrency(currency string) string {
	return strings.ToLower(strings.TrimSpace(currency))
}

// NoopGateway is used when no payment provider is configured. Payments stay
// pending and cannot be verified.
type NoopGateway struct{}

func (NoopGateway) Initialize(ctx context.Context, req InitRequest) (*InitResult, error) {
	return &InitResult{Status: "pending"}, nil
}

func (NoopGateway) Verify(ctx context.Context, reference string) (*VerifyResult, error) {
	return nil, ErrNotConfigured
}

// NewGateway returns a Stripe gateway when a secret key is set, otherwise the no-op one.
func NewGateway(secretKey string) Gateway {
	if secretKey == "" {
		return NoopGateway{}
	}
	return NewStripeGateway(secretKey)
}
