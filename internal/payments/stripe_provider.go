package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"
	"go.uber.org/zap"
)

type stripeIntentAPI interface {
	New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

type StripeConfig struct {
	APIKey   string
	Backends *stripe.Backends
	Logger   *zap.Logger
	intents  stripeIntentAPI
}

// StripeProvider creates PaymentIntents and returns their client secret.
type StripeProvider struct {
	intents stripeIntentAPI
	logger  *zap.Logger
}

func NewStripeProvider(cfg StripeConfig) (*StripeProvider, error) {
	intents := cfg.intents
	if intents == nil {
		key := strings.TrimSpace(cfg.APIKey)
		if key == "" {
			return nil, errors.New("stripe: api key is required")
		}
		intents = client.New(key, cfg.Backends).PaymentIntents
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StripeProvider{intents: intents, logger: logger}, nil
}

func (p *StripeProvider) CreateIntent(ctx context.Context, req IntentRequest) (Intent, error) {
	if req.Amount <= 0 {
		return Intent{}, errors.New("stripe: amount must be positive")
	}
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.Amount),
		Currency: stripe.String(strings.ToLower(req.Currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
		Metadata: map[string]string{"orderId": req.OrderID, "plan": req.Plan},
	}
	params.Context = ctx
	if req.CustomerEmail != "" {
		params.ReceiptEmail = stripe.String(req.CustomerEmail)
	}
	if key := strings.TrimSpace(req.IdempotencyKey); key != "" {
		params.SetIdempotencyKey(key)
	}

	pi, err := p.intents.New(params)
	if err != nil {
		return Intent{}, fmt.Errorf("stripe: create payment intent: %w", err)
	}
	p.logger.Info("payments.stripe.intent.created",
		zap.String("intent", pi.ID),
		zap.String("order", req.OrderID),
		zap.String("currency", string(pi.Currency)),
	)
	return Intent{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}
