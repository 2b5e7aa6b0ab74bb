package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/lembar-pintar/studio/internal/payments"
)

const orderIDPrefix = "ord_"

// IntentCreator is implemented by payments.Manager.
type IntentCreator interface {
	CreateIntent(ctx context.Context, req payments.IntentRequest) (payments.Intent, error)
}

type PaymentServiceDeps struct {
	Payments IntentCreator
	// PlanPrices maps plan ids to prices in the currency's smallest unit.
	PlanPrices  map[string]int64
	IDGenerator func() string
	Logger      *zap.Logger
}

type paymentService struct {
	payments IntentCreator
	prices   map[string]int64
	newID    func() string
	logger   *zap.Logger
}

func NewPaymentService(deps PaymentServiceDeps) (PaymentService, error) {
	if deps.Payments == nil {
		return nil, errors.New("payment service: payments manager is required")
	}
	prices := make(map[string]int64, len(deps.PlanPrices))
	for plan, price := range deps.PlanPrices {
		prices[strings.ToLower(strings.TrimSpace(plan))] = price
	}
	svc := &paymentService{payments: deps.Payments, prices: prices, newID: deps.IDGenerator, logger: deps.Logger}
	if svc.newID == nil {
		svc.newID = func() string { return ulid.Make().String() }
	}
	if svc.logger == nil {
		svc.logger = zap.NewNop()
	}
	return svc, nil
}

func (s *paymentService) CreateIntent(ctx context.Context, cmd PaymentIntentCommand) (payments.Intent, error) {
	if strings.TrimSpace(cmd.Actor.ID) == "" {
		return payments.Intent{}, ErrForbidden
	}
	plan := strings.ToLower(strings.TrimSpace(cmd.Plan))
	price, ok := s.prices[plan]
	if !ok || price <= 0 {
		return payments.Intent{}, invalid("unknown plan %q", cmd.Plan)
	}
	currency := strings.ToUpper(strings.TrimSpace(cmd.Currency))
	if len(currency) != 3 {
		return payments.Intent{}, invalid("currency must be an ISO 4217 code")
	}

	req := payments.IntentRequest{
		OrderID:        orderIDPrefix + s.newID(),
		Plan:           plan,
		Amount:         price,
		Currency:       currency,
		CustomerID:     cmd.Actor.ID,
		CustomerEmail:  cmd.Actor.Email,
		IdempotencyKey: cmd.IdempotencyKey,
	}
	intent, err := s.payments.CreateIntent(ctx, req)
	if err != nil {
		if errors.Is(err, payments.ErrUnsupportedProvider) {
			return payments.Intent{}, invalid("currency %s is not supported", currency)
		}
		s.logger.Error("payment intent failed", zap.String("order", req.OrderID), zap.Error(err))
		return payments.Intent{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return intent, nil
}
