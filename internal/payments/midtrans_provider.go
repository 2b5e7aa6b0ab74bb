package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"
	"go.uber.org/zap"
)

type snapAPI interface {
	CreateTransaction(req *snap.Request) (*snap.Response, *midtrans.Error)
}

type MidtransConfig struct {
	ServerKey string
	// Environment is "production" or anything else for sandbox.
	Environment string
	Logger      *zap.Logger
	snap        snapAPI
}

// MidtransProvider creates Snap transactions for IDR payments.
type MidtransProvider struct {
	snap   snapAPI
	logger *zap.Logger
}

func NewMidtransProvider(cfg MidtransConfig) (*MidtransProvider, error) {
	api := cfg.snap
	if api == nil {
		key := strings.TrimSpace(cfg.ServerKey)
		if key == "" {
			return nil, errors.New("midtrans: server key is required")
		}
		env := midtrans.Sandbox
		if strings.EqualFold(strings.TrimSpace(cfg.Environment), "production") {
			env = midtrans.Production
		}
		var c snap.Client
		c.New(key, env)
		api = &c
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MidtransProvider{snap: api, logger: logger}, nil
}

func (p *MidtransProvider) CreateIntent(_ context.Context, req IntentRequest) (Intent, error) {
	if !strings.EqualFold(req.Currency, "IDR") {
		return Intent{}, fmt.Errorf("midtrans: currency %s not supported", req.Currency)
	}
	if req.Amount <= 0 {
		return Intent{}, errors.New("midtrans: amount must be positive")
	}
	snapReq := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  req.OrderID,
			GrossAmt: req.Amount,
		},
		Items: &[]midtrans.ItemDetails{{
			ID:    req.Plan,
			Name:  "Lembar Pintar " + req.Plan,
			Price: req.Amount,
			Qty:   1,
		}},
	}
	if req.CustomerEmail != "" {
		snapReq.CustomerDetail = &midtrans.CustomerDetails{Email: req.CustomerEmail}
	}

	resp, merr := p.snap.CreateTransaction(snapReq)
	if merr != nil {
		return Intent{}, fmt.Errorf("midtrans: create transaction: %s", merr.Error())
	}
	if resp == nil || resp.Token == "" {
		return Intent{}, errors.New("midtrans: empty snap token")
	}
	p.logger.Info("payments.midtrans.snap.created", zap.String("order", req.OrderID))
	return Intent{ID: req.OrderID, Token: resp.Token, RedirectURL: resp.RedirectURL}, nil
}
