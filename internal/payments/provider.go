// Package payments creates subscription payment intents on Stripe or
// Midtrans, routed by currency.
package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Provider names.
const (
	ProviderStripe   = "stripe"
	ProviderMidtrans = "midtrans"
)

// ErrUnsupportedProvider is returned when no provider serves a currency.
var ErrUnsupportedProvider = errors.New("payments: unsupported provider")

// IntentRequest describes one plan purchase.
type IntentRequest struct {
	OrderID        string
	Plan           string
	Amount         int64
	Currency       string
	CustomerID     string
	CustomerEmail  string
	IdempotencyKey string
}

// Intent is what the checkout widget needs. Stripe fills ClientSecret,
// Midtrans fills Token and RedirectURL.
type Intent struct {
	Provider     string
	ID           string
	Token        string
	ClientSecret string
	RedirectURL  string
}

type Provider interface {
	CreateIntent(ctx context.Context, req IntentRequest) (Intent, error)
}

// Manager picks a provider per currency.
type Manager struct {
	providers       map[string]Provider
	defaultProvider string
	currencyRoutes  map[string]string
}

type ManagerOption func(*Manager)

func WithDefaultProvider(name string) ManagerOption {
	return func(m *Manager) {
		if name = strings.ToLower(strings.TrimSpace(name)); name != "" {
			m.defaultProvider = name
		}
	}
}

// WithCurrencyRoutes maps currency codes to provider names.
func WithCurrencyRoutes(routes map[string]string) ManagerOption {
	return func(m *Manager) {
		for k, v := range routes {
			m.currencyRoutes[strings.ToUpper(strings.TrimSpace(k))] = strings.ToLower(strings.TrimSpace(v))
		}
	}
}

func NewManager(providers map[string]Provider, opts ...ManagerOption) (*Manager, error) {
	if len(providers) == 0 {
		return nil, errors.New("payments: at least one provider is required")
	}
	m := &Manager{
		providers:      make(map[string]Provider, len(providers)),
		currencyRoutes: make(map[string]string),
	}
	for k, v := range providers {
		key := strings.ToLower(strings.TrimSpace(k))
		if key == "" || v == nil {
			return nil, fmt.Errorf("payments: invalid provider registration for key %q", k)
		}
		m.providers[key] = v
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m, nil
}

// Resolve returns the provider name serving currency.
func (m *Manager) Resolve(currency string) (string, Provider, error) {
	if m == nil {
		return "", nil, errors.New("payments: manager is nil")
	}
	if key, ok := m.currencyRoutes[strings.ToUpper(strings.TrimSpace(currency))]; ok {
		if p, ok := m.providers[key]; ok {
			return key, p, nil
		}
	}
	if p, ok := m.providers[m.defaultProvider]; ok {
		return m.defaultProvider, p, nil
	}
	if len(m.providers) == 1 {
		for key, p := range m.providers {
			return key, p, nil
		}
	}
	return "", nil, ErrUnsupportedProvider
}

func (m *Manager) CreateIntent(ctx context.Context, req IntentRequest) (Intent, error) {
	key, provider, err := m.Resolve(req.Currency)
	if err != nil {
		return Intent{}, err
	}
	intent, err := provider.CreateIntent(ctx, req)
	if err != nil {
		return Intent{}, err
	}
	intent.Provider = key
	return intent, nil
}
