package payments

import (
	"context"
	"errors"
	"testing"

	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v78"
)

type fakeProvider struct {
	calls  int
	intent Intent
	err    error
}

func (f *fakeProvider) CreateIntent(context.Context, IntentRequest) (Intent, error) {
	f.calls++
	return f.intent, f.err
}

func TestManagerRoutesByCurrency(t *testing.T) {
	st := &fakeProvider{intent: Intent{ClientSecret: "pi_secret"}}
	mt := &fakeProvider{intent: Intent{Token: "snap-token"}}
	mgr, err := NewManager(
		map[string]Provider{ProviderStripe: st, ProviderMidtrans: mt},
		WithCurrencyRoutes(map[string]string{"idr": "Midtrans"}),
		WithDefaultProvider(ProviderStripe),
	)
	require.NoError(t, err)

	intent, err := mgr.CreateIntent(context.Background(), IntentRequest{Currency: "IDR", Amount: 49000})
	require.NoError(t, err)
	require.Equal(t, ProviderMidtrans, intent.Provider)
	require.Equal(t, "snap-token", intent.Token)

	intent, err = mgr.CreateIntent(context.Background(), IntentRequest{Currency: "usd", Amount: 500})
	require.NoError(t, err)
	require.Equal(t, ProviderStripe, intent.Provider)
	require.Equal(t, 1, st.calls)
	require.Equal(t, 1, mt.calls)
}

func TestManagerWithoutRoute(t *testing.T) {
	mgr, err := NewManager(map[string]Provider{"a": &fakeProvider{}, "b": &fakeProvider{}})
	require.NoError(t, err)
	_, err = mgr.CreateIntent(context.Background(), IntentRequest{Currency: "EUR"})
	require.ErrorIs(t, err, ErrUnsupportedProvider)

	single, err := NewManager(map[string]Provider{"only": &fakeProvider{}})
	require.NoError(t, err)
	name, _, err := single.Resolve("EUR")
	require.NoError(t, err)
	require.Equal(t, "only", name)

	_, err = NewManager(nil)
	require.Error(t, err)
}

func TestManagerPropagatesProviderError(t *testing.T) {
	boom := errors.New("declined")
	mgr, err := NewManager(map[string]Provider{ProviderStripe: &fakeProvider{err: boom}})
	require.NoError(t, err)
	_, err = mgr.CreateIntent(context.Background(), IntentRequest{Currency: "USD", Amount: 1})
	require.ErrorIs(t, err, boom)
}

type fakeStripeIntents struct {
	params *stripe.PaymentIntentParams
}

func (f *fakeStripeIntents) New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	f.params = params
	return &stripe.PaymentIntent{ID: "pi_1", ClientSecret: "pi_1_secret", Currency: stripe.Currency(*params.Currency)}, nil
}

func TestStripeProviderCreatesIntent(t *testing.T) {
	api := &fakeStripeIntents{}
	p, err := NewStripeProvider(StripeConfig{intents: api})
	require.NoError(t, err)

	intent, err := p.CreateIntent(context.Background(), IntentRequest{
		OrderID: "ord_1", Plan: "pro", Amount: 500, Currency: "USD", IdempotencyKey: "idem-1",
	})
	require.NoError(t, err)
	require.Equal(t, "pi_1_secret", intent.ClientSecret)
	require.Equal(t, "usd", *api.params.Currency)
	require.Equal(t, int64(500), *api.params.Amount)
	require.Equal(t, "pro", api.params.Metadata["plan"])
	require.Equal(t, "idem-1", *api.params.IdempotencyKey)

	_, err = p.CreateIntent(context.Background(), IntentRequest{Currency: "USD"})
	require.Error(t, err)
}

type fakeSnap struct {
	req  *snap.Request
	resp *snap.Response
	err  *midtrans.Error
}

func (f *fakeSnap) CreateTransaction(req *snap.Request) (*snap.Response, *midtrans.Error) {
	f.req = req
	return f.resp, f.err
}

func TestMidtransProviderCreatesSnap(t *testing.T) {
	api := &fakeSnap{resp: &snap.Response{Token: "tok", RedirectURL: "https://app.sandbox.midtrans.com/snap/v2/vtweb/tok"}}
	p, err := NewMidtransProvider(MidtransConfig{snap: api})
	require.NoError(t, err)

	intent, err := p.CreateIntent(context.Background(), IntentRequest{OrderID: "ord_2", Plan: "guru", Amount: 49000, Currency: "idr", CustomerEmail: "guru@sekolah.id"})
	require.NoError(t, err)
	require.Equal(t, "tok", intent.Token)
	require.Contains(t, intent.RedirectURL, "/snap/")
	require.Equal(t, int64(49000), api.req.TransactionDetails.GrossAmt)
	require.Equal(t, "guru@sekolah.id", api.req.CustomerDetail.Email)

	_, err = p.CreateIntent(context.Background(), IntentRequest{Amount: 1, Currency: "USD"})
	require.Error(t, err)

	api.err = &midtrans.Error{Message: "bad request", StatusCode: 400}
	_, err = p.CreateIntent(context.Background(), IntentRequest{OrderID: "ord_3", Amount: 1, Currency: "IDR"})
	require.Error(t, err)
}
