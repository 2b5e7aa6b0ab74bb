package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lembar-pintar/studio/internal/payments"
	"github.com/lembar-pintar/studio/internal/platform/auth"
	"github.com/lembar-pintar/studio/internal/platform/idempotency"
	"github.com/lembar-pintar/studio/internal/platform/sharelink"
	"github.com/lembar-pintar/studio/internal/platform/storage"
	"github.com/lembar-pintar/studio/internal/repositories/memory"
	"github.com/lembar-pintar/studio/internal/services"
)

const (
	userToken  = "user-token"
	otherToken = "other-token"
	adminToken = "admin-token"
)

type fakeUploads struct{}

func (fakeUploads) SignedUpload(_ context.Context, bucket, object, contentType string, _ []string, _ int64) (storage.Upload, error) {
	return storage.Upload{
		URL:       "https://upload.test/" + bucket + "/" + object,
		Method:    http.MethodPut,
		Headers:   map[string]string{"Content-Type": contentType},
		ExpiresAt: time.Date(2026, 4, 1, 9, 15, 0, 0, time.UTC),
		ObjectURL: storage.PublicURL(bucket, object),
	}, nil
}

type fakeIntents struct {
	mu  sync.Mutex
	req []payments.IntentRequest
}

func (f *fakeIntents) CreateIntent(_ context.Context, req payments.IntentRequest) (payments.Intent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.req = append(f.req, req)
	if req.Currency == "IDR" {
		return payments.Intent{Provider: payments.ProviderMidtrans, ID: req.OrderID, Token: "snap-token", RedirectURL: "https://app.sandbox.midtrans.com/snap/v2/vtweb/snap-token"}, nil
	}
	return payments.Intent{Provider: payments.ProviderStripe, ID: "pi_1", ClientSecret: "pi_1_secret"}, nil
}

type testEnv struct {
	server  *httptest.Server
	signer  *sharelink.Signer
	intents *fakeIntents
}

func sequence() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("T%03d", n)
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	seed, err := memory.DefaultSeed()
	require.NoError(t, err)
	reg, err := memory.New(seed)
	require.NoError(t, err)

	clock := func() time.Time { return time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC) }
	ids := sequence()

	signer, err := sharelink.NewSigner("test-secret", "https://studio.test/api")
	require.NoError(t, err)
	qr, err := services.NewQRService(services.QRServiceDeps{ServiceURL: "https://qr.test/create", DefaultSize: 300, MaxSize: 1000})
	require.NoError(t, err)
	catalog, err := services.NewCatalogService(services.CatalogServiceDeps{Elements: reg.Elements(), Photos: reg.Photos(), Templates: reg.Templates()})
	require.NoError(t, err)
	facetSvc, err := services.NewFacetService(services.FacetServiceDeps{Facets: reg.Facets()})
	require.NoError(t, err)
	designs, err := services.NewDesignService(services.DesignServiceDeps{
		Designs:     reg.Designs(),
		Templates:   reg.Templates(),
		Facets:      reg.Facets(),
		UnitOfWork:  reg,
		Links:       signer,
		QR:          qr,
		Clock:       clock,
		IDGenerator: ids,
	})
	require.NoError(t, err)
	assets, err := services.NewAssetService(services.AssetServiceDeps{Assets: reg.Assets(), Uploads: fakeUploads{}, Bucket: "assets", Clock: clock, IDGenerator: ids})
	require.NoError(t, err)
	templates, err := services.NewTemplateAdminService(services.TemplateAdminServiceDeps{Templates: reg.Templates(), Clock: clock, IDGenerator: ids})
	require.NoError(t, err)
	intents := &fakeIntents{}
	paymentSvc, err := services.NewPaymentService(services.PaymentServiceDeps{Payments: intents, PlanPrices: map[string]int64{"guru": 49000}, IDGenerator: ids})
	require.NoError(t, err)

	authn := auth.NewAuthenticator(auth.NewStaticVerifier(map[string]string{
		userToken:  "guru-1:user",
		otherToken: "guru-2:user",
		adminToken: "admin-1:admin|user",
	}))
	idem := idempotency.Middleware(idempotency.NewMemoryStore())

	router := NewRouter(
		WithCatalogRoutes(NewCatalogHandlers(catalog, WithFacetService(facetSvc), WithQRService(qr)).Routes),
		WithDesignRoutes(NewDesignHandlers(authn, designs, signer).Routes),
		WithAdminRoutes(NewAdminHandlers(authn, assets, templates, WithIdempotency(idem)).Routes),
		WithPaymentRoutes(NewPaymentHandlers(authn, paymentSvc, "").Routes),
		WithBrowseRoutes(NewBrowseHandlers(catalog, facetSvc, PageSizes{}).Routes),
	)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &testEnv{server: srv, signer: signer, intents: intents}
}

type response struct {
	status int
	header http.Header
	body   []byte
}

func (r response) json(t *testing.T) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(r.body, &out), "body: %s", r.body)
	return out
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any, headers ...string) response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = bytes.NewBufferString(b)
		default:
			data, err := json.Marshal(b)
			require.NoError(t, err)
			reader = bytes.NewReader(data)
		}
	}
	req, err := http.NewRequest(method, e.server.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	res, err := e.server.Client().Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return response{status: res.StatusCode, header: res.Header, body: data}
}
