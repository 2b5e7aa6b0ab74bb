package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPaymentIntentRoutesByCurrency(t *testing.T) {
	env := newTestEnv(t)

	res := env.do(t, http.MethodPost, "/api/payments/intent", userToken, map[string]any{"plan": "guru", "currency": "idr"}, "Idempotency-Key", "pay-1")
	require.Equal(t, http.StatusOK, res.status, string(res.body))
	body := res.json(t)
	require.Equal(t, "midtrans", body["provider"])
	require.Equal(t, "snap-token", body["token"])
	require.NotEmpty(t, body["redirectUrl"])
	require.NotContains(t, body, "clientSecret")

	res = env.do(t, http.MethodPost, "/api/payments/intent", userToken, map[string]any{"plan": "guru", "currency": "usd"})
	require.Equal(t, http.StatusOK, res.status)
	require.Equal(t, "pi_1_secret", res.json(t)["clientSecret"])

	require.Len(t, env.intents.req, 2)
	require.Equal(t, "pay-1", env.intents.req[0].IdempotencyKey)
	require.Equal(t, int64(49000), env.intents.req[0].Amount)
}

func TestPaymentIntentRejects(t *testing.T) {
	env := newTestEnv(t)

	require.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodPost, "/api/payments/intent", "", map[string]any{"plan": "guru"}).status)

	res := env.do(t, http.MethodPost, "/api/payments/intent", userToken, map[string]any{"plan": "sekolah", "currency": "idr"})
	require.Equal(t, http.StatusBadRequest, res.status)
	require.Equal(t, "invalid_input", res.json(t)["error"])
}
