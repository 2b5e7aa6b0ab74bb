package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/lembar-pintar/studio/internal/platform/auth"
	"github.com/lembar-pintar/studio/internal/platform/httpx"
	"github.com/lembar-pintar/studio/internal/services"
)

// PaymentHandlers creates checkout intents for subscription plans.
type PaymentHandlers struct {
	authn    *auth.Authenticator
	payments services.PaymentService
	header   string
}

// NewPaymentHandlers reads the client idempotency key from header, defaulting
// to Idempotency-Key.
func NewPaymentHandlers(authn *auth.Authenticator, payments services.PaymentService, header string) *PaymentHandlers {
	if strings.TrimSpace(header) == "" {
		header = "Idempotency-Key"
	}
	return &PaymentHandlers{authn: authn, payments: payments, header: header}
}

func (h *PaymentHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Route("/payments", func(rt chi.Router) {
		if h.authn != nil {
			rt.Use(h.authn.RequireAuth())
		}
		rt.Post("/intent", h.createIntent)
	})
}

type intentRequest struct {
	Plan     string `json:"plan"`
	Currency string `json:"currency"`
}

type intentResponse struct {
	Provider     string `json:"provider"`
	Token        string `json:"token,omitempty"`
	ClientSecret string `json:"clientSecret,omitempty"`
	RedirectURL  string `json:"redirectUrl,omitempty"`
	IntentID     string `json:"intentId,omitempty"`
}

func (h *PaymentHandlers) createIntent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.payments == nil {
		serviceUnavailable(ctx, w, "payment")
		return
	}
	actor, ok := actorFromContext(ctx, w)
	if !ok {
		return
	}
	var body intentRequest
	if err := httpx.DecodeJSON(r, 16*1024, &body); err != nil {
		httpx.WriteDecodeError(w, r, err)
		return
	}
	intent, err := h.payments.CreateIntent(ctx, services.PaymentIntentCommand{
		Actor:          actor,
		Plan:           body.Plan,
		Currency:       body.Currency,
		IdempotencyKey: strings.TrimSpace(r.Header.Get(h.header)),
	})
	if err != nil {
		writeServiceError(ctx, w, err, "payment")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, intentResponse{
		Provider:     intent.Provider,
		Token:        intent.Token,
		ClientSecret: intent.ClientSecret,
		RedirectURL:  intent.RedirectURL,
		IntentID:     intent.ID,
	})
}
