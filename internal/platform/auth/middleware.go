package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	firebaseauth "firebase.google.com/go/v4/auth"
	"go.uber.org/zap"

	"github.com/lembar-pintar/studio/internal/platform/httpx"
	"github.com/lembar-pintar/studio/internal/platform/requestctx"
)

const (
	roleClaim     = "role"
	emailClaim    = "email"
	verifyTimeout = 5 * time.Second
)

// ErrTokenInvalid is returned by verifiers for unknown or malformed tokens.
var ErrTokenInvalid = errors.New("auth: id token invalid")

// TokenVerifier verifies bearer ID tokens. *firebaseauth.Client satisfies it.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*firebaseauth.Token, error)
}

// Authenticator turns bearer tokens into an Identity on the request context.
type Authenticator struct {
	verifier TokenVerifier
	timeout  time.Duration
}

// NewAuthenticator wraps verifier. A nil verifier rejects every request.
func NewAuthenticator(verifier TokenVerifier) *Authenticator {
	return &Authenticator{verifier: verifier, timeout: verifyTimeout}
}

// RequireAuth rejects requests without a valid token or without one of roles.
// An empty roles list admits any authenticated caller.
func (a *Authenticator) RequireAuth(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := a.identify(r)
			if err != nil {
				httpx.WriteError(r.Context(), w, httpx.NewError("unauthenticated", err.Error(), http.StatusUnauthorized))
				return
			}
			if len(roles) > 0 && !hasAny(identity, roles) {
				httpx.WriteError(r.Context(), w, httpx.NewError("forbidden", "identity does not have required role", http.StatusForbidden))
				return
			}
			next.ServeHTTP(w, r.WithContext(a.attach(r.Context(), identity)))
		})
	}
}

// OptionalAuth attaches an identity when a valid token is present and
// otherwise lets the request through anonymously.
func (a *Authenticator) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := bearerToken(r.Header.Get("Authorization")); !ok {
			next.ServeHTTP(w, r)
			return
		}
		identity, err := a.identify(r)
		if err != nil {
			httpx.WriteError(r.Context(), w, httpx.NewError("unauthenticated", err.Error(), http.StatusUnauthorized))
			return
		}
		next.ServeHTTP(w, r.WithContext(a.attach(r.Context(), identity)))
	})
}

func (a *Authenticator) attach(ctx context.Context, identity *Identity) context.Context {
	logger := requestctx.Logger(ctx).With(zap.String("user_id", identity.UID))
	return WithIdentity(requestctx.WithLogger(ctx, logger), identity)
}

func (a *Authenticator) identify(r *http.Request) (*Identity, error) {
	raw, ok := bearerToken(r.Header.Get("Authorization"))
	if !ok {
		return nil, errors.New("authorization header missing or invalid")
	}
	if a == nil || a.verifier == nil {
		return nil, errors.New("authorization service unavailable")
	}

	ctx, cancel := context.WithTimeout(r.Context(), a.timeout)
	defer cancel()
	token, err := a.verifier.VerifyIDToken(ctx, raw)
	if err != nil {
		if firebaseauth.IsIDTokenExpired(err) {
			return nil, errors.New("id token expired")
		}
		return nil, errors.New("id token invalid")
	}

	identity := &Identity{
		UID:   token.UID,
		Email: stringClaim(token.Claims, emailClaim),
		Roles: rolesFromClaims(token.Claims),
	}
	if len(identity.Roles) == 0 {
		identity.Roles = []string{RoleUser}
	}
	return identity, nil
}

func hasAny(identity *Identity, roles []string) bool {
	for _, role := range roles {
		if identity.HasRole(role) {
			return true
		}
	}
	return false
}

func rolesFromClaims(claims map[string]interface{}) []string {
	var raw []string
	switch v := claims[roleClaim].(type) {
	case string:
		raw = []string{v}
	case []string:
		raw = v
	case []interface{}:
		for _, item := range v {
			if s, ok := item.(string); ok {
				raw = append(raw, s)
			}
		}
	case map[string]interface{}:
		for role, enabled := range v {
			if b, ok := enabled.(bool); ok && b {
				raw = append(raw, role)
			}
		}
	}

	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, role := range raw {
		role = strings.ToLower(strings.TrimSpace(role))
		if role == "" {
			continue
		}
		if _, dup := seen[role]; dup {
			continue
		}
		seen[role] = struct{}{}
		out = append(out, role)
	}
	return out
}

func stringClaim(claims map[string]interface{}, key string) string {
	s, _ := claims[key].(string)
	return strings.TrimSpace(s)
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
