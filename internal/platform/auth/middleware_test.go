package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	firebaseauth "firebase.google.com/go/v4/auth"
)

type stubVerifier struct {
	token    *firebaseauth.Token
	err      error
	received string
}

func (s *stubVerifier) VerifyIDToken(_ context.Context, idToken string) (*firebaseauth.Token, error) {
	s.received = idToken
	if s.err != nil {
		return nil, s.err
	}
	return s.token, nil
}

func TestRequireAuthAllowsAdmin(t *testing.T) {
	verifier := &stubVerifier{token: &firebaseauth.Token{
		UID:    "uid-admin",
		Claims: map[string]interface{}{"role": []interface{}{"Admin", "user", "admin"}, "email": "admin@lembar.id"},
	}}

	var got *Identity
	handler := NewAuthenticator(verifier).RequireAuth(RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/admin/assets", nil)
	req.Header.Set("Authorization", "Bearer tok-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if verifier.received != "tok-123" {
		t.Fatalf("verifier received %q", verifier.received)
	}
	if got == nil || got.UID != "uid-admin" || got.Email != "admin@lembar.id" {
		t.Fatalf("unexpected identity %+v", got)
	}
	if len(got.Roles) != 2 || !got.IsAdmin() {
		t.Fatalf("expected deduplicated roles, got %v", got.Roles)
	}
}

func TestRequireAuthRejects(t *testing.T) {
	cases := []struct {
		name     string
		header   string
		verifier *stubVerifier
		roles    []string
		want     int
	}{
		{name: "missing header", header: "", verifier: &stubVerifier{}, want: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic abc", verifier: &stubVerifier{}, want: http.StatusUnauthorized},
		{name: "invalid token", header: "Bearer bad", verifier: &stubVerifier{err: errors.New("bad")}, want: http.StatusUnauthorized},
		{
			name:     "insufficient role",
			header:   "Bearer ok",
			verifier: &stubVerifier{token: &firebaseauth.Token{UID: "u1", Claims: map[string]interface{}{}}},
			roles:    []string{RoleAdmin},
			want:     http.StatusForbidden,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			called := false
			handler := NewAuthenticator(tc.verifier).RequireAuth(tc.roles...)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
				called = true
			}))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, rec.Code)
			}
			if called {
				t.Fatalf("handler should not be called")
			}
		})
	}
}

func TestOptionalAuthPassesAnonymous(t *testing.T) {
	var present bool
	handler := NewAuthenticator(nil).OptionalAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, present = IdentityFromContext(r.Context())
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/elements", nil))
	if rec.Code != http.StatusOK || present {
		t.Fatalf("expected anonymous pass-through, got %d present=%v", rec.Code, present)
	}
}

func TestStaticVerifier(t *testing.T) {
	v := NewStaticVerifier(map[string]string{"dev-admin": "uid-9:admin|user", "broken": ""})

	token, err := v.VerifyIDToken(context.Background(), "dev-admin")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token.UID != "uid-9" {
		t.Fatalf("unexpected uid %q", token.UID)
	}
	if roles := rolesFromClaims(token.Claims); len(roles) != 2 || roles[0] != "admin" {
		t.Fatalf("unexpected roles %v", roles)
	}
	if _, err := v.VerifyIDToken(context.Background(), "broken"); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}
