package sharelink

import (
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

func TestLinkRoundTrip(t *testing.T) {
	s, err := NewSigner("rahasia", "https://studio.lembarpintar.id/")
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}
	link, expires, err := s.Link("dsg_01")
	if err != nil {
		t.Fatalf("Link: %v", err)
	}
	if !strings.HasPrefix(link, "https://studio.lembarpintar.id/share/dsg_01?t=") {
		t.Fatalf("unexpected link %q", link)
	}
	if time.Until(expires) < 29*24*time.Hour {
		t.Fatalf("unexpected expiry %v", expires)
	}
	u, _ := url.Parse(link)
	id, err := s.Verify(u.Query().Get("t"))
	if err != nil || id != "dsg_01" {
		t.Fatalf("Verify = %q, %v", id, err)
	}
}

func TestVerifyRejects(t *testing.T) {
	past := func() time.Time { return time.Now().Add(-48 * time.Hour) }
	expired, _ := NewSigner("rahasia", "", WithTTL(time.Hour), WithClock(past))
	token, _, err := expired.Token("dsg_01")
	if err != nil {
		t.Fatalf("Token: %v", err)
	}
	s, _ := NewSigner("rahasia", "")
	if _, err := s.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected expired token to fail, got %v", err)
	}

	other, _ := NewSigner("lain", "")
	token, _, _ = other.Token("dsg_01")
	if _, err := s.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected wrong secret to fail, got %v", err)
	}

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{DesignID: "dsg_01"})
	unsigned, _ := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if _, err := s.Verify(unsigned); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected alg none to fail, got %v", err)
	}
}

func TestNewSignerRequiresSecret(t *testing.T) {
	if _, err := NewSigner(" ", ""); !errors.Is(err, ErrNoSecret) {
		t.Fatalf("expected ErrNoSecret, got %v", err)
	}
}
