// Package sharelink signs and verifies links to published designs.
package sharelink

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

const (
	issuer     = "lembar-pintar"
	defaultTTL = 30 * 24 * time.Hour
	queryParam = "t"
)

var (
	ErrInvalidToken = errors.New("sharelink: invalid token")
	ErrNoSecret     = errors.New("sharelink: secret is required")
)

// Claims identifies the shared design.
type Claims struct {
	DesignID string `json:"did"`
	jwt.RegisteredClaims
}

// Signer issues HS256 share tokens.
type Signer struct {
	secret  []byte
	baseURL string
	ttl     time.Duration
	now     func() time.Time
}

type Option func(*Signer)

func WithTTL(ttl time.Duration) Option {
	return func(s *Signer) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Signer) {
		if now != nil {
			s.now = now
		}
	}
}

// NewSigner builds a signer whose links point at baseURL + "/share/{id}".
func NewSigner(secret, baseURL string, opts ...Option) (*Signer, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, ErrNoSecret
	}
	s := &Signer{
		secret:  []byte(secret),
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		ttl:     defaultTTL,
		now:     time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Token signs designID.
func (s *Signer) Token(designID string) (string, time.Time, error) {
	designID = strings.TrimSpace(designID)
	if designID == "" {
		return "", time.Time{}, errors.New("sharelink: design id is required")
	}
	now := s.now().UTC()
	expires := now.Add(s.ttl)
	claims := Claims{
		DesignID: designID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   designID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sharelink: sign: %w", err)
	}
	return signed, expires, nil
}

// Link returns the absolute share URL for designID.
func (s *Signer) Link(designID string) (string, time.Time, error) {
	token, expires, err := s.Token(designID)
	if err != nil {
		return "", time.Time{}, err
	}
	q := url.Values{queryParam: []string{token}}
	return s.baseURL + "/share/" + url.PathEscape(strings.TrimSpace(designID)) + "?" + q.Encode(), expires, nil
}

// Verify parses token and returns the design id it grants.
func (s *Signer) Verify(token string) (string, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	var claims Claims
	parsed, err := parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !claims.VerifyIssuer(issuer, true) || claims.DesignID == "" {
		return "", ErrInvalidToken
	}
	return claims.DesignID, nil
}
