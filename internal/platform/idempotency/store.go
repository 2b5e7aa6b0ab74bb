// Package idempotency replays the stored response of a mutating request
// retried with the same Idempotency-Key.
package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"time"
)

// State is the outcome of a reservation.
type State int

const (
	// StateNew means the caller owns the key and must complete or release it.
	StateNew State = iota
	// StateCompleted carries a response to replay.
	StateCompleted
	// StatePending means another request holds the key.
	StatePending
)

// Response is the stored reply.
type Response struct {
	Status int         `json:"status"`
	Header http.Header `json:"header"`
	Body   []byte      `json:"body"`
}

// Record is what a store keeps per key.
type Record struct {
	Fingerprint string    `json:"fingerprint"`
	Completed   bool      `json:"completed"`
	Response    Response  `json:"response"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// ErrFingerprintMismatch is returned when a key is reused for a different request.
var ErrFingerprintMismatch = errors.New("idempotency: key reused with a different request")

// Store persists reservations.
type Store interface {
	Reserve(ctx context.Context, key, fingerprint string, ttl time.Duration) (State, Response, error)
	Complete(ctx context.Context, key, fingerprint string, resp Response, ttl time.Duration) error
	Release(ctx context.Context, key string) error
}

func hashHex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
