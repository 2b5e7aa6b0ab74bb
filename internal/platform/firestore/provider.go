// Package firestore wraps the Cloud Firestore client with lazy
// initialisation, typed collections and error classification.
package firestore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/lembar-pintar/studio/internal/platform/config"
)

const envEmulatorHost = "FIRESTORE_EMULATOR_HOST"

var ErrProviderClosed = errors.New("firestore: provider is closed")

// Provider creates the shared client on first use.
type Provider struct {
	cfg         config.FirestoreConfig
	dialTimeout time.Duration
	opts        []option.ClientOption

	mu     sync.Mutex
	client *firestore.Client
	closed bool
}

type ProviderOption func(*Provider)

func WithDialTimeout(d time.Duration) ProviderOption {
	return func(p *Provider) {
		if d > 0 {
			p.dialTimeout = d
		}
	}
}

// WithClientOptions appends options passed to firestore.NewClient.
func WithClientOptions(opts ...option.ClientOption) ProviderOption {
	return func(p *Provider) { p.opts = append(p.opts, opts...) }
}

func NewProvider(cfg config.FirestoreConfig, opts ...ProviderOption) *Provider {
	p := &Provider{cfg: cfg, dialTimeout: 10 * time.Second}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// Client returns the shared client, creating it if needed. Concurrent first
// callers wait for the same initialisation.
func (p *Provider) Client(ctx context.Context) (*firestore.Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, ErrProviderClosed
	}
	if p.client != nil {
		return p.client, nil
	}

	projectID := strings.TrimSpace(p.cfg.ProjectID)
	if projectID == "" {
		return nil, errors.New("firestore: project id is required")
	}
	opts := append([]option.ClientOption(nil), p.opts...)
	if host := p.emulatorHost(); host != "" {
		opts = append(opts,
			option.WithEndpoint(host),
			option.WithoutAuthentication(),
			option.WithGRPCDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
		)
	}

	dialCtx, cancel := context.WithTimeout(ctx, p.dialTimeout)
	defer cancel()
	client, err := firestore.NewClient(dialCtx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("firestore: create client: %w", err)
	}
	p.client = client
	return client, nil
}

// Close releases the client. The provider cannot be reused.
func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	if p.client == nil {
		return nil
	}
	err := p.client.Close()
	p.client = nil
	return err
}

// Ping reads a sentinel document to check connectivity. A missing document
// counts as healthy.
func (p *Provider) Ping(ctx context.Context) error {
	client, err := p.Client(ctx)
	if err != nil {
		return err
	}
	_, err = client.Collection("_health").Doc("ping").Get(ctx)
	if err != nil && !IsNotFound(WrapError("ping", err)) {
		return WrapError("ping", err)
	}
	return nil
}

// RunTransaction runs fn in a transaction with bounded retries. Collection
// calls made with the context passed to fn join the transaction. A nested
// call joins the outer transaction instead of starting another.
func (p *Provider) RunTransaction(ctx context.Context, fn func(context.Context, *firestore.Transaction) error) error {
	if st := txFrom(ctx); st != nil {
		return fn(ctx, st.tx)
	}
	client, err := p.Client(ctx)
	if err != nil {
		return err
	}
	var fnErr error
	err = client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		st := &txState{tx: tx}
		if fnErr = fn(context.WithValue(ctx, txKey{}, st), tx); fnErr != nil {
			return fnErr
		}
		return st.flush()
	}, firestore.MaxAttempts(5))
	if err != nil && fnErr != nil && errors.Is(err, fnErr) {
		return err
	}
	return WrapError("transaction", err)
}

func (p *Provider) emulatorHost() string {
	if host := strings.TrimSpace(p.cfg.EmulatorHost); host != "" {
		return host
	}
	return strings.TrimSpace(os.Getenv(envEmulatorHost))
}
