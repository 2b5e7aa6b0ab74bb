// Package secrets resolves secret:// references against Google Secret Manager
// with an in-process cache and a local fallback file for development.
package secrets

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/googleapis/gax-go/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const defaultFallbackFile = ".secrets.local"

// ErrNotFound is returned when neither Secret Manager nor the fallback file has the secret.
var ErrNotFound = errors.New("secrets: secret not found")

type accessor interface {
	AccessSecretVersion(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest, opts ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error)
	Close() error
}

// Resolver implements config.SecretResolver.
type Resolver struct {
	client     accessor
	ownsClient bool
	projectID  string
	logger     *zap.Logger

	fallbackPath string
	fallbackOnce sync.Once
	fallback     map[string]string

	mu    sync.RWMutex
	cache map[string]string

	lookups metric.Int64Counter
}

type options struct {
	client       accessor
	clientOpts   []option.ClientOption
	logger       *zap.Logger
	fallbackPath string
	meter        metric.Meter
}

// Option customises NewResolver.
type Option func(*options)

// WithClient injects an accessor, mainly for tests.
func WithClient(client accessor) Option {
	return func(o *options) { o.client = client }
}

// WithClientOptions forwards options to the Secret Manager client.
func WithClientOptions(opts ...option.ClientOption) Option {
	return func(o *options) { o.clientOpts = append(o.clientOpts, opts...) }
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithFallbackFile overrides the KEY=VALUE file consulted when Secret Manager is unreachable.
func WithFallbackFile(path string) Option {
	return func(o *options) { o.fallbackPath = strings.TrimSpace(path) }
}

func WithMeter(meter metric.Meter) Option {
	return func(o *options) { o.meter = meter }
}

// NewResolver builds a Resolver for projectID. When the Secret Manager client
// cannot be created the resolver keeps working from the fallback file.
func NewResolver(ctx context.Context, projectID string, opts ...Option) (*Resolver, error) {
	o := options{logger: zap.NewNop(), fallbackPath: defaultFallbackFile}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.meter == nil {
		o.meter = otel.GetMeterProvider().Meter("github.com/lembar-pintar/studio/internal/platform/secrets")
	}
	lookups, err := o.meter.Int64Counter("secrets.lookups", metric.WithDescription("Secret resolutions by source"))
	if err != nil {
		return nil, fmt.Errorf("secrets: register metric: %w", err)
	}

	r := &Resolver{
		client:       o.client,
		projectID:    strings.TrimSpace(projectID),
		logger:       o.logger,
		fallbackPath: o.fallbackPath,
		cache:        make(map[string]string),
		lookups:      lookups,
	}
	if r.client == nil && r.projectID != "" {
		client, err := secretmanager.NewClient(ctx, o.clientOpts...)
		if err != nil {
			r.logger.Warn("secrets: secret manager unavailable, using fallback file only", zap.Error(err))
		} else {
			r.client = client
			r.ownsClient = true
		}
	}
	return r, nil
}

// Close releases the Secret Manager client when the resolver created it.
func (r *Resolver) Close() error {
	if r.ownsClient && r.client != nil {
		return r.client.Close()
	}
	return nil
}

// ResolveSecret returns the secret value for ref, e.g. secret://stripe-key?version=3.
func (r *Resolver) ResolveSecret(ctx context.Context, ref string) (string, error) {
	name, version, project, err := parseRef(ref)
	if err != nil {
		return "", err
	}
	if project == "" {
		project = r.projectID
	}
	key := fmt.Sprintf("%s/%s@%s", project, name, version)

	r.mu.RLock()
	value, ok := r.cache[key]
	r.mu.RUnlock()
	if ok {
		r.count(ctx, "cache")
		return value, nil
	}

	if r.client != nil && project != "" {
		resource := fmt.Sprintf("projects/%s/secrets/%s/versions/%s", project, name, version)
		resp, err := r.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: resource})
		switch {
		case err == nil && resp.GetPayload() != nil:
			value = string(resp.GetPayload().GetData())
			r.store(key, value)
			r.count(ctx, "remote")
			return value, nil
		case err != nil && !fallbackEligible(err):
			return "", fmt.Errorf("secrets: access %s: %w", name, err)
		default:
			r.logger.Debug("secrets: falling back to local file", zap.String("secret", name), zap.Error(err))
		}
	}

	r.fallbackOnce.Do(r.loadFallback)
	if value, ok := r.fallback[name]; ok {
		r.store(key, value)
		r.count(ctx, "fallback")
		return value, nil
	}
	return "", fmt.Errorf("%w: %s", ErrNotFound, name)
}

func (r *Resolver) store(key, value string) {
	r.mu.Lock()
	r.cache[key] = value
	r.mu.Unlock()
}

func (r *Resolver) count(ctx context.Context, source string) {
	r.lookups.Add(ctx, 1, metric.WithAttributes(attribute.String("source", source)))
}

func (r *Resolver) loadFallback() {
	r.fallback = map[string]string{}
	if r.fallbackPath == "" {
		return
	}
	file, err := os.Open(r.fallbackPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			r.logger.Warn("secrets: open fallback file", zap.String("path", r.fallbackPath), zap.Error(err))
		}
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if name, _, _, err := parseRef(key); err == nil {
			key = name
		}
		r.fallback[key] = strings.TrimSpace(value)
	}
}

func parseRef(ref string) (name, version, project string, err error) {
	ref = strings.TrimSpace(ref)
	if rest, ok := strings.CutPrefix(ref, "sm://"); ok {
		ref = "secret://" + rest
	}
	u, err := url.Parse(ref)
	if err != nil {
		return "", "", "", fmt.Errorf("secrets: invalid reference %q: %w", ref, err)
	}
	if u.Scheme != "secret" {
		return "", "", "", fmt.Errorf("secrets: unsupported scheme %q", u.Scheme)
	}
	name = strings.Trim(u.Host+u.Path, "/")
	if name == "" {
		return "", "", "", fmt.Errorf("secrets: missing secret name in %q", ref)
	}
	version = u.Query().Get("version")
	if version == "" {
		version = "latest"
	}
	return name, version, u.Query().Get("project"), nil
}

func fallbackEligible(err error) bool {
	switch status.Code(err) {
	case codes.PermissionDenied, codes.Unauthenticated, codes.Unavailable, codes.DeadlineExceeded, codes.NotFound:
		return true
	}
	return false
}

// Timeout wraps ResolveSecret with a per-call deadline.
func (r *Resolver) Timeout(d time.Duration) func(context.Context, string) (string, error) {
	return func(ctx context.Context, ref string) (string, error) {
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()
		return r.ResolveSecret(ctx, ref)
	}
}
