package config

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	envPrefix = "STUDIO_"

	defaultEnvFile         = ".env"
	defaultPort            = "8080"
	defaultReadTimeout     = 15 * time.Second
	defaultWriteTimeout    = 30 * time.Second
	defaultIdleTimeout     = 120 * time.Second
	defaultShutdownTimeout = 10 * time.Second
	defaultBackend         = BackendMemory
	defaultEnvironment     = "local"
	defaultSignedURLTTL    = 15 * time.Minute
	defaultFacetCacheTTL   = 10 * time.Minute
	defaultShareLinkTTL    = 30 * 24 * time.Hour
	defaultIdempotencyTTL  = 24 * time.Hour
	defaultIdempotencyHdr  = "Idempotency-Key"
	defaultQRServiceURL    = "https://api.qrserver.com/v1/create-qr-code/"
	defaultQRSize          = 300
	defaultQRMaxSize       = 1000
	defaultDebounce        = 300 * time.Millisecond
	defaultMaxPageSize     = 100
	defaultMidtransEnv     = "sandbox"
	localShareLinkSecret   = "local-development-share-link-secret"
)

// Backend modes select the repository implementation.
const (
	BackendMemory    = "memory"
	BackendFirestore = "firestore"
)

// Config is the full runtime configuration grouped by concern.
type Config struct {
	Server      ServerConfig
	Backend     BackendConfig
	Firebase    FirebaseConfig
	Firestore   FirestoreConfig
	Storage     StorageConfig
	PubSub      PubSubConfig
	Redis       RedisConfig
	Payments    PaymentsConfig
	Listing     ListingConfig
	QR          QRConfig
	Security    SecurityConfig
	Idempotency IdempotencyConfig
}

type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	PublicBaseURL   string
}

// BackendConfig picks between the YAML seeded memory store and Firestore.
type BackendConfig struct {
	Mode     string
	SeedFile string
}

type FirebaseConfig struct {
	ProjectID       string
	CredentialsFile string
}

type FirestoreConfig struct {
	ProjectID    string
	EmulatorHost string
}

// StorageConfig names the buckets for uploaded assets and exported previews.
type StorageConfig struct {
	AssetsBucket   string
	PreviewsBucket string
	SignedURLTTL   time.Duration
	SignerEmail    string
}

type PubSubConfig struct {
	ProjectID         string
	DesignEventsTopic string
}

// RedisConfig enables the facet option cache when Addr is set.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	FacetTTL time.Duration
}

// PaymentsConfig holds provider credentials, plan prices and currency routing.
type PaymentsConfig struct {
	StripeAPIKey        string
	MidtransServerKey   string
	MidtransEnvironment string
	// CurrencyRoutes maps an upper-case currency code to a provider name.
	CurrencyRoutes  map[string]string
	DefaultProvider string
	// PlanPrices maps a plan id to its price in minor units.
	PlanPrices map[string]int64
}

// ListingConfig carries per-resource page sizes and the client debounce window.
type ListingConfig struct {
	ElementsPageSize  int
	TemplatesPageSize int
	PhotosPageSize    int
	AdminPageSize     int
	MaxPageSize       int
	Debounce          time.Duration
}

type QRConfig struct {
	ServiceURL  string
	DefaultSize int
	MaxSize     int
}

type SecurityConfig struct {
	Environment     string
	ShareLinkSecret string
	ShareLinkTTL    time.Duration
	// StaticTokens maps bearer tokens to "uid:role" for local development.
	StaticTokens map[string]string
}

type IdempotencyConfig struct {
	Header string
	TTL    time.Duration
}

// SecretResolver resolves secret references such as sm://name.
type SecretResolver interface {
	ResolveSecret(ctx context.Context, ref string) (string, error)
}

// SecretResolverFunc adapts a function to SecretResolver.
type SecretResolverFunc func(context.Context, string) (string, error)

func (f SecretResolverFunc) ResolveSecret(ctx context.Context, ref string) (string, error) {
	return f(ctx, ref)
}

// ValidationError lists every missing or invalid field.
type ValidationError struct {
	fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the offending field names.
func (e *ValidationError) Fields() []string {
	return append([]string(nil), e.fields...)
}

// SecretError reports a secret reference that could not be resolved.
type SecretError struct {
	Field string
	Ref   string
	Err   error
}

func (e *SecretError) Error() string {
	return fmt.Sprintf("resolve secret for %s (%s): %v", e.Field, e.Ref, e.Err)
}

func (e *SecretError) Unwrap() error { return e.Err }

var errNoSecretResolver = errors.New("secret resolver not configured")

type loaderOptions struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
	secrets      SecretResolver
}

// Option customises Load.
type Option func(*loaderOptions)

// WithEnvFile overrides the dotenv path. An empty path disables dotenv loading.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) { o.envFile = path }
}

// WithEnvMap supplies values that take precedence over the process environment.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) { o.envMap = values }
}

// WithoutSystemEnv ignores the process environment.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) { o.useSystemEnv = false }
}

// WithSecretResolver sets the resolver used for secret:// and sm:// values.
func WithSecretResolver(resolver SecretResolver) Option {
	return func(o *loaderOptions) { o.secrets = resolver }
}

// Load builds the configuration from defaults, the dotenv file, the process
// environment and explicit overrides, in increasing precedence.
func Load(ctx context.Context, opts ...Option) (Config, error) {
	options := loaderOptions{envFile: defaultEnvFile, useSystemEnv: true}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}

	dotenv, err := loadDotEnv(options.envFile)
	if err != nil {
		return Config{}, err
	}
	env := lookup(func(key string) (string, bool) {
		key = envPrefix + key
		if v, ok := options.envMap[key]; ok {
			return v, true
		}
		if options.useSystemEnv {
			if v, ok := os.LookupEnv(key); ok {
				return v, true
			}
		}
		v, ok := dotenv[key]
		return v, ok
	})

	cfg := Config{
		Server: ServerConfig{
			Port:            env.str("SERVER_PORT", defaultPort),
			ReadTimeout:     env.duration("SERVER_READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout:    env.duration("SERVER_WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:     env.duration("SERVER_IDLE_TIMEOUT", defaultIdleTimeout),
			ShutdownTimeout: env.duration("SERVER_SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
			PublicBaseURL:   strings.TrimRight(env.str("SERVER_PUBLIC_BASE_URL", ""), "/"),
		},
		Backend: BackendConfig{
			Mode:     strings.ToLower(env.str("BACKEND", defaultBackend)),
			SeedFile: env.str("SEED_FILE", ""),
		},
		Firebase: FirebaseConfig{
			ProjectID:       env.str("FIREBASE_PROJECT_ID", ""),
			CredentialsFile: env.str("FIREBASE_CREDENTIALS_FILE", ""),
		},
		Firestore: FirestoreConfig{
			ProjectID:    env.str("FIRESTORE_PROJECT_ID", ""),
			EmulatorHost: env.str("FIRESTORE_EMULATOR_HOST", ""),
		},
		Storage: StorageConfig{
			AssetsBucket:   env.str("STORAGE_ASSETS_BUCKET", ""),
			PreviewsBucket: env.str("STORAGE_PREVIEWS_BUCKET", ""),
			SignedURLTTL:   env.duration("STORAGE_SIGNED_URL_TTL", defaultSignedURLTTL),
			SignerEmail:    env.str("STORAGE_SIGNER_EMAIL", ""),
		},
		PubSub: PubSubConfig{
			ProjectID:         env.str("PUBSUB_PROJECT_ID", ""),
			DesignEventsTopic: env.str("PUBSUB_DESIGN_EVENTS_TOPIC", ""),
		},
		Redis: RedisConfig{
			Addr:     env.str("REDIS_ADDR", ""),
			Password: env.str("REDIS_PASSWORD", ""),
			DB:       env.integer("REDIS_DB", 0),
			FacetTTL: env.duration("REDIS_FACET_TTL", defaultFacetCacheTTL),
		},
		Payments: PaymentsConfig{
			StripeAPIKey:        env.str("PAYMENTS_STRIPE_API_KEY", ""),
			MidtransServerKey:   env.str("PAYMENTS_MIDTRANS_SERVER_KEY", ""),
			MidtransEnvironment: strings.ToLower(env.str("PAYMENTS_MIDTRANS_ENVIRONMENT", defaultMidtransEnv)),
			CurrencyRoutes:      upperKeys(env.pairs("PAYMENTS_CURRENCY_ROUTES")),
			DefaultProvider:     strings.ToLower(env.str("PAYMENTS_DEFAULT_PROVIDER", "")),
			PlanPrices:          map[string]int64{},
		},
		Listing: ListingConfig{
			ElementsPageSize:  env.integer("LISTING_ELEMENTS_PAGE_SIZE", 30),
			TemplatesPageSize: env.integer("LISTING_TEMPLATES_PAGE_SIZE", 20),
			PhotosPageSize:    env.integer("LISTING_PHOTOS_PAGE_SIZE", 24),
			AdminPageSize:     env.integer("LISTING_ADMIN_PAGE_SIZE", 20),
			MaxPageSize:       env.integer("LISTING_MAX_PAGE_SIZE", defaultMaxPageSize),
			Debounce:          env.duration("LISTING_DEBOUNCE", defaultDebounce),
		},
		QR: QRConfig{
			ServiceURL:  env.str("QR_SERVICE_URL", defaultQRServiceURL),
			DefaultSize: env.integer("QR_DEFAULT_SIZE", defaultQRSize),
			MaxSize:     env.integer("QR_MAX_SIZE", defaultQRMaxSize),
		},
		Security: SecurityConfig{
			Environment:     strings.ToLower(env.str("SECURITY_ENVIRONMENT", defaultEnvironment)),
			ShareLinkSecret: env.str("SECURITY_SHARE_LINK_SECRET", ""),
			ShareLinkTTL:    env.duration("SECURITY_SHARE_LINK_TTL", defaultShareLinkTTL),
			StaticTokens:    env.pairsWith("SECURITY_STATIC_TOKENS", strings.TrimSpace),
		},
		Idempotency: IdempotencyConfig{
			Header: env.str("IDEMPOTENCY_HEADER", defaultIdempotencyHdr),
			TTL:    env.duration("IDEMPOTENCY_TTL", defaultIdempotencyTTL),
		},
	}

	var invalid []string
	for plan, raw := range env.pairs("PAYMENTS_PLAN_PRICES") {
		amount, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || amount <= 0 {
			invalid = append(invalid, "Payments.PlanPrices["+plan+"]")
			continue
		}
		cfg.Payments.PlanPrices[plan] = amount
	}

	if cfg.Firestore.ProjectID == "" {
		cfg.Firestore.ProjectID = cfg.Firebase.ProjectID
	}
	if cfg.PubSub.ProjectID == "" {
		cfg.PubSub.ProjectID = cfg.Firestore.ProjectID
	}
	if cfg.Security.ShareLinkSecret == "" && cfg.Security.Environment == defaultEnvironment {
		cfg.Security.ShareLinkSecret = localShareLinkSecret
	}

	secretFields := []struct {
		name  string
		field *string
	}{
		{"Payments.StripeAPIKey", &cfg.Payments.StripeAPIKey},
		{"Payments.MidtransServerKey", &cfg.Payments.MidtransServerKey},
		{"Security.ShareLinkSecret", &cfg.Security.ShareLinkSecret},
		{"Redis.Password", &cfg.Redis.Password},
	}
	for _, target := range secretFields {
		resolved, err := resolveSecret(ctx, target.name, *target.field, options.secrets)
		if err != nil {
			return Config{}, err
		}
		*target.field = resolved
	}

	if err := validate(cfg, invalid); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validate(cfg Config, invalid []string) error {
	fields := append([]string(nil), invalid...)
	require := func(ok bool, name string) {
		if !ok {
			fields = append(fields, name)
		}
	}

	require(cfg.Server.Port != "", "Server.Port")
	require(cfg.Server.ShutdownTimeout > 0, "Server.ShutdownTimeout")
	require(cfg.Backend.Mode == BackendMemory || cfg.Backend.Mode == BackendFirestore, "Backend.Mode")
	if cfg.Backend.Mode == BackendFirestore {
		require(cfg.Firestore.ProjectID != "", "Firestore.ProjectID")
		require(cfg.Firebase.ProjectID != "", "Firebase.ProjectID")
	}
	require(cfg.Storage.SignedURLTTL > 0, "Storage.SignedURLTTL")
	require(cfg.Listing.MaxPageSize > 0, "Listing.MaxPageSize")
	for name, size := range map[string]int{
		"Listing.ElementsPageSize":  cfg.Listing.ElementsPageSize,
		"Listing.TemplatesPageSize": cfg.Listing.TemplatesPageSize,
		"Listing.PhotosPageSize":    cfg.Listing.PhotosPageSize,
		"Listing.AdminPageSize":     cfg.Listing.AdminPageSize,
	} {
		require(size > 0 && size <= cfg.Listing.MaxPageSize, name)
	}
	require(cfg.Listing.Debounce >= 0, "Listing.Debounce")
	require(strings.HasPrefix(cfg.QR.ServiceURL, "https://") || strings.HasPrefix(cfg.QR.ServiceURL, "http://"), "QR.ServiceURL")
	require(cfg.QR.DefaultSize > 0 && cfg.QR.DefaultSize <= cfg.QR.MaxSize, "QR.DefaultSize")
	require(len(cfg.Security.ShareLinkSecret) >= 16, "Security.ShareLinkSecret")
	require(cfg.Security.ShareLinkTTL > 0, "Security.ShareLinkTTL")
	require(strings.TrimSpace(cfg.Idempotency.Header) != "", "Idempotency.Header")
	require(cfg.Idempotency.TTL > 0, "Idempotency.TTL")
	require(cfg.Payments.MidtransEnvironment == "sandbox" || cfg.Payments.MidtransEnvironment == "production", "Payments.MidtransEnvironment")

	if len(fields) > 0 {
		return &ValidationError{fields: fields}
	}
	return nil
}

func resolveSecret(ctx context.Context, field, value string, resolver SecretResolver) (string, error) {
	value = strings.TrimSpace(value)
	if !IsSecretReference(value) {
		return value, nil
	}
	ref := NormalizeSecretReference(value)
	if resolver == nil {
		return "", &SecretError{Field: field, Ref: ref, Err: errNoSecretResolver}
	}
	secret, err := resolver.ResolveSecret(ctx, ref)
	if err != nil {
		return "", &SecretError{Field: field, Ref: ref, Err: err}
	}
	return strings.TrimSpace(secret), nil
}

// IsSecretReference reports whether value points at Secret Manager.
func IsSecretReference(value string) bool {
	value = strings.TrimSpace(value)
	return strings.HasPrefix(value, "secret://") || strings.HasPrefix(value, "sm://")
}

// NormalizeSecretReference rewrites the sm:// shorthand to secret://.
func NormalizeSecretReference(value string) string {
	value = strings.TrimSpace(value)
	if rest, ok := strings.CutPrefix(value, "sm://"); ok {
		return "secret://" + rest
	}
	return value
}

func loadDotEnv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer file.Close()

	values := make(map[string]string)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
		key, value, ok := strings.Cut(line, "=")
		if !ok || strings.TrimSpace(key) == "" {
			continue
		}
		values[strings.TrimSpace(key)] = strings.Trim(strings.TrimSpace(value), `"'`)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return values, nil
}

type lookup func(key string) (string, bool)

func (l lookup) str(key, fallback string) string {
	if v, ok := l(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func (l lookup) duration(key string, fallback time.Duration) time.Duration {
	if v, ok := l(key); ok && v != "" {
		if d, err := time.ParseDuration(strings.TrimSpace(v)); err == nil {
			return d
		}
	}
	return fallback
}

func (l lookup) integer(key string, fallback int) int {
	if v, ok := l(key); ok && v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return fallback
}

// pairs parses "a=1,b=2" with lower-cased keys. Blank entries are skipped.
func (l lookup) pairs(key string) map[string]string {
	return l.pairsWith(key, strings.ToLower)
}

func (l lookup) pairsWith(key string, normalize func(string) string) map[string]string {
	out := make(map[string]string)
	raw, ok := l(key)
	if !ok {
		return out
	}
	for _, entry := range strings.Split(raw, ",") {
		name, value, found := strings.Cut(strings.TrimSpace(entry), "=")
		name = normalize(strings.TrimSpace(name))
		value = strings.TrimSpace(value)
		if !found || name == "" || value == "" {
			continue
		}
		out[name] = value
	}
	return out
}

func upperKeys(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[strings.ToUpper(k)] = strings.ToLower(v)
	}
	return out
}
