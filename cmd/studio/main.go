package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"cloud.google.com/go/pubsub"
	cloudstorage "cloud.google.com/go/storage"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/lembar-pintar/studio/internal/handlers"
	"github.com/lembar-pintar/studio/internal/payments"
	"github.com/lembar-pintar/studio/internal/platform/auth"
	"github.com/lembar-pintar/studio/internal/platform/cache"
	"github.com/lembar-pintar/studio/internal/platform/config"
	pfirestore "github.com/lembar-pintar/studio/internal/platform/firestore"
	"github.com/lembar-pintar/studio/internal/platform/idempotency"
	"github.com/lembar-pintar/studio/internal/platform/jobs"
	"github.com/lembar-pintar/studio/internal/platform/observability"
	"github.com/lembar-pintar/studio/internal/platform/secrets"
	"github.com/lembar-pintar/studio/internal/platform/sharelink"
	platformstorage "github.com/lembar-pintar/studio/internal/platform/storage"
	"github.com/lembar-pintar/studio/internal/repositories"
	firestoreRepo "github.com/lembar-pintar/studio/internal/repositories/firestore"
	"github.com/lembar-pintar/studio/internal/repositories/memory"
	"github.com/lembar-pintar/studio/internal/services"
)

var version = "dev"

func main() {
	ctx := context.Background()

	baseLogger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()
	logger := baseLogger.Named("studio")

	resolver, err := secrets.NewResolver(ctx, secretsProject(), secrets.WithLogger(logger.Named("secrets")))
	if err != nil {
		logger.Fatal("failed to initialise secret resolver", zap.Error(err))
	}
	defer func() {
		if err := resolver.Close(); err != nil {
			logger.Warn("secret resolver close error", zap.Error(err))
		}
	}()

	cfg, err := config.Load(ctx, config.WithSecretResolver(config.SecretResolverFunc(resolver.Timeout(10*time.Second))))
	if err != nil {
		var invalid *config.ValidationError
		if errors.As(err, &invalid) {
			logger.Fatal("invalid configuration", zap.Strings("fields", invalid.Fields()))
		}
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	registry, err := newRegistry(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialise repositories", zap.Error(err))
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := registry.Close(closeCtx); err != nil {
			logger.Warn("repository close error", zap.Error(err))
		}
	}()

	healthOpts := []handlers.HealthOption{
		handlers.WithVersion(version),
		handlers.WithCheck("repositories", registry.Ping),
	}

	var (
		facetCache  services.FacetCache
		idemStore   idempotency.Store = idempotency.NewMemoryStore()
		redisClient *redis.Client
	)
	if addr := strings.TrimSpace(cfg.Redis.Addr); addr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close error", zap.Error(err))
			}
		}()
		jsonCache, err := cache.NewJSON(redisClient, "")
		if err != nil {
			logger.Fatal("failed to initialise redis cache", zap.Error(err))
		}
		facetCache = jsonCache
		idemStore = idempotency.NewRedisStore(redisClient, "")
		healthOpts = append(healthOpts, handlers.WithCheck("redis", jsonCache.Ping))
	}

	var events services.DesignEventPublisher
	if cfg.PubSub.ProjectID != "" && cfg.PubSub.DesignEventsTopic != "" {
		psClient, err := pubsub.NewClient(ctx, cfg.PubSub.ProjectID)
		if err != nil {
			logger.Fatal("failed to initialise pubsub client", zap.Error(err))
		}
		defer func() {
			if err := psClient.Close(); err != nil {
				logger.Warn("pubsub close error", zap.Error(err))
			}
		}()
		publisher, err := jobs.NewDesignEventPublisher(psClient.Topic(cfg.PubSub.DesignEventsTopic))
		if err != nil {
			logger.Fatal("failed to initialise design event publisher", zap.Error(err))
		}
		defer publisher.Stop()
		events = publisher
	} else {
		logger.Info("design.published jobs disabled: no pubsub topic configured")
	}

	var (
		uploads  services.UploadSigner
		previews platformstorage.ObjectWriter
	)
	if cfg.Firebase.CredentialsFile != "" && (cfg.Storage.AssetsBucket != "" || cfg.Storage.PreviewsBucket != "") {
		signer, err := platformstorage.NewKeySignerFromFile(cfg.Firebase.CredentialsFile)
		if err != nil {
			logger.Fatal("failed to load storage signer", zap.Error(err))
		}
		gcs, err := cloudstorage.NewClient(ctx)
		if err != nil {
			logger.Fatal("failed to initialise storage client", zap.Error(err))
		}
		defer func() {
			if err := gcs.Close(); err != nil {
				logger.Warn("storage close error", zap.Error(err))
			}
		}()
		storageClient, err := platformstorage.NewClient(signer, platformstorage.WithGCS(gcs), platformstorage.WithTTL(cfg.Storage.SignedURLTTL))
		if err != nil {
			logger.Fatal("failed to initialise signed url client", zap.Error(err))
		}
		uploads = storageClient
		previews = storageClient
	} else {
		logger.Info("asset uploads and preview storage disabled: no credentials or buckets configured")
	}

	shareSigner, err := sharelink.NewSigner(cfg.Security.ShareLinkSecret, publicBaseURL(cfg)+"/api", sharelink.WithTTL(cfg.Security.ShareLinkTTL))
	if err != nil {
		logger.Fatal("failed to initialise share link signer", zap.Error(err))
	}

	metrics, err := observability.NewListingMetrics(nil)
	if err != nil {
		logger.Fatal("failed to register listing metrics", zap.Error(err))
	}

	qrService, err := services.NewQRService(services.QRServiceDeps{ServiceURL: cfg.QR.ServiceURL, DefaultSize: cfg.QR.DefaultSize, MaxSize: cfg.QR.MaxSize})
	if err != nil {
		logger.Fatal("failed to initialise qr service", zap.Error(err))
	}
	catalogService, err := services.NewCatalogService(services.CatalogServiceDeps{
		Elements:  registry.Elements(),
		Photos:    registry.Photos(),
		Templates: registry.Templates(),
		Metrics:   metrics,
		Logger:    logger,
	})
	if err != nil {
		logger.Fatal("failed to initialise catalog service", zap.Error(err))
	}
	facetService, err := services.NewFacetService(services.FacetServiceDeps{Facets: registry.Facets(), Cache: facetCache, TTL: cfg.Redis.FacetTTL, Logger: logger})
	if err != nil {
		logger.Fatal("failed to initialise facet service", zap.Error(err))
	}
	designService, err := services.NewDesignService(services.DesignServiceDeps{
		Designs:       registry.Designs(),
		Templates:     registry.Templates(),
		Facets:        registry.Facets(),
		UnitOfWork:    registry,
		Previews:      previews,
		PreviewBucket: cfg.Storage.PreviewsBucket,
		Events:        events,
		Links:         shareSigner,
		QR:            qrService,
		Logger:        logger,
	})
	if err != nil {
		logger.Fatal("failed to initialise design service", zap.Error(err))
	}
	assetService, err := services.NewAssetService(services.AssetServiceDeps{Assets: registry.Assets(), Uploads: uploads, Bucket: cfg.Storage.AssetsBucket, Logger: logger})
	if err != nil {
		logger.Fatal("failed to initialise asset service", zap.Error(err))
	}
	templateAdmin, err := services.NewTemplateAdminService(services.TemplateAdminServiceDeps{Templates: registry.Templates(), Logger: logger})
	if err != nil {
		logger.Fatal("failed to initialise template admin service", zap.Error(err))
	}

	var paymentService services.PaymentService
	if manager, err := newPaymentManager(cfg, logger); err != nil {
		logger.Warn("payments disabled", zap.Error(err))
	} else {
		paymentService, err = services.NewPaymentService(services.PaymentServiceDeps{Payments: manager, PlanPrices: cfg.Payments.PlanPrices, Logger: logger})
		if err != nil {
			logger.Fatal("failed to initialise payment service", zap.Error(err))
		}
	}

	verifier, err := newTokenVerifier(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialise token verifier", zap.Error(err))
	}
	authenticator := auth.NewAuthenticator(verifier)

	sizes := handlers.PageSizes{
		Elements:  cfg.Listing.ElementsPageSize,
		Templates: cfg.Listing.TemplatesPageSize,
		Photos:    cfg.Listing.PhotosPageSize,
		Admin:     cfg.Listing.AdminPageSize,
		Max:       cfg.Listing.MaxPageSize,
	}
	idem := idempotency.Middleware(idemStore, idempotency.WithHeader(cfg.Idempotency.Header), idempotency.WithTTL(cfg.Idempotency.TTL))

	var routerOpts []handlers.Option
	routerOpts = append(routerOpts,
		handlers.WithMiddlewares(
			observability.TraceMiddleware(cfg.Firestore.ProjectID),
			observability.InjectLoggerMiddleware(logger),
			observability.RequestLoggerMiddleware(cfg.Firestore.ProjectID),
			observability.RecoveryMiddleware(logger),
		),
		handlers.WithHealthHandlers(handlers.NewHealthHandlers(healthOpts...)),
		handlers.WithCatalogRoutes(handlers.NewCatalogHandlers(catalogService,
			handlers.WithFacetService(facetService),
			handlers.WithQRService(qrService),
			handlers.WithPageSizes(sizes),
		).Routes),
		handlers.WithDesignRoutes(handlers.NewDesignHandlers(authenticator, designService, shareSigner).Routes),
		handlers.WithAdminRoutes(handlers.NewAdminHandlers(authenticator, assetService, templateAdmin,
			handlers.WithIdempotency(idem),
			handlers.WithAdminPageSizes(sizes),
		).Routes),
		handlers.WithBrowseRoutes(handlers.NewBrowseHandlers(catalogService, facetService, sizes).Routes),
	)
	if paymentService != nil {
		routerOpts = append(routerOpts, handlers.WithPaymentRoutes(handlers.NewPaymentHandlers(authenticator, paymentService, cfg.Idempotency.Header).Routes))
	}
	router := handlers.NewRouter(routerOpts...)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverLogger := logger.Named("http").With(zap.String("addr", server.Addr))
	go func() {
		serverLogger.Info("starting http server", zap.String("backend", cfg.Backend.Mode), zap.String("version", version))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-shutdown
	logger.Info("shutdown signal received; draining requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func newRegistry(ctx context.Context, cfg config.Config, logger *zap.Logger) (repositories.Registry, error) {
	switch cfg.Backend.Mode {
	case config.BackendFirestore:
		provider := pfirestore.NewProvider(cfg.Firestore)
		if _, err := provider.Client(ctx); err != nil {
			return nil, fmt.Errorf("firestore client: %w", err)
		}
		registry, err := firestoreRepo.New(provider)
		if err != nil {
			_ = provider.Close()
			return nil, err
		}
		return registry, nil
	default:
		seed, err := loadSeed(cfg.Backend.SeedFile)
		if err != nil {
			return nil, err
		}
		logger.Info("using in-memory catalogue", zap.String("seed", cfg.Backend.SeedFile))
		registry, err := memory.New(seed)
		if err != nil {
			return nil, err
		}
		return registry, nil
	}
}

func loadSeed(path string) (memory.Seed, error) {
	if strings.TrimSpace(path) == "" {
		return memory.DefaultSeed()
	}
	return memory.LoadSeedFile(path)
}

func newPaymentManager(cfg config.Config, logger *zap.Logger) (*payments.Manager, error) {
	providers := map[string]payments.Provider{}
	if key := strings.TrimSpace(cfg.Payments.StripeAPIKey); key != "" {
		p, err := payments.NewStripeProvider(payments.StripeConfig{APIKey: key, Logger: logger.Named("stripe")})
		if err != nil {
			return nil, err
		}
		providers[payments.ProviderStripe] = p
	}
	if key := strings.TrimSpace(cfg.Payments.MidtransServerKey); key != "" {
		p, err := payments.NewMidtransProvider(payments.MidtransConfig{ServerKey: key, Environment: cfg.Payments.MidtransEnvironment, Logger: logger.Named("midtrans")})
		if err != nil {
			return nil, err
		}
		providers[payments.ProviderMidtrans] = p
	}
	if len(providers) == 0 {
		return nil, errors.New("no payment provider credentials configured")
	}
	return payments.NewManager(providers,
		payments.WithDefaultProvider(cfg.Payments.DefaultProvider),
		payments.WithCurrencyRoutes(cfg.Payments.CurrencyRoutes),
	)
}

func newTokenVerifier(ctx context.Context, cfg config.Config, logger *zap.Logger) (auth.TokenVerifier, error) {
	if cfg.Firebase.ProjectID != "" {
		verifier, err := auth.NewFirebaseVerifier(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsFile)
		if err != nil {
			return nil, err
		}
		return verifier, nil
	}
	if len(cfg.Security.StaticTokens) == 0 {
		logger.Warn("no firebase project and no static tokens: every authenticated route will reject")
	}
	return auth.NewStaticVerifier(cfg.Security.StaticTokens), nil
}

func publicBaseURL(cfg config.Config) string {
	if cfg.Server.PublicBaseURL != "" {
		return cfg.Server.PublicBaseURL
	}
	return "http://localhost:" + cfg.Server.Port
}

func secretsProject() string {
	for _, key := range []string{"STUDIO_SECRETS_PROJECT_ID", "STUDIO_FIREBASE_PROJECT_ID", "GOOGLE_CLOUD_PROJECT"} {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v
		}
	}
	return ""
}
