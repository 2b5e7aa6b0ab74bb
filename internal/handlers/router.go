package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/lembar-pintar/studio/internal/platform/httpx"
)

// RouteRegistrar registers a set of routes against the provided router.
type RouteRegistrar func(r chi.Router)

type routerConfig struct {
	basePath    string
	middlewares []func(http.Handler) http.Handler
	health      *HealthHandlers

	catalog  RouteRegistrar
	designs  RouteRegistrar
	admin    RouteRegistrar
	payments RouteRegistrar
	browse   RouteRegistrar
}

type Option func(*routerConfig)

const (
	defaultAPIPrefix  = "/api"
	defaultTimeout    = 60 * time.Second
	errorNotFoundCode = "route_not_found"
)

// NewRouter builds the chi router with shared middleware. Route groups that
// were not configured answer 501.
func NewRouter(opts ...Option) chi.Router {
	cfg := routerConfig{
		basePath: defaultAPIPrefix,
		middlewares: []func(http.Handler) http.Handler{
			middleware.RequestID,
			middleware.RealIP,
			middleware.Timeout(defaultTimeout),
		},
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.health == nil {
		cfg.health = NewHealthHandlers()
	}

	r := chi.NewRouter()
	for _, mw := range cfg.middlewares {
		if mw != nil {
			r.Use(mw)
		}
	}

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		httpx.WriteError(req.Context(), w, httpx.NewError(errorNotFoundCode, fmt.Sprintf("no route for %s", req.URL.Path), http.StatusNotFound))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		httpx.WriteError(req.Context(), w, httpx.NewError("method_not_allowed", fmt.Sprintf("method %s not allowed on %s", req.Method, req.URL.Path), http.StatusMethodNotAllowed))
	})

	r.Get("/healthz", cfg.health.Healthz)
	r.Get("/readyz", cfg.health.Readyz)

	r.Route(cfg.basePath, func(api chi.Router) {
		group := func(registrar RouteRegistrar, name string) {
			api.Group(func(g chi.Router) {
				if registrar != nil {
					registrar(g)
					return
				}
				registerNotImplemented(g, name)
			})
		}
		group(cfg.catalog, "catalog")
		group(cfg.designs, "designs")
		group(cfg.payments, "payments")
		api.Route("/admin", func(admin chi.Router) {
			if cfg.admin != nil {
				cfg.admin(admin)
				return
			}
			registerNotImplemented(admin, "admin")
		})
	})

	if cfg.browse != nil {
		r.Route("/browse", func(b chi.Router) { cfg.browse(b) })
	}
	return r
}

// WithMiddlewares appends global middleware.
func WithMiddlewares(mw ...func(http.Handler) http.Handler) Option {
	return func(cfg *routerConfig) {
		cfg.middlewares = append(cfg.middlewares, mw...)
	}
}

func WithHealthHandlers(h *HealthHandlers) Option {
	return func(cfg *routerConfig) { cfg.health = h }
}

// WithCatalogRoutes registers the public listing, detail, facet and QR endpoints.
func WithCatalogRoutes(reg RouteRegistrar) Option {
	return func(cfg *routerConfig) { cfg.catalog = reg }
}

func WithDesignRoutes(reg RouteRegistrar) Option {
	return func(cfg *routerConfig) { cfg.designs = reg }
}

// WithAdminRoutes registers routes under /api/admin.
func WithAdminRoutes(reg RouteRegistrar) Option {
	return func(cfg *routerConfig) { cfg.admin = reg }
}

func WithPaymentRoutes(reg RouteRegistrar) Option {
	return func(cfg *routerConfig) { cfg.payments = reg }
}

// WithBrowseRoutes registers the HTML browse surface under /browse.
func WithBrowseRoutes(reg RouteRegistrar) Option {
	return func(cfg *routerConfig) { cfg.browse = reg }
}

func registerNotImplemented(r chi.Router, name string) {
	handler := func(w http.ResponseWriter, req *http.Request) {
		httpx.WriteError(req.Context(), w, httpx.NewError("not_implemented", fmt.Sprintf("%s routes not implemented", name), http.StatusNotImplemented))
	}
	switch name {
	case "catalog":
		for _, p := range []string{"/elements", "/elements/*", "/templates", "/templates/*", "/photos", "/facets", "/qr"} {
			r.HandleFunc(p, handler)
		}
	case "designs":
		r.HandleFunc("/designs/*", handler)
	case "payments":
		r.HandleFunc("/payments/*", handler)
	default:
		r.HandleFunc("/*", handler)
		r.HandleFunc("/", handler)
	}
}
