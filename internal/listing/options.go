package listing

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const defaultPageSize = 20

type options struct {
	pageSize   int
	debounce   time.Duration
	timeout    time.Duration
	dependents []DependentFacet
	logger     *zap.Logger
	ctx        context.Context
	search     string
	facets     map[string]string
}

// Option configures a Controller.
type Option func(*options)

func defaultOptions() options {
	return options{
		pageSize: defaultPageSize,
		logger:   zap.NewNop(),
		ctx:      context.Background(),
	}
}

// WithPageSize sets the number of items requested per page.
func WithPageSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.pageSize = n
		}
	}
}

// WithDebounce delays fetches triggered by query changes. Zero fetches
// immediately.
func WithDebounce(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.debounce = d
		}
	}
}

// WithTimeout bounds each background fetch.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithLogger sets the logger for fetch failures and stale drops.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithDependentFacets registers parent/child facet rules.
func WithDependentFacets(rules ...DependentFacet) Option {
	return func(o *options) {
		o.dependents = append(o.dependents, rules...)
	}
}

// WithInitialQuery seeds the search text and facets without fetching.
func WithInitialQuery(search string, facets map[string]string) Option {
	return func(o *options) {
		o.search = search
		o.facets = facets
	}
}

// WithContext sets the parent context of background fetches.
func WithContext(ctx context.Context) Option {
	return func(o *options) {
		if ctx != nil {
			o.ctx = ctx
		}
	}
}
