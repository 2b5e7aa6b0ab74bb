// Package pagination parses and renders the page/limit/search/facet query
// parameters shared by every listing endpoint.
package pagination

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

const (
	DefaultLimit    = 20
	DefaultMaxLimit = 100

	maxSearchLength = 120
	maxFacetLength  = 80
)

var (
	ErrInvalidPage  = errors.New("pagination: invalid page")
	ErrInvalidLimit = errors.New("pagination: invalid limit")
	ErrInvalidFacet = errors.New("pagination: invalid facet")
)

// Params is a normalised listing request.
type Params struct {
	Page   int
	Limit  int
	Search string
	// Facets holds only the non-empty facet values.
	Facets map[string]string
}

// Options describes what a listing endpoint accepts.
type Options struct {
	DefaultLimit int
	MaxLimit     int
	// Facets lists the facet parameter names the endpoint understands. Other
	// query parameters are ignored.
	Facets []string
}

// FromRequest parses r's query string.
func FromRequest(r *http.Request, opts Options) (Params, error) {
	if r == nil || r.URL == nil {
		return Params{}, errors.New("pagination: nil request")
	}
	return Parse(r.URL.Query(), opts)
}

// Parse validates values against opts. Missing page means 1; missing limit
// means opts.DefaultLimit.
func Parse(values url.Values, opts Options) (Params, error) {
	maxLimit := opts.MaxLimit
	if maxLimit <= 0 {
		maxLimit = DefaultMaxLimit
	}
	defLimit := opts.DefaultLimit
	if defLimit <= 0 {
		defLimit = DefaultLimit
	}
	if defLimit > maxLimit {
		defLimit = maxLimit
	}

	page, err := positiveInt(values.Get("page"), 1)
	if err != nil {
		return Params{}, fmt.Errorf("%w: %v", ErrInvalidPage, err)
	}
	limit, err := positiveInt(values.Get("limit"), defLimit)
	if err != nil {
		return Params{}, fmt.Errorf("%w: %v", ErrInvalidLimit, err)
	}
	if limit > maxLimit {
		return Params{}, fmt.Errorf("%w: must be <= %d", ErrInvalidLimit, maxLimit)
	}

	search := strings.TrimSpace(values.Get("search"))
	if len([]rune(search)) > maxSearchLength {
		search = string([]rune(search)[:maxSearchLength])
	}

	params := Params{Page: page, Limit: limit, Search: search, Facets: map[string]string{}}
	for _, name := range opts.Facets {
		value := strings.TrimSpace(values.Get(name))
		if value == "" {
			continue
		}
		if len(value) > maxFacetLength || strings.ContainsAny(value, "\r\n\t") {
			return Params{}, fmt.Errorf("%w: %s", ErrInvalidFacet, name)
		}
		params.Facets[name] = value
	}
	return params, nil
}

// Values renders params as a query string. Empty search and facets are omitted.
func (p Params) Values() url.Values {
	values := url.Values{}
	if p.Page > 0 {
		values.Set("page", strconv.Itoa(p.Page))
	}
	if p.Limit > 0 {
		values.Set("limit", strconv.Itoa(p.Limit))
	}
	if s := strings.TrimSpace(p.Search); s != "" {
		values.Set("search", s)
	}
	names := make([]string, 0, len(p.Facets))
	for name := range p.Facets {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if v := strings.TrimSpace(p.Facets[name]); v != "" {
			values.Set(name, v)
		}
	}
	return values
}

// Filtered reports whether a search term or any facet is active.
func (p Params) Filtered() bool {
	return p.Search != "" || len(p.Facets) > 0
}

func positiveInt(raw string, fallback int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", raw)
	}
	if n < 1 {
		return 0, fmt.Errorf("must be >= 1, got %d", n)
	}
	return n, nil
}
