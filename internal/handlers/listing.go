package handlers

import (
	"context"
	"net/http"

	"github.com/lembar-pintar/studio/internal/domain"
	"github.com/lembar-pintar/studio/internal/platform/httpx"
	"github.com/lembar-pintar/studio/internal/platform/pagination"
)

// listingRoute describes one listing endpoint.
type listingRoute struct {
	resource string
	key      string
	options  pagination.Options
}

type paginationPayload struct {
	Page  int `json:"page"`
	Pages int `json:"pages"`
	Total int `json:"total"`
}

// serveListing parses pagination, runs fetch and writes
// { <key>: [...], pagination: {page, pages, total} }.
func serveListing[T any](w http.ResponseWriter, r *http.Request, route listingRoute, fetch func(context.Context, pagination.Params) (domain.Page[T], error)) {
	params, err := pagination.FromRequest(r, route.options)
	if err != nil {
		httpx.WriteError(r.Context(), w, httpx.BadRequest("invalid_pagination", err.Error()))
		return
	}
	page, err := fetch(r.Context(), params)
	if err != nil {
		writeServiceError(r.Context(), w, err, route.resource)
		return
	}
	items := page.Items
	if items == nil {
		items = []T{}
	}
	current := page.CurrentPage
	if current < 1 {
		current = params.Page
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		route.key: items,
		"pagination": paginationPayload{
			Page:  current,
			Pages: page.TotalPages,
			Total: page.TotalItems,
		},
	})
}

func listingOptions(defaultLimit, maxLimit int, facets ...string) pagination.Options {
	return pagination.Options{DefaultLimit: defaultLimit, MaxLimit: maxLimit, Facets: facets}
}
