package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"

	"github.com/lembar-pintar/studio/internal/domain"
	"github.com/lembar-pintar/studio/internal/listing"
)

// Resource names a listing endpoint and the envelope key its items live under.
type Resource struct {
	Name string
	Path string
	Key  string
}

var (
	Elements       = Resource{Name: "elements", Path: "/api/elements", Key: "items"}
	Templates      = Resource{Name: "templates", Path: "/api/templates", Key: "data"}
	Photos         = Resource{Name: "photos", Path: "/api/photos", Key: "files"}
	AdminAssets    = Resource{Name: "admin-assets", Path: "/api/admin/assets", Key: "files"}
	AdminTemplates = Resource{Name: "admin-templates", Path: "/api/admin/templates", Key: "data"}
)

// LookupResource finds a resource by name.
func LookupResource(name string) (Resource, bool) {
	for _, r := range []Resource{Elements, Templates, Photos, AdminAssets, AdminTemplates} {
		if r.Name == name {
			return r, true
		}
	}
	return Resource{}, false
}

type paginationPayload struct {
	Page  *int `json:"page"`
	Pages *int `json:"pages"`
	Total *int `json:"total"`
}

// ListPage fetches one page of res and decodes its items as T.
func ListPage[T any](ctx context.Context, c *Client, res Resource, q domain.ListingQuery) (domain.Page[T], error) {
	var envelope map[string]json.RawMessage
	if err := c.call(ctx, "GET", res.Path, queryValues(q), nil, &envelope); err != nil {
		return domain.Page[T]{}, err
	}

	raw, ok := envelope[res.Key]
	if !ok {
		return domain.Page[T]{}, fmt.Errorf("%w: %s: missing %q", ErrMalformedResponse, res.Path, res.Key)
	}
	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return domain.Page[T]{}, fmt.Errorf("%w: %s: %q is not a list: %v", ErrMalformedResponse, res.Path, res.Key, err)
	}

	var pg paginationPayload
	if rawPg, ok := envelope["pagination"]; ok {
		if err := json.Unmarshal(rawPg, &pg); err != nil {
			return domain.Page[T]{}, fmt.Errorf("%w: %s: pagination: %v", ErrMalformedResponse, res.Path, err)
		}
	}
	if pg.Pages == nil {
		return domain.Page[T]{}, fmt.Errorf("%w: %s: missing pagination.pages", ErrMalformedResponse, res.Path)
	}

	out := domain.Page[T]{Items: items, CurrentPage: q.Page, TotalPages: *pg.Pages}
	if pg.Page != nil {
		out.CurrentPage = *pg.Page
	}
	if pg.Total != nil {
		out.TotalItems = *pg.Total
	} else {
		out.TotalItems = len(items)
	}
	return out, nil
}

// Fetcher adapts res into a listing.Fetcher.
func Fetcher[T any](c *Client, res Resource) listing.Fetcher[T] {
	return listing.FetcherFunc[T](func(ctx context.Context, q domain.ListingQuery) (domain.Page[T], error) {
		return ListPage[T](ctx, c, res, q)
	})
}

// ItemFetcher fetches res and projects every record to a display item.
func ItemFetcher[T domain.Listable](c *Client, res Resource) listing.Fetcher[domain.Item] {
	return listing.FetcherFunc[domain.Item](func(ctx context.Context, q domain.ListingQuery) (domain.Page[domain.Item], error) {
		page, err := ListPage[T](ctx, c, res, q)
		if err != nil {
			return domain.Page[domain.Item]{}, err
		}
		items := make([]domain.Item, 0, len(page.Items))
		for _, it := range page.Items {
			items = append(items, it.ListItem())
		}
		return domain.Page[domain.Item]{
			Items:       items,
			CurrentPage: page.CurrentPage,
			TotalPages:  page.TotalPages,
			TotalItems:  page.TotalItems,
		}, nil
	})
}

func queryValues(q domain.ListingQuery) url.Values {
	v := url.Values{}
	page := q.Page
	if page < 1 {
		page = 1
	}
	v.Set("page", strconv.Itoa(page))
	if q.PageSize > 0 {
		v.Set("limit", strconv.Itoa(q.PageSize))
	}
	if q.SearchText != "" {
		v.Set("search", q.SearchText)
	}
	names := make([]string, 0, len(q.Facets))
	for name := range q.Facets {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if value := q.Facets[name]; value != "" {
			v.Set(name, value)
		}
	}
	return v
}
