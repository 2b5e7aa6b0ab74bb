package domain

import (
	"sort"
	"strings"
)

// Facet names accepted by listing endpoints.
const (
	FacetCategory = "category"
	FacetLevel    = "level"
	FacetGrade    = "grade"
	FacetSubject  = "subject"
	FacetType     = "type"
	FacetStatus   = "status"
)

// ListingQuery is the controller-owned description of what to fetch.
type ListingQuery struct {
	SearchText string
	Page       int
	PageSize   int
	Facets     map[string]string
}

// Signature identifies the result set independent of the page. Two queries
// with the same signature accumulate into the same list.
func (q ListingQuery) Signature() string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(q.SearchText))
	names := make([]string, 0, len(q.Facets))
	for name, value := range q.Facets {
		if strings.TrimSpace(value) != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		b.WriteString("|")
		b.WriteString(name)
		b.WriteString("=")
		b.WriteString(strings.TrimSpace(q.Facets[name]))
	}
	return b.String()
}

// Clone returns a deep copy.
func (q ListingQuery) Clone() ListingQuery {
	out := q
	if q.Facets != nil {
		out.Facets = make(map[string]string, len(q.Facets))
		for k, v := range q.Facets {
			out.Facets[k] = v
		}
	}
	return out
}

// Page is one page of a listing.
type Page[T any] struct {
	Items       []T
	CurrentPage int
	TotalPages  int
	TotalItems  int
}

// Dimensions are pixel sizes of a previewable item.
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Item is the display record a render surface needs.
type Item struct {
	ID          string      `json:"id"`
	PreviewURL  string      `json:"previewUrl,omitempty"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	Dimensions  *Dimensions `json:"dimensions,omitempty"`
	Tags        []string    `json:"tags,omitempty"`
}

// Listable is implemented by every resource that can appear in a grid.
type Listable interface {
	ListItem() Item
}
