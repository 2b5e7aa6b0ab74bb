package repositories

import (
	"sort"
	"strings"
	"time"

	"github.com/lembar-pintar/studio/internal/domain"
	"github.com/lembar-pintar/studio/internal/platform/pagination"
	"github.com/lembar-pintar/studio/internal/platform/textutil"
)

// Indexed describes how a record is searched and filtered.
type Indexed struct {
	Text    []string
	Facets  map[string]string
	Created time.Time
	ID      string
}

// Paginate filters items by params, orders them newest first and slices
// the requested page.
func Paginate[T any](items []T, params pagination.Params, index func(T) Indexed) domain.Page[T] {
	type entry struct {
		item T
		idx  Indexed
	}
	matched := make([]entry, 0, len(items))
	for _, it := range items {
		idx := index(it)
		if !facetsMatch(idx.Facets, params.Facets) {
			continue
		}
		if !textutil.MatchAll(params.Search, idx.Text...) {
			continue
		}
		matched = append(matched, entry{it, idx})
	}
	sort.SliceStable(matched, func(i, j int) bool {
		a, b := matched[i].idx, matched[j].idx
		if !a.Created.Equal(b.Created) {
			return a.Created.After(b.Created)
		}
		return a.ID < b.ID
	})

	page := params.Page
	if page < 1 {
		page = 1
	}
	limit := params.Limit
	if limit < 1 {
		limit = pagination.DefaultLimit
	}
	start, end := pagination.Window(page, limit, len(matched))
	out := make([]T, 0, end-start)
	for _, e := range matched[start:end] {
		out = append(out, e.item)
	}
	pages := pagination.TotalPages(len(matched), limit)
	// A page past the end reports the last page so page never exceeds pages.
	if len(matched) > 0 && page > pages {
		page = pages
	}
	return domain.Page[T]{
		Items:       out,
		CurrentPage: page,
		TotalPages:  pages,
		TotalItems:  len(matched),
	}
}

func facetsMatch(have, want map[string]string) bool {
	for name, value := range want {
		if value == "" {
			continue
		}
		if !strings.EqualFold(have[name], value) {
			return false
		}
	}
	return true
}

// ElementIndex, PhotoIndex, TemplateIndex and AssetIndex are shared by the
// memory store and the Firestore post-query filter.
func ElementIndex(e domain.Element) Indexed {
	return Indexed{
		Text:    append([]string{e.Title, e.Kind}, e.Tags...),
		Facets:  map[string]string{domain.FacetCategory: e.Category},
		Created: e.CreatedAt,
		ID:      e.ID,
	}
}

func PhotoIndex(p domain.Photo) Indexed {
	return Indexed{
		Text:    append([]string{p.Name, p.Credit}, p.Tags...),
		Facets:  map[string]string{domain.FacetCategory: p.Category},
		Created: p.CreatedAt,
		ID:      p.ID,
	}
}

func TemplateIndex(t domain.Template) Indexed {
	return Indexed{
		Text: append([]string{t.Title, t.Description}, t.Tags...),
		Facets: map[string]string{
			domain.FacetLevel:   t.Level,
			domain.FacetGrade:   t.GradeID,
			domain.FacetSubject: t.SubjectID,
			domain.FacetStatus:  t.Status,
		},
		Created: t.CreatedAt,
		ID:      t.ID,
	}
}

func AssetIndex(a domain.Asset) Indexed {
	return Indexed{
		Text:    append([]string{a.Name}, a.Tags...),
		Facets:  map[string]string{domain.FacetCategory: a.Category, domain.FacetType: a.Type},
		Created: a.CreatedAt,
		ID:      a.ID,
	}
}
