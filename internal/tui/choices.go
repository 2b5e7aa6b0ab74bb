package tui

import (
	"github.com/lembar-pintar/studio/internal/domain"
)

// FacetChoice is one stop of the tab cycle. An empty Value clears the facet.
type FacetChoice struct {
	Name  string
	Value string
	Label string
}

// Choices builds the tab cycle for a resource: education levels for
// templates, the resource's own categories otherwise.
func Choices(set domain.FacetOptionSet, resource string) []FacetChoice {
	if resource == "templates" {
		out := []FacetChoice{{Name: domain.FacetLevel, Label: "Semua jenjang"}}
		for _, l := range set.Levels {
			out = append(out, FacetChoice{Name: domain.FacetLevel, Value: l.Slug, Label: l.Name})
		}
		return out
	}
	out := []FacetChoice{{Name: domain.FacetCategory, Label: "Semua kategori"}}
	for _, c := range set.Categories {
		if c.Resource != "" && c.Resource != resource {
			continue
		}
		out = append(out, FacetChoice{Name: domain.FacetCategory, Value: c.Slug, Label: c.Name})
	}
	return out
}
