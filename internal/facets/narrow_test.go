package facets

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lembar-pintar/studio/internal/domain"
	"github.com/lembar-pintar/studio/internal/listing"
)

func fixture() domain.FacetOptionSet {
	return domain.FacetOptionSet{
		Levels: []domain.EducationLevel{
			{ID: "1", Slug: "tk", Name: "TK"},
			{ID: "2", Slug: "sd", Name: "SD"},
		},
		Grades: []domain.Grade{
			{ID: "tk-a", Name: "TK A", EducationLevel: domain.LevelRef{Slug: "tk"}},
			{ID: "sd-1", Name: "Kelas 1", EducationLevel: domain.LevelRef{Slug: "sd"}},
			{ID: "sd-2", Name: "Kelas 2", EducationLevel: domain.LevelRef{Slug: "sd"}},
		},
		Subjects: []domain.Subject{
			{ID: "math", Name: "Matematika", ApplicableLevels: []string{"SD", "SMP"}},
			{ID: "motorik", Name: "Motorik", ApplicableLevels: []string{"TK"}},
			{ID: "art", Name: "Seni", ApplicableLevels: []string{"TK", "SD"}},
		},
	}
}

func ids[T any](items []T, id func(T) string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, id(it))
	}
	return out
}

func TestNarrow(t *testing.T) {
	set := fixture()

	sd := Narrow(set, "sd")
	assert.Equal(t, []string{"sd-1", "sd-2"}, ids(sd.Grades, func(g domain.Grade) string { return g.ID }))
	assert.Equal(t, []string{"math", "art"}, ids(sd.Subjects, func(s domain.Subject) string { return s.ID }))

	tk := Narrow(set, "tk")
	assert.Equal(t, []string{"tk-a"}, ids(tk.Grades, func(g domain.Grade) string { return g.ID }))
	assert.Equal(t, []string{"motorik", "art"}, ids(tk.Subjects, func(s domain.Subject) string { return s.ID }))

	all := Narrow(set, "")
	assert.Len(t, all.Grades, 3)
	assert.Len(t, all.Subjects, 3)

	none := Narrow(set, "sma")
	assert.Empty(t, none.Grades)
	assert.Empty(t, none.Subjects)
}

func TestValidity(t *testing.T) {
	set := fixture()
	assert.True(t, GradeValid(set, "sd", "sd-1"))
	assert.False(t, GradeValid(set, "tk", "sd-1"))
	assert.False(t, GradeValid(set, "sd", "unknown"))
	assert.True(t, SubjectValid(set, "tk", "art"))
	assert.False(t, SubjectValid(set, "tk", "math"))
}

func TestDependentRulesClearControllerFacets(t *testing.T) {
	set := fixture()
	var last domain.ListingQuery
	fetch := listing.FetcherFunc[string](func(ctx context.Context, q domain.ListingQuery) (domain.Page[string], error) {
		last = q
		return domain.Page[string]{CurrentPage: 1, TotalPages: 1}, nil
	})
	c := listing.New[string](fetch, listing.WithDependentFacets(DependentRules(set)...))
	defer c.Close()

	c.SetFacet(domain.FacetLevel, "sd")
	c.SetFacet(domain.FacetGrade, "sd-1")
	c.SetFacet(domain.FacetSubject, "art")
	require.NoError(t, c.Wait(context.Background()))

	c.SetFacet(domain.FacetLevel, "tk")
	require.NoError(t, c.Wait(context.Background()))

	s := c.Snapshot()
	assert.Equal(t, map[string]string{domain.FacetLevel: "tk", domain.FacetSubject: "art"}, s.Query.Facets)
	assert.Equal(t, s.Query.Facets, last.Facets)
}
