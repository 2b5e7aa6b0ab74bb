package pagination

import (
	"errors"
	"net/url"
	"testing"
)

func TestParseDefaults(t *testing.T) {
	params, err := Parse(url.Values{}, Options{DefaultLimit: 30})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if params.Page != 1 || params.Limit != 30 || params.Search != "" || len(params.Facets) != 0 {
		t.Fatalf("unexpected params %+v", params)
	}
	if params.Filtered() {
		t.Fatalf("expected unfiltered params")
	}
}

func TestParseFacetsAndSearch(t *testing.T) {
	values := url.Values{
		"page":    {"3"},
		"limit":   {"20"},
		"search":  {"  huruf  "},
		"level":   {"sd"},
		"grade":   {""},
		"subject": {"matematika"},
		"unknown": {"x"},
	}
	params, err := Parse(values, Options{Facets: []string{"level", "grade", "subject"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if params.Page != 3 || params.Limit != 20 || params.Search != "huruf" {
		t.Fatalf("unexpected params %+v", params)
	}
	if len(params.Facets) != 2 || params.Facets["level"] != "sd" || params.Facets["subject"] != "matematika" {
		t.Fatalf("unexpected facets %v", params.Facets)
	}
	if _, ok := params.Facets["unknown"]; ok {
		t.Fatalf("unknown facet should be ignored")
	}
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		name   string
		values url.Values
		want   error
	}{
		{"zero page", url.Values{"page": {"0"}}, ErrInvalidPage},
		{"text page", url.Values{"page": {"two"}}, ErrInvalidPage},
		{"negative limit", url.Values{"limit": {"-1"}}, ErrInvalidLimit},
		{"limit too big", url.Values{"limit": {"101"}}, ErrInvalidLimit},
		{"facet newline", url.Values{"category": {"a\nb"}}, ErrInvalidFacet},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.values, Options{Facets: []string{"category"}})
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestValuesRoundTrip(t *testing.T) {
	p := Params{Page: 2, Limit: 24, Search: "bunga", Facets: map[string]string{"category": "alam", "empty": " "}}
	got := p.Values().Encode()
	if got != "category=alam&limit=24&page=2&search=bunga" {
		t.Fatalf("unexpected encoding %q", got)
	}
}

func TestTotalPagesAndWindow(t *testing.T) {
	if got := TotalPages(45, 20); got != 3 {
		t.Fatalf("expected 3 pages, got %d", got)
	}
	if got := TotalPages(0, 20); got != 0 {
		t.Fatalf("expected 0 pages, got %d", got)
	}
	cases := []struct{ page, start, end int }{
		{1, 0, 20},
		{2, 20, 40},
		{3, 40, 45},
		{4, 45, 45},
	}
	for _, tc := range cases {
		start, end := Window(tc.page, 20, 45)
		if start != tc.start || end != tc.end {
			t.Fatalf("page %d: expected [%d,%d), got [%d,%d)", tc.page, tc.start, tc.end, start, end)
		}
	}
}
