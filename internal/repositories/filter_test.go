package repositories

import (
	"fmt"
	"testing"
	"time"

	"github.com/lembar-pintar/studio/internal/domain"
	"github.com/lembar-pintar/studio/internal/platform/pagination"
)

func TestPaginateFiltersAndOrders(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var tpls []domain.Template
	for i := 0; i < 45; i++ {
		level := "sd"
		if i%3 == 0 {
			level = "tk"
		}
		tpls = append(tpls, domain.Template{
			ID:        fmt.Sprintf("t%02d", i),
			Title:     fmt.Sprintf("Lembar Huruf %d", i),
			Level:     level,
			Status:    domain.TemplatePublished,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		})
	}

	page := Paginate(tpls, pagination.Params{Page: 1, Limit: 20}, TemplateIndex)
	if page.TotalItems != 45 || page.TotalPages != 3 || len(page.Items) != 20 {
		t.Fatalf("unexpected page %+v", page)
	}
	if page.Items[0].ID != "t44" {
		t.Fatalf("expected newest first, got %s", page.Items[0].ID)
	}

	last := Paginate(tpls, pagination.Params{Page: 3, Limit: 20}, TemplateIndex)
	if len(last.Items) != 5 {
		t.Fatalf("expected 5 on last page, got %d", len(last.Items))
	}

	tk := Paginate(tpls, pagination.Params{Page: 1, Limit: 100, Facets: map[string]string{domain.FacetLevel: "TK"}}, TemplateIndex)
	if tk.TotalItems != 15 {
		t.Fatalf("expected 15 tk templates, got %d", tk.TotalItems)
	}

	search := Paginate(tpls, pagination.Params{Page: 1, Limit: 10, Search: "huruf 44"}, TemplateIndex)
	if search.TotalItems != 1 || search.Items[0].ID != "t44" {
		t.Fatalf("unexpected search result %+v", search)
	}

	beyond := Paginate(tpls, pagination.Params{Page: 5, Limit: 20}, TemplateIndex)
	if len(beyond.Items) != 0 || beyond.TotalPages != 3 {
		t.Fatalf("page past end must be empty, got %+v", beyond)
	}
	if beyond.CurrentPage != beyond.TotalPages {
		t.Fatalf("page past end must report the last page, got current=%d pages=%d", beyond.CurrentPage, beyond.TotalPages)
	}
}

func TestPaginateEmptyKeepsRequestedPage(t *testing.T) {
	page := Paginate([]domain.Template(nil), pagination.Params{Page: 2, Limit: 20}, TemplateIndex)
	if page.TotalItems != 0 || page.TotalPages != 0 || page.CurrentPage != 2 {
		t.Fatalf("unexpected empty page %+v", page)
	}
}
