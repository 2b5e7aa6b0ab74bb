package services

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/lembar-pintar/studio/internal/domain"
	"github.com/lembar-pintar/studio/internal/platform/cache"
	"github.com/lembar-pintar/studio/internal/platform/pagination"
)

func TestNewCatalogServiceRequiresRepositories(t *testing.T) {
	if _, err := NewCatalogService(CatalogServiceDeps{}); err == nil {
		t.Fatalf("expected error when repositories missing")
	}
}

func TestCatalogServiceTemplatesArePublishedOnly(t *testing.T) {
	reg := newMemoryRegistry(t)
	svc, err := NewCatalogService(CatalogServiceDeps{Elements: reg.Elements(), Photos: reg.Photos(), Templates: reg.Templates()})
	if err != nil {
		t.Fatalf("NewCatalogService: %v", err)
	}
	ctx := context.Background()

	page, err := svc.ListTemplates(ctx, pagination.Params{Page: 1, Limit: 20, Facets: map[string]string{domain.FacetStatus: domain.TemplateDraft}})
	if err != nil {
		t.Fatalf("ListTemplates: %v", err)
	}
	if page.TotalItems != 3 {
		t.Fatalf("expected 3 published templates, got %d", page.TotalItems)
	}
	for _, tpl := range page.Items {
		if tpl.Status != domain.TemplatePublished {
			t.Fatalf("draft leaked: %s", tpl.ID)
		}
	}

	page, err = svc.ListTemplates(ctx, pagination.Params{Page: 1, Limit: 20, Facets: map[string]string{domain.FacetLevel: "SD", domain.FacetGrade: "sd-1"}})
	if err != nil || page.TotalItems != 2 {
		t.Fatalf("expected 2 sd-1 templates, got %+v %v", page, err)
	}

	if _, err := svc.LoadTemplate(ctx, "tpl-draft-pecahan"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("draft template load should be not found, got %v", err)
	}
	doc, err := svc.LoadTemplate(ctx, "tpl-berhitung")
	if err != nil || domain.PageCount(doc) != 1 {
		t.Fatalf("template without pages should be repaired, got %s %v", doc, err)
	}
	if _, err := svc.LoadTemplate(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCatalogServiceElementDetail(t *testing.T) {
	reg := newMemoryRegistry(t)
	svc, _ := NewCatalogService(CatalogServiceDeps{Elements: reg.Elements(), Photos: reg.Photos(), Templates: reg.Templates()})

	el, err := svc.ElementDetail(context.Background(), "el-star")
	if err != nil || el.Title != "Bintang" {
		t.Fatalf("ElementDetail = %+v, %v", el, err)
	}
	if _, err := svc.ElementDetail(context.Background(), " "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

type countingFacets struct {
	calls int
	set   domain.FacetOptionSet
}

func (c *countingFacets) Options(context.Context) (domain.FacetOptionSet, error) {
	c.calls++
	return c.set, nil
}

func TestFacetServiceCachesInRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	jc, err := cache.NewJSON(client, "test:")
	if err != nil {
		t.Fatalf("cache: %v", err)
	}

	repo := &countingFacets{set: domain.FacetOptionSet{Levels: []domain.EducationLevel{{ID: "1", Slug: "sd", Name: "SD"}}}}
	svc, err := NewFacetService(FacetServiceDeps{Facets: repo, Cache: jc})
	if err != nil {
		t.Fatalf("NewFacetService: %v", err)
	}
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		set, err := svc.Options(ctx)
		if err != nil {
			t.Fatalf("Options: %v", err)
		}
		if len(set.Levels) != 1 || set.Grades == nil {
			t.Fatalf("unexpected set %+v", set)
		}
	}
	if repo.calls != 1 {
		t.Fatalf("expected one repository read, got %d", repo.calls)
	}

	if err := svc.Invalidate(ctx); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if _, err := svc.Options(ctx); err != nil || repo.calls != 2 {
		t.Fatalf("expected re-read after invalidate, calls=%d err=%v", repo.calls, err)
	}

	mr.Close()
	if _, err := svc.Options(ctx); err != nil {
		t.Fatalf("cache outage should fall back to repository: %v", err)
	}
}
