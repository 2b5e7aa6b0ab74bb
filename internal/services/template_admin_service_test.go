package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/lembar-pintar/studio/internal/domain"
	"github.com/lembar-pintar/studio/internal/platform/pagination"
)

func TestTemplateAdminServiceLifecycle(t *testing.T) {
	reg := newMemoryRegistry(t)
	svc, err := NewTemplateAdminService(TemplateAdminServiceDeps{Templates: reg.Templates(), Clock: fixedClock(), IDGenerator: sequenceIDs()})
	if err != nil {
		t.Fatalf("NewTemplateAdminService: %v", err)
	}
	ctx := context.Background()

	created, err := svc.Create(ctx, TemplateCommand{
		ActorID:  "admin-1",
		Title:    "  Lembar Kerja Penjumlahan ",
		Level:    "SD",
		Tags:     []string{"Matematika", "matematika"},
		Document: json.RawMessage(`{"width":800,"height":600,"pages":[]}`),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.Title != "Lembar Kerja Penjumlahan" {
		t.Fatalf("title not cleaned: %q", created.Title)
	}
	if created.Status != domain.TemplateDraft || created.Level != "sd" {
		t.Fatalf("unexpected status/level: %q %q", created.Status, created.Level)
	}

	updated, err := svc.Update(ctx, created.ID, TemplateCommand{Title: "Penjumlahan", Status: "published"})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Status != domain.TemplatePublished || len(updated.Document) == 0 {
		t.Fatalf("update lost status or document: %+v", updated)
	}

	page, err := svc.List(ctx, pagination.Params{Page: 1, Limit: 100, Search: "penjumlahan"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	found := false
	for _, tpl := range page.Items {
		if tpl.ID == created.ID {
			found = true
		}
	}
	if !found {
		t.Fatalf("created template missing from admin listing")
	}

	if err := svc.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := svc.Delete(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestTemplateAdminServiceValidation(t *testing.T) {
	reg := newMemoryRegistry(t)
	svc, err := NewTemplateAdminService(TemplateAdminServiceDeps{Templates: reg.Templates()})
	if err != nil {
		t.Fatalf("NewTemplateAdminService: %v", err)
	}
	ctx := context.Background()

	if _, err := svc.Create(ctx, TemplateCommand{Title: " "}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid title, got %v", err)
	}
	if _, err := svc.Create(ctx, TemplateCommand{Title: "Ok", Status: "archived"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid status, got %v", err)
	}
	if _, err := svc.Update(ctx, "missing", TemplateCommand{Title: "Ok"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
