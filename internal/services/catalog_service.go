package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/lembar-pintar/studio/internal/domain"
	"github.com/lembar-pintar/studio/internal/platform/observability"
	"github.com/lembar-pintar/studio/internal/platform/pagination"
	"github.com/lembar-pintar/studio/internal/repositories"
)

// CatalogServiceDeps wires dependencies for the catalog service.
type CatalogServiceDeps struct {
	Elements  repositories.ElementRepository
	Photos    repositories.PhotoRepository
	Templates repositories.TemplateRepository
	Metrics   *observability.ListingMetrics
	Logger    *zap.Logger
}

type catalogService struct {
	elements  repositories.ElementRepository
	photos    repositories.PhotoRepository
	templates repositories.TemplateRepository
	metrics   *observability.ListingMetrics
	logger    *zap.Logger
}

func NewCatalogService(deps CatalogServiceDeps) (CatalogService, error) {
	if deps.Elements == nil || deps.Photos == nil || deps.Templates == nil {
		return nil, errors.New("catalog service: repositories are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &catalogService{
		elements:  deps.Elements,
		photos:    deps.Photos,
		templates: deps.Templates,
		metrics:   deps.Metrics,
		logger:    logger.Named("catalog"),
	}, nil
}

func (s *catalogService) ListElements(ctx context.Context, params pagination.Params) (domain.Page[domain.Element], error) {
	page, err := s.elements.List(ctx, params)
	if err != nil {
		return domain.Page[domain.Element]{}, translateRepoError("catalog.elements", err)
	}
	s.record(ctx, "elements", params, len(page.Items))
	return page, nil
}

func (s *catalogService) ListPhotos(ctx context.Context, params pagination.Params) (domain.Page[domain.Photo], error) {
	page, err := s.photos.List(ctx, params)
	if err != nil {
		return domain.Page[domain.Photo]{}, translateRepoError("catalog.photos", err)
	}
	s.record(ctx, "photos", params, len(page.Items))
	return page, nil
}

func (s *catalogService) ListTemplates(ctx context.Context, params pagination.Params) (domain.Page[domain.Template], error) {
	facets := make(map[string]string, len(params.Facets)+1)
	for k, v := range params.Facets {
		facets[k] = v
	}
	facets[domain.FacetStatus] = domain.TemplatePublished
	params.Facets = facets

	page, err := s.templates.List(ctx, params)
	if err != nil {
		return domain.Page[domain.Template]{}, translateRepoError("catalog.templates", err)
	}
	s.record(ctx, "templates", params, len(page.Items))
	return page, nil
}

func (s *catalogService) ElementDetail(ctx context.Context, id string) (domain.Element, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Element{}, invalid("element id is required")
	}
	el, err := s.elements.Get(ctx, id)
	if err != nil {
		return domain.Element{}, translateRepoError("catalog.element", err)
	}
	return el, nil
}

// LoadTemplate returns the document of a published template. Drafts are
// reported as not found.
func (s *catalogService) LoadTemplate(ctx context.Context, id string) (json.RawMessage, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, invalid("template id is required")
	}
	tpl, err := s.templates.Get(ctx, id)
	if err != nil {
		return nil, translateRepoError("catalog.template", err)
	}
	if tpl.Status != domain.TemplatePublished {
		return nil, ErrNotFound
	}
	doc, repaired, err := domain.NormalizeDocument(tpl.Document)
	if err != nil {
		s.logger.Warn("template document unreadable", zap.String("template", id), zap.Error(err))
		return nil, invalid("template %s has an invalid document", id)
	}
	if repaired {
		s.logger.Debug("template document had no pages", zap.String("template", id))
	}
	return doc, nil
}

func (s *catalogService) record(ctx context.Context, resource string, params pagination.Params, items int) {
	if s.metrics != nil {
		s.metrics.Record(ctx, resource, params.Filtered(), items)
	}
}
