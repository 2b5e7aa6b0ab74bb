package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/lembar-pintar/studio/internal/domain"
	"github.com/lembar-pintar/studio/internal/facets"
	"github.com/lembar-pintar/studio/internal/listing"
	"github.com/lembar-pintar/studio/internal/platform/httpx"
	"github.com/lembar-pintar/studio/internal/platform/pagination"
	"github.com/lembar-pintar/studio/internal/platform/requestctx"
	"github.com/lembar-pintar/studio/internal/render"
	"github.com/lembar-pintar/studio/internal/services"
)

type browseResource struct {
	title    string
	pageSize int
	facets   []string
	// education resources get level/grade/subject selects
	education bool
	fetch     func(ctx context.Context, p pagination.Params) (domain.Page[domain.Item], error)
}

// BrowseHandlers renders listing grids as HTML. Requests carrying HX-Request
// receive the grid fragment only.
type BrowseHandlers struct {
	catalog services.CatalogService
	facets  services.FacetService
	sizes   PageSizes
}

func NewBrowseHandlers(catalog services.CatalogService, facetSvc services.FacetService, sizes PageSizes) *BrowseHandlers {
	return &BrowseHandlers{catalog: catalog, facets: facetSvc, sizes: sizes.orDefault()}
}

func (h *BrowseHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/{resource}", h.browse)
}

func (h *BrowseHandlers) resource(name string) (browseResource, bool) {
	if h.catalog == nil {
		return browseResource{}, false
	}
	switch name {
	case "elements":
		return browseResource{title: "Elemen", pageSize: h.sizes.Elements, facets: []string{domain.FacetCategory},
			fetch: projected(h.catalog.ListElements)}, true
	case "templates":
		return browseResource{title: "Template", pageSize: h.sizes.Templates, education: true,
			facets: []string{domain.FacetLevel, domain.FacetGrade, domain.FacetSubject},
			fetch:  projected(h.catalog.ListTemplates)}, true
	case "photos":
		return browseResource{title: "Foto", pageSize: h.sizes.Photos, facets: []string{domain.FacetCategory},
			fetch: projected(h.catalog.ListPhotos)}, true
	}
	return browseResource{}, false
}

func (h *BrowseHandlers) browse(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := chi.URLParam(r, "resource")
	res, ok := h.resource(name)
	if !ok {
		httpx.WriteError(ctx, w, httpx.NotFound("resource_not_found", "unknown browse resource"))
		return
	}
	params, err := pagination.FromRequest(r, pagination.Options{DefaultLimit: res.pageSize, MaxLimit: h.sizes.Max, Facets: res.facets})
	if err != nil {
		httpx.WriteError(ctx, w, httpx.BadRequest("invalid_pagination", err.Error()))
		return
	}

	var facetView *render.FacetView
	opts := []listing.Option{
		listing.WithPageSize(params.Limit),
		listing.WithContext(ctx),
		listing.WithLogger(requestctx.Logger(ctx)),
	}
	if res.education && h.facets != nil {
		set, err := h.facets.Options(ctx)
		if err != nil {
			requestctx.Logger(ctx).Warn("browse: facet options unavailable", zap.Error(err))
		} else {
			dropInvalidFacets(set, params.Facets)
			facetView = &render.FacetView{
				Levels:   set.Levels,
				Narrowed: facets.Narrow(set, params.Facets[domain.FacetLevel]),
				Selected: params.Facets,
			}
			opts = append(opts, listing.WithDependentFacets(facets.DependentRules(set)...))
		}
	}
	opts = append(opts, listing.WithInitialQuery(params.Search, params.Facets))

	ctrl := listing.New[domain.Item](listing.FetcherFunc[domain.Item](func(ctx context.Context, q domain.ListingQuery) (domain.Page[domain.Item], error) {
		return res.fetch(ctx, pagination.Params{Page: q.Page, Limit: q.PageSize, Search: q.SearchText, Facets: q.Facets})
	}), opts...)
	defer ctrl.Close()

	// A fetch error is kept in the snapshot and rendered as a notice.
	_ = ctrl.FetchPage(ctx, params.Page, true)

	view := render.GridView{
		Resource: name,
		Title:    res.title,
		BasePath: "/browse/" + name,
		State:    ctrl.Snapshot(),
		Facets:   facetView,
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	component := render.Grid(view)
	if !strings.EqualFold(r.Header.Get("HX-Request"), "true") {
		component = render.Page(res.title+" | Lembar Pintar", component)
	}
	if err := component.Render(ctx, w); err != nil {
		requestctx.Logger(ctx).Error("browse: render failed", zap.String("resource", name), zap.Error(err))
	}
}

// dropInvalidFacets removes a grade or subject that does not belong to the
// selected level.
func dropInvalidFacets(set domain.FacetOptionSet, selected map[string]string) {
	level := selected[domain.FacetLevel]
	if level == "" {
		return
	}
	if g := selected[domain.FacetGrade]; g != "" && !facets.GradeValid(set, level, g) {
		delete(selected, domain.FacetGrade)
	}
	if s := selected[domain.FacetSubject]; s != "" && !facets.SubjectValid(set, level, s) {
		delete(selected, domain.FacetSubject)
	}
}

func projected[T domain.Listable](list func(context.Context, pagination.Params) (domain.Page[T], error)) func(context.Context, pagination.Params) (domain.Page[domain.Item], error) {
	return func(ctx context.Context, p pagination.Params) (domain.Page[domain.Item], error) {
		page, err := list(ctx, p)
		if err != nil {
			return domain.Page[domain.Item]{}, err
		}
		items := make([]domain.Item, 0, len(page.Items))
		for _, it := range page.Items {
			items = append(items, it.ListItem())
		}
		return domain.Page[domain.Item]{Items: items, CurrentPage: page.CurrentPage, TotalPages: page.TotalPages, TotalItems: page.TotalItems}, nil
	}
}
