package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/lembar-pintar/studio/internal/domain"
	"github.com/lembar-pintar/studio/internal/platform/httpx"
	"github.com/lembar-pintar/studio/internal/services"
)

// PageSizes are the per-resource default page sizes.
type PageSizes struct {
	Elements  int
	Templates int
	Photos    int
	Admin     int
	Max       int
}

// DefaultPageSizes match the editor panels.
var DefaultPageSizes = PageSizes{Elements: 30, Templates: 20, Photos: 24, Admin: 20, Max: 100}

func (p PageSizes) orDefault() PageSizes {
	d := DefaultPageSizes
	if p.Elements > 0 {
		d.Elements = p.Elements
	}
	if p.Templates > 0 {
		d.Templates = p.Templates
	}
	if p.Photos > 0 {
		d.Photos = p.Photos
	}
	if p.Admin > 0 {
		d.Admin = p.Admin
	}
	if p.Max > 0 {
		d.Max = p.Max
	}
	return d
}

// CatalogHandlers serves the public listings, detail loads, facets and QR URLs.
type CatalogHandlers struct {
	catalog services.CatalogService
	facets  services.FacetService
	qr      services.QRService
	sizes   PageSizes
}

type CatalogOption func(*CatalogHandlers)

func WithFacetService(svc services.FacetService) CatalogOption {
	return func(h *CatalogHandlers) { h.facets = svc }
}

func WithQRService(svc services.QRService) CatalogOption {
	return func(h *CatalogHandlers) { h.qr = svc }
}

func WithPageSizes(p PageSizes) CatalogOption {
	return func(h *CatalogHandlers) { h.sizes = p.orDefault() }
}

func NewCatalogHandlers(catalog services.CatalogService, opts ...CatalogOption) *CatalogHandlers {
	h := &CatalogHandlers{catalog: catalog, sizes: DefaultPageSizes}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

func (h *CatalogHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/elements", h.listElements)
	r.Get("/elements/{elementID}/detail", h.elementDetail)
	r.Get("/templates", h.listTemplates)
	r.Get("/templates/{templateID}/load", h.loadTemplate)
	r.Get("/photos", h.listPhotos)
	r.Get("/facets", h.facetOptions)
	r.Get("/qr", h.qrURL)
}

func (h *CatalogHandlers) listElements(w http.ResponseWriter, r *http.Request) {
	if h.catalog == nil {
		serviceUnavailable(r.Context(), w, "catalog")
		return
	}
	route := listingRoute{resource: "element", key: "items", options: listingOptions(h.sizes.Elements, h.sizes.Max, domain.FacetCategory)}
	serveListing(w, r, route, h.catalog.ListElements)
}

func (h *CatalogHandlers) listTemplates(w http.ResponseWriter, r *http.Request) {
	if h.catalog == nil {
		serviceUnavailable(r.Context(), w, "catalog")
		return
	}
	route := listingRoute{resource: "template", key: "data", options: listingOptions(h.sizes.Templates, h.sizes.Max, domain.FacetLevel, domain.FacetGrade, domain.FacetSubject)}
	serveListing(w, r, route, h.catalog.ListTemplates)
}

func (h *CatalogHandlers) listPhotos(w http.ResponseWriter, r *http.Request) {
	if h.catalog == nil {
		serviceUnavailable(r.Context(), w, "catalog")
		return
	}
	route := listingRoute{resource: "photo", key: "files", options: listingOptions(h.sizes.Photos, h.sizes.Max, domain.FacetCategory)}
	serveListing(w, r, route, h.catalog.ListPhotos)
}

func (h *CatalogHandlers) elementDetail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		serviceUnavailable(ctx, w, "catalog")
		return
	}
	id := strings.TrimSpace(chi.URLParam(r, "elementID"))
	if id == "" {
		httpx.WriteError(ctx, w, httpx.BadRequest("invalid_element_id", "element id is required"))
		return
	}
	el, err := h.catalog.ElementDetail(ctx, id)
	if err != nil {
		writeServiceError(ctx, w, err, "element")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "data": el})
}

func (h *CatalogHandlers) loadTemplate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		serviceUnavailable(ctx, w, "catalog")
		return
	}
	id := strings.TrimSpace(chi.URLParam(r, "templateID"))
	if id == "" {
		httpx.WriteError(ctx, w, httpx.BadRequest("invalid_template_id", "template id is required"))
		return
	}
	doc, err := h.catalog.LoadTemplate(ctx, id)
	if err != nil {
		writeServiceError(ctx, w, err, "template")
		return
	}
	writeLoaded(w, doc)
}

func (h *CatalogHandlers) facetOptions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.facets == nil {
		serviceUnavailable(ctx, w, "facet")
		return
	}
	set, err := h.facets.Options(ctx)
	if err != nil {
		writeServiceError(ctx, w, err, "facet")
		return
	}
	w.Header().Set("Cache-Control", "public, max-age=60")
	httpx.WriteJSON(w, http.StatusOK, set)
}

func (h *CatalogHandlers) qrURL(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.qr == nil {
		serviceUnavailable(ctx, w, "qr")
		return
	}
	size := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("size")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			httpx.WriteError(ctx, w, httpx.BadRequest("invalid_size", "size must be a number"))
			return
		}
		size = n
	}
	u, err := h.qr.URL(r.URL.Query().Get("data"), size)
	if err != nil {
		writeServiceError(ctx, w, err, "qr")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "url": u})
}

// writeLoaded answers a load endpoint with {success, data}.
func writeLoaded(w http.ResponseWriter, doc json.RawMessage) {
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "data": doc})
}
