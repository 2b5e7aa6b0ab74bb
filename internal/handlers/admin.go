package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/lembar-pintar/studio/internal/domain"
	"github.com/lembar-pintar/studio/internal/platform/auth"
	"github.com/lembar-pintar/studio/internal/platform/httpx"
	"github.com/lembar-pintar/studio/internal/services"
)

const maxAdminBodySize = 4 * 1024 * 1024

// AdminHandlers exposes asset and template management for admins.
type AdminHandlers struct {
	authn       *auth.Authenticator
	assets      services.AssetService
	templates   services.TemplateAdminService
	idempotency func(http.Handler) http.Handler
	sizes       PageSizes
}

type AdminOption func(*AdminHandlers)

// WithIdempotency guards the admin POST routes.
func WithIdempotency(mw func(http.Handler) http.Handler) AdminOption {
	return func(h *AdminHandlers) { h.idempotency = mw }
}

func WithAdminPageSizes(p PageSizes) AdminOption {
	return func(h *AdminHandlers) { h.sizes = p.orDefault() }
}

func NewAdminHandlers(authn *auth.Authenticator, assets services.AssetService, templates services.TemplateAdminService, opts ...AdminOption) *AdminHandlers {
	h := &AdminHandlers{authn: authn, assets: assets, templates: templates, sizes: DefaultPageSizes}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Routes registers admin endpoints relative to /api/admin.
func (h *AdminHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	if h.authn != nil {
		r.Use(h.authn.RequireAuth(auth.RoleAdmin))
	}
	create := func(fn http.HandlerFunc) http.Handler {
		if h.idempotency == nil {
			return fn
		}
		return h.idempotency(fn)
	}

	r.Get("/assets", h.listAssets)
	r.Method(http.MethodPost, "/assets", create(h.createAsset))
	r.Put("/assets/{assetID}", h.updateAsset)
	r.Delete("/assets/{assetID}", h.deleteAsset)

	r.Get("/templates", h.listTemplates)
	r.Method(http.MethodPost, "/templates", create(h.createTemplate))
	r.Put("/templates/{templateID}", h.updateTemplate)
	r.Delete("/templates/{templateID}", h.deleteTemplate)
}

type createAssetRequest struct {
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	Category    string   `json:"category"`
	FileName    string   `json:"fileName"`
	ContentType string   `json:"contentType"`
	Size        int64    `json:"size"`
	Tags        []string `json:"tags"`
}

type updateAssetRequest struct {
	Name     *string  `json:"name"`
	Category *string  `json:"category"`
	Tags     []string `json:"tags"`
}

type templateRequest struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	PreviewURL  string          `json:"previewUrl"`
	Level       string          `json:"level"`
	GradeID     string          `json:"gradeId"`
	SubjectID   string          `json:"subjectId"`
	Status      string          `json:"status"`
	Tags        []string        `json:"tags"`
	Document    json.RawMessage `json:"document"`
}

func (h *AdminHandlers) listAssets(w http.ResponseWriter, r *http.Request) {
	if h.assets == nil {
		serviceUnavailable(r.Context(), w, "asset")
		return
	}
	route := listingRoute{resource: "asset", key: "files", options: listingOptions(h.sizes.Admin, h.sizes.Max, domain.FacetCategory, domain.FacetType)}
	serveListing(w, r, route, h.assets.List)
}

func (h *AdminHandlers) createAsset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.assets == nil {
		serviceUnavailable(ctx, w, "asset")
		return
	}
	actor, ok := actorFromContext(ctx, w)
	if !ok {
		return
	}
	var body createAssetRequest
	if err := httpx.DecodeJSON(r, maxAdminBodySize, &body); err != nil {
		httpx.WriteDecodeError(w, r, err)
		return
	}
	created, err := h.assets.Create(ctx, services.CreateAssetCommand{
		ActorID:     actor.ID,
		Name:        body.Name,
		Type:        body.Type,
		Category:    body.Category,
		FileName:    body.FileName,
		ContentType: body.ContentType,
		Size:        body.Size,
		Tags:        body.Tags,
	})
	if err != nil {
		writeServiceError(ctx, w, err, "asset")
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, map[string]any{"success": true, "data": created.Asset, "upload": created.Upload})
}

func (h *AdminHandlers) updateAsset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.assets == nil {
		serviceUnavailable(ctx, w, "asset")
		return
	}
	var body updateAssetRequest
	if err := httpx.DecodeJSON(r, maxAdminBodySize, &body); err != nil {
		httpx.WriteDecodeError(w, r, err)
		return
	}
	asset, err := h.assets.Update(ctx, services.UpdateAssetCommand{
		ID:       strings.TrimSpace(chi.URLParam(r, "assetID")),
		Name:     body.Name,
		Category: body.Category,
		Tags:     body.Tags,
	})
	if err != nil {
		writeServiceError(ctx, w, err, "asset")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "data": asset})
}

func (h *AdminHandlers) deleteAsset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.assets == nil {
		serviceUnavailable(ctx, w, "asset")
		return
	}
	if err := h.assets.Delete(ctx, strings.TrimSpace(chi.URLParam(r, "assetID"))); err != nil {
		writeServiceError(ctx, w, err, "asset")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandlers) listTemplates(w http.ResponseWriter, r *http.Request) {
	if h.templates == nil {
		serviceUnavailable(r.Context(), w, "template")
		return
	}
	route := listingRoute{resource: "template", key: "data", options: listingOptions(h.sizes.Admin, h.sizes.Max, domain.FacetLevel, domain.FacetGrade, domain.FacetSubject, domain.FacetStatus)}
	serveListing(w, r, route, h.templates.List)
}

func (h *AdminHandlers) createTemplate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.templates == nil {
		serviceUnavailable(ctx, w, "template")
		return
	}
	actor, ok := actorFromContext(ctx, w)
	if !ok {
		return
	}
	var body templateRequest
	if err := httpx.DecodeJSON(r, maxAdminBodySize, &body); err != nil {
		httpx.WriteDecodeError(w, r, err)
		return
	}
	tpl, err := h.templates.Create(ctx, body.command(actor.ID))
	if err != nil {
		writeServiceError(ctx, w, err, "template")
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, map[string]any{"success": true, "data": tpl})
}

func (h *AdminHandlers) updateTemplate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.templates == nil {
		serviceUnavailable(ctx, w, "template")
		return
	}
	actor, ok := actorFromContext(ctx, w)
	if !ok {
		return
	}
	var body templateRequest
	if err := httpx.DecodeJSON(r, maxAdminBodySize, &body); err != nil {
		httpx.WriteDecodeError(w, r, err)
		return
	}
	tpl, err := h.templates.Update(ctx, strings.TrimSpace(chi.URLParam(r, "templateID")), body.command(actor.ID))
	if err != nil {
		writeServiceError(ctx, w, err, "template")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "data": tpl})
}

func (h *AdminHandlers) deleteTemplate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.templates == nil {
		serviceUnavailable(ctx, w, "template")
		return
	}
	if err := h.templates.Delete(ctx, strings.TrimSpace(chi.URLParam(r, "templateID"))); err != nil {
		writeServiceError(ctx, w, err, "template")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (b templateRequest) command(actorID string) services.TemplateCommand {
	return services.TemplateCommand{
		ActorID:     actorID,
		Title:       b.Title,
		Description: b.Description,
		PreviewURL:  b.PreviewURL,
		Level:       b.Level,
		GradeID:     b.GradeID,
		SubjectID:   b.SubjectID,
		Status:      b.Status,
		Tags:        b.Tags,
		Document:    b.Document,
	}
}
