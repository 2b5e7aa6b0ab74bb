package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lembar-pintar/studio/internal/platform/auth"
	"github.com/lembar-pintar/studio/internal/platform/httpx"
	"github.com/lembar-pintar/studio/internal/services"
)

// TokenVerifier resolves a share token to the design id it grants.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// DesignHandlers serves design load, save, publish and share.
type DesignHandlers struct {
	authn   *auth.Authenticator
	designs services.DesignService
	shares  TokenVerifier
}

func NewDesignHandlers(authn *auth.Authenticator, designs services.DesignService, shares TokenVerifier) *DesignHandlers {
	return &DesignHandlers{authn: authn, designs: designs, shares: shares}
}

func (h *DesignHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/share/{designID}", h.sharedDesign)
	r.Route("/designs", func(rt chi.Router) {
		if h.authn != nil {
			rt.Use(h.authn.RequireAuth())
		}
		rt.Post("/save", h.saveDesign)
		rt.Get("/{designID}/load", h.loadDesign)
		rt.Get("/{designID}/share", h.shareDesign)
		rt.Group(func(admin chi.Router) {
			if h.authn != nil {
				admin.Use(h.authn.RequireAuth(auth.RoleAdmin))
			}
			admin.Post("/publish", h.publishDesign)
		})
	})
}

// saveRequest is shared by save and publish so publish-only fields do not
// trip unknown-field rejection on save.
type saveRequest struct {
	DesignID     *string         `json:"designId"`
	Title        string          `json:"title"`
	Document     json.RawMessage `json:"document"`
	PreviewImage string          `json:"previewImage"`
	Level        string          `json:"level"`
	GradeID      string          `json:"gradeId"`
	SubjectID    string          `json:"subjectId"`
	Description  string          `json:"description"`
}

type designSummary struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Status     string `json:"status"`
	PreviewURL string `json:"previewUrl,omitempty"`
	TemplateID string `json:"templateId,omitempty"`
}

type shareResponse struct {
	URL       string `json:"url"`
	QRURL     string `json:"qrUrl,omitempty"`
	ExpiresAt string `json:"expiresAt"`
}

func (h *DesignHandlers) saveDesign(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.designs == nil {
		serviceUnavailable(ctx, w, "design")
		return
	}
	actor, ok := actorFromContext(ctx, w)
	if !ok {
		return
	}
	var body saveRequest
	if err := httpx.DecodeJSON(r, httpx.DefaultBodyLimit, &body); err != nil {
		httpx.WriteDecodeError(w, r, err)
		return
	}
	design, err := h.designs.Save(ctx, body.saveCommand(actor))
	if err != nil {
		writeServiceError(ctx, w, err, "design")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Desain berhasil disimpan",
		"design": designSummary{
			ID:         design.ID,
			Title:      design.Title,
			Status:     design.Status,
			PreviewURL: design.PreviewURL,
			TemplateID: design.TemplateID,
		},
	})
}

func (h *DesignHandlers) publishDesign(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.designs == nil {
		serviceUnavailable(ctx, w, "design")
		return
	}
	actor, ok := actorFromContext(ctx, w)
	if !ok {
		return
	}
	var body saveRequest
	if err := httpx.DecodeJSON(r, httpx.DefaultBodyLimit, &body); err != nil {
		httpx.WriteDecodeError(w, r, err)
		return
	}
	res, err := h.designs.Publish(ctx, services.PublishDesignCommand{
		SaveDesignCommand: body.saveCommand(actor),
		Level:             body.Level,
		GradeID:           body.GradeID,
		SubjectID:         body.SubjectID,
		Description:       body.Description,
	})
	if err != nil {
		writeServiceError(ctx, w, err, "design")
		return
	}
	payload := map[string]any{
		"success": true,
		"message": "Desain berhasil dipublikasikan",
		"design": designSummary{
			ID:         res.Design.ID,
			Title:      res.Design.Title,
			Status:     res.Design.Status,
			PreviewURL: res.Design.PreviewURL,
			TemplateID: res.Template.ID,
		},
	}
	if res.Share.URL != "" {
		payload["share"] = toShareResponse(res.Share)
	}
	httpx.WriteJSON(w, http.StatusOK, payload)
}

func (h *DesignHandlers) loadDesign(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.designs == nil {
		serviceUnavailable(ctx, w, "design")
		return
	}
	actor, ok := actorFromContext(ctx, w)
	if !ok {
		return
	}
	doc, err := h.designs.Load(ctx, actor, chi.URLParam(r, "designID"))
	if err != nil {
		writeServiceError(ctx, w, err, "design")
		return
	}
	writeLoaded(w, doc)
}

func (h *DesignHandlers) shareDesign(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.designs == nil {
		serviceUnavailable(ctx, w, "design")
		return
	}
	actor, ok := actorFromContext(ctx, w)
	if !ok {
		return
	}
	link, err := h.designs.Share(ctx, actor, chi.URLParam(r, "designID"))
	if err != nil {
		writeServiceError(ctx, w, err, "design")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "data": toShareResponse(link)})
}

// sharedDesign serves a published design to anyone holding a valid share token.
func (h *DesignHandlers) sharedDesign(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.designs == nil || h.shares == nil {
		serviceUnavailable(ctx, w, "share")
		return
	}
	designID := strings.TrimSpace(chi.URLParam(r, "designID"))
	granted, err := h.shares.Verify(r.URL.Query().Get("t"))
	if err != nil || granted != designID {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_share_token", "share link is invalid or expired", http.StatusForbidden))
		return
	}
	doc, err := h.designs.Shared(ctx, designID)
	if err != nil {
		writeServiceError(ctx, w, err, "design")
		return
	}
	writeLoaded(w, doc)
}

func (b saveRequest) saveCommand(actor services.Actor) services.SaveDesignCommand {
	return services.SaveDesignCommand{
		Actor:        actor,
		DesignID:     b.DesignID,
		Title:        b.Title,
		Document:     b.Document,
		PreviewImage: b.PreviewImage,
	}
}

func toShareResponse(link services.ShareLink) shareResponse {
	return shareResponse{URL: link.URL, QRURL: link.QRURL, ExpiresAt: link.ExpiresAt.UTC().Format(time.RFC3339)}
}

// actorFromContext writes 401 and returns false when no identity is attached.
func actorFromContext(ctx context.Context, w http.ResponseWriter) (services.Actor, bool) {
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok || identity == nil || strings.TrimSpace(identity.UID) == "" {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
		return services.Actor{}, false
	}
	return services.Actor{ID: identity.UID, Email: identity.Email, Admin: identity.IsAdmin()}, true
}
