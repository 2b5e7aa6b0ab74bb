package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/lembar-pintar/studio/internal/domain"
)

// ErrRejected is returned when the backend answers 2xx with success=false.
var ErrRejected = errors.New("client: request rejected")

type loadEnvelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// SaveRequest is the body of save and publish. A nil DesignID creates.
type SaveRequest struct {
	DesignID     *string         `json:"designId"`
	Title        string          `json:"title"`
	Document     json.RawMessage `json:"document"`
	PreviewImage string          `json:"previewImage,omitempty"`
	Level        string          `json:"level,omitempty"`
	GradeID      string          `json:"gradeId,omitempty"`
	SubjectID    string          `json:"subjectId,omitempty"`
	Description  string          `json:"description,omitempty"`
}

// SaveResult is what save and publish return.
type SaveResult struct {
	ID      string
	Message string
}

type saveEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Design  *struct {
		ID string `json:"id"`
	} `json:"design"`
}

// LoadTemplate returns a template's design document, repaired to at least
// one page.
func (c *Client) LoadTemplate(ctx context.Context, id string) (json.RawMessage, error) {
	return c.loadDocument(ctx, "/api/templates/"+url.PathEscape(strings.TrimSpace(id))+"/load")
}

// LoadDesign returns one of the caller's designs.
func (c *Client) LoadDesign(ctx context.Context, id string) (json.RawMessage, error) {
	return c.loadDocument(ctx, "/api/designs/"+url.PathEscape(strings.TrimSpace(id))+"/load")
}

func (c *Client) loadDocument(ctx context.Context, endpoint string) (json.RawMessage, error) {
	var env loadEnvelope
	if err := c.call(ctx, http.MethodGet, endpoint, nil, nil, &env); err != nil {
		return nil, err
	}
	if !env.Success {
		return nil, fmt.Errorf("%w: %s", ErrRejected, env.Message)
	}
	doc, repaired, err := domain.NormalizeDocument(env.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedResponse, endpoint, err)
	}
	if repaired {
		c.logger.Debug("client: document had no pages, substituted a blank page", zap.String("endpoint", endpoint))
	}
	return doc, nil
}

// ElementDetail fetches one element.
func (c *Client) ElementDetail(ctx context.Context, id string) (domain.Element, error) {
	var env struct {
		Success bool            `json:"success"`
		Message string          `json:"message"`
		Data    *domain.Element `json:"data"`
	}
	endpoint := "/api/elements/" + url.PathEscape(strings.TrimSpace(id)) + "/detail"
	if err := c.call(ctx, http.MethodGet, endpoint, nil, nil, &env); err != nil {
		return domain.Element{}, err
	}
	if !env.Success {
		return domain.Element{}, fmt.Errorf("%w: %s", ErrRejected, env.Message)
	}
	if env.Data == nil {
		return domain.Element{}, fmt.Errorf("%w: %s: missing data", ErrMalformedResponse, endpoint)
	}
	return *env.Data, nil
}

// SaveDesign creates or updates a design.
func (c *Client) SaveDesign(ctx context.Context, req SaveRequest) (SaveResult, error) {
	return c.save(ctx, "/api/designs/save", req)
}

// PublishDesign publishes a design as a template. Admin only.
func (c *Client) PublishDesign(ctx context.Context, req SaveRequest) (SaveResult, error) {
	return c.save(ctx, "/api/designs/publish", req)
}

func (c *Client) save(ctx context.Context, endpoint string, req SaveRequest) (SaveResult, error) {
	var env saveEnvelope
	if err := c.call(ctx, http.MethodPost, endpoint, nil, req, &env); err != nil {
		return SaveResult{}, err
	}
	if !env.Success {
		return SaveResult{}, fmt.Errorf("%w: %s", ErrRejected, env.Message)
	}
	if env.Design == nil || strings.TrimSpace(env.Design.ID) == "" {
		return SaveResult{}, fmt.Errorf("%w: %s: missing design id", ErrMalformedResponse, endpoint)
	}
	return SaveResult{ID: env.Design.ID, Message: env.Message}, nil
}

// Facets fetches the facet option set.
func (c *Client) Facets(ctx context.Context) (domain.FacetOptionSet, error) {
	var set domain.FacetOptionSet
	if err := c.call(ctx, http.MethodGet, "/api/facets", nil, nil, &set); err != nil {
		return domain.FacetOptionSet{}, err
	}
	return set, nil
}
