package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/lembar-pintar/studio/internal/domain"
	"github.com/lembar-pintar/studio/internal/payments"
	"github.com/lembar-pintar/studio/internal/platform/pagination"
	"github.com/lembar-pintar/studio/internal/platform/storage"
)

// CatalogService serves the public listings and detail lookups.
type CatalogService interface {
	ListElements(ctx context.Context, params pagination.Params) (domain.Page[domain.Element], error)
	ListPhotos(ctx context.Context, params pagination.Params) (domain.Page[domain.Photo], error)
	// ListTemplates only returns published templates.
	ListTemplates(ctx context.Context, params pagination.Params) (domain.Page[domain.Template], error)
	ElementDetail(ctx context.Context, id string) (domain.Element, error)
	LoadTemplate(ctx context.Context, id string) (json.RawMessage, error)
}

// FacetService returns the facet option set, cached when configured.
type FacetService interface {
	Options(ctx context.Context) (domain.FacetOptionSet, error)
	Invalidate(ctx context.Context) error
}

// DesignService loads, saves and publishes user designs.
type DesignService interface {
	Load(ctx context.Context, actor Actor, designID string) (json.RawMessage, error)
	Save(ctx context.Context, cmd SaveDesignCommand) (domain.Design, error)
	Publish(ctx context.Context, cmd PublishDesignCommand) (PublishResult, error)
	Share(ctx context.Context, actor Actor, designID string) (ShareLink, error)
	// Shared returns a published design's document without an owner check.
	// Callers verify the share token first.
	Shared(ctx context.Context, designID string) (json.RawMessage, error)
}

// AssetService manages admin-uploaded assets.
type AssetService interface {
	List(ctx context.Context, params pagination.Params) (domain.Page[domain.Asset], error)
	Create(ctx context.Context, cmd CreateAssetCommand) (CreatedAsset, error)
	Update(ctx context.Context, cmd UpdateAssetCommand) (domain.Asset, error)
	Delete(ctx context.Context, id string) error
}

// TemplateAdminService manages templates regardless of status.
type TemplateAdminService interface {
	List(ctx context.Context, params pagination.Params) (domain.Page[domain.Template], error)
	Create(ctx context.Context, cmd TemplateCommand) (domain.Template, error)
	Update(ctx context.Context, id string, cmd TemplateCommand) (domain.Template, error)
	Delete(ctx context.Context, id string) error
}

type PaymentService interface {
	CreateIntent(ctx context.Context, cmd PaymentIntentCommand) (payments.Intent, error)
}

type QRService interface {
	URL(data string, size int) (string, error)
}

// Actor is the authenticated caller.
type Actor struct {
	ID    string
	Email string
	Admin bool
}

// SaveDesignCommand creates the design when DesignID is nil or empty.
type SaveDesignCommand struct {
	Actor        Actor
	DesignID     *string
	Title        string
	Document     json.RawMessage
	PreviewImage string
}

// PublishDesignCommand saves then publishes the design as a template.
type PublishDesignCommand struct {
	SaveDesignCommand
	Level       string
	GradeID     string
	SubjectID   string
	Description string
}

type PublishResult struct {
	Design   domain.Design
	Template domain.Template
	Share    ShareLink
}

type ShareLink struct {
	URL       string
	QRURL     string
	ExpiresAt time.Time
}

type CreateAssetCommand struct {
	ActorID     string
	Name        string
	Type        string
	Category    string
	FileName    string
	ContentType string
	Size        int64
	Tags        []string
}

type CreatedAsset struct {
	Asset  domain.Asset
	Upload storage.Upload
}

type UpdateAssetCommand struct {
	ID       string
	Name     *string
	Category *string
	Tags     []string
}

type TemplateCommand struct {
	ActorID     string
	Title       string
	Description string
	PreviewURL  string
	Level       string
	GradeID     string
	SubjectID   string
	Status      string
	Tags        []string
	Document    json.RawMessage
}

type PaymentIntentCommand struct {
	Actor          Actor
	Plan           string
	Currency       string
	IdempotencyKey string
}

// DesignPublishedMessage is the design.published job payload.
type DesignPublishedMessage struct {
	EventID     string    `json:"eventId"`
	DesignID    string    `json:"designId"`
	TemplateID  string    `json:"templateId"`
	OwnerID     string    `json:"ownerId"`
	Title       string    `json:"title"`
	Level       string    `json:"level,omitempty"`
	GradeID     string    `json:"gradeId,omitempty"`
	SubjectID   string    `json:"subjectId,omitempty"`
	PreviewURL  string    `json:"previewUrl,omitempty"`
	ShareURL    string    `json:"shareUrl,omitempty"`
	PublishedAt time.Time `json:"publishedAt"`
}

// DesignEventPublisher enqueues design.published jobs.
type DesignEventPublisher interface {
	PublishDesignPublished(ctx context.Context, msg DesignPublishedMessage) (string, error)
}

// ShareLinker signs share links.
type ShareLinker interface {
	Link(designID string) (string, time.Time, error)
}

// FacetCache is the subset of the Redis JSON cache the facet service needs.
type FacetCache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// UploadSigner issues signed upload URLs.
type UploadSigner interface {
	SignedUpload(ctx context.Context, bucket, object, contentType string, allowed []string, maxSize int64) (storage.Upload, error)
}
