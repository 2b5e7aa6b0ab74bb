package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/lembar-pintar/studio/internal/domain"
	"github.com/lembar-pintar/studio/internal/platform/pagination"
	"github.com/lembar-pintar/studio/internal/platform/storage"
	"github.com/lembar-pintar/studio/internal/platform/textutil"
	"github.com/lembar-pintar/studio/internal/repositories"
)

const (
	assetIDPrefix     = "ast_"
	maxAssetSizeBytes = int64(20 * 1024 * 1024)
	maxAssetNameLen   = 120
)

// Asset types accepted by the admin panel, with their allowed content types.
var assetContentTypes = map[string][]string{
	"image": {"image/png", "image/jpeg", "image/svg+xml", "image/webp"},
	"font":  {"font/woff2", "font/woff", "font/ttf", "font/otf"},
	"photo": {"image/jpeg", "image/png", "image/webp"},
}

type AssetServiceDeps struct {
	Assets      repositories.AssetRepository
	Uploads     UploadSigner
	Bucket      string
	Clock       func() time.Time
	IDGenerator func() string
	Logger      *zap.Logger
}

type assetService struct {
	assets  repositories.AssetRepository
	uploads UploadSigner
	bucket  string
	clock   func() time.Time
	newID   func() string
	logger  *zap.Logger
}

func NewAssetService(deps AssetServiceDeps) (AssetService, error) {
	if deps.Assets == nil {
		return nil, errors.New("asset service: repository is required")
	}
	svc := &assetService{
		assets:  deps.Assets,
		uploads: deps.Uploads,
		bucket:  strings.TrimSpace(deps.Bucket),
		clock:   deps.Clock,
		newID:   deps.IDGenerator,
		logger:  deps.Logger,
	}
	if svc.clock == nil {
		svc.clock = time.Now
	}
	if svc.newID == nil {
		svc.newID = func() string { return ulid.Make().String() }
	}
	if svc.logger == nil {
		svc.logger = zap.NewNop()
	}
	return svc, nil
}

func (s *assetService) List(ctx context.Context, params pagination.Params) (domain.Page[domain.Asset], error) {
	page, err := s.assets.List(ctx, params)
	if err != nil {
		return domain.Page[domain.Asset]{}, translateRepoError("assets.list", err)
	}
	return page, nil
}

// Create records the asset and returns a signed URL the browser uploads to.
func (s *assetService) Create(ctx context.Context, cmd CreateAssetCommand) (CreatedAsset, error) {
	if s.uploads == nil || s.bucket == "" {
		return CreatedAsset{}, errors.Join(ErrUnavailable, errors.New("asset uploads are not configured"))
	}
	name := cleanText(cmd.Name)
	if name == "" {
		return CreatedAsset{}, invalid("name is required")
	}
	if len([]rune(name)) > maxAssetNameLen {
		return CreatedAsset{}, invalid("name exceeds %d characters", maxAssetNameLen)
	}
	assetType := strings.ToLower(strings.TrimSpace(cmd.Type))
	allowed, ok := assetContentTypes[assetType]
	if !ok {
		return CreatedAsset{}, invalid("unsupported asset type %q", cmd.Type)
	}
	contentType := strings.ToLower(strings.TrimSpace(cmd.ContentType))
	if !contains(allowed, contentType) {
		return CreatedAsset{}, invalid("content type %q not allowed for %s", cmd.ContentType, assetType)
	}
	if cmd.Size <= 0 || cmd.Size > maxAssetSizeBytes {
		return CreatedAsset{}, invalid("size must be between 1 and %d bytes", maxAssetSizeBytes)
	}

	now := s.clock().UTC()
	id := assetIDPrefix + s.newID()
	object := storage.AssetObject(assetType, id, cmd.FileName)
	upload, err := s.uploads.SignedUpload(ctx, s.bucket, object, contentType, allowed, cmd.Size)
	if err != nil {
		if errors.Is(err, storage.ErrContentTypeDenied) {
			return CreatedAsset{}, invalid("content type %q not allowed", contentType)
		}
		return CreatedAsset{}, errors.Join(ErrUnavailable, err)
	}
	asset := domain.Asset{
		ID:          id,
		Name:        name,
		Type:        assetType,
		Category:    strings.ToLower(strings.TrimSpace(cmd.Category)),
		URL:         upload.ObjectURL,
		ObjectPath:  object,
		ContentType: contentType,
		Size:        cmd.Size,
		Tags:        textutil.NormalizeTags(cmd.Tags),
		CreatedBy:   cmd.ActorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.assets.Insert(ctx, asset); err != nil {
		return CreatedAsset{}, translateRepoError("assets.insert", err)
	}
	s.logger.Info("asset created", zap.String("asset", id), zap.String("object", object))
	return CreatedAsset{Asset: asset, Upload: upload}, nil
}

func (s *assetService) Update(ctx context.Context, cmd UpdateAssetCommand) (domain.Asset, error) {
	asset, err := s.assets.Get(ctx, strings.TrimSpace(cmd.ID))
	if err != nil {
		return domain.Asset{}, translateRepoError("assets.get", err)
	}
	if cmd.Name != nil {
		name := cleanText(*cmd.Name)
		if name == "" || len([]rune(name)) > maxAssetNameLen {
			return domain.Asset{}, invalid("name must be 1-%d characters", maxAssetNameLen)
		}
		asset.Name = name
	}
	if cmd.Category != nil {
		asset.Category = strings.ToLower(strings.TrimSpace(*cmd.Category))
	}
	if cmd.Tags != nil {
		asset.Tags = textutil.NormalizeTags(cmd.Tags)
	}
	asset.UpdatedAt = s.clock().UTC()
	if err := s.assets.Update(ctx, asset); err != nil {
		return domain.Asset{}, translateRepoError("assets.update", err)
	}
	return asset, nil
}

func (s *assetService) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return invalid("asset id is required")
	}
	return translateRepoError("assets.delete", s.assets.Delete(ctx, id))
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
