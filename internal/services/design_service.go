package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/lembar-pintar/studio/internal/domain"
	"github.com/lembar-pintar/studio/internal/facets"
	"github.com/lembar-pintar/studio/internal/platform/storage"
	"github.com/lembar-pintar/studio/internal/repositories"
)

const (
	designIDPrefix      = "dsg_"
	publishedTplPrefix  = "tpl_"
	maxDesignTitleLen   = 160
	maxDescriptionLen   = 4000
	maxPreviewBytes     = 5 * 1024 * 1024
	defaultQRShareSize  = 300
	defaultCanvasWidth  = 794
	defaultCanvasHeight = 1123
)

var textPolicy = bluemonday.StrictPolicy()

// DesignServiceDeps wires dependencies for the design service.
type DesignServiceDeps struct {
	Designs    repositories.DesignRepository
	Templates  repositories.TemplateRepository
	Facets     repositories.FacetRepository
	UnitOfWork repositories.UnitOfWork
	// Previews and PreviewBucket are optional; without them the preview
	// image is dropped.
	Previews      storage.ObjectWriter
	PreviewBucket string
	Events        DesignEventPublisher
	Links         ShareLinker
	QR            QRService
	Clock         func() time.Time
	IDGenerator   func() string
	Logger        *zap.Logger
}

type designService struct {
	designs       repositories.DesignRepository
	templates     repositories.TemplateRepository
	facets        repositories.FacetRepository
	uow           repositories.UnitOfWork
	previews      storage.ObjectWriter
	previewBucket string
	events        DesignEventPublisher
	links         ShareLinker
	qr            QRService
	clock         func() time.Time
	newID         func() string
	logger        *zap.Logger
}

func NewDesignService(deps DesignServiceDeps) (DesignService, error) {
	if deps.Designs == nil || deps.Templates == nil {
		return nil, errors.New("design service: repositories are required")
	}
	svc := &designService{
		designs:       deps.Designs,
		templates:     deps.Templates,
		facets:        deps.Facets,
		uow:           deps.UnitOfWork,
		previews:      deps.Previews,
		previewBucket: strings.TrimSpace(deps.PreviewBucket),
		events:        deps.Events,
		links:         deps.Links,
		qr:            deps.QR,
		clock:         deps.Clock,
		newID:         deps.IDGenerator,
		logger:        deps.Logger,
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
	svc.logger = svc.logger.Named("designs")
	return svc, nil
}

func (s *designService) now() time.Time { return s.clock().UTC() }

func (s *designService) Load(ctx context.Context, actor Actor, designID string) (json.RawMessage, error) {
	design, err := s.owned(ctx, actor, designID)
	if err != nil {
		return nil, err
	}
	doc, repaired, err := domain.NormalizeDocument(design.Document)
	if err != nil {
		return nil, invalid("design %s has an invalid document", design.ID)
	}
	if repaired {
		s.logger.Debug("design document had no pages", zap.String("design", design.ID))
	}
	return doc, nil
}

func (s *designService) Save(ctx context.Context, cmd SaveDesignCommand) (domain.Design, error) {
	var saved domain.Design
	err := s.runInTx(ctx, func(ctx context.Context) error {
		design, creating, err := s.prepare(ctx, cmd)
		if err != nil {
			return err
		}
		if err := s.store(ctx, design, creating); err != nil {
			return translateRepoError("designs.save", err)
		}
		saved = design
		return nil
	})
	if err != nil {
		return domain.Design{}, err
	}
	s.logger.Info("design saved", zap.String("design", saved.ID), zap.String("owner", saved.OwnerID))
	return saved, nil
}

// prepare validates cmd and builds the design it describes without writing
// it. Updating reads the stored design to check ownership.
func (s *designService) prepare(ctx context.Context, cmd SaveDesignCommand) (domain.Design, bool, error) {
	if strings.TrimSpace(cmd.Actor.ID) == "" {
		return domain.Design{}, false, ErrForbidden
	}
	title := cleanText(cmd.Title)
	if title == "" {
		return domain.Design{}, false, invalid("title is required")
	}
	if len([]rune(title)) > maxDesignTitleLen {
		return domain.Design{}, false, invalid("title exceeds %d characters", maxDesignTitleLen)
	}
	doc, _, err := domain.NormalizeDocument(cmd.Document)
	if err != nil {
		return domain.Design{}, false, invalid("document: %v", err)
	}
	var preview []byte
	if strings.TrimSpace(cmd.PreviewImage) != "" {
		preview, err = decodePNGDataURL(cmd.PreviewImage)
		if err != nil {
			return domain.Design{}, false, err
		}
	}

	now := s.now()
	var design domain.Design
	creating := cmd.DesignID == nil || strings.TrimSpace(*cmd.DesignID) == ""
	if creating {
		design = domain.Design{
			ID:        designIDPrefix + s.newID(),
			OwnerID:   cmd.Actor.ID,
			Status:    domain.DesignDraft,
			CreatedAt: now,
		}
	} else {
		design, err = s.owned(ctx, cmd.Actor, *cmd.DesignID)
		if err != nil {
			return domain.Design{}, false, err
		}
	}
	design.Title = title
	design.Document = doc
	design.UpdatedAt = now

	if len(preview) > 0 {
		if url, err := s.uploadPreview(ctx, design.ID, preview); err != nil {
			s.logger.Warn("preview upload failed", zap.String("design", design.ID), zap.Error(err))
		} else if url != "" {
			design.PreviewURL = url
		}
	}

	return design, creating, nil
}

func (s *designService) store(ctx context.Context, design domain.Design, creating bool) error {
	if creating {
		return s.designs.Insert(ctx, design)
	}
	return s.designs.Update(ctx, design)
}

func (s *designService) Publish(ctx context.Context, cmd PublishDesignCommand) (PublishResult, error) {
	if !cmd.Actor.Admin {
		return PublishResult{}, ErrForbidden
	}
	level := strings.ToLower(strings.TrimSpace(cmd.Level))
	if level == "" {
		return PublishResult{}, invalid("level is required")
	}
	description := strings.TrimSpace(cmd.Description)
	if len([]rune(description)) > maxDescriptionLen {
		return PublishResult{}, invalid("description exceeds %d characters", maxDescriptionLen)
	}
	if err := s.validateFacets(ctx, level, cmd.GradeID, cmd.SubjectID); err != nil {
		return PublishResult{}, err
	}

	var result PublishResult
	err := s.runInTx(ctx, func(ctx context.Context) error {
		design, creating, err := s.prepare(ctx, cmd.SaveDesignCommand)
		if err != nil {
			return err
		}
		now := s.now()
		design.Status = domain.DesignPublished
		design.PublishedAt = &now
		design.TemplateID = publishedTplPrefix + strings.TrimPrefix(design.ID, designIDPrefix)

		width, height := canvasSize(design.Document)
		tpl := domain.Template{
			ID:          design.TemplateID,
			Title:       design.Title,
			Description: description,
			PreviewURL:  design.PreviewURL,
			Width:       width,
			Height:      height,
			Level:       level,
			GradeID:     strings.TrimSpace(cmd.GradeID),
			SubjectID:   strings.TrimSpace(cmd.SubjectID),
			Status:      domain.TemplatePublished,
			Document:    design.Document,
			SourceID:    design.ID,
			CreatedBy:   cmd.Actor.ID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		// Every read happens before the first write.
		existing, err := s.templates.Get(ctx, tpl.ID)
		republish := err == nil
		if err != nil && !errors.Is(translateRepoError("", err), ErrNotFound) {
			return translateRepoError("templates.publish", err)
		}

		if err := s.store(ctx, design, creating); err != nil {
			return translateRepoError("designs.publish", err)
		}
		if republish {
			tpl.CreatedAt = existing.CreatedAt
			tpl.Tags = existing.Tags
			err = s.templates.Update(ctx, tpl)
		} else {
			err = s.templates.Insert(ctx, tpl)
		}
		if err != nil {
			return translateRepoError("templates.publish", err)
		}
		result.Design = design
		result.Template = tpl
		return nil
	})
	if err != nil {
		return PublishResult{}, err
	}

	if share, err := s.shareLink(result.Design.ID); err != nil {
		s.logger.Warn("share link unavailable", zap.String("design", result.Design.ID), zap.Error(err))
	} else {
		result.Share = share
	}

	if s.events != nil {
		msg := DesignPublishedMessage{
			EventID:     "evt_" + s.newID(),
			DesignID:    result.Design.ID,
			TemplateID:  result.Template.ID,
			OwnerID:     result.Design.OwnerID,
			Title:       result.Design.Title,
			Level:       result.Template.Level,
			GradeID:     result.Template.GradeID,
			SubjectID:   result.Template.SubjectID,
			PreviewURL:  result.Design.PreviewURL,
			ShareURL:    result.Share.URL,
			PublishedAt: *result.Design.PublishedAt,
		}
		if id, err := s.events.PublishDesignPublished(ctx, msg); err != nil {
			s.logger.Error("design.published job not enqueued", zap.String("design", msg.DesignID), zap.Error(err))
		} else {
			s.logger.Info("design published", zap.String("design", msg.DesignID), zap.String("messageId", id))
		}
	}
	return result, nil
}

func (s *designService) Share(ctx context.Context, actor Actor, designID string) (ShareLink, error) {
	design, err := s.owned(ctx, actor, designID)
	if err != nil {
		return ShareLink{}, err
	}
	if design.Status != domain.DesignPublished {
		return ShareLink{}, fmt.Errorf("%w: design is not published", ErrConflict)
	}
	return s.shareLink(design.ID)
}

func (s *designService) Shared(ctx context.Context, designID string) (json.RawMessage, error) {
	designID = strings.TrimSpace(designID)
	if designID == "" {
		return nil, invalid("design id is required")
	}
	design, err := s.designs.Get(ctx, designID)
	if err != nil {
		return nil, translateRepoError("designs.get", err)
	}
	if design.Status != domain.DesignPublished {
		return nil, ErrNotFound
	}
	doc, _, err := domain.NormalizeDocument(design.Document)
	if err != nil {
		return nil, invalid("design %s has an invalid document", design.ID)
	}
	return doc, nil
}

func (s *designService) shareLink(designID string) (ShareLink, error) {
	if s.links == nil {
		return ShareLink{}, fmt.Errorf("%w: share links not configured", ErrUnavailable)
	}
	url, expires, err := s.links.Link(designID)
	if err != nil {
		return ShareLink{}, err
	}
	link := ShareLink{URL: url, ExpiresAt: expires}
	if s.qr != nil {
		if qr, err := s.qr.URL(url, defaultQRShareSize); err == nil {
			link.QRURL = qr
		}
	}
	return link, nil
}

// owned loads a design the actor may access. Admins may access any design.
func (s *designService) owned(ctx context.Context, actor Actor, designID string) (domain.Design, error) {
	designID = strings.TrimSpace(designID)
	if designID == "" {
		return domain.Design{}, invalid("design id is required")
	}
	design, err := s.designs.Get(ctx, designID)
	if err != nil {
		return domain.Design{}, translateRepoError("designs.get", err)
	}
	if design.OwnerID != actor.ID && !actor.Admin {
		return domain.Design{}, ErrForbidden
	}
	return design, nil
}

func (s *designService) validateFacets(ctx context.Context, level, gradeID, subjectID string) error {
	if s.facets == nil {
		return nil
	}
	set, err := s.facets.Options(ctx)
	if err != nil {
		return translateRepoError("facets.options", err)
	}
	known := false
	for _, l := range set.Levels {
		if strings.EqualFold(l.Slug, level) {
			known = true
			break
		}
	}
	if !known {
		return invalid("unknown level %q", level)
	}
	if g := strings.TrimSpace(gradeID); g != "" && !facets.GradeValid(set, level, g) {
		return invalid("grade %q does not belong to level %q", g, level)
	}
	if sub := strings.TrimSpace(subjectID); sub != "" && !facets.SubjectValid(set, level, sub) {
		return invalid("subject %q does not apply to level %q", sub, level)
	}
	return nil
}

func (s *designService) uploadPreview(ctx context.Context, designID string, png []byte) (string, error) {
	if s.previews == nil || s.previewBucket == "" {
		return "", nil
	}
	return s.previews.PutObject(ctx, s.previewBucket, storage.PreviewObject(designID), "image/png", png)
}

func (s *designService) runInTx(ctx context.Context, fn func(context.Context) error) error {
	if s.uow == nil {
		return fn(ctx)
	}
	return s.uow.RunInTx(ctx, fn)
}

func decodePNGDataURL(raw string) ([]byte, error) {
	const prefix = "data:image/png;base64,"
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, prefix) {
		return nil, invalid("previewImage must be a PNG data URL")
	}
	encoded := raw[len(prefix):]
	if base64.StdEncoding.DecodedLen(len(encoded)) > maxPreviewBytes {
		return nil, invalid("previewImage exceeds %d bytes", maxPreviewBytes)
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, invalid("previewImage is not valid base64")
	}
	return data, nil
}

func canvasSize(doc json.RawMessage) (int, int) {
	var dims struct {
		Width  float64 `json:"width"`
		Height float64 `json:"height"`
	}
	if err := json.Unmarshal(doc, &dims); err != nil || dims.Width <= 0 || dims.Height <= 0 {
		return defaultCanvasWidth, defaultCanvasHeight
	}
	return int(dims.Width), int(dims.Height)
}

func cleanText(s string) string {
	return strings.TrimSpace(html.UnescapeString(textPolicy.Sanitize(strings.TrimSpace(s))))
}
