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
	"github.com/lembar-pintar/studio/internal/platform/textutil"
	"github.com/lembar-pintar/studio/internal/repositories"
)

type TemplateAdminServiceDeps struct {
	Templates   repositories.TemplateRepository
	Clock       func() time.Time
	IDGenerator func() string
	Logger      *zap.Logger
}

type templateAdminService struct {
	templates repositories.TemplateRepository
	clock     func() time.Time
	newID     func() string
	logger    *zap.Logger
}

func NewTemplateAdminService(deps TemplateAdminServiceDeps) (TemplateAdminService, error) {
	if deps.Templates == nil {
		return nil, errors.New("template admin service: repository is required")
	}
	svc := &templateAdminService{templates: deps.Templates, clock: deps.Clock, newID: deps.IDGenerator, logger: deps.Logger}
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

func (s *templateAdminService) List(ctx context.Context, params pagination.Params) (domain.Page[domain.Template], error) {
	page, err := s.templates.List(ctx, params)
	if err != nil {
		return domain.Page[domain.Template]{}, translateRepoError("templates.list", err)
	}
	return page, nil
}

func (s *templateAdminService) Create(ctx context.Context, cmd TemplateCommand) (domain.Template, error) {
	now := s.clock().UTC()
	tpl := domain.Template{
		ID:        publishedTplPrefix + s.newID(),
		CreatedBy: cmd.ActorID,
		CreatedAt: now,
	}
	if err := applyTemplateCommand(&tpl, cmd, now); err != nil {
		return domain.Template{}, err
	}
	if err := s.templates.Insert(ctx, tpl); err != nil {
		return domain.Template{}, translateRepoError("templates.insert", err)
	}
	s.logger.Info("template created", zap.String("template", tpl.ID))
	return tpl, nil
}

func (s *templateAdminService) Update(ctx context.Context, id string, cmd TemplateCommand) (domain.Template, error) {
	tpl, err := s.templates.Get(ctx, strings.TrimSpace(id))
	if err != nil {
		return domain.Template{}, translateRepoError("templates.get", err)
	}
	if len(cmd.Document) == 0 {
		cmd.Document = tpl.Document
	}
	if err := applyTemplateCommand(&tpl, cmd, s.clock().UTC()); err != nil {
		return domain.Template{}, err
	}
	if err := s.templates.Update(ctx, tpl); err != nil {
		return domain.Template{}, translateRepoError("templates.update", err)
	}
	return tpl, nil
}

func (s *templateAdminService) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return invalid("template id is required")
	}
	return translateRepoError("templates.delete", s.templates.Delete(ctx, id))
}

func applyTemplateCommand(tpl *domain.Template, cmd TemplateCommand, now time.Time) error {
	title := cleanText(cmd.Title)
	if title == "" || len([]rune(title)) > maxDesignTitleLen {
		return invalid("title must be 1-%d characters", maxDesignTitleLen)
	}
	description := strings.TrimSpace(cmd.Description)
	if len([]rune(description)) > maxDescriptionLen {
		return invalid("description exceeds %d characters", maxDescriptionLen)
	}
	status := strings.ToLower(strings.TrimSpace(cmd.Status))
	switch status {
	case "":
		status = domain.TemplateDraft
	case domain.TemplateDraft, domain.TemplatePublished:
	default:
		return invalid("unknown status %q", cmd.Status)
	}
	doc, _, err := domain.NormalizeDocument(cmd.Document)
	if err != nil {
		return invalid("document: %v", err)
	}
	width, height := canvasSize(doc)

	tpl.Title = title
	tpl.Description = description
	tpl.PreviewURL = strings.TrimSpace(cmd.PreviewURL)
	tpl.Level = strings.ToLower(strings.TrimSpace(cmd.Level))
	tpl.GradeID = strings.TrimSpace(cmd.GradeID)
	tpl.SubjectID = strings.TrimSpace(cmd.SubjectID)
	tpl.Status = status
	tpl.Tags = textutil.NormalizeTags(cmd.Tags)
	tpl.Document = doc
	tpl.Width, tpl.Height = width, height
	tpl.UpdatedAt = now
	return nil
}
