package editor

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/lembar-pintar/studio/internal/client"
	"github.com/lembar-pintar/studio/internal/events"
)

// Backend is the subset of the REST client a session uses.
type Backend interface {
	LoadTemplate(ctx context.Context, id string) (json.RawMessage, error)
	LoadDesign(ctx context.Context, id string) (json.RawMessage, error)
	SaveDesign(ctx context.Context, req client.SaveRequest) (client.SaveResult, error)
	PublishDesign(ctx context.Context, req client.SaveRequest) (client.SaveResult, error)
}

// ErrTitleRequired is returned by Save and Publish for a blank title.
var ErrTitleRequired = errors.New("editor: title is required")

// PublishInput carries the template facets set when publishing.
type PublishInput struct {
	Title       string
	Description string
	Level       string
	GradeID     string
	SubjectID   string
}

// Session ties one open design to the backend and the event bus.
type Session struct {
	backend Backend
	store   DesignDocumentStore
	bus     *events.Bus
	logger  *zap.Logger

	mu       sync.Mutex
	designID string
	dirty    bool
	unsub    func()
}

// NewSession starts a session for a new, unsaved design.
func NewSession(backend Backend, store DesignDocumentStore, bus *events.Bus, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Session{backend: backend, store: store, bus: bus, logger: logger}
	s.unsub = store.Subscribe(ChangeEvent, func() {
		s.mu.Lock()
		s.dirty = true
		s.mu.Unlock()
	})
	return s
}

// Close detaches the session from its store.
func (s *Session) Close() {
	if s.unsub != nil {
		s.unsub()
	}
}

// DesignID is empty until the first successful save.
func (s *Session) DesignID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.designID
}

// Dirty reports unsaved changes.
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// OpenTemplate loads a template as the starting point of a new design.
func (s *Session) OpenTemplate(ctx context.Context, templateID string) error {
	doc, err := s.backend.LoadTemplate(ctx, templateID)
	if err != nil {
		s.notifyError("Template could not be loaded.", err)
		return err
	}
	if err := s.store.Deserialize(doc); err != nil {
		s.notifyError("Template could not be opened.", err)
		return err
	}
	s.mu.Lock()
	s.designID = ""
	s.dirty = false
	s.mu.Unlock()
	return nil
}

// OpenDesign loads one of the user's designs for editing.
func (s *Session) OpenDesign(ctx context.Context, designID string) error {
	doc, err := s.backend.LoadDesign(ctx, designID)
	if err != nil {
		s.notifyError("Design could not be loaded.", err)
		return err
	}
	if err := s.store.Deserialize(doc); err != nil {
		s.notifyError("Design could not be opened.", err)
		return err
	}
	s.mu.Lock()
	s.designID = strings.TrimSpace(designID)
	s.dirty = false
	s.mu.Unlock()
	return nil
}

// Save creates the design on first call and updates it afterwards.
func (s *Session) Save(ctx context.Context, title string) (string, error) {
	req, err := s.buildRequest(ctx, title)
	if err != nil {
		s.notifyError("Design could not be saved.", err)
		return "", err
	}
	res, err := s.backend.SaveDesign(ctx, req)
	if err != nil {
		s.notifyError("Design could not be saved.", err)
		return "", err
	}

	s.mu.Lock()
	created := s.designID == ""
	s.designID = res.ID
	s.dirty = false
	s.mu.Unlock()

	events.Publish(s.bus, events.DesignSavedTopic, events.DesignSaved{ID: res.ID, Created: created, Message: res.Message})
	events.Publish(s.bus, events.NoticeTopic, events.Notice{Level: events.NoticeInfo, Message: messageOr(res.Message, "Design saved.")})
	return res.ID, nil
}

// Publish submits the design as a template.
func (s *Session) Publish(ctx context.Context, in PublishInput) (string, error) {
	req, err := s.buildRequest(ctx, in.Title)
	if err != nil {
		s.notifyError("Design could not be published.", err)
		return "", err
	}
	req.Description = strings.TrimSpace(in.Description)
	req.Level = strings.TrimSpace(in.Level)
	req.GradeID = strings.TrimSpace(in.GradeID)
	req.SubjectID = strings.TrimSpace(in.SubjectID)

	res, err := s.backend.PublishDesign(ctx, req)
	if err != nil {
		s.notifyError("Design could not be published.", err)
		return "", err
	}
	s.mu.Lock()
	if s.designID == "" {
		s.designID = res.ID
	}
	s.dirty = false
	s.mu.Unlock()

	events.Publish(s.bus, events.DesignPublishedTopic, events.DesignPublished{ID: res.ID, Document: req.Document})
	events.Publish(s.bus, events.NoticeTopic, events.Notice{Level: events.NoticeInfo, Message: messageOr(res.Message, "Design published.")})
	return res.ID, nil
}

func (s *Session) buildRequest(ctx context.Context, title string) (client.SaveRequest, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return client.SaveRequest{}, ErrTitleRequired
	}
	doc, err := s.store.Serialize()
	if err != nil {
		return client.SaveRequest{}, err
	}
	req := client.SaveRequest{Title: title, Document: doc}
	if id := s.DesignID(); id != "" {
		req.DesignID = &id
	}

	// A failed preview does not block the save.
	png, err := s.store.ExportImage(ctx, ExportOptions{Scale: 0.5})
	if err != nil {
		s.logger.Warn("editor: preview export failed", zap.Error(err))
	} else {
		req.PreviewImage = DataURL("image/png", png)
	}
	return req, nil
}

func (s *Session) notifyError(message string, err error) {
	s.logger.Warn("editor: "+strings.ToLower(strings.TrimSuffix(message, ".")), zap.Error(err))
	events.Publish(s.bus, events.NoticeTopic, events.Notice{Level: events.NoticeError, Message: message, Err: err})
}

// DataURL encodes data as a base64 data URL.
func DataURL(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func messageOr(msg, fallback string) string {
	if strings.TrimSpace(msg) == "" {
		return fallback
	}
	return msg
}
