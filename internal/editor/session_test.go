package editor

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/lembar-pintar/studio/internal/client"
	"github.com/lembar-pintar/studio/internal/events"
)

type stubBackend struct {
	docs    map[string]json.RawMessage
	saves   []client.SaveRequest
	publish []client.SaveRequest
	saveErr error
	nextID  string
	loadErr error
}

func (b *stubBackend) LoadTemplate(ctx context.Context, id string) (json.RawMessage, error) {
	if b.loadErr != nil {
		return nil, b.loadErr
	}
	return b.docs[id], nil
}

func (b *stubBackend) LoadDesign(ctx context.Context, id string) (json.RawMessage, error) {
	return b.LoadTemplate(ctx, id)
}

func (b *stubBackend) SaveDesign(ctx context.Context, req client.SaveRequest) (client.SaveResult, error) {
	b.saves = append(b.saves, req)
	if b.saveErr != nil {
		return client.SaveResult{}, b.saveErr
	}
	id := b.nextID
	if req.DesignID != nil {
		id = *req.DesignID
	}
	return client.SaveResult{ID: id, Message: "Design saved"}, nil
}

func (b *stubBackend) PublishDesign(ctx context.Context, req client.SaveRequest) (client.SaveResult, error) {
	b.publish = append(b.publish, req)
	return client.SaveResult{ID: "tpl-1"}, nil
}

func TestSessionSaveCreatesThenUpdates(t *testing.T) {
	backend := &stubBackend{nextID: "d-1"}
	bus := events.New(nil)
	var saved []events.DesignSaved
	events.Subscribe(bus, events.DesignSavedTopic, func(e events.DesignSaved) { saved = append(saved, e) })

	store := NewMemoryStore()
	s := NewSession(backend, store, bus, nil)
	defer s.Close()

	id, err := s.Save(context.Background(), "Lembar 1")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if id != "d-1" || s.DesignID() != "d-1" {
		t.Fatalf("expected design id d-1, got %q", id)
	}
	if backend.saves[0].DesignID != nil {
		t.Fatalf("first save must send a null design id")
	}
	if !strings.HasPrefix(backend.saves[0].PreviewImage, "data:image/png;base64,") {
		t.Fatalf("expected preview data url, got %d bytes", len(backend.saves[0].PreviewImage))
	}

	store.AddPage()
	if !s.Dirty() {
		t.Fatalf("expected dirty after change")
	}
	if _, err := s.Save(context.Background(), "Lembar 1"); err != nil {
		t.Fatalf("second save: %v", err)
	}
	if backend.saves[1].DesignID == nil || *backend.saves[1].DesignID != "d-1" {
		t.Fatalf("second save must update d-1")
	}
	if s.Dirty() {
		t.Fatalf("expected clean after save")
	}
	if len(saved) != 2 || !saved[0].Created || saved[1].Created {
		t.Fatalf("unexpected saved events %+v", saved)
	}
}

func TestSessionSaveFailureRaisesNotice(t *testing.T) {
	backend := &stubBackend{saveErr: &client.ResponseError{Status: 500, Message: "boom"}}
	bus := events.New(nil)
	var notices []events.Notice
	events.Subscribe(bus, events.NoticeTopic, func(n events.Notice) { notices = append(notices, n) })

	s := NewSession(backend, NewMemoryStore(), bus, nil)
	if _, err := s.Save(context.Background(), "x"); err == nil {
		t.Fatalf("expected error")
	}
	if s.DesignID() != "" {
		t.Fatalf("design id must stay empty after failure")
	}
	if len(notices) != 1 || notices[0].Level != events.NoticeError {
		t.Fatalf("expected one error notice, got %+v", notices)
	}

	if _, err := s.Save(context.Background(), "  "); !errors.Is(err, ErrTitleRequired) {
		t.Fatalf("expected ErrTitleRequired, got %v", err)
	}
}

func TestSessionOpenTemplateResetsDesign(t *testing.T) {
	backend := &stubBackend{
		nextID: "d-2",
		docs: map[string]json.RawMessage{
			"tpl": json.RawMessage(`{"width":300,"height":200,"pages":[{"id":"a","children":[]},{"id":"b","children":[]}]}`),
			"d-2": json.RawMessage(`{"width":300,"height":200}`),
		},
	}
	store := NewMemoryStore()
	s := NewSession(backend, store, events.New(nil), nil)

	if err := s.OpenDesign(context.Background(), "d-2"); err != nil {
		t.Fatalf("open design: %v", err)
	}
	if s.DesignID() != "d-2" || len(store.Pages()) != 1 {
		t.Fatalf("unexpected state id=%q pages=%d", s.DesignID(), len(store.Pages()))
	}
	if err := s.OpenTemplate(context.Background(), "tpl"); err != nil {
		t.Fatalf("open template: %v", err)
	}
	if s.DesignID() != "" || len(store.Pages()) != 2 {
		t.Fatalf("template must start a new design")
	}
	if s.Dirty() {
		t.Fatalf("freshly loaded document must not be dirty")
	}
}

func TestSessionPublishCarriesFacets(t *testing.T) {
	backend := &stubBackend{}
	bus := events.New(nil)
	var published []events.DesignPublished
	events.Subscribe(bus, events.DesignPublishedTopic, func(e events.DesignPublished) { published = append(published, e) })

	s := NewSession(backend, NewMemoryStore(), bus, nil)
	id, err := s.Publish(context.Background(), PublishInput{Title: "Huruf", Level: "sd", GradeID: "sd-1", SubjectID: "bahasa"})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if id != "tpl-1" {
		t.Fatalf("unexpected id %q", id)
	}
	req := backend.publish[0]
	if req.Level != "sd" || req.GradeID != "sd-1" || req.SubjectID != "bahasa" {
		t.Fatalf("facets not sent: %+v", req)
	}
	if len(published) != 1 {
		t.Fatalf("expected published event")
	}
}
