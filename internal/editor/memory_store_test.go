package editor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image/png"
	"testing"

	"github.com/lembar-pintar/studio/internal/domain"
	"github.com/lembar-pintar/studio/internal/events"
)

func TestMemoryStoreDeserializeRepairsPages(t *testing.T) {
	s := NewMemoryStore()
	if err := s.Deserialize(json.RawMessage(`{"width":400,"height":300}`)); err != nil {
		t.Fatalf("deserialize: %v", err)
	}
	if got := len(s.Pages()); got != 1 {
		t.Fatalf("expected one blank page, got %d", got)
	}
	raw, err := s.Serialize()
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	if domain.PageCount(raw) != 1 {
		t.Fatalf("serialized document lost its page: %s", raw)
	}
	if err := s.Deserialize(json.RawMessage(`[1,2]`)); !errors.Is(err, domain.ErrInvalidDocument) {
		t.Fatalf("expected invalid document, got %v", err)
	}
}

func TestMemoryStoreChangeEvents(t *testing.T) {
	bus := events.New(nil)
	var busPages []int
	events.Subscribe(bus, events.DocumentChangeTopic, func(e events.DocumentChanged) { busPages = append(busPages, e.Pages) })

	s := NewMemoryStore(WithEventBus(bus))
	changes := 0
	unsub := s.Subscribe(ChangeEvent, func() { changes++ })

	id := s.AddPage()
	if id != "page-2" {
		t.Fatalf("unexpected page id %q", id)
	}
	if err := s.AddNode(id, Node{Type: KindRect, Width: 10, Height: 10}); err != nil {
		t.Fatalf("add node: %v", err)
	}
	if err := s.AddNode("missing", Node{Type: KindRect}); !errors.Is(err, ErrPageNotFound) {
		t.Fatalf("expected ErrPageNotFound, got %v", err)
	}
	unsub()
	s.AddPage()

	if changes != 2 {
		t.Fatalf("expected 2 change events, got %d", changes)
	}
	if len(busPages) != 3 || busPages[2] != 3 {
		t.Fatalf("unexpected bus deliveries %v", busPages)
	}
}

func TestMemoryStoreAddPageAvoidsExistingIDs(t *testing.T) {
	s := NewMemoryStore()
	if err := s.Deserialize(json.RawMessage(`{"pages":[{"id":"page-2","children":[]}]}`)); err != nil {
		t.Fatalf("deserialize: %v", err)
	}
	if id := s.AddPage(); id == "page-2" {
		t.Fatalf("duplicate page id")
	}
}

func TestMemoryStoreExportImage(t *testing.T) {
	s := NewMemoryStore()
	doc := `{"width":200,"height":100,"pages":[{"id":"p1","background":"#ffffff","children":[
		{"id":"r","type":"rect","x":0,"y":0,"width":100,"height":100,"fill":"#ff0000"},
		{"id":"t","type":"text","x":120,"y":10,"width":60,"height":20,"text":"Halo"},
		{"id":"u","type":"sparkle","x":0,"y":0,"width":1,"height":1}
	]}]}`
	if err := s.Deserialize(json.RawMessage(doc)); err != nil {
		t.Fatalf("deserialize: %v", err)
	}

	data, err := s.ExportImage(context.Background(), ExportOptions{})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 200 || b.Dy() != 100 {
		t.Fatalf("unexpected bounds %v", b)
	}
	r, g, _, _ := img.At(50, 50).RGBA()
	if r>>8 < 200 || g>>8 > 60 {
		t.Fatalf("expected red at rect centre, got r=%d g=%d", r>>8, g>>8)
	}
	r, g, _, _ = img.At(190, 90).RGBA()
	if r>>8 < 200 || g>>8 < 200 {
		t.Fatalf("expected white background, got r=%d g=%d", r>>8, g>>8)
	}

	half, err := s.ExportImage(context.Background(), ExportOptions{Scale: 0.5})
	if err != nil {
		t.Fatalf("export half: %v", err)
	}
	img, err = png.Decode(bytes.NewReader(half))
	if err != nil {
		t.Fatalf("decode half: %v", err)
	}
	if img.Bounds().Dx() != 100 {
		t.Fatalf("expected scaled width 100, got %d", img.Bounds().Dx())
	}
}

func TestMemoryStoreExportErrors(t *testing.T) {
	s := NewMemoryStore()
	if _, err := s.ExportImage(context.Background(), ExportOptions{PageIndex: 3}); !errors.Is(err, ErrPageNotFound) {
		t.Fatalf("expected ErrPageNotFound, got %v", err)
	}
	if _, err := s.ExportImage(context.Background(), ExportOptions{Scale: 10}); !errors.Is(err, ErrExportTooLarge) {
		t.Fatalf("expected ErrExportTooLarge, got %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.ExportImage(ctx, ExportOptions{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
