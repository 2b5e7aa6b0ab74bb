package editor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/gogpu/gg"
	"go.uber.org/zap"

	"github.com/lembar-pintar/studio/internal/domain"
	"github.com/lembar-pintar/studio/internal/events"
)

const (
	defaultWidth  = 794
	defaultHeight = 1123
	maxExportSide = 4096
)

var (
	// ErrPageNotFound is returned for an unknown page id or index.
	ErrPageNotFound = errors.New("editor: page not found")
	// ErrExportTooLarge is returned when the scaled raster exceeds the limit.
	ErrExportTooLarge = errors.New("editor: export too large")
)

// MemoryStore keeps a document in memory and rasterises previews.
type MemoryStore struct {
	mu     sync.RWMutex
	doc    Document
	seq    int
	local  *events.Bus
	bus    *events.Bus
	logger *zap.Logger
}

// StoreOption configures a MemoryStore.
type StoreOption func(*MemoryStore)

// WithEventBus also publishes document changes on the shared bus.
func WithEventBus(bus *events.Bus) StoreOption {
	return func(s *MemoryStore) { s.bus = bus }
}

// WithStoreLogger sets the logger for skipped nodes.
func WithStoreLogger(logger *zap.Logger) StoreOption {
	return func(s *MemoryStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewMemoryStore returns a store holding one blank A4 page.
func NewMemoryStore(opts ...StoreOption) *MemoryStore {
	s := &MemoryStore{logger: zap.NewNop()}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.local = events.New(s.logger)
	s.doc = Document{Width: defaultWidth, Height: defaultHeight, Unit: "px"}
	s.doc.Pages = []Page{s.newPageLocked()}
	return s
}

func (s *MemoryStore) Serialize() (json.RawMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, err := json.Marshal(s.doc)
	if err != nil {
		return nil, fmt.Errorf("editor: serialize: %w", err)
	}
	return data, nil
}

// Deserialize replaces the document. A document without pages gets one
// blank page.
func (s *MemoryStore) Deserialize(raw json.RawMessage) error {
	normalized, _, err := domain.NormalizeDocument(raw)
	if err != nil {
		return err
	}
	var doc Document
	if err := json.Unmarshal(normalized, &doc); err != nil {
		return fmt.Errorf("editor: deserialize: %w", err)
	}
	if doc.Width <= 0 {
		doc.Width = defaultWidth
	}
	if doc.Height <= 0 {
		doc.Height = defaultHeight
	}
	for i := range doc.Pages {
		if doc.Pages[i].Children == nil {
			doc.Pages[i].Children = []Node{}
		}
	}

	s.mu.Lock()
	s.doc = doc
	s.seq = len(doc.Pages)
	s.mu.Unlock()
	s.changed()
	return nil
}

func (s *MemoryStore) AddPage() PageID {
	s.mu.Lock()
	page := s.newPageLocked()
	s.doc.Pages = append(s.doc.Pages, page)
	s.mu.Unlock()
	s.changed()
	return page.ID
}

// AddNode appends a node to a page.
func (s *MemoryStore) AddNode(page PageID, node Node) error {
	s.mu.Lock()
	idx := s.pageIndexLocked(page)
	if idx < 0 {
		s.mu.Unlock()
		return ErrPageNotFound
	}
	if strings.TrimSpace(node.ID) == "" {
		node.ID = fmt.Sprintf("%s-node-%d", page, len(s.doc.Pages[idx].Children)+1)
	}
	s.doc.Pages[idx].Children = append(s.doc.Pages[idx].Children, node)
	s.mu.Unlock()
	s.changed()
	return nil
}

// Pages returns the page ids in order.
func (s *MemoryStore) Pages() []PageID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]PageID, 0, len(s.doc.Pages))
	for _, p := range s.doc.Pages {
		out = append(out, p.ID)
	}
	return out
}

func (s *MemoryStore) Subscribe(event string, handler func()) func() {
	if handler == nil {
		return func() {}
	}
	return events.Subscribe(s.local, events.NewTopic[struct{}](event), func(struct{}) { handler() })
}

// ExportImage renders one page to PNG.
func (s *MemoryStore) ExportImage(ctx context.Context, opts ExportOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	if opts.PageIndex < 0 || opts.PageIndex >= len(s.doc.Pages) {
		s.mu.RUnlock()
		return nil, ErrPageNotFound
	}
	page := s.doc.Pages[opts.PageIndex]
	page.Children = append([]Node(nil), page.Children...)
	width, height := s.doc.Width, s.doc.Height
	s.mu.RUnlock()

	scale := opts.Scale
	if scale <= 0 {
		scale = 1
	}
	w := int(math.Round(float64(width) * scale))
	h := int(math.Round(float64(height) * scale))
	if w < 1 || h < 1 || w > maxExportSide || h > maxExportSide {
		return nil, fmt.Errorf("%w: %dx%d", ErrExportTooLarge, w, h)
	}

	dc := gg.NewContext(w, h)
	defer dc.Close()

	dc.SetHexColor(colorOr(page.Background, "#ffffff"))
	dc.DrawRectangle(0, 0, float64(w), float64(h))
	if err := dc.Fill(); err != nil {
		return nil, fmt.Errorf("editor: fill background: %w", err)
	}
	for _, n := range page.Children {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := drawNode(dc, n, scale); err != nil {
			s.logger.Debug("editor: skipped node", zap.String("node", n.ID), zap.Error(err))
		}
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("editor: encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func drawNode(dc *gg.Context, n Node, scale float64) error {
	x, y := n.X*scale, n.Y*scale
	w, h := n.Width*scale, n.Height*scale
	switch n.Type {
	case KindRect:
		dc.SetHexColor(colorOr(n.Fill, "#cccccc"))
		if n.Radius > 0 {
			dc.DrawRoundedRectangle(x, y, w, h, n.Radius*scale)
		} else {
			dc.DrawRectangle(x, y, w, h)
		}
		return dc.Fill()
	case KindEllipse:
		dc.SetHexColor(colorOr(n.Fill, "#cccccc"))
		dc.DrawEllipse(x+w/2, y+h/2, w/2, h/2)
		return dc.Fill()
	case KindLine:
		dc.SetHexColor(colorOr(n.Stroke, "#000000"))
		dc.SetLineWidth(math.Max(1, scale))
		dc.DrawLine(x, y, x+w, y+h)
		return dc.Stroke()
	case KindText:
		// Previews show text as a bar in its fill colour.
		dc.SetHexColor(colorOr(n.Fill, "#333333"))
		dc.DrawRectangle(x, y+h*0.25, w, h*0.5)
		return dc.Fill()
	case KindImage:
		dc.SetHexColor("#e0e0e0")
		dc.DrawRectangle(x, y, w, h)
		return dc.Fill()
	default:
		return fmt.Errorf("unknown node type %q", n.Type)
	}
}

func colorOr(hex, fallback string) string {
	hex = strings.TrimSpace(hex)
	if hex == "" {
		return fallback
	}
	if !strings.HasPrefix(hex, "#") {
		hex = "#" + hex
	}
	return hex
}

func (s *MemoryStore) newPageLocked() Page {
	for {
		s.seq++
		id := PageID(fmt.Sprintf("page-%d", s.seq))
		if s.pageIndexLocked(id) < 0 {
			return Page{ID: id, Children: []Node{}}
		}
	}
}

func (s *MemoryStore) pageIndexLocked(id PageID) int {
	for i, p := range s.doc.Pages {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (s *MemoryStore) changed() {
	s.mu.RLock()
	pages := len(s.doc.Pages)
	s.mu.RUnlock()
	events.Publish(s.local, events.NewTopic[struct{}](ChangeEvent), struct{}{})
	events.Publish(s.bus, events.DocumentChangeTopic, events.DocumentChanged{Pages: pages})
}
