// Package editor holds the design document model, the store capability the
// canvas engine exposes and the session that loads and saves designs.
package editor

import (
	"context"
	"encoding/json"
)

// PageID identifies a page inside a document.
type PageID string

// Element kinds understood by the raster export.
const (
	KindRect    = "rect"
	KindEllipse = "ellipse"
	KindLine    = "line"
	KindText    = "text"
	KindImage   = "image"
)

// Node is one positioned element on a page.
type Node struct {
	ID       string  `json:"id"`
	Type     string  `json:"type"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Fill     string  `json:"fill,omitempty"`
	Stroke   string  `json:"stroke,omitempty"`
	Radius   float64 `json:"cornerRadius,omitempty"`
	Text     string  `json:"text,omitempty"`
	Src      string  `json:"src,omitempty"`
	SourceID string  `json:"sourceId,omitempty"`
}

// Page is an ordered list of nodes.
type Page struct {
	ID         PageID `json:"id"`
	Background string `json:"background,omitempty"`
	Children   []Node `json:"children"`
}

// Document is the serialised design.
type Document struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Unit   string `json:"unit,omitempty"`
	Pages  []Page `json:"pages"`
}

// ExportOptions selects what ExportImage renders.
type ExportOptions struct {
	// PageIndex is zero based.
	PageIndex int
	// Scale multiplies the document size; zero means 1.
	Scale float64
}

// ChangeEvent is raised by a store after every mutation.
const ChangeEvent = "change"

// DesignDocumentStore is the capability set the editor needs from a canvas
// engine.
type DesignDocumentStore interface {
	Serialize() (json.RawMessage, error)
	Deserialize(doc json.RawMessage) error
	AddPage() PageID
	ExportImage(ctx context.Context, opts ExportOptions) ([]byte, error)
	Subscribe(event string, handler func()) (unsubscribe func())
}
