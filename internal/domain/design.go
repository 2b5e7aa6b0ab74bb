package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"time"
)

// Design statuses.
const (
	DesignDraft     = "draft"
	DesignPublished = "published"
)

// Design is a user's saved canvas project.
type Design struct {
	ID          string
	OwnerID     string
	Title       string
	Document    json.RawMessage
	PreviewURL  string
	Status      string
	TemplateID  string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	PublishedAt *time.Time
}

// ErrInvalidDocument reports a design document that is not a JSON object.
var ErrInvalidDocument = errors.New("domain: design document must be a JSON object")

const blankPage = `{"id":"page-1","children":[]}`

// NormalizeDocument guarantees a document has a non-empty "pages" array.
// A missing or empty array is replaced with one blank page and repaired is
// true. Other keys are preserved.
func NormalizeDocument(doc json.RawMessage) (out json.RawMessage, repaired bool, err error) {
	trimmed := bytes.TrimSpace(doc)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		trimmed = []byte("{}")
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil || fields == nil {
		return nil, false, ErrInvalidDocument
	}
	var pages []json.RawMessage
	if raw, ok := fields["pages"]; ok {
		if err := json.Unmarshal(raw, &pages); err != nil {
			pages = nil
		}
	}
	if len(pages) > 0 {
		return json.RawMessage(trimmed), false, nil
	}
	fields["pages"] = json.RawMessage("[" + blankPage + "]")
	normalized, err := json.Marshal(fields)
	if err != nil {
		return nil, false, err
	}
	return normalized, true, nil
}

// PageCount returns the length of the document's pages array.
func PageCount(doc json.RawMessage) int {
	var shape struct {
		Pages []json.RawMessage `json:"pages"`
	}
	if err := json.Unmarshal(doc, &shape); err != nil {
		return 0
	}
	return len(shape.Pages)
}
