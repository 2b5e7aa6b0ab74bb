package domain

import (
	"encoding/json"
	"time"
)

// Element is a decorative shape, icon or illustration that can be dropped on the canvas.
type Element struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Kind       string    `json:"kind"`
	Category   string    `json:"category"`
	PreviewURL string    `json:"previewUrl"`
	SourceURL  string    `json:"sourceUrl"`
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	Tags       []string  `json:"tags,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (e Element) ListItem() Item {
	return Item{ID: e.ID, PreviewURL: e.PreviewURL, Title: e.Title, Dimensions: dims(e.Width, e.Height), Tags: e.Tags}
}

// Photo is a stock photograph.
type Photo struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	URL       string    `json:"url"`
	ThumbURL  string    `json:"thumbUrl"`
	Category  string    `json:"category"`
	Credit    string    `json:"credit,omitempty"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	Tags      []string  `json:"tags,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func (p Photo) ListItem() Item {
	preview := p.ThumbURL
	if preview == "" {
		preview = p.URL
	}
	return Item{ID: p.ID, PreviewURL: preview, Title: p.Name, Dimensions: dims(p.Width, p.Height), Tags: p.Tags}
}

// Template statuses.
const (
	TemplateDraft     = "draft"
	TemplatePublished = "published"
)

// Template is an educational design template classified by level, grade and subject.
type Template struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	PreviewURL  string          `json:"previewUrl"`
	Width       int             `json:"width"`
	Height      int             `json:"height"`
	Level       string          `json:"level,omitempty"`
	GradeID     string          `json:"gradeId,omitempty"`
	SubjectID   string          `json:"subjectId,omitempty"`
	Status      string          `json:"status"`
	Tags        []string        `json:"tags,omitempty"`
	Document    json.RawMessage `json:"-"`
	SourceID    string          `json:"sourceDesignId,omitempty"`
	CreatedBy   string          `json:"createdBy,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

func (t Template) ListItem() Item {
	return Item{ID: t.ID, PreviewURL: t.PreviewURL, Title: t.Title, Description: t.Description, Dimensions: dims(t.Width, t.Height), Tags: t.Tags}
}

// Asset types managed from the admin screens.
const (
	AssetImage = "image"
	AssetSVG   = "svg"
	AssetFont  = "font"
)

// Asset is an uploaded file managed by admins.
type Asset struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	Category    string    `json:"category"`
	URL         string    `json:"url"`
	ObjectPath  string    `json:"-"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	Width       int       `json:"width,omitempty"`
	Height      int       `json:"height,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	CreatedBy   string    `json:"createdBy,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (a Asset) ListItem() Item {
	return Item{ID: a.ID, PreviewURL: a.URL, Title: a.Name, Dimensions: dims(a.Width, a.Height), Tags: a.Tags}
}

func dims(w, h int) *Dimensions {
	if w <= 0 || h <= 0 {
		return nil
	}
	return &Dimensions{Width: w, Height: h}
}
