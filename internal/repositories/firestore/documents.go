package firestore

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/lembar-pintar/studio/internal/domain"
)

type elementDocument struct {
	ID         string    `firestore:"id"`
	Title      string    `firestore:"title"`
	Kind       string    `firestore:"kind"`
	Category   string    `firestore:"category"`
	PreviewURL string    `firestore:"previewUrl"`
	SourceURL  string    `firestore:"sourceUrl"`
	Width      int       `firestore:"width"`
	Height     int       `firestore:"height"`
	Tags       []string  `firestore:"tags"`
	CreatedAt  time.Time `firestore:"createdAt"`
}

func (d elementDocument) decode() domain.Element {
	return domain.Element{
		ID: d.ID, Title: d.Title, Kind: d.Kind, Category: d.Category,
		PreviewURL: d.PreviewURL, SourceURL: d.SourceURL, Width: d.Width, Height: d.Height,
		Tags: d.Tags, CreatedAt: d.CreatedAt.UTC(),
	}
}

type photoDocument struct {
	ID        string    `firestore:"id"`
	Name      string    `firestore:"name"`
	URL       string    `firestore:"url"`
	ThumbURL  string    `firestore:"thumbUrl"`
	Category  string    `firestore:"category"`
	Credit    string    `firestore:"credit,omitempty"`
	Width     int       `firestore:"width"`
	Height    int       `firestore:"height"`
	Tags      []string  `firestore:"tags"`
	CreatedAt time.Time `firestore:"createdAt"`
}

func (d photoDocument) decode() domain.Photo {
	return domain.Photo{
		ID: d.ID, Name: d.Name, URL: d.URL, ThumbURL: d.ThumbURL, Category: d.Category,
		Credit: d.Credit, Width: d.Width, Height: d.Height, Tags: d.Tags, CreatedAt: d.CreatedAt.UTC(),
	}
}

// Canvas documents are stored as JSON text; Firestore maps cannot hold the
// arbitrary nesting depth the editor produces.
type templateDocument struct {
	ID          string    `firestore:"id"`
	Title       string    `firestore:"title"`
	Description string    `firestore:"description"`
	PreviewURL  string    `firestore:"previewUrl"`
	Width       int       `firestore:"width"`
	Height      int       `firestore:"height"`
	Level       string    `firestore:"level"`
	GradeID     string    `firestore:"gradeId"`
	SubjectID   string    `firestore:"subjectId"`
	Status      string    `firestore:"status"`
	Tags        []string  `firestore:"tags"`
	Document    string    `firestore:"document"`
	SourceID    string    `firestore:"sourceDesignId,omitempty"`
	CreatedBy   string    `firestore:"createdBy,omitempty"`
	CreatedAt   time.Time `firestore:"createdAt"`
	UpdatedAt   time.Time `firestore:"updatedAt"`
}

func encodeTemplate(t domain.Template) templateDocument {
	return templateDocument{
		ID: t.ID, Title: t.Title, Description: t.Description, PreviewURL: t.PreviewURL,
		Width: t.Width, Height: t.Height, Level: strings.ToLower(t.Level), GradeID: t.GradeID,
		SubjectID: t.SubjectID, Status: t.Status, Tags: t.Tags, Document: string(t.Document),
		SourceID: t.SourceID, CreatedBy: t.CreatedBy, CreatedAt: t.CreatedAt.UTC(), UpdatedAt: t.UpdatedAt.UTC(),
	}
}

func (d templateDocument) decode() domain.Template {
	return domain.Template{
		ID: d.ID, Title: d.Title, Description: d.Description, PreviewURL: d.PreviewURL,
		Width: d.Width, Height: d.Height, Level: d.Level, GradeID: d.GradeID, SubjectID: d.SubjectID,
		Status: d.Status, Tags: d.Tags, Document: rawOrNil(d.Document), SourceID: d.SourceID,
		CreatedBy: d.CreatedBy, CreatedAt: d.CreatedAt.UTC(), UpdatedAt: d.UpdatedAt.UTC(),
	}
}

type assetDocument struct {
	ID          string    `firestore:"id"`
	Name        string    `firestore:"name"`
	Type        string    `firestore:"type"`
	Category    string    `firestore:"category"`
	URL         string    `firestore:"url"`
	ObjectPath  string    `firestore:"objectPath"`
	ContentType string    `firestore:"contentType"`
	Size        int64     `firestore:"sizeBytes"`
	Width       int       `firestore:"width,omitempty"`
	Height      int       `firestore:"height,omitempty"`
	Tags        []string  `firestore:"tags"`
	CreatedBy   string    `firestore:"createdBy,omitempty"`
	CreatedAt   time.Time `firestore:"createdAt"`
	UpdatedAt   time.Time `firestore:"updatedAt"`
}

func encodeAsset(a domain.Asset) assetDocument {
	return assetDocument{
		ID: a.ID, Name: a.Name, Type: a.Type, Category: a.Category, URL: a.URL, ObjectPath: a.ObjectPath,
		ContentType: a.ContentType, Size: a.Size, Width: a.Width, Height: a.Height, Tags: a.Tags,
		CreatedBy: a.CreatedBy, CreatedAt: a.CreatedAt.UTC(), UpdatedAt: a.UpdatedAt.UTC(),
	}
}

func (d assetDocument) decode() domain.Asset {
	return domain.Asset{
		ID: d.ID, Name: d.Name, Type: d.Type, Category: d.Category, URL: d.URL, ObjectPath: d.ObjectPath,
		ContentType: d.ContentType, Size: d.Size, Width: d.Width, Height: d.Height, Tags: d.Tags,
		CreatedBy: d.CreatedBy, CreatedAt: d.CreatedAt.UTC(), UpdatedAt: d.UpdatedAt.UTC(),
	}
}

type designDocument struct {
	OwnerUID    string     `firestore:"ownerUid"`
	Title       string     `firestore:"title"`
	Document    string     `firestore:"document"`
	PreviewURL  string     `firestore:"previewUrl"`
	Status      string     `firestore:"status"`
	TemplateID  string     `firestore:"templateId,omitempty"`
	CreatedAt   time.Time  `firestore:"createdAt"`
	UpdatedAt   time.Time  `firestore:"updatedAt"`
	PublishedAt *time.Time `firestore:"publishedAt,omitempty"`
}

func encodeDesign(d domain.Design) designDocument {
	return designDocument{
		OwnerUID: d.OwnerID, Title: d.Title, Document: string(d.Document), PreviewURL: d.PreviewURL,
		Status: d.Status, TemplateID: d.TemplateID, CreatedAt: d.CreatedAt.UTC(), UpdatedAt: d.UpdatedAt.UTC(),
		PublishedAt: d.PublishedAt,
	}
}

func decodeDesign(id string, d designDocument) domain.Design {
	return domain.Design{
		ID: id, OwnerID: d.OwnerUID, Title: d.Title, Document: rawOrNil(d.Document), PreviewURL: d.PreviewURL,
		Status: d.Status, TemplateID: d.TemplateID, CreatedAt: d.CreatedAt.UTC(), UpdatedAt: d.UpdatedAt.UTC(),
		PublishedAt: d.PublishedAt,
	}
}

type facetDocument struct {
	Levels     []levelDocument    `firestore:"levels"`
	Grades     []gradeDocument    `firestore:"grades"`
	Subjects   []subjectDocument  `firestore:"subjects"`
	Categories []categoryDocument `firestore:"categories"`
}

type levelDocument struct {
	ID   string `firestore:"id"`
	Slug string `firestore:"slug"`
	Name string `firestore:"name"`
}

type gradeDocument struct {
	ID    string `firestore:"id"`
	Name  string `firestore:"name"`
	Level string `firestore:"educationLevel"`
}

type subjectDocument struct {
	ID     string   `firestore:"id"`
	Name   string   `firestore:"name"`
	Levels []string `firestore:"applicableLevels"`
}

type categoryDocument struct {
	Slug     string `firestore:"slug"`
	Name     string `firestore:"name"`
	Resource string `firestore:"resource"`
}

func (d facetDocument) decode() domain.FacetOptionSet {
	var set domain.FacetOptionSet
	for _, l := range d.Levels {
		set.Levels = append(set.Levels, domain.EducationLevel{ID: l.ID, Slug: l.Slug, Name: l.Name})
	}
	for _, g := range d.Grades {
		set.Grades = append(set.Grades, domain.Grade{ID: g.ID, Name: g.Name, EducationLevel: domain.LevelRef{Slug: g.Level}})
	}
	for _, s := range d.Subjects {
		set.Subjects = append(set.Subjects, domain.Subject{ID: s.ID, Name: s.Name, ApplicableLevels: s.Levels})
	}
	for _, c := range d.Categories {
		set.Categories = append(set.Categories, domain.Category{Slug: c.Slug, Name: c.Name, Resource: c.Resource})
	}
	return set
}

func rawOrNil(s string) json.RawMessage {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return json.RawMessage(s)
}
