package memory

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lembar-pintar/studio/internal/domain"
)

// Seed is the YAML fixture layout.
type Seed struct {
	Levels     []domain.EducationLevel `yaml:"levels"`
	Grades     []domain.Grade          `yaml:"grades"`
	Subjects   []domain.Subject        `yaml:"subjects"`
	Categories []domain.Category       `yaml:"categories"`
	Elements   []seedElement           `yaml:"elements"`
	Photos     []seedPhoto             `yaml:"photos"`
	Templates  []seedTemplate          `yaml:"templates"`
	Assets     []seedAsset             `yaml:"assets"`
}

type seedElement struct {
	ID        string    `yaml:"id"`
	Title     string    `yaml:"title"`
	Kind      string    `yaml:"kind"`
	Category  string    `yaml:"category"`
	Preview   string    `yaml:"preview"`
	Source    string    `yaml:"source"`
	Width     int       `yaml:"width"`
	Height    int       `yaml:"height"`
	Tags      []string  `yaml:"tags"`
	CreatedAt time.Time `yaml:"createdAt"`
}

type seedPhoto struct {
	ID        string    `yaml:"id"`
	Name      string    `yaml:"name"`
	URL       string    `yaml:"url"`
	Thumb     string    `yaml:"thumb"`
	Category  string    `yaml:"category"`
	Credit    string    `yaml:"credit"`
	Width     int       `yaml:"width"`
	Height    int       `yaml:"height"`
	Tags      []string  `yaml:"tags"`
	CreatedAt time.Time `yaml:"createdAt"`
}

type seedTemplate struct {
	ID          string         `yaml:"id"`
	Title       string         `yaml:"title"`
	Description string         `yaml:"description"`
	Preview     string         `yaml:"preview"`
	Width       int            `yaml:"width"`
	Height      int            `yaml:"height"`
	Level       string         `yaml:"level"`
	Grade       string         `yaml:"grade"`
	Subject     string         `yaml:"subject"`
	Status      string         `yaml:"status"`
	Tags        []string       `yaml:"tags"`
	Document    map[string]any `yaml:"document"`
	CreatedAt   time.Time      `yaml:"createdAt"`
}

type seedAsset struct {
	ID          string    `yaml:"id"`
	Name        string    `yaml:"name"`
	Type        string    `yaml:"type"`
	Category    string    `yaml:"category"`
	URL         string    `yaml:"url"`
	ContentType string    `yaml:"contentType"`
	Size        int64     `yaml:"size"`
	Tags        []string  `yaml:"tags"`
	CreatedAt   time.Time `yaml:"createdAt"`
}

// LoadSeedFile parses a YAML fixture from disk.
func LoadSeedFile(path string) (Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Seed{}, fmt.Errorf("memory: read seed: %w", err)
	}
	return ParseSeed(data)
}

// ParseSeed parses a YAML fixture.
func ParseSeed(data []byte) (Seed, error) {
	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return Seed{}, fmt.Errorf("memory: parse seed: %w", err)
	}
	return seed, nil
}

func (s seedElement) domain() domain.Element {
	return domain.Element{
		ID: s.ID, Title: s.Title, Kind: s.Kind, Category: s.Category,
		PreviewURL: s.Preview, SourceURL: s.Source, Width: s.Width, Height: s.Height,
		Tags: s.Tags, CreatedAt: s.CreatedAt,
	}
}

func (s seedPhoto) domain() domain.Photo {
	return domain.Photo{
		ID: s.ID, Name: s.Name, URL: s.URL, ThumbURL: s.Thumb, Category: s.Category,
		Credit: s.Credit, Width: s.Width, Height: s.Height, Tags: s.Tags, CreatedAt: s.CreatedAt,
	}
}

func (s seedTemplate) domain() (domain.Template, error) {
	var doc json.RawMessage
	if s.Document != nil {
		raw, err := json.Marshal(s.Document)
		if err != nil {
			return domain.Template{}, fmt.Errorf("memory: template %s document: %w", s.ID, err)
		}
		doc = raw
	}
	status := s.Status
	if status == "" {
		status = domain.TemplatePublished
	}
	return domain.Template{
		ID: s.ID, Title: s.Title, Description: s.Description, PreviewURL: s.Preview,
		Width: s.Width, Height: s.Height, Level: s.Level, GradeID: s.Grade, SubjectID: s.Subject,
		Status: status, Tags: s.Tags, Document: doc, CreatedAt: s.CreatedAt, UpdatedAt: s.CreatedAt,
	}, nil
}

func (s seedAsset) domain() domain.Asset {
	return domain.Asset{
		ID: s.ID, Name: s.Name, Type: s.Type, Category: s.Category, URL: s.URL,
		ContentType: s.ContentType, Size: s.Size, Tags: s.Tags, CreatedAt: s.CreatedAt, UpdatedAt: s.CreatedAt,
	}
}
