package domain

// EducationLevel is a top-level facet such as "tk", "sd" or "smp".
type EducationLevel struct {
	ID   string `json:"id" yaml:"id"`
	Slug string `json:"slug" yaml:"slug"`
	Name string `json:"name" yaml:"name"`
}

// LevelRef is the back-reference a grade keeps to its education level.
type LevelRef struct {
	Slug string `json:"slug" yaml:"slug"`
}

// Grade belongs to exactly one education level.
type Grade struct {
	ID             string   `json:"id" yaml:"id"`
	Name           string   `json:"name" yaml:"name"`
	EducationLevel LevelRef `json:"educationLevel" yaml:"educationLevel"`
}

// Subject applies to one or more levels, stored as upper-case slugs.
type Subject struct {
	ID               string   `json:"id" yaml:"id"`
	Name             string   `json:"name" yaml:"name"`
	ApplicableLevels []string `json:"applicableLevels" yaml:"applicableLevels"`
}

// Category groups elements, photos and assets.
type Category struct {
	Slug     string `json:"slug" yaml:"slug"`
	Name     string `json:"name" yaml:"name"`
	Resource string `json:"resource" yaml:"resource"`
}

// FacetOptionSet is fetched once per panel and narrowed client side.
type FacetOptionSet struct {
	Levels     []EducationLevel `json:"levels" yaml:"levels"`
	Grades     []Grade          `json:"grades" yaml:"grades"`
	Subjects   []Subject        `json:"subjects" yaml:"subjects"`
	Categories []Category       `json:"categories" yaml:"categories"`
}
