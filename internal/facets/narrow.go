// Package facets narrows dependent filter options (grades and subjects by
// education level) and exposes the matching controller rules.
package facets

import (
	"strings"

	"github.com/lembar-pintar/studio/internal/domain"
	"github.com/lembar-pintar/studio/internal/listing"
)

// Narrowed holds the options still selectable under a level.
type Narrowed struct {
	Level    string
	Grades   []domain.Grade
	Subjects []domain.Subject
}

// Narrow filters grades and subjects to those applicable to level. An empty
// level returns every option.
func Narrow(set domain.FacetOptionSet, level string) Narrowed {
	level = strings.TrimSpace(level)
	out := Narrowed{Level: level}
	if level == "" {
		out.Grades = append([]domain.Grade(nil), set.Grades...)
		out.Subjects = append([]domain.Subject(nil), set.Subjects...)
		return out
	}
	for _, g := range set.Grades {
		if gradeMatches(g, level) {
			out.Grades = append(out.Grades, g)
		}
	}
	for _, s := range set.Subjects {
		if subjectMatches(s, level) {
			out.Subjects = append(out.Subjects, s)
		}
	}
	return out
}

// GradeValid reports whether gradeID may stay selected under level.
func GradeValid(set domain.FacetOptionSet, level, gradeID string) bool {
	for _, g := range set.Grades {
		if g.ID == gradeID {
			return strings.TrimSpace(level) == "" || gradeMatches(g, level)
		}
	}
	return false
}

// SubjectValid reports whether subjectID may stay selected under level.
func SubjectValid(set domain.FacetOptionSet, level, subjectID string) bool {
	for _, s := range set.Subjects {
		if s.ID == subjectID {
			return strings.TrimSpace(level) == "" || subjectMatches(s, level)
		}
	}
	return false
}

// DependentRules wires level -> grade and level -> subject for a controller.
func DependentRules(set domain.FacetOptionSet) []listing.DependentFacet {
	return []listing.DependentFacet{
		{
			Parent: domain.FacetLevel,
			Child:  domain.FacetGrade,
			Valid: func(level, grade string) bool {
				return GradeValid(set, level, grade)
			},
		},
		{
			Parent: domain.FacetLevel,
			Child:  domain.FacetSubject,
			Valid: func(level, subject string) bool {
				return SubjectValid(set, level, subject)
			},
		},
	}
}

func gradeMatches(g domain.Grade, level string) bool {
	return g.EducationLevel.Slug == strings.TrimSpace(level)
}

// Subjects store applicable levels upper-cased.
func subjectMatches(s domain.Subject, level string) bool {
	want := strings.ToUpper(strings.TrimSpace(level))
	for _, l := range s.ApplicableLevels {
		if l == want {
			return true
		}
	}
	return false
}
