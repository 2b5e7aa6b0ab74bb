// Package render draws listing state as HTML fragments for the browse
// surface.
package render

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/a-h/templ"

	"github.com/lembar-pintar/studio/internal/domain"
	"github.com/lembar-pintar/studio/internal/facets"
	"github.com/lembar-pintar/studio/internal/listing"
)

// GridView is everything a browse grid needs.
type GridView struct {
	Resource string
	Title    string
	BasePath string
	State    listing.State[domain.Item]
	// Facets is nil for resources without education facets.
	Facets *FacetView
}

// FacetView drives the filter selects.
type FacetView struct {
	Levels   []domain.EducationLevel
	Narrowed facets.Narrowed
	Selected map[string]string
}

// Page wraps body in a minimal HTML document.
func Page(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<!DOCTYPE html><html lang="id"><head><meta charset="utf-8"><title>%s</title>`+
			`<script src="https://unpkg.com/htmx.org@1.9.12"></script></head><body>`, templ.EscapeString(title)); err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</body></html>`)
		return err
	})
}

// Grid renders the search box, filters, cards and paging controls.
func Grid(v GridView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		s := v.State
		if _, err := fmt.Fprintf(w, `<section data-browse-grid data-resource="%s"><h1>%s</h1>`,
			templ.EscapeString(v.Resource), templ.EscapeString(v.Title)); err != nil {
			return err
		}
		if err := searchForm(v).Render(ctx, w); err != nil {
			return err
		}
		if _, err := io.WriteString(w, `<ul data-grid-items>`); err != nil {
			return err
		}
		for _, item := range s.Items {
			if err := Card(item).Render(ctx, w); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, `</ul>`); err != nil {
			return err
		}

		switch {
		case s.Loading:
			if _, err := io.WriteString(w, `<p data-loading aria-live="polite">Memuat…</p>`); err != nil {
				return err
			}
		case s.Err != nil:
			if _, err := io.WriteString(w, `<p data-error role="alert">Gagal memuat data. Coba lagi.</p>`); err != nil {
				return err
			}
		case s.Empty() && s.Searching():
			if _, err := fmt.Fprintf(w, `<p data-empty>Tidak ada hasil untuk &#34;%s&#34;.</p>`, templ.EscapeString(s.Query.SearchText)); err != nil {
				return err
			}
		case s.Empty():
			if _, err := io.WriteString(w, `<p data-empty>Belum ada item.</p>`); err != nil {
				return err
			}
		}

		if s.HasMore && !s.Loading {
			if err := LoadMore(NextURL(v.BasePath, s)).Render(ctx, w); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</section>`)
		return err
	})
}

// Card renders one item.
func Card(item domain.Item) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		title := PlainText(item.Title)
		if _, err := fmt.Fprintf(w, `<li data-item-id="%s" class="card">`, templ.EscapeString(item.ID)); err != nil {
			return err
		}
		if item.PreviewURL != "" {
			if _, err := fmt.Fprintf(w, `<img src="%s" alt="%s" loading="lazy">`,
				templ.EscapeString(string(templ.URL(item.PreviewURL))), templ.EscapeString(title)); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, `<span class="card-title">%s</span>`, templ.EscapeString(title)); err != nil {
			return err
		}
		if item.Dimensions != nil {
			if _, err := fmt.Fprintf(w, `<span class="card-size">%d × %d</span>`, item.Dimensions.Width, item.Dimensions.Height); err != nil {
				return err
			}
		}
		if desc := Markdown(item.Description); desc != "" {
			if _, err := fmt.Fprintf(w, `<div class="card-description">%s</div>`, desc); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</li>`)
		return err
	})
}

// LoadMore renders the link that appends the next page.
func LoadMore(href string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<a data-load-more href="%[1]s" hx-get="%[1]s" hx-select="[data-grid-items] > li" hx-target="[data-grid-items]" hx-swap="beforeend">Muat lebih banyak</a>`,
			templ.EscapeString(href))
		return err
	})
}

// NextURL links to the page after the one in s, keeping the query.
func NextURL(base string, s listing.State[domain.Item]) string {
	v := url.Values{}
	if s.Query.SearchText != "" {
		v.Set("search", s.Query.SearchText)
	}
	for name, value := range s.Query.Facets {
		if value != "" {
			v.Set(name, value)
		}
	}
	if s.Query.PageSize > 0 {
		v.Set("limit", strconv.Itoa(s.Query.PageSize))
	}
	v.Set("page", strconv.Itoa(s.CurrentPage+1))
	return base + "?" + v.Encode()
}

func searchForm(v GridView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<form data-search method="get" action="%s">`+
			`<input type="search" name="search" value="%s" hx-get="%s" hx-trigger="keyup changed delay:300ms" hx-target="closest section" hx-swap="outerHTML">`,
			templ.EscapeString(v.BasePath), templ.EscapeString(v.State.Query.SearchText), templ.EscapeString(v.BasePath)); err != nil {
			return err
		}
		if v.Facets != nil {
			if err := facetSelects(*v.Facets).Render(ctx, w); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</form>`)
		return err
	})
}

type option struct {
	value string
	label string
}

func facetSelects(f FacetView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		levels := make([]option, 0, len(f.Levels))
		for _, l := range f.Levels {
			levels = append(levels, option{l.Slug, l.Name})
		}
		grades := make([]option, 0, len(f.Narrowed.Grades))
		for _, g := range f.Narrowed.Grades {
			grades = append(grades, option{g.ID, g.Name})
		}
		subjects := make([]option, 0, len(f.Narrowed.Subjects))
		for _, s := range f.Narrowed.Subjects {
			subjects = append(subjects, option{s.ID, s.Name})
		}
		for _, sel := range []struct {
			name string
			opts []option
		}{
			{domain.FacetLevel, levels},
			{domain.FacetGrade, grades},
			{domain.FacetSubject, subjects},
		} {
			if err := selectBox(w, sel.name, sel.opts, f.Selected[sel.name]); err != nil {
				return err
			}
		}
		return nil
	})
}

func selectBox(w io.Writer, name string, opts []option, selected string) error {
	var b strings.Builder
	fmt.Fprintf(&b, `<select name="%s" data-facet="%s"><option value="">Semua</option>`, name, name)
	for _, o := range opts {
		attr := ""
		if o.value == selected {
			attr = " selected"
		}
		fmt.Fprintf(&b, `<option value="%s"%s>%s</option>`, templ.EscapeString(o.value), attr, templ.EscapeString(o.label))
	}
	b.WriteString(`</select>`)
	_, err := io.WriteString(w, b.String())
	return err
}
