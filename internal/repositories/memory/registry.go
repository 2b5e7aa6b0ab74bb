// Package memory implements the repositories in process, seeded from YAML.
package memory

import (
	"context"
	"encoding/json"
	"maps"
	"sync"

	"github.com/lembar-pintar/studio/internal/domain"
	"github.com/lembar-pintar/studio/internal/platform/pagination"
	"github.com/lembar-pintar/studio/internal/repositories"
)

// Registry holds every collection behind one lock.
type Registry struct {
	tx        sync.Mutex
	mu        sync.RWMutex
	facets    domain.FacetOptionSet
	elements  []domain.Element
	photos    []domain.Photo
	templates map[string]domain.Template
	assets    map[string]domain.Asset
	designs   map[string]domain.Design
}

var _ repositories.Registry = (*Registry)(nil)

// New builds a registry from seed.
func New(seed Seed) (*Registry, error) {
	r := &Registry{
		facets: domain.FacetOptionSet{
			Levels:     seed.Levels,
			Grades:     seed.Grades,
			Subjects:   seed.Subjects,
			Categories: seed.Categories,
		},
		templates: make(map[string]domain.Template),
		assets:    make(map[string]domain.Asset),
		designs:   make(map[string]domain.Design),
	}
	for _, e := range seed.Elements {
		r.elements = append(r.elements, e.domain())
	}
	for _, p := range seed.Photos {
		r.photos = append(r.photos, p.domain())
	}
	for _, t := range seed.Templates {
		tpl, err := t.domain()
		if err != nil {
			return nil, err
		}
		r.templates[tpl.ID] = tpl
	}
	for _, a := range seed.Assets {
		asset := a.domain()
		r.assets[asset.ID] = asset
	}
	return r, nil
}

func (r *Registry) Elements() repositories.ElementRepository   { return elementRepo{r} }
func (r *Registry) Photos() repositories.PhotoRepository       { return photoRepo{r} }
func (r *Registry) Templates() repositories.TemplateRepository { return templateRepo{r} }
func (r *Registry) Assets() repositories.AssetRepository       { return assetRepo{r} }
func (r *Registry) Designs() repositories.DesignRepository     { return designRepo{r} }
func (r *Registry) Facets() repositories.FacetRepository       { return facetRepo{r} }

// RunInTx runs units of work one at a time and restores the templates,
// assets and designs written by fn when it fails.
func (r *Registry) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	r.tx.Lock()
	defer r.tx.Unlock()

	r.mu.RLock()
	templates, assets, designs := maps.Clone(r.templates), maps.Clone(r.assets), maps.Clone(r.designs)
	r.mu.RUnlock()

	if err := fn(ctx); err != nil {
		r.mu.Lock()
		r.templates, r.assets, r.designs = templates, assets, designs
		r.mu.Unlock()
		return err
	}
	return nil
}

func (r *Registry) Ping(context.Context) error  { return nil }
func (r *Registry) Close(context.Context) error { return nil }

type elementRepo struct{ r *Registry }

func (e elementRepo) List(_ context.Context, params pagination.Params) (domain.Page[domain.Element], error) {
	e.r.mu.RLock()
	defer e.r.mu.RUnlock()
	return repositories.Paginate(e.r.elements, params, repositories.ElementIndex), nil
}

func (e elementRepo) Get(_ context.Context, id string) (domain.Element, error) {
	e.r.mu.RLock()
	defer e.r.mu.RUnlock()
	for _, el := range e.r.elements {
		if el.ID == id {
			return el, nil
		}
	}
	return domain.Element{}, repositories.NewNotFound("elements.get")
}

type photoRepo struct{ r *Registry }

func (p photoRepo) List(_ context.Context, params pagination.Params) (domain.Page[domain.Photo], error) {
	p.r.mu.RLock()
	defer p.r.mu.RUnlock()
	return repositories.Paginate(p.r.photos, params, repositories.PhotoIndex), nil
}

type templateRepo struct{ r *Registry }

func (t templateRepo) List(_ context.Context, params pagination.Params) (domain.Page[domain.Template], error) {
	t.r.mu.RLock()
	defer t.r.mu.RUnlock()
	return repositories.Paginate(values(t.r.templates), params, repositories.TemplateIndex), nil
}

func (t templateRepo) Get(_ context.Context, id string) (domain.Template, error) {
	t.r.mu.RLock()
	defer t.r.mu.RUnlock()
	tpl, ok := t.r.templates[id]
	if !ok {
		return domain.Template{}, repositories.NewNotFound("templates.get")
	}
	tpl.Document = cloneRaw(tpl.Document)
	return tpl, nil
}

func (t templateRepo) Insert(_ context.Context, tpl domain.Template) error {
	t.r.mu.Lock()
	defer t.r.mu.Unlock()
	if _, ok := t.r.templates[tpl.ID]; ok {
		return repositories.NewConflict("templates.insert")
	}
	tpl.Document = cloneRaw(tpl.Document)
	t.r.templates[tpl.ID] = tpl
	return nil
}

func (t templateRepo) Update(_ context.Context, tpl domain.Template) error {
	t.r.mu.Lock()
	defer t.r.mu.Unlock()
	if _, ok := t.r.templates[tpl.ID]; !ok {
		return repositories.NewNotFound("templates.update")
	}
	tpl.Document = cloneRaw(tpl.Document)
	t.r.templates[tpl.ID] = tpl
	return nil
}

func (t templateRepo) Delete(_ context.Context, id string) error {
	t.r.mu.Lock()
	defer t.r.mu.Unlock()
	if _, ok := t.r.templates[id]; !ok {
		return repositories.NewNotFound("templates.delete")
	}
	delete(t.r.templates, id)
	return nil
}

type assetRepo struct{ r *Registry }

func (a assetRepo) List(_ context.Context, params pagination.Params) (domain.Page[domain.Asset], error) {
	a.r.mu.RLock()
	defer a.r.mu.RUnlock()
	return repositories.Paginate(values(a.r.assets), params, repositories.AssetIndex), nil
}

func (a assetRepo) Get(_ context.Context, id string) (domain.Asset, error) {
	a.r.mu.RLock()
	defer a.r.mu.RUnlock()
	asset, ok := a.r.assets[id]
	if !ok {
		return domain.Asset{}, repositories.NewNotFound("assets.get")
	}
	return asset, nil
}

func (a assetRepo) Insert(_ context.Context, asset domain.Asset) error {
	a.r.mu.Lock()
	defer a.r.mu.Unlock()
	if _, ok := a.r.assets[asset.ID]; ok {
		return repositories.NewConflict("assets.insert")
	}
	a.r.assets[asset.ID] = asset
	return nil
}

func (a assetRepo) Update(_ context.Context, asset domain.Asset) error {
	a.r.mu.Lock()
	defer a.r.mu.Unlock()
	if _, ok := a.r.assets[asset.ID]; !ok {
		return repositories.NewNotFound("assets.update")
	}
	a.r.assets[asset.ID] = asset
	return nil
}

func (a assetRepo) Delete(_ context.Context, id string) error {
	a.r.mu.Lock()
	defer a.r.mu.Unlock()
	if _, ok := a.r.assets[id]; !ok {
		return repositories.NewNotFound("assets.delete")
	}
	delete(a.r.assets, id)
	return nil
}

type designRepo struct{ r *Registry }

func (d designRepo) Get(_ context.Context, id string) (domain.Design, error) {
	d.r.mu.RLock()
	defer d.r.mu.RUnlock()
	design, ok := d.r.designs[id]
	if !ok {
		return domain.Design{}, repositories.NewNotFound("designs.get")
	}
	design.Document = cloneRaw(design.Document)
	return design, nil
}

func (d designRepo) Insert(_ context.Context, design domain.Design) error {
	d.r.mu.Lock()
	defer d.r.mu.Unlock()
	if _, ok := d.r.designs[design.ID]; ok {
		return repositories.NewConflict("designs.insert")
	}
	design.Document = cloneRaw(design.Document)
	d.r.designs[design.ID] = design
	return nil
}

func (d designRepo) Update(_ context.Context, design domain.Design) error {
	d.r.mu.Lock()
	defer d.r.mu.Unlock()
	if _, ok := d.r.designs[design.ID]; !ok {
		return repositories.NewNotFound("designs.update")
	}
	design.Document = cloneRaw(design.Document)
	d.r.designs[design.ID] = design
	return nil
}

type facetRepo struct{ r *Registry }

func (f facetRepo) Options(context.Context) (domain.FacetOptionSet, error) {
	f.r.mu.RLock()
	defer f.r.mu.RUnlock()
	set := f.r.facets
	set.Levels = append([]domain.EducationLevel(nil), set.Levels...)
	set.Grades = append([]domain.Grade(nil), set.Grades...)
	set.Subjects = append([]domain.Subject(nil), set.Subjects...)
	set.Categories = append([]domain.Category(nil), set.Categories...)
	return set, nil
}

func values[T any](m map[string]T) []T {
	out := make([]T, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	return out
}

func cloneRaw(raw json.RawMessage) json.RawMessage {
	if raw == nil {
		return nil
	}
	return append(json.RawMessage(nil), raw...)
}
