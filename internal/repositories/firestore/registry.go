// Package firestore implements the repositories on Cloud Firestore.
package firestore

import (
	"context"
	"errors"
	"strings"

	"cloud.google.com/go/firestore"

	"github.com/lembar-pintar/studio/internal/domain"
	pfirestore "github.com/lembar-pintar/studio/internal/platform/firestore"
	"github.com/lembar-pintar/studio/internal/platform/pagination"
	"github.com/lembar-pintar/studio/internal/repositories"
)

const (
	elementsCollection  = "elements"
	photosCollection    = "photos"
	templatesCollection = "templates"
	assetsCollection    = "assets"
	designsCollection   = "designs"
	configCollection    = "config"
	facetsDocID         = "facets"
)

// Registry wires every repository to one Firestore provider.
type Registry struct {
	provider  *pfirestore.Provider
	elements  *pfirestore.Collection[elementDocument]
	photos    *pfirestore.Collection[photoDocument]
	templates *pfirestore.Collection[templateDocument]
	assets    *pfirestore.Collection[assetDocument]
	designs   *pfirestore.Collection[designDocument]
	config    *pfirestore.Collection[facetDocument]
}

var _ repositories.Registry = (*Registry)(nil)

func New(provider *pfirestore.Provider) (*Registry, error) {
	if provider == nil {
		return nil, errors.New("firestore registry: provider is required")
	}
	return &Registry{
		provider:  provider,
		elements:  pfirestore.NewCollection[elementDocument](provider, elementsCollection),
		photos:    pfirestore.NewCollection[photoDocument](provider, photosCollection),
		templates: pfirestore.NewCollection[templateDocument](provider, templatesCollection),
		assets:    pfirestore.NewCollection[assetDocument](provider, assetsCollection),
		designs:   pfirestore.NewCollection[designDocument](provider, designsCollection),
		config:    pfirestore.NewCollection[facetDocument](provider, configCollection),
	}, nil
}

func (r *Registry) Elements() repositories.ElementRepository   { return elementRepo{r} }
func (r *Registry) Photos() repositories.PhotoRepository       { return photoRepo{r} }
func (r *Registry) Templates() repositories.TemplateRepository { return templateRepo{r} }
func (r *Registry) Assets() repositories.AssetRepository       { return assetRepo{r} }
func (r *Registry) Designs() repositories.DesignRepository     { return designRepo{r} }
func (r *Registry) Facets() repositories.FacetRepository       { return facetRepo{r} }

// RunInTx runs fn in one Firestore transaction. Repository calls made with
// the context passed to fn read through the transaction and their writes
// commit together once fn returns nil.
func (r *Registry) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.provider.RunTransaction(ctx, func(ctx context.Context, _ *firestore.Transaction) error {
		return fn(ctx)
	})
}

func (r *Registry) Ping(ctx context.Context) error { return r.provider.Ping(ctx) }

func (r *Registry) Close(context.Context) error { return r.provider.Close() }

// equalityFacets pushes the facet filters down as Where clauses. Search and
// ordering happen after the read.
func equalityFacets(params pagination.Params, fields map[string]string) func(firestore.Query) firestore.Query {
	return func(q firestore.Query) firestore.Query {
		for facet, value := range params.Facets {
			field, ok := fields[facet]
			if !ok || value == "" {
				continue
			}
			if facet == domain.FacetLevel {
				value = strings.ToLower(value)
			}
			q = q.Where(field, "==", value)
		}
		return q
	}
}

func decodeAll[D any, T any](docs []D, decode func(D) T) []T {
	out := make([]T, 0, len(docs))
	for _, d := range docs {
		out = append(out, decode(d))
	}
	return out
}

type elementRepo struct{ r *Registry }

func (e elementRepo) List(ctx context.Context, params pagination.Params) (domain.Page[domain.Element], error) {
	docs, err := e.r.elements.Query(ctx, equalityFacets(params, map[string]string{domain.FacetCategory: "category"}))
	if err != nil {
		return domain.Page[domain.Element]{}, err
	}
	items := decodeAll(docs, elementDocument.decode)
	return repositories.Paginate(items, params, repositories.ElementIndex), nil
}

func (e elementRepo) Get(ctx context.Context, id string) (domain.Element, error) {
	doc, err := e.r.elements.Get(ctx, id)
	if err != nil {
		return domain.Element{}, err
	}
	el := doc.decode()
	if el.ID == "" {
		el.ID = id
	}
	return el, nil
}

type photoRepo struct{ r *Registry }

func (p photoRepo) List(ctx context.Context, params pagination.Params) (domain.Page[domain.Photo], error) {
	docs, err := p.r.photos.Query(ctx, equalityFacets(params, map[string]string{domain.FacetCategory: "category"}))
	if err != nil {
		return domain.Page[domain.Photo]{}, err
	}
	return repositories.Paginate(decodeAll(docs, photoDocument.decode), params, repositories.PhotoIndex), nil
}

var templateFields = map[string]string{
	domain.FacetLevel:   "level",
	domain.FacetGrade:   "gradeId",
	domain.FacetSubject: "subjectId",
	domain.FacetStatus:  "status",
}

type templateRepo struct{ r *Registry }

func (t templateRepo) List(ctx context.Context, params pagination.Params) (domain.Page[domain.Template], error) {
	docs, err := t.r.templates.Query(ctx, equalityFacets(params, templateFields))
	if err != nil {
		return domain.Page[domain.Template]{}, err
	}
	return repositories.Paginate(decodeAll(docs, templateDocument.decode), params, repositories.TemplateIndex), nil
}

func (t templateRepo) Get(ctx context.Context, id string) (domain.Template, error) {
	doc, err := t.r.templates.Get(ctx, id)
	if err != nil {
		return domain.Template{}, err
	}
	tpl := doc.decode()
	tpl.ID = id
	return tpl, nil
}

func (t templateRepo) Insert(ctx context.Context, tpl domain.Template) error {
	return t.r.templates.Create(ctx, tpl.ID, encodeTemplate(tpl))
}

func (t templateRepo) Update(ctx context.Context, tpl domain.Template) error {
	return replaceExisting(ctx, t.r, t.r.templates, tpl.ID, encodeTemplate(tpl))
}

func (t templateRepo) Delete(ctx context.Context, id string) error {
	if _, err := t.r.templates.Get(ctx, id); err != nil {
		return err
	}
	return t.r.templates.Delete(ctx, id)
}

type assetRepo struct{ r *Registry }

func (a assetRepo) List(ctx context.Context, params pagination.Params) (domain.Page[domain.Asset], error) {
	docs, err := a.r.assets.Query(ctx, equalityFacets(params, map[string]string{
		domain.FacetCategory: "category",
		domain.FacetType:     "type",
	}))
	if err != nil {
		return domain.Page[domain.Asset]{}, err
	}
	return repositories.Paginate(decodeAll(docs, assetDocument.decode), params, repositories.AssetIndex), nil
}

func (a assetRepo) Get(ctx context.Context, id string) (domain.Asset, error) {
	doc, err := a.r.assets.Get(ctx, id)
	if err != nil {
		return domain.Asset{}, err
	}
	asset := doc.decode()
	asset.ID = id
	return asset, nil
}

func (a assetRepo) Insert(ctx context.Context, asset domain.Asset) error {
	return a.r.assets.Create(ctx, asset.ID, encodeAsset(asset))
}

func (a assetRepo) Update(ctx context.Context, asset domain.Asset) error {
	return replaceExisting(ctx, a.r, a.r.assets, asset.ID, encodeAsset(asset))
}

func (a assetRepo) Delete(ctx context.Context, id string) error {
	if _, err := a.r.assets.Get(ctx, id); err != nil {
		return err
	}
	return a.r.assets.Delete(ctx, id)
}

type designRepo struct{ r *Registry }

func (d designRepo) Get(ctx context.Context, id string) (domain.Design, error) {
	doc, err := d.r.designs.Get(ctx, id)
	if err != nil {
		return domain.Design{}, err
	}
	return decodeDesign(id, doc), nil
}

func (d designRepo) Insert(ctx context.Context, design domain.Design) error {
	return d.r.designs.Create(ctx, design.ID, encodeDesign(design))
}

func (d designRepo) Update(ctx context.Context, design domain.Design) error {
	return replaceExisting(ctx, d.r, d.r.designs, design.ID, encodeDesign(design))
}

type facetRepo struct{ r *Registry }

func (f facetRepo) Options(ctx context.Context) (domain.FacetOptionSet, error) {
	doc, err := f.r.config.Get(ctx, facetsDocID)
	if err != nil {
		return domain.FacetOptionSet{}, err
	}
	return doc.decode(), nil
}

// replaceExisting overwrites document id inside a transaction, failing with
// not found when it does not exist.
func replaceExisting[T any](ctx context.Context, r *Registry, coll *pfirestore.Collection[T], id string, value T) error {
	return r.provider.RunTransaction(ctx, func(ctx context.Context, _ *firestore.Transaction) error {
		if _, err := coll.Get(ctx, id); err != nil {
			return err
		}
		return coll.Set(ctx, id, value)
	})
}
