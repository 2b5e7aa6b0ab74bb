// Package repositories declares the persistence contracts the services
// depend on. Implementations live in the memory and firestore subpackages.
package repositories

import (
	"context"

	"github.com/lembar-pintar/studio/internal/domain"
	"github.com/lembar-pintar/studio/internal/platform/pagination"
)

// Registry exposes every repository plus lifecycle hooks.
type Registry interface {
	Elements() ElementRepository
	Photos() PhotoRepository
	Templates() TemplateRepository
	Assets() AssetRepository
	Designs() DesignRepository
	Facets() FacetRepository
	UnitOfWork
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// RepositoryError categorises persistence failures for the service layer.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// UnitOfWork groups writes. Implementations without transactions run fn directly.
type UnitOfWork interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type ElementRepository interface {
	List(ctx context.Context, params pagination.Params) (domain.Page[domain.Element], error)
	Get(ctx context.Context, id string) (domain.Element, error)
}

type PhotoRepository interface {
	List(ctx context.Context, params pagination.Params) (domain.Page[domain.Photo], error)
}

// TemplateRepository filters on level, grade, subject and status facets.
type TemplateRepository interface {
	List(ctx context.Context, params pagination.Params) (domain.Page[domain.Template], error)
	Get(ctx context.Context, id string) (domain.Template, error)
	Insert(ctx context.Context, tpl domain.Template) error
	Update(ctx context.Context, tpl domain.Template) error
	Delete(ctx context.Context, id string) error
}

// AssetRepository filters on category and type facets.
type AssetRepository interface {
	List(ctx context.Context, params pagination.Params) (domain.Page[domain.Asset], error)
	Get(ctx context.Context, id string) (domain.Asset, error)
	Insert(ctx context.Context, asset domain.Asset) error
	Update(ctx context.Context, asset domain.Asset) error
	Delete(ctx context.Context, id string) error
}

type DesignRepository interface {
	Get(ctx context.Context, id string) (domain.Design, error)
	Insert(ctx context.Context, design domain.Design) error
	Update(ctx context.Context, design domain.Design) error
}

type FacetRepository interface {
	Options(ctx context.Context) (domain.FacetOptionSet, error)
}
