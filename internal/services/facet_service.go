package services

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/lembar-pintar/studio/internal/domain"
	"github.com/lembar-pintar/studio/internal/repositories"
)

const (
	facetCacheKey   = "facets:v1"
	defaultFacetTTL = 10 * time.Minute
)

type FacetServiceDeps struct {
	Facets repositories.FacetRepository
	// Cache is optional.
	Cache  FacetCache
	TTL    time.Duration
	Logger *zap.Logger
}

type facetService struct {
	facets repositories.FacetRepository
	cache  FacetCache
	ttl    time.Duration
	logger *zap.Logger
}

func NewFacetService(deps FacetServiceDeps) (FacetService, error) {
	if deps.Facets == nil {
		return nil, errors.New("facet service: repository is required")
	}
	ttl := deps.TTL
	if ttl <= 0 {
		ttl = defaultFacetTTL
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &facetService{facets: deps.Facets, cache: deps.Cache, ttl: ttl, logger: logger.Named("facets")}, nil
}

// Options reads through the cache. Cache failures fall back to the
// repository.
func (s *facetService) Options(ctx context.Context) (domain.FacetOptionSet, error) {
	if s.cache != nil {
		var cached domain.FacetOptionSet
		hit, err := s.cache.Get(ctx, facetCacheKey, &cached)
		if err != nil {
			s.logger.Warn("facet cache read failed", zap.Error(err))
		} else if hit {
			return cached, nil
		}
	}

	set, err := s.facets.Options(ctx)
	if err != nil {
		return domain.FacetOptionSet{}, translateRepoError("facets.options", err)
	}
	if set.Levels == nil {
		set.Levels = []domain.EducationLevel{}
	}
	if set.Grades == nil {
		set.Grades = []domain.Grade{}
	}
	if set.Subjects == nil {
		set.Subjects = []domain.Subject{}
	}
	if set.Categories == nil {
		set.Categories = []domain.Category{}
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, facetCacheKey, set, s.ttl); err != nil {
			s.logger.Warn("facet cache write failed", zap.Error(err))
		}
	}
	return set, nil
}

func (s *facetService) Invalidate(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Delete(ctx, facetCacheKey)
}
