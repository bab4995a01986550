package service

import (
	"context"
	"fmt"

	"productview/catalog/internal/cache"
	"productview/catalog/internal/criteria"
	"productview/catalog/internal/domain"
	"productview/catalog/internal/engine"

	log "github.com/sirupsen/logrus"
)

// Catalog is the read-only product source the service queries.
type Catalog interface {
	engine.Source
	Fingerprint(ctx context.Context) (string, error)
}

// Service answers discrete catalog queries: normalize, filter, sort, paginate.
type Service struct {
	catalog  Catalog
	engine   *engine.Engine
	cache    cache.PageCache
	defaults criteria.Defaults
}

// NewService creates the query service. pageCache may be nil.
func NewService(catalog Catalog, pageCache cache.PageCache, defaults criteria.Defaults) *Service {
	return &Service{
		catalog:  catalog,
		engine:   engine.New(catalog),
		cache:    pageCache,
		defaults: defaults,
	}
}

// Defaults returns the normalizer defaults used by Query.
func (s *Service) Defaults() criteria.Defaults {
	return s.defaults
}

// Query normalizes raw and returns the requested page. An empty match is a
// regular result; only an unreadable catalog is an error.
func (s *Service) Query(ctx context.Context, raw criteria.Raw) (domain.PageResult, error) {
	c, spec := criteria.Normalize(raw, s.defaults)
	return s.Page(ctx, c, spec)
}

// Page returns one page for already normalized criteria.
func (s *Service) Page(ctx context.Context, c domain.FilterCriteria, spec domain.PageSpec) (domain.PageResult, error) {
	fingerprint, err := s.catalog.Fingerprint(ctx)
	if err != nil {
		return domain.PageResult{}, fmt.Errorf("failed to query catalog: %w", err)
	}
	key := fingerprint[:min(16, len(fingerprint))] + ":" + criteria.Key(c, spec)

	if s.cache != nil {
		cached, err := s.cache.GetPage(ctx, key)
		if err != nil {
			log.Warnf("⚠️ Page cache read failed, computing page: %v", err)
		} else if cached != nil {
			log.Debugf("Page cache hit for %s", key)
			return *cached, nil
		}
	}

	page, err := s.engine.Page(ctx, c, spec)
	if err != nil {
		return domain.PageResult{}, fmt.Errorf("failed to query catalog: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.SetPage(ctx, key, page); err != nil {
			log.Warnf("⚠️ Failed to cache page: %v", err)
		}
	}

	log.WithFields(log.Fields{
		"page":     page.PageNow,
		"pages":    page.PageCount,
		"products": page.ProductCount,
	}).Debug("Query answered")

	return page, nil
}

// Window returns the incremental window of size products for c.
func (s *Service) Window(ctx context.Context, c domain.FilterCriteria, size int) (domain.WindowResult, error) {
	w, err := s.engine.Window(ctx, c, size)
	if err != nil {
		return domain.WindowResult{}, fmt.Errorf("failed to query catalog: %w", err)
	}
	return w, nil
}

// Products returns the full catalog in source order.
func (s *Service) Products(ctx context.Context) ([]domain.Product, error) {
	products, err := s.catalog.Products(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return products, nil
}

// Categories returns the distinct categories in first-seen order.
func (s *Service) Categories(ctx context.Context) ([]string, error) {
	categories, err := s.engine.Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return categories, nil
}
