// Package engine implements the filter, sort and pagination core shared by the
// discrete query service and the incremental window controller. Both modes go
// through Engine.Matching, so they always agree on which products match.
package engine

import (
	"context"

	"productview/catalog/internal/domain"
)

// Source supplies the read-only catalog.
type Source interface {
	Products(ctx context.Context) ([]domain.Product, error)
}

// Engine evaluates criteria against a catalog source.
type Engine struct {
	source Source
}

// New creates an engine backed by source.
func New(source Source) *Engine {
	return &Engine{source: source}
}

// Matching returns the products that satisfy c, ordered by c.Sort.
func (e *Engine) Matching(ctx context.Context, c domain.FilterCriteria) ([]domain.Product, error) {
	products, err := e.source.Products(ctx)
	if err != nil {
		return nil, err
	}
	return Sort(Filter(products, c), c.Sort), nil
}

// Page returns one discrete page of the products matching c.
func (e *Engine) Page(ctx context.Context, c domain.FilterCriteria, spec domain.PageSpec) (domain.PageResult, error) {
	matching, err := e.Matching(ctx, c)
	if err != nil {
		return domain.PageResult{}, err
	}
	return Paginate(matching, spec), nil
}

// Window returns the first size products matching c.
func (e *Engine) Window(ctx context.Context, c domain.FilterCriteria, size int) (domain.WindowResult, error) {
	matching, err := e.Matching(ctx, c)
	if err != nil {
		return domain.WindowResult{}, err
	}
	return Prefix(matching, size), nil
}

// Categories lists the distinct categories in first-seen catalog order.
func (e *Engine) Categories(ctx context.Context) ([]string, error) {
	products, err := e.source.Products(ctx)
	if err != nil {
		return nil, err
	}
	return Categories(products), nil
}

// Categories lists the distinct categories of products in first-seen order.
func Categories(products []domain.Product) []string {
	seen := make(map[string]struct{})
	categories := make([]string, 0)
	for i := range products {
		if _, ok := seen[products[i].Category]; ok {
			continue
		}
		seen[products[i].Category] = struct{}{}
		categories = append(categories, products[i].Category)
	}
	return categories
}
