// Package testutil provides shared test fixtures for catalog packages.
package testutil

import (
	"context"
	"fmt"
	"slices"

	"productview/catalog/internal/domain"
)

var otherCategories = []string{"B", "C", "D", "E"}

// Products45 returns the 45-product reference catalog: ids 1-10 are category
// "A" and in stock, ids 11-15 are category "A" and out of stock, the rest are
// spread over categories B-E with every third one out of stock. Prices repeat,
// so sorting always has ties to resolve.
func Products45() []domain.Product {
	products := make([]domain.Product, 0, 45)
	for i := 1; i <= 45; i++ {
		p := domain.Product{
			ID:    int64(i),
			Name:  fmt.Sprintf("Product %02d", i),
			Price: float64((i*7)%20+1) * 5,
		}
		switch {
		case i <= 10:
			p.Category, p.InStock = "A", true
		case i <= 15:
			p.Category, p.InStock = "A", false
		default:
			p.Category = otherCategories[i%len(otherCategories)]
			p.InStock = i%3 != 0
		}
		products = append(products, p)
	}
	return products
}

// InStock returns n in-stock products cycling through categories A-E.
func InStock(n int) []domain.Product {
	categories := append([]string{"A"}, otherCategories...)
	products := make([]domain.Product, 0, n)
	for i := 1; i <= n; i++ {
		products = append(products, domain.Product{
			ID:       int64(i),
			Name:     fmt.Sprintf("Item %03d", i),
			Price:    float64((i*13)%50 + 1),
			Category: categories[(i-1)%len(categories)],
			InStock:  true,
		})
	}
	return products
}

// IDs returns the ids of products in order.
func IDs(products []domain.Product) []int64 {
	ids := make([]int64, len(products))
	for i := range products {
		ids[i] = products[i].ID
	}
	return ids
}

// StaticSource serves a fixed catalog.
type StaticSource []domain.Product

// Products returns a copy of the catalog.
func (s StaticSource) Products(context.Context) ([]domain.Product, error) {
	return slices.Clone([]domain.Product(s)), nil
}

// FailingSource always fails with Err.
type FailingSource struct {
	Err error
}

// Products returns f.Err.
func (f FailingSource) Products(context.Context) ([]domain.Product, error) {
	return nil, f.Err
}
