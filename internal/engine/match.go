package engine

import (
	"strings"

	"productview/catalog/internal/domain"
)

// Matches reports whether p satisfies every constraint in c. The five
// constraints are independent and conjunctive.
func Matches(p domain.Product, c domain.FilterCriteria) bool {
	if c.Keyword != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(c.Keyword)) {
		return false
	}
	if c.Category != "" && p.Category != c.Category {
		return false
	}
	if p.Price < c.MinPrice || p.Price > c.MaxPrice {
		return false
	}
	if c.StockOnly && !p.InStock {
		return false
	}
	return true
}

// Filter returns the products matching c in catalog order. The input
// slice is never modified.
func Filter(products []domain.Product, c domain.FilterCriteria) []domain.Product {
	result := make([]domain.Product, 0, len(products))
	for i := range products {
		if Matches(products[i], c) {
			result = append(result, products[i])
		}
	}
	return result
}
