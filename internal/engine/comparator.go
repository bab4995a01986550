package engine

import (
	"cmp"
	"slices"

	"productview/catalog/internal/domain"
)

// Comparator returns a negative value if a sorts before b, a positive value if
// it sorts after, and zero when the two are equal.
type Comparator[T any] func(a, b T) int

// Reverse flips the order of cmp. Equal elements stay equal.
func Reverse[T any](c Comparator[T]) Comparator[T] {
	return func(a, b T) int {
		return c(b, a)
	}
}

// CompareBy orders elements by the natural order of the key extracted by keyFunc.
func CompareBy[T any, K cmp.Ordered](keyFunc func(T) K) Comparator[T] {
	return func(a, b T) int {
		return cmp.Compare(keyFunc(a), keyFunc(b))
	}
}

func productPrice(p domain.Product) float64 {
	return p.Price
}

// PriceOrder orders products by price in the given direction. Price is the
// only sort key; any direction other than descending sorts ascending.
func PriceOrder(dir domain.SortDirection) Comparator[domain.Product] {
	byPrice := CompareBy(productPrice)
	if dir == domain.SortDescending {
		return Reverse(byPrice)
	}
	return byPrice
}

// Sort returns a copy of products ordered by price. Products with equal price
// keep their relative input order in both directions.
func Sort(products []domain.Product, dir domain.SortDirection) []domain.Product {
	sorted := slices.Clone(products)
	slices.SortStableFunc(sorted, PriceOrder(dir))
	return sorted
}
