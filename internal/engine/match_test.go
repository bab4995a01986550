package engine

import (
	"testing"

	"productview/catalog/internal/criteria"
	"productview/catalog/internal/domain"
	"productview/catalog/internal/testutil"

	"github.com/stretchr/testify/assert"
)

func anyCriteria() domain.FilterCriteria {
	return criteria.QueryDefaults().Criteria()
}

func TestMatches(t *testing.T) {
	lamp := domain.Product{ID: 1, Name: "Desk Lamp", Category: "B", Price: 40, InStock: true}
	soldOut := domain.Product{ID: 2, Name: "Floor Lamp", Category: "B", Price: 120, InStock: false}

	tests := []struct {
		name    string
		product domain.Product
		mutate  func(c *domain.FilterCriteria)
		want    bool
	}{
		{name: "no constraints", product: lamp, mutate: func(c *domain.FilterCriteria) {}, want: true},
		{name: "keyword case insensitive", product: lamp, mutate: func(c *domain.FilterCriteria) { c.Keyword = "dESK" }, want: true},
		{name: "keyword substring", product: lamp, mutate: func(c *domain.FilterCriteria) { c.Keyword = "k La" }, want: true},
		{name: "keyword miss", product: lamp, mutate: func(c *domain.FilterCriteria) { c.Keyword = "chair" }, want: false},
		{name: "category exact", product: lamp, mutate: func(c *domain.FilterCriteria) { c.Category = "B" }, want: true},
		{name: "category is case sensitive", product: lamp, mutate: func(c *domain.FilterCriteria) { c.Category = "b" }, want: false},
		{name: "min bound inclusive", product: lamp, mutate: func(c *domain.FilterCriteria) { c.MinPrice = 40 }, want: true},
		{name: "below min", product: lamp, mutate: func(c *domain.FilterCriteria) { c.MinPrice = 40.01 }, want: false},
		{name: "max bound inclusive", product: lamp, mutate: func(c *domain.FilterCriteria) { c.MaxPrice = 40 }, want: true},
		{name: "above max", product: lamp, mutate: func(c *domain.FilterCriteria) { c.MaxPrice = 39.99 }, want: false},
		{name: "stock only keeps in stock", product: lamp, mutate: func(c *domain.FilterCriteria) { c.StockOnly = true }, want: true},
		{name: "stock only drops sold out", product: soldOut, mutate: func(c *domain.FilterCriteria) { c.StockOnly = true }, want: false},
		{name: "stock not required", product: soldOut, mutate: func(c *domain.FilterCriteria) {}, want: true},
		{name: "inverted bounds", product: lamp, mutate: func(c *domain.FilterCriteria) { c.MinPrice, c.MaxPrice = 100, 50 }, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := anyCriteria()
			tt.mutate(&c)
			assert.Equal(t, tt.want, Matches(tt.product, c))
		})
	}
}

func TestFilter_DoesNotModifyInput(t *testing.T) {
	products := testutil.Products45()
	before := testutil.IDs(products)

	c := anyCriteria()
	c.Category = "A"
	got := Filter(products, c)

	assert.Len(t, got, 15)
	assert.Equal(t, before, testutil.IDs(products))
}

func TestFilter_Idempotent(t *testing.T) {
	products := testutil.Products45()

	variants := []domain.FilterCriteria{anyCriteria()}
	for _, category := range []string{"A", "C", "Z"} {
		c := anyCriteria()
		c.Category = category
		c.StockOnly = true
		variants = append(variants, c)
	}
	keyword := anyCriteria()
	keyword.Keyword = "product 1"
	keyword.MinPrice, keyword.MaxPrice = 20, 70
	variants = append(variants, keyword)

	for _, c := range variants {
		once := Filter(products, c)
		twice := Filter(once, c)
		assert.Equal(t, testutil.IDs(once), testutil.IDs(twice), "criteria %+v", c)
	}
}

func TestFilter_InvertedBoundsMatchNothing(t *testing.T) {
	c := anyCriteria()
	c.MinPrice, c.MaxPrice = 100, 50

	assert.Empty(t, Filter(testutil.Products45(), c))
}
