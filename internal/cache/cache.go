// Package cache stores computed discrete pages keyed by normalized query.
package cache

import (
	"context"

	"productview/catalog/internal/domain"
)

// PageCache stores discrete page results. GetPage returns nil on a miss.
type PageCache interface {
	GetPage(ctx context.Context, key string) (*domain.PageResult, error)
	SetPage(ctx context.Context, key string, page domain.PageResult) error
}

// cachedPage is the stored form of a page. PageResult hides the page size
// from its JSON form, so it is kept alongside.
type cachedPage struct {
	domain.PageResult
	PageSize int `json:"pageSize"`
}

func wrap(page domain.PageResult) cachedPage {
	return cachedPage{PageResult: page, PageSize: page.PageSize}
}

func (c cachedPage) unwrap() *domain.PageResult {
	page := c.PageResult
	page.PageSize = c.PageSize
	if page.Items == nil {
		page.Items = []domain.Product{}
	}
	return &page
}
