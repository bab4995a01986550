package client

import (
	"context"
	"fmt"
	"sync"

	"productview/catalog/internal/criteria"
	"productview/catalog/internal/domain"

	log "github.com/sirupsen/logrus"
)

// PageFetcher fetches one discrete page. CatalogClient satisfies it.
type PageFetcher interface {
	Page(ctx context.Context, c domain.FilterCriteria, spec domain.PageSpec) (domain.PageResult, error)
}

// PagedWindowSource serves incremental windows from a paged upstream. Pages are
// fetched in order and accumulated until the window is covered; a change of
// criteria discards everything fetched so far.
type PagedWindowSource struct {
	fetcher  PageFetcher
	pageSize int

	mu      sync.Mutex
	key     string
	items   []domain.Product
	fetched int
	total   int
}

// NewPagedWindowSource creates a window source that requests pages of pageSize.
func NewPagedWindowSource(fetcher PageFetcher, pageSize int) *PagedWindowSource {
	return &PagedWindowSource{
		fetcher:  fetcher,
		pageSize: max(pageSize, 1),
	}
}

// Window returns the first size products matching c.
func (s *PagedWindowSource) Window(ctx context.Context, c domain.FilterCriteria, size int) (domain.WindowResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := criteria.Key(c, domain.PageSpec{Size: s.pageSize})
	if key != s.key {
		s.key = key
		s.items = nil
		s.fetched = 0
		s.total = -1
	}

	for len(s.items) < size && (s.total < 0 || len(s.items) < s.total) {
		spec := domain.PageSpec{Index: s.fetched + 1, Size: s.pageSize}
		page, err := s.fetcher.Page(ctx, c, spec)
		if err != nil {
			return domain.WindowResult{}, fmt.Errorf("failed to extend window: %w", err)
		}

		s.fetched++
		s.total = page.ProductCount
		s.items = append(s.items, page.Items...)

		if len(page.Items) == 0 || s.fetched >= page.PageCount {
			if len(s.items) < s.total {
				log.Warnf("Upstream reported %d products but served %d", s.total, len(s.items))
				s.total = len(s.items)
			}
			break
		}
	}

	total := max(s.total, 0)
	size = min(max(size, 0), len(s.items))

	return domain.WindowResult{
		Items:      append([]domain.Product{}, s.items[:size]...),
		Total:      total,
		WindowSize: size,
		HasMore:    size < total,
	}, nil
}
