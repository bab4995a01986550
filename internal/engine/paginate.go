package engine

import "productview/catalog/internal/domain"

// PageCount is ceil(total / size), never less than one.
func PageCount(total, size int) int {
	if size < 1 {
		size = 1
	}
	if total <= 0 {
		return 1
	}
	return (total + size - 1) / size
}

// Paginate cuts the discrete page spec.Index out of items. An index past the
// last page yields an empty page with the same metadata.
func Paginate(items []domain.Product, spec domain.PageSpec) domain.PageResult {
	size := max(spec.Size, 1)
	index := max(spec.Index, 1)
	total := len(items)
	pageCount := PageCount(total, size)

	page := []domain.Product{}
	if index <= pageCount {
		start := (index - 1) * size
		if start < total {
			end := min(start+size, total)
			page = append(page, items[start:end]...)
		}
	}

	return domain.PageResult{
		Items:        page,
		PageCount:    pageCount,
		ProductCount: total,
		PageNow:      index,
		PageSize:     size,
	}
}

// Prefix returns the incremental window of the first size items. The window
// always starts at the beginning of items and is clamped to their length.
func Prefix(items []domain.Product, size int) domain.WindowResult {
	total := len(items)
	size = min(max(size, 0), total)

	window := make([]domain.Product, size)
	copy(window, items[:size])

	return domain.WindowResult{
		Items:      window,
		Total:      total,
		WindowSize: size,
		HasMore:    size < total,
	}
}
