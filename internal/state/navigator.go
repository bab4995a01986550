package state

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"productview/catalog/internal/criteria"
	"productview/catalog/internal/domain"

	log "github.com/sirupsen/logrus"
)

// ErrPageOutOfRange is returned by GoToPage for an index outside 1..pageCount.
var ErrPageOutOfRange = errors.New("page out of range")

// PageSource computes discrete pages. Engine, Service and CatalogClient all
// satisfy it.
type PageSource interface {
	Page(ctx context.Context, c domain.FilterCriteria, spec domain.PageSpec) (domain.PageResult, error)
}

// PageView is a snapshot of the navigator.
type PageView struct {
	Criteria domain.FilterCriteria
	Spec     domain.PageSpec
	Page     domain.PageResult
	Loading  bool
	Err      error
}

// Navigator drives discrete page browsing. Overlapping requests resolve to
// the most recently issued one; earlier responses are discarded. A failed
// load leaves the previous criteria, spec and page in place.
type Navigator struct {
	source   PageSource
	defaults criteria.Defaults

	mu       sync.Mutex
	criteria domain.FilterCriteria
	spec     domain.PageSpec
	page     domain.PageResult
	seq      uint64
	pending  int
	err      error
}

// NewNavigator creates a navigator positioned on page 1 of the defaults.
func NewNavigator(source PageSource, defaults criteria.Defaults) *Navigator {
	return &Navigator{
		source:   source,
		defaults: defaults,
		criteria: defaults.Criteria(),
		spec:     domain.PageSpec{Index: 1, Size: max(defaults.PageSize, 1)},
		page:     domain.PageResult{Items: []domain.Product{}, PageCount: 1, PageNow: 1},
	}
}

// Apply loads the page described by raw, including its page keys.
func (n *Navigator) Apply(ctx context.Context, raw criteria.Raw) error {
	fc, spec := criteria.Normalize(raw, n.defaults)
	return n.load(ctx, fc, spec)
}

// SetCriteria replaces the criteria and returns to page 1.
func (n *Navigator) SetCriteria(ctx context.Context, fc domain.FilterCriteria) error {
	n.mu.Lock()
	spec := domain.PageSpec{Index: 1, Size: n.spec.Size}
	n.mu.Unlock()

	return n.load(ctx, fc, spec)
}

// Reset restores the default criteria on page 1.
func (n *Navigator) Reset(ctx context.Context) error {
	return n.load(ctx, n.defaults.Criteria(), domain.PageSpec{Index: 1, Size: max(n.defaults.PageSize, 1)})
}

// GoToPage loads page index of the current criteria. Indexes outside
// 1..pageCount of the last loaded page are rejected without a request.
func (n *Navigator) GoToPage(ctx context.Context, index int) error {
	n.mu.Lock()
	pageCount := max(n.page.PageCount, 1)
	fc := n.criteria
	spec := domain.PageSpec{Index: index, Size: n.spec.Size}
	n.mu.Unlock()

	if index < 1 || index > pageCount {
		return fmt.Errorf("%w: %d not in 1..%d", ErrPageOutOfRange, index, pageCount)
	}
	return n.load(ctx, fc, spec)
}

// Next moves one page forward.
func (n *Navigator) Next(ctx context.Context) error {
	return n.GoToPage(ctx, n.current()+1)
}

// Prev moves one page back.
func (n *Navigator) Prev(ctx context.Context) error {
	return n.GoToPage(ctx, n.current()-1)
}

func (n *Navigator) current() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.spec.Index
}

// View returns a snapshot of the current state.
func (n *Navigator) View() PageView {
	n.mu.Lock()
	defer n.mu.Unlock()

	page := n.page
	page.Items = append([]domain.Product{}, n.page.Items...)

	return PageView{
		Criteria: n.criteria,
		Spec:     n.spec,
		Page:     page,
		Loading:  n.pending > 0,
		Err:      n.err,
	}
}

func (n *Navigator) load(ctx context.Context, fc domain.FilterCriteria, spec domain.PageSpec) error {
	n.mu.Lock()
	n.seq++
	seq := n.seq
	prevCriteria, prevSpec := n.criteria, n.spec
	n.criteria = fc
	n.spec = spec
	n.pending++
	n.mu.Unlock()

	page, err := n.source.Page(ctx, fc, spec)

	n.mu.Lock()
	defer n.mu.Unlock()
	n.pending--

	if seq != n.seq {
		log.Debugf("Discarding response for page %d, superseded by request %d", spec.Index, n.seq)
		return nil
	}

	if err != nil {
		// Keep criteria and spec describing the page still on display.
		n.criteria, n.spec = prevCriteria, prevSpec
		n.err = err
		return fmt.Errorf("failed to load page %d: %w", spec.Index, err)
	}

	n.page = page
	n.err = nil
	return nil
}
