// Package state holds the client-side browsing state machines: the incremental
// load controller behind infinite scroll and the discrete page navigator.
package state

import (
	"context"
	"fmt"
	"sync"

	"productview/catalog/internal/criteria"
	"productview/catalog/internal/domain"

	log "github.com/sirupsen/logrus"
)

// Phase is the load state of the incremental controller.
type Phase int

const (
	// Idle accepts the next expansion.
	Idle Phase = iota
	// Expanding has a window fetch in flight.
	Expanding
	// Exhausted shows every matching product.
	Exhausted
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Expanding:
		return "expanding"
	case Exhausted:
		return "exhausted"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// WindowSource computes incremental windows. Engine, Service and the paged
// remote source all satisfy it.
type WindowSource interface {
	Window(ctx context.Context, c domain.FilterCriteria, size int) (domain.WindowResult, error)
}

// View is a snapshot of the controller.
type View struct {
	Criteria   domain.FilterCriteria
	Items      []domain.Product
	HasMore    bool
	Loading    bool
	WindowSize int
	Total      int
	Phase      Phase
	Err        error
}

// Progress is the visible share of the matching products as a percentage,
// capped at 100.
func (v View) Progress() int {
	if v.Total <= 0 {
		return 100
	}
	return min(len(v.Items)*100/v.Total, 100)
}

// Controller grows a window over the filtered and sorted catalog one page at a
// time. Every criteria change starts a new generation; fetches that complete
// for an older generation are dropped.
type Controller struct {
	source    WindowSource
	defaults  criteria.Defaults
	proximity int

	mu         sync.Mutex
	criteria   domain.FilterCriteria
	pageSize   int
	generation uint64
	window     domain.WindowResult
	phase      Phase
	err        error
}

// NewController creates a controller. proximity is how many items from the
// end of the visible slice a scroll position must reach to load more.
func NewController(source WindowSource, defaults criteria.Defaults, proximity int) *Controller {
	return &Controller{
		source:    source,
		defaults:  defaults,
		proximity: max(proximity, 0),
		criteria:  defaults.Criteria(),
		pageSize:  max(defaults.PageSize, 1),
		phase:     Exhausted,
		window:    domain.WindowResult{Items: []domain.Product{}},
	}
}

// Start loads the first page for the default criteria.
func (c *Controller) Start(ctx context.Context) error {
	return c.Reset(ctx)
}

// Apply normalizes raw and replaces the criteria and page size.
func (c *Controller) Apply(ctx context.Context, raw criteria.Raw) error {
	fc, spec := criteria.Normalize(raw, c.defaults)
	return c.reset(ctx, fc, spec.Size)
}

// SetCriteria replaces the criteria, keeping the page size, and reloads the
// first page.
func (c *Controller) SetCriteria(ctx context.Context, fc domain.FilterCriteria) error {
	c.mu.Lock()
	pageSize := c.pageSize
	c.mu.Unlock()

	return c.reset(ctx, fc, pageSize)
}

// Reset restores the default criteria and reloads the first page.
func (c *Controller) Reset(ctx context.Context) error {
	return c.reset(ctx, c.defaults.Criteria(), max(c.defaults.PageSize, 1))
}

func (c *Controller) reset(ctx context.Context, fc domain.FilterCriteria, pageSize int) error {
	c.mu.Lock()
	c.generation++
	gen := c.generation
	c.criteria = fc
	c.pageSize = pageSize
	c.window = domain.WindowResult{Items: []domain.Product{}}
	c.phase = Expanding
	c.err = nil
	c.mu.Unlock()

	result, err := c.source.Window(ctx, fc, pageSize)

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation {
		log.Debugf("Dropping window of superseded criteria (generation %d)", gen)
		return nil
	}

	if err != nil {
		// Zero window with hasMore lets RequestMore retry the first page.
		c.window = domain.WindowResult{Items: []domain.Product{}, HasMore: true}
		c.phase = Idle
		c.err = err
		return fmt.Errorf("failed to load first page: %w", err)
	}

	c.apply(result)
	return nil
}

// RequestMore grows the window by one page. It is a no-op that returns false
// while a fetch is in flight or once every matching product is visible.
func (c *Controller) RequestMore(ctx context.Context) (bool, error) {
	c.mu.Lock()
	if c.phase != Idle || !c.window.HasMore {
		c.mu.Unlock()
		return false, nil
	}
	c.phase = Expanding
	gen := c.generation
	fc := c.criteria
	target := c.window.WindowSize + c.pageSize
	c.mu.Unlock()

	result, err := c.source.Window(ctx, fc, target)

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation {
		log.Debugf("Dropping expansion of superseded criteria (generation %d)", gen)
		return false, nil
	}

	if err != nil {
		c.phase = Idle
		c.err = err
		return false, fmt.Errorf("failed to load more products: %w", err)
	}

	c.apply(result)
	return true, nil
}

// OnScroll requests more when lastVisibleIndex is within the proximity
// distance of the end of the visible slice.
func (c *Controller) OnScroll(ctx context.Context, lastVisibleIndex int) (bool, error) {
	c.mu.Lock()
	visible := len(c.window.Items)
	c.mu.Unlock()

	if lastVisibleIndex < visible-1-c.proximity {
		return false, nil
	}
	return c.RequestMore(ctx)
}

// View returns a snapshot of the current state.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	items := make([]domain.Product, len(c.window.Items))
	copy(items, c.window.Items)

	return View{
		Criteria:   c.criteria,
		Items:      items,
		HasMore:    c.window.HasMore,
		Loading:    c.phase == Expanding,
		WindowSize: c.window.WindowSize,
		Total:      c.window.Total,
		Phase:      c.phase,
		Err:        c.err,
	}
}

// apply stores a completed window. Callers hold c.mu.
func (c *Controller) apply(result domain.WindowResult) {
	c.window = result
	c.err = nil
	if result.HasMore {
		c.phase = Idle
	} else {
		c.phase = Exhausted
	}
}
