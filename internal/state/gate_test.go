package state

import (
	"context"
	"sync"

	"productview/catalog/internal/domain"
)

// gate blocks calls while held so tests can interleave in-flight requests.
type gate struct {
	mu      sync.Mutex
	ch      chan struct{}
	started chan struct{}
	calls   int
}

// hold makes subsequent calls block until the returned channel is closed.
func (g *gate) hold() chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.ch = make(chan struct{})
	g.started = make(chan struct{}, 1)
	return g.ch
}

// open lets subsequent calls through. Calls already blocked stay blocked.
func (g *gate) open() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.ch = nil
}

func (g *gate) pass() {
	g.mu.Lock()
	g.calls++
	ch, started := g.ch, g.started
	g.mu.Unlock()

	if ch != nil {
		started <- struct{}{}
		<-ch
	}
}

func (g *gate) count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

type gatedWindows struct {
	gate
	inner WindowSource
	err   error
}

func (s *gatedWindows) Window(ctx context.Context, c domain.FilterCriteria, size int) (domain.WindowResult, error) {
	s.pass()
	s.mu.Lock()
	err := s.err
	s.mu.Unlock()
	if err != nil {
		return domain.WindowResult{}, err
	}
	return s.inner.Window(ctx, c, size)
}

func (s *gatedWindows) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

type gatedPages struct {
	gate
	inner PageSource
	err   error
}

func (s *gatedPages) Page(ctx context.Context, c domain.FilterCriteria, spec domain.PageSpec) (domain.PageResult, error) {
	s.pass()
	s.mu.Lock()
	err := s.err
	s.mu.Unlock()
	if err != nil {
		return domain.PageResult{}, err
	}
	return s.inner.Page(ctx, c, spec)
}

func (s *gatedPages) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}
