// Package listing implements the fetch-and-accumulate controller that backs
// every browse panel: search text and facet changes reset the accumulated
// list, LoadMore appends the next page.
package listing

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/lembar-pintar/studio/internal/domain"
)

var (
	// ErrBusy is returned by FetchPage when another fetch is in flight.
	ErrBusy = errors.New("listing: fetch already in flight")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("listing: controller closed")
)

// Fetcher retrieves one page for a query. q.Page and q.PageSize are always set.
type Fetcher[T any] interface {
	Fetch(ctx context.Context, q domain.ListingQuery) (domain.Page[T], error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc[T any] func(ctx context.Context, q domain.ListingQuery) (domain.Page[T], error)

func (f FetcherFunc[T]) Fetch(ctx context.Context, q domain.ListingQuery) (domain.Page[T], error) {
	return f(ctx, q)
}

// DependentFacet clears Child when it is no longer valid after Parent changes.
// Valid sees an empty parent when the parent is cleared. A nil Valid always
// clears.
type DependentFacet struct {
	Parent string
	Child  string
	Valid  func(parent, child string) bool
}

// State is an immutable copy of the controller state.
type State[T any] struct {
	Query       domain.ListingQuery
	Items       []T
	CurrentPage int
	TotalPages  int
	TotalItems  int
	Loading     bool
	HasMore     bool
	Err         error
}

// Empty reports whether nothing has accumulated.
func (s State[T]) Empty() bool { return len(s.Items) == 0 }

// Searching reports whether a search term is active.
func (s State[T]) Searching() bool { return strings.TrimSpace(s.Query.SearchText) != "" }

// Controller is safe for concurrent use.
type Controller[T any] struct {
	fetcher    Fetcher[T]
	pageSize   int
	debounce   time.Duration
	timeout    time.Duration
	dependents []DependentFacet
	logger     *zap.Logger
	base       context.Context

	mu          sync.Mutex
	query       domain.ListingQuery
	items       []T
	currentPage int
	totalPages  int
	totalItems  int
	lastErr     error

	// seq is the last sequence number issued; accept is the only sequence
	// whose response may still be applied (0 after a query change).
	seq    uint64
	accept uint64

	inflight     bool
	cancel       context.CancelFunc
	pendingReset bool
	timer        *time.Timer
	timerGen     uint64
	timerPending bool
	closed       bool

	idle       chan struct{}
	idleClosed bool
	changes    chan struct{}
	done       chan struct{}
}

// New builds a controller. No fetch happens until Refresh or a query change.
func New[T any](fetcher Fetcher[T], opts ...Option) *Controller[T] {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	idle := make(chan struct{})
	close(idle)
	c := &Controller[T]{
		fetcher:    fetcher,
		pageSize:   o.pageSize,
		debounce:   o.debounce,
		timeout:    o.timeout,
		dependents: o.dependents,
		logger:     o.logger,
		base:       o.ctx,
		query: domain.ListingQuery{
			SearchText: strings.TrimSpace(o.search),
			Page:       1,
			PageSize:   o.pageSize,
			Facets:     cleanFacets(o.facets),
		},
		idle:       idle,
		idleClosed: true,
		changes:    make(chan struct{}, 1),
		done:       make(chan struct{}),
	}
	return c
}

// SetSearchText replaces the search text and refetches page 1 after the
// debounce window. Setting the current text again is a no-op.
func (c *Controller[T]) SetSearchText(text string) {
	text = strings.TrimSpace(text)
	c.mu.Lock()
	if c.closed || text == c.query.SearchText {
		c.mu.Unlock()
		return
	}
	c.query.SearchText = text
	c.resetLocked()
	c.scheduleLocked()
	c.mu.Unlock()
	c.notify()
}

// SetFacet sets one facet (an empty value removes it) and refetches page 1.
// Dependent facets invalidated by the new value are cleared.
func (c *Controller[T]) SetFacet(name, value string) {
	name = strings.TrimSpace(name)
	value = strings.TrimSpace(value)
	c.mu.Lock()
	if c.closed || name == "" || c.query.Facets[name] == value {
		c.mu.Unlock()
		return
	}
	if value == "" {
		delete(c.query.Facets, name)
	} else {
		c.query.Facets[name] = value
	}
	for _, dep := range c.dependents {
		if dep.Parent != name {
			continue
		}
		child := c.query.Facets[dep.Child]
		if child == "" {
			continue
		}
		if dep.Valid == nil || !dep.Valid(value, child) {
			delete(c.query.Facets, dep.Child)
		}
	}
	c.resetLocked()
	c.scheduleLocked()
	c.mu.Unlock()
	c.notify()
}

// Refresh refetches page 1 for the current query immediately.
func (c *Controller[T]) Refresh() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.resetLocked()
	c.stopTimerLocked()
	c.startLocked(true, 1)
	c.mu.Unlock()
	c.notify()
}

// LoadMore fetches the next page and appends it. It reports whether a fetch
// was issued; it is a no-op while anything is in flight or pending, and
// when there are no more pages.
func (c *Controller[T]) LoadMore() bool {
	c.mu.Lock()
	if c.closed || c.busyLocked() || c.currentPage >= c.totalPages {
		c.mu.Unlock()
		return false
	}
	c.startLocked(false, c.currentPage+1)
	c.mu.Unlock()
	c.notify()
	return true
}

// FetchPage fetches page for the current query on the caller's goroutine.
// With reset the accumulated list is replaced, otherwise the page is
// appended. Failures are logged and returned; state is left unchanged.
func (c *Controller[T]) FetchPage(ctx context.Context, page int, reset bool) error {
	if page < 1 {
		page = 1
	}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.inflight {
		c.mu.Unlock()
		return ErrBusy
	}
	if reset {
		c.stopTimerLocked()
	}
	seq, fctx, q := c.issueLocked(ctx, page)
	c.mu.Unlock()
	c.notify()

	return c.run(fctx, seq, q, reset)
}

// Snapshot returns a copy of the current state.
func (c *Controller[T]) Snapshot() State[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	items := make([]T, len(c.items))
	copy(items, c.items)
	return State[T]{
		Query:       c.query.Clone(),
		Items:       items,
		CurrentPage: c.currentPage,
		TotalPages:  c.totalPages,
		TotalItems:  c.totalItems,
		Loading:     c.busyLocked(),
		HasMore:     c.currentPage < c.totalPages,
		Err:         c.lastErr,
	}
}

// Changes delivers a signal after every state change. Signals coalesce;
// read Snapshot for the current state.
func (c *Controller[T]) Changes() <-chan struct{} { return c.changes }

// Done is closed by Close.
func (c *Controller[T]) Done() <-chan struct{} { return c.done }

// Wait blocks until nothing is in flight or scheduled, or ctx is done.
func (c *Controller[T]) Wait(ctx context.Context) error {
	c.mu.Lock()
	idle := c.idle
	c.mu.Unlock()
	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close cancels pending work. Later calls on the controller are no-ops.
func (c *Controller[T]) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.done)
	c.stopTimerLocked()
	c.pendingReset = false
	c.accept = 0
	if c.cancel != nil {
		c.cancel()
	}
	c.updateIdleLocked()
	c.mu.Unlock()
}

func (c *Controller[T]) resetLocked() {
	c.query.Page = 1
	c.items = nil
	c.currentPage = 0
	c.totalPages = 0
	c.totalItems = 0
	c.lastErr = nil
	// Anything in flight now belongs to an old query.
	c.accept = 0
}

func (c *Controller[T]) scheduleLocked() {
	if c.debounce <= 0 {
		c.startLocked(true, 1)
		return
	}
	c.stopTimerLocked()
	c.timerGen++
	gen := c.timerGen
	c.timerPending = true
	c.timer = time.AfterFunc(c.debounce, func() { c.fire(gen) })
	c.updateIdleLocked()
}

func (c *Controller[T]) fire(gen uint64) {
	c.mu.Lock()
	if c.closed || gen != c.timerGen || !c.timerPending {
		c.mu.Unlock()
		return
	}
	c.timerPending = false
	c.timer = nil
	c.startLocked(true, 1)
	c.mu.Unlock()
	c.notify()
}

func (c *Controller[T]) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.timerGen++
	c.timerPending = false
	c.updateIdleLocked()
}

// startLocked issues a fetch unless one is in flight, in which case the
// in-flight call is cancelled and a reset fetch is queued behind it.
func (c *Controller[T]) startLocked(reset bool, page int) {
	if c.inflight {
		if reset {
			if c.cancel != nil {
				c.cancel()
			}
			c.pendingReset = true
			c.updateIdleLocked()
		}
		return
	}
	seq, ctx, q := c.issueLocked(c.base, page)
	go func() {
		_ = c.run(ctx, seq, q, reset)
	}()
}

func (c *Controller[T]) issueLocked(parent context.Context, page int) (uint64, context.Context, domain.ListingQuery) {
	if parent == nil {
		parent = context.Background()
	}
	var ctx context.Context
	var cancel context.CancelFunc
	if c.timeout > 0 {
		ctx, cancel = context.WithTimeout(parent, c.timeout)
	} else {
		ctx, cancel = context.WithCancel(parent)
	}
	c.seq++
	c.accept = c.seq
	c.inflight = true
	c.cancel = cancel
	c.pendingReset = false
	c.updateIdleLocked()

	q := c.query.Clone()
	q.Page = page
	q.PageSize = c.pageSize
	return c.seq, ctx, q
}

func (c *Controller[T]) run(ctx context.Context, seq uint64, q domain.ListingQuery, reset bool) error {
	page, err := c.fetcher.Fetch(ctx, q)

	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.inflight = false
	stale := seq != c.accept || c.closed

	switch {
	case stale:
		c.logger.Debug("listing: discarding stale response",
			zap.Uint64("seq", seq),
			zap.Uint64("latest", c.seq),
			zap.Int("page", q.Page),
			zap.String("search", q.SearchText),
		)
		if err == nil {
			err = context.Canceled
		}
	case err != nil:
		c.lastErr = err
		c.logger.Warn("listing: fetch failed",
			zap.Uint64("seq", seq),
			zap.Int("page", q.Page),
			zap.String("search", q.SearchText),
			zap.Any("facets", q.Facets),
			zap.Error(err),
		)
	default:
		c.applyLocked(q, page, reset)
	}
	c.accept = 0

	if c.pendingReset && !c.closed && !c.timerPending {
		c.startLocked(true, 1)
	}
	c.updateIdleLocked()
	c.mu.Unlock()
	c.notify()
	return err
}

func (c *Controller[T]) applyLocked(q domain.ListingQuery, page domain.Page[T], reset bool) {
	current := page.CurrentPage
	if current <= 0 {
		current = q.Page
	}
	totalPages := page.TotalPages
	if totalPages <= 0 && page.TotalItems > 0 && q.PageSize > 0 {
		totalPages = (page.TotalItems + q.PageSize - 1) / q.PageSize
	}

	if reset {
		c.items = append([]T(nil), page.Items...)
	} else {
		c.items = append(c.items, page.Items...)
	}
	c.currentPage = current
	c.totalPages = totalPages
	c.totalItems = page.TotalItems
	c.query.Page = current
	c.lastErr = nil
}

func (c *Controller[T]) busyLocked() bool {
	return c.inflight || c.timerPending || c.pendingReset
}

func (c *Controller[T]) updateIdleLocked() {
	busy := c.busyLocked()
	switch {
	case busy && c.idleClosed:
		c.idle = make(chan struct{})
		c.idleClosed = false
	case !busy && !c.idleClosed:
		close(c.idle)
		c.idleClosed = true
	}
}

func (c *Controller[T]) notify() {
	select {
	case c.changes <- struct{}{}:
	default:
	}
}

func cleanFacets(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for name, value := range in {
		name, value = strings.TrimSpace(name), strings.TrimSpace(value)
		if name != "" && value != "" {
			out[name] = value
		}
	}
	return out
}
