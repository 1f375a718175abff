// Package query coalesces search input into debounced post-list requests.
package query

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/five82/livra/internal/livra"
)

// DefaultDelay is the quiet window after the last Submit before a request
// is sent.
const DefaultDelay = 300 * time.Millisecond

const fetchTimeout = 10 * time.Second

// Lister is the subset of the backend the controller needs.
type Lister interface {
	ListPosts(ctx context.Context, query livra.ListQuery) (livra.PostPage, error)
}

// Request is one state of the search box.
type Request struct {
	Text      string
	OwnerOnly bool
	OwnerID   string
	Page      int
}

// Active reports whether the request needs a backend call at all.
func (r Request) Active() bool {
	if r.OwnerOnly {
		return r.OwnerID != ""
	}
	return r.Text != ""
}

func (r Request) listQuery() livra.ListQuery {
	q := livra.ListQuery{Search: r.Text, Page: r.Page}
	if r.OwnerOnly {
		q.UserID = r.OwnerID
	}
	return q
}

// Result replaces the displayed list. Cleared results carry no page.
type Result struct {
	Request Request
	Page    livra.PostPage
	Cleared bool
}

// Scheduler runs fn after delay. The returned stop function cancels the
// call if it has not started yet.
type Scheduler func(delay time.Duration, fn func()) (stop func() bool)

func afterFunc(delay time.Duration, fn func()) func() bool {
	return time.AfterFunc(delay, fn).Stop
}

// Controller owns the single pending search. Only the newest submission can
// produce a Result; anything older is cancelled or discarded on arrival.
type Controller struct {
	lister   Lister
	delay    time.Duration
	schedule Scheduler
	logger   *slog.Logger
	onFail   func(Request, error)
	results  chan Result

	mu       sync.Mutex
	gen      uint64
	stop     func() bool
	inflight context.CancelFunc
	closed   bool
}

// Option customises a Controller.
type Option func(*Controller)

// WithDelay overrides the quiet window.
func WithDelay(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.delay = d
		}
	}
}

// WithScheduler overrides how delayed calls are scheduled.
func WithScheduler(s Scheduler) Option {
	return func(c *Controller) {
		if s != nil {
			c.schedule = s
		}
	}
}

// WithLogger sets the logger used for swallowed backend errors.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithFailureHook registers fn to observe failed searches. It runs on the
// controller's timer goroutine, after the failure is logged.
func WithFailureHook(fn func(Request, error)) Option {
	return func(c *Controller) {
		c.onFail = fn
	}
}

// New builds a Controller that sends requests through lister.
func New(lister Lister, opts ...Option) *Controller {
	c := &Controller{
		lister:   lister,
		delay:    DefaultDelay,
		schedule: afterFunc,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		results:  make(chan Result, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Results delivers list replacements. The channel is closed by Close.
func (c *Controller) Results() <-chan Result {
	return c.results
}

// Submit replaces any pending search with req. Inactive requests clear the
// list right away without touching the network.
func (c *Controller) Submit(req Request) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	c.gen++
	gen := c.gen
	c.cancelLocked()

	if !req.Active() {
		c.deliverLocked(Result{Request: req, Cleared: true})
		return
	}

	c.stop = c.schedule(c.delay, func() { c.run(gen, req) })
}

// Cancel drops the pending search, if any, without clearing the list.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.cancelLocked()
}

// Close cancels pending and in-flight work and closes Results.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.gen++
	c.cancelLocked()
	close(c.results)
}

func (c *Controller) run(gen uint64, req Request) {
	c.mu.Lock()
	if c.closed || gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.stop = nil
	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	c.inflight = cancel
	c.mu.Unlock()
	defer cancel()

	page, err := c.lister.ListPosts(ctx, req.listQuery())

	c.mu.Lock()
	if c.closed || gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.inflight = nil
	if err == nil {
		c.deliverLocked(Result{Request: req, Page: page})
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	// The list keeps showing whatever it showed before.
	c.logger.Warn("post search failed",
		"search", req.Text,
		"owner_only", req.OwnerOnly,
		"page", req.Page,
		"error", err)
	if c.onFail != nil {
		c.onFail(req, err)
	}
}

// deliverLocked keeps only the newest undelivered result in the buffer so a
// slow reader never sees an outdated list.
func (c *Controller) deliverLocked(r Result) {
	select {
	case c.results <- r:
		return
	default:
	}
	select {
	case <-c.results:
	default:
	}
	select {
	case c.results <- r:
	default:
	}
}

func (c *Controller) cancelLocked() {
	if c.stop != nil {
		c.stop()
		c.stop = nil
	}
	if c.inflight != nil {
		c.inflight()
		c.inflight = nil
	}
}
