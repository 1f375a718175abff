package query

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/five82/livra/internal/livra"
)

type fakeLister struct {
	mu    sync.Mutex
	calls []livra.ListQuery
	err   error
	// hold makes ListPosts wait until the context is cancelled or release
	// is closed.
	hold    bool
	release chan struct{}
	started chan struct{}
}

func (f *fakeLister) ListPosts(ctx context.Context, q livra.ListQuery) (livra.PostPage, error) {
	f.mu.Lock()
	f.calls = append(f.calls, q)
	hold, err := f.hold, f.err
	f.mu.Unlock()

	if hold {
		f.started <- struct{}{}
		select {
		case <-ctx.Done():
			return livra.PostPage{}, ctx.Err()
		case <-f.release:
		}
	}
	if err != nil {
		return livra.PostPage{}, err
	}
	return livra.PostPage{
		Posts:       []livra.PostSummary{{ID: "id-" + q.Search, Title: q.Search}},
		TotalPages:  4,
		CurrentPage: q.Page,
	}, nil
}

func (f *fakeLister) Calls() []livra.ListQuery {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]livra.ListQuery(nil), f.calls...)
}

type fakeTimer struct {
	fn      func()
	stopped bool
	fired   bool
}

// manualScheduler fires scheduled calls only when told to.
type manualScheduler struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (s *manualScheduler) schedule(_ time.Duration, fn func()) func() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTimer{fn: fn}
	s.timers = append(s.timers, t)
	return func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		if t.fired || t.stopped {
			return false
		}
		t.stopped = true
		return true
	}
}

func (s *manualScheduler) pending() []*fakeTimer {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*fakeTimer
	for _, t := range s.timers {
		if !t.fired && !t.stopped {
			out = append(out, t)
		}
	}
	return out
}

func (s *manualScheduler) fire() int {
	timers := s.pending()
	s.mu.Lock()
	for _, t := range timers {
		t.fired = true
	}
	s.mu.Unlock()
	for _, t := range timers {
		t.fn()
	}
	return len(timers)
}

func receive(t *testing.T, c *Controller) Result {
	t.Helper()
	select {
	case r, ok := <-c.Results():
		if !ok {
			t.Fatalf("Results closed, want a result")
		}
		return r
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for result")
	}
	return Result{}
}

func expectNone(t *testing.T, c *Controller) {
	t.Helper()
	select {
	case r := <-c.Results():
		t.Fatalf("unexpected result %#v", r)
	default:
	}
}

func TestController_CoalescesToLatestSubmit(t *testing.T) {
	lister := &fakeLister{}
	sched := &manualScheduler{}
	c := New(lister, WithScheduler(sched.schedule))
	t.Cleanup(c.Close)

	c.Submit(Request{Text: "a"})
	c.Submit(Request{Text: "ab"})
	c.Submit(Request{Text: "abc"})

	if n := len(sched.pending()); n != 1 {
		t.Fatalf("pending timers = %d, want 1", n)
	}
	if fired := sched.fire(); fired != 1 {
		t.Fatalf("fired = %d, want 1", fired)
	}

	calls := lister.Calls()
	if len(calls) != 1 || calls[0].Search != "abc" {
		t.Fatalf("calls = %#v, want exactly one with search abc", calls)
	}
	r := receive(t, c)
	if r.Cleared || r.Request.Text != "abc" || r.Page.TotalPages != 4 {
		t.Fatalf("result = %#v, want page for abc", r)
	}
}

func TestController_EmptyQueryClearsWithoutNetwork(t *testing.T) {
	lister := &fakeLister{}
	sched := &manualScheduler{}
	c := New(lister, WithScheduler(sched.schedule))
	t.Cleanup(c.Close)

	c.Submit(Request{Text: "go"})
	c.Submit(Request{Text: ""})

	r := receive(t, c)
	if !r.Cleared {
		t.Fatalf("result = %#v, want cleared", r)
	}
	if n := len(sched.pending()); n != 0 {
		t.Fatalf("pending timers = %d, want 0 after clear", n)
	}
	sched.fire()
	if calls := lister.Calls(); len(calls) != 0 {
		t.Fatalf("calls = %#v, want none", calls)
	}
}

func TestController_OwnerMode(t *testing.T) {
	lister := &fakeLister{}
	sched := &manualScheduler{}
	c := New(lister, WithScheduler(sched.schedule))
	t.Cleanup(c.Close)

	c.Submit(Request{OwnerOnly: true})
	if r := receive(t, c); !r.Cleared {
		t.Fatalf("owner mode without id: result = %#v, want cleared", r)
	}

	c.Submit(Request{OwnerOnly: true, OwnerID: "u1", Page: 2})
	sched.fire()
	calls := lister.Calls()
	if len(calls) != 1 || calls[0].UserID != "u1" || calls[0].Search != "" || calls[0].Page != 2 {
		t.Fatalf("calls = %#v, want user u1 page 2 without search", calls)
	}
	if r := receive(t, c); r.Page.CurrentPage != 2 {
		t.Fatalf("result page = %d, want 2", r.Page.CurrentPage)
	}

	c.Submit(Request{Text: "x", OwnerID: "u1"})
	sched.fire()
	calls = lister.Calls()
	if last := calls[len(calls)-1]; last.UserID != "" {
		t.Fatalf("everyone mode sent user_id %q, want none", last.UserID)
	}
}

func TestController_ErrorsAreSwallowed(t *testing.T) {
	lister := &fakeLister{err: errors.New("boom")}
	sched := &manualScheduler{}
	c := New(lister, WithScheduler(sched.schedule))
	t.Cleanup(c.Close)

	c.Submit(Request{Text: "go"})
	sched.fire()

	if calls := lister.Calls(); len(calls) != 1 {
		t.Fatalf("calls = %d, want 1", len(calls))
	}
	expectNone(t, c)
}

func TestController_FailureHookSeesErrors(t *testing.T) {
	lister := &fakeLister{err: errors.New("boom")}
	sched := &manualScheduler{}
	var (
		mu     sync.Mutex
		failed []Request
	)
	c := New(lister, WithScheduler(sched.schedule), WithFailureHook(func(req Request, err error) {
		mu.Lock()
		defer mu.Unlock()
		failed = append(failed, req)
	}))
	t.Cleanup(c.Close)

	c.Submit(Request{Text: "go", Page: 2})
	sched.fire()

	mu.Lock()
	defer mu.Unlock()
	if len(failed) != 1 || failed[0].Text != "go" || failed[0].Page != 2 {
		t.Fatalf("failure hook saw %#v, want one request for go page 2", failed)
	}
	expectNone(t, c)
}

func TestController_StaleInFlightResultIsDropped(t *testing.T) {
	lister := &fakeLister{hold: true, release: make(chan struct{}), started: make(chan struct{}, 2)}
	sched := &manualScheduler{}
	c := New(lister, WithScheduler(sched.schedule))
	t.Cleanup(c.Close)

	c.Submit(Request{Text: "old"})
	done := make(chan struct{})
	go func() {
		sched.fire()
		close(done)
	}()
	<-lister.started

	// A newer submission cancels the in-flight request.
	c.Submit(Request{Text: "new"})
	<-done
	expectNone(t, c)

	lister.mu.Lock()
	lister.hold = false
	lister.mu.Unlock()
	sched.fire()

	r := receive(t, c)
	if r.Request.Text != "new" {
		t.Fatalf("result for %q, want new", r.Request.Text)
	}
}

func TestController_CloseCancelsPending(t *testing.T) {
	lister := &fakeLister{}
	sched := &manualScheduler{}
	c := New(lister, WithScheduler(sched.schedule))

	c.Submit(Request{Text: "go"})
	c.Close()

	if n := len(sched.pending()); n != 0 {
		t.Fatalf("pending timers = %d, want 0 after Close", n)
	}
	if _, ok := <-c.Results(); ok {
		t.Fatalf("Results still open after Close")
	}

	c.Submit(Request{Text: "later"})
	c.Close()
	if calls := lister.Calls(); len(calls) != 0 {
		t.Fatalf("calls = %#v, want none", calls)
	}
}

func TestController_CancelKeepsList(t *testing.T) {
	lister := &fakeLister{}
	sched := &manualScheduler{}
	c := New(lister, WithScheduler(sched.schedule))
	t.Cleanup(c.Close)

	c.Submit(Request{Text: "go"})
	c.Cancel()
	sched.fire()

	if calls := lister.Calls(); len(calls) != 0 {
		t.Fatalf("calls = %#v, want none", calls)
	}
	expectNone(t, c)
}

func TestController_RealTimerDebounce(t *testing.T) {
	lister := &fakeLister{}
	c := New(lister)
	t.Cleanup(c.Close)

	for _, text := range []string{"a", "ab", "abc"} {
		c.Submit(Request{Text: text})
		time.Sleep(30 * time.Millisecond)
	}

	r := receive(t, c)
	if r.Request.Text != "abc" {
		t.Fatalf("result for %q, want abc", r.Request.Text)
	}
	time.Sleep(DefaultDelay + 100*time.Millisecond)
	calls := lister.Calls()
	if len(calls) != 1 || calls[0].Search != "abc" {
		t.Fatalf("calls = %#v, want exactly one with search abc", calls)
	}
}
