package httpclient

import (
	"context"
	"sync"
	"time"
)

// GuardState is the state of the session expiry guard.
type GuardState int

const (
	// GuardIdle accepts the next expiry.
	GuardIdle GuardState = iota
	// GuardNoticeShown means a notice is on screen and a redirect is pending.
	GuardNoticeShown
)

func (s GuardState) String() string {
	if s == GuardNoticeShown {
		return "expired-notice-shown"
	}
	return "idle"
}

// Timer is the subset of *time.Timer the guard uses.
type Timer interface {
	Stop() bool
}

// Clock schedules delayed work. The zero value of ExpiryGuard uses the real clock.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// ExpiryGuard makes sure a burst of 401 responses produces a single notice and
// a single redirect. Idle -> NoticeShown on Trigger; NoticeShown -> Idle when
// the delayed navigation fires.
type ExpiryGuard struct {
	mu        sync.Mutex
	state     GuardState
	timer     Timer
	done      chan struct{}
	clock     Clock
	delay     time.Duration
	route     string
	notifier  Notifier
	navigator Navigator
}

// NewExpiryGuard returns an idle guard. A nil navigator makes the redirect a no-op.
func NewExpiryGuard(notifier Notifier, navigator Navigator, delay time.Duration, route string) *ExpiryGuard {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &ExpiryGuard{
		clock:     realClock{},
		delay:     delay,
		route:     route,
		notifier:  notifier,
		navigator: navigator,
	}
}

// WithClock replaces the clock, for tests.
func (g *ExpiryGuard) WithClock(clock Clock) *ExpiryGuard {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.clock = clock
	return g
}

// Trigger reports whether this call showed the notice. Calls while a redirect
// is pending are absorbed.
func (g *ExpiryGuard) Trigger() bool {
	g.mu.Lock()
	if g.state == GuardNoticeShown {
		g.mu.Unlock()
		return false
	}
	g.state = GuardNoticeShown
	done := make(chan struct{})
	g.done = done
	g.timer = g.clock.AfterFunc(g.delay, func() { g.fire(done) })
	g.mu.Unlock()

	g.notifier.Error(MsgSessionExpired)
	return true
}

func (g *ExpiryGuard) fire(done chan struct{}) {
	if g.navigator != nil {
		g.navigator.Push(g.route)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.done == done {
		g.state = GuardIdle
		g.timer = nil
		g.done = nil
		close(done)
	}
}

// State returns the current state.
func (g *ExpiryGuard) State() GuardState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Wait blocks until a pending redirect has fired, or ctx ends. It returns
// immediately when the guard is idle.
func (g *ExpiryGuard) Wait(ctx context.Context) error {
	g.mu.Lock()
	done := g.done
	g.mu.Unlock()

	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop cancels a pending redirect and returns the guard to idle.
func (g *ExpiryGuard) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.timer != nil {
		g.timer.Stop()
	}
	if g.done != nil {
		close(g.done)
	}
	g.state = GuardIdle
	g.timer = nil
	g.done = nil
}
