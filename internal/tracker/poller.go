package tracker

import (
	"context"
	"sync"
	"time"

	"github.com/kingrea/orderdesk/internal/order"
)

// DefaultInterval is the re-poll period when none is configured.
const DefaultInterval = 30 * time.Second

// FetchFunc loads the latest state of the tracked order.
type FetchFunc func(ctx context.Context) (order.Order, error)

// Logger receives fetch failures.
type Logger interface {
	Printf(format string, args ...any)
}

// Poller re-fetches an order on a fixed interval until the order reaches a
// status that stops polling, the context ends, or Stop is called.
type Poller struct {
	fetch    FetchFunc
	interval time.Duration
	onUpdate func(order.Order)
	onError  func(error)
	logger   Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// PollerOption customizes poller construction.
type PollerOption func(*Poller)

// WithInterval overrides DefaultInterval. Non-positive values are ignored.
func WithInterval(d time.Duration) PollerOption {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// OnUpdate registers the callback for every successful fetch.
func OnUpdate(fn func(order.Order)) PollerOption {
	return func(p *Poller) {
		if fn != nil {
			p.onUpdate = fn
		}
	}
}

// OnError registers the callback for failed fetches. Polling continues.
func OnError(fn func(error)) PollerOption {
	return func(p *Poller) {
		if fn != nil {
			p.onError = fn
		}
	}
}

// WithLogger overrides the default no-op logger.
func WithLogger(l Logger) PollerOption {
	return func(p *Poller) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewPoller prepares a poller; nothing runs until Start.
func NewPoller(fetch FetchFunc, opts ...PollerOption) *Poller {
	p := &Poller{
		fetch:    fetch,
		interval: DefaultInterval,
		onUpdate: func(order.Order) {},
		onError:  func(error) {},
		logger:   nopLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// Start begins polling with an immediate fetch. It reports false, and does
// nothing, when the poller is already running.
func (p *Poller) Start(ctx context.Context) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return false
	}
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	p.cancel = cancel
	p.done = done
	go p.run(runCtx, cancel, done)
	return true
}

// Stop cancels polling and waits for the loop to exit. Safe to call at any time.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel = nil
	p.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Running reports whether a polling loop is active.
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancel != nil
}

// Done is closed when the current loop exits. Before the first Start it is
// already closed.
func (p *Poller) Done() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done == nil {
		closed := make(chan struct{})
		close(closed)
		return closed
	}
	return p.done
}

func (p *Poller) run(ctx context.Context, cancel context.CancelFunc, done chan struct{}) {
	defer func() {
		p.mu.Lock()
		if p.done == done {
			p.cancel = nil
		}
		p.mu.Unlock()
		cancel()
		close(done)
	}()
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		if p.poll(ctx) {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// poll performs one fetch and reports whether polling should end.
func (p *Poller) poll(ctx context.Context) bool {
	o, err := p.fetch(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return true
		}
		p.logger.Printf("tracker: fetch failed: %v", err)
		p.onError(err)
		return false
	}
	p.onUpdate(o)
	if order.StopsPolling(o.Status) {
		p.logger.Printf("tracker: order %s reached %s, polling stopped", o.Tag, o.Status)
		return true
	}
	return false
}

type nopLogger struct{}

func (nopLogger) Printf(string, ...any) {}
