package eventbus

import (
	"context"
	"fmt"
	"maps"
	"runtime/debug"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Zhima-Mochi/delegate-expiry/internal/domain/delegate"
	"github.com/Zhima-Mochi/delegate-expiry/internal/observability"
	"github.com/Zhima-Mochi/delegate-expiry/internal/observability/logctx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const componentEventBus = "eventbus"

const (
	outcomeHandled  = "handled"
	outcomeDeclined = "declined"
	outcomePanic    = "panic"
)

// Bus is an in-memory subscriber list keyed by event name.
//
// The bus owns a clone of every registered delegate. A delivery works on clones taken
// under the read lock and destroyed afterwards, so Unsubscribe and Prune can tear
// down stored delegates without racing in-flight notifications. Delegates are
// notified one after another in registration order; args is shared between them.
//
// Expiring delegates are never removed by delivery itself. They decline once
// expired and are dropped by Prune, which the janitor runs while the bus is started.
type Bus[A any] struct {
	mu   sync.RWMutex
	subs map[string][]delegate.Delegate[A]

	queue     chan envelope[A]
	sendMu    sync.RWMutex // held shared by Publish while it enqueues
	closing   chan struct{}
	startOnce sync.Once
	stopOnce  sync.Once
	cancel    context.CancelFunc
	loopDone  chan struct{}
	closed    atomic.Bool
	opts      *busOptions

	log           observability.Logger
	tel           observability.Observability
	notifications observability.Counter
	dispatchDur   observability.Histogram
	pruned        observability.Counter
}

type envelope[A any] struct {
	ctx    context.Context
	name   string
	sender any
	args   A
}

// NewBus creates a bus. A nil tel disables tracing and metrics.
func NewBus[A any](logger observability.Logger, tel observability.Observability, opts ...Option) *Bus[A] {
	if tel == nil {
		tel = observability.Nop()
	}
	options := buildOptions(opts...)
	metrics := tel.Metrics()
	return &Bus[A]{
		subs:          make(map[string][]delegate.Delegate[A]),
		queue:         make(chan envelope[A], options.queueSize),
		closing:       make(chan struct{}),
		loopDone:      make(chan struct{}),
		opts:          options,
		log:           observability.BaseLogger(logger, tel).With(observability.F("component", componentEventBus)),
		tel:           tel,
		notifications: metrics.Counter(observability.MDelegateNotifications),
		dispatchDur:   metrics.Histogram(observability.MDispatchDuration),
		pruned:        metrics.Counter(observability.MSubscriptionsPruned),
	}
}

// Subscribe stores a clone of d under name.
func (b *Bus[A]) Subscribe(name string, d delegate.Delegate[A]) error {
	if name == "" {
		return ErrEmptyName
	}
	if delegate.IsNil(d) {
		return fmt.Errorf("eventbus: subscribe %q: %w", name, delegate.ErrNilDelegate)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed.Load() {
		return ErrBusClosed
	}
	b.subs[name] = append(b.subs[name], d.Clone())
	return nil
}

// Unsubscribe removes and destroys the first stored delegate equal to d.
func (b *Bus[A]) Unsubscribe(name string, d delegate.Delegate[A]) bool {
	if delegate.IsNil(d) {
		return false
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	list := b.subs[name]
	for i, s := range list {
		if !s.Equal(d) {
			continue
		}
		b.setLocked(name, slices.Delete(list, i, i+1))
		s.Destroy()
		return true
	}
	return false
}

// Len returns the number of delegates stored under name.
func (b *Bus[A]) Len(name string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[name])
}

// Names returns the event names with at least one subscription, sorted.
func (b *Bus[A]) Names() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return slices.Sorted(maps.Keys(b.subs))
}

// Notify delivers args to every delegate registered under name and returns how many
// reported the notification as handled.
func (b *Bus[A]) Notify(ctx context.Context, name string, sender any, args *A) int {
	ctx, span := b.tel.Tracer().Start(ctx, "eventbus.Notify", attribute.String("event", name))
	defer span.End()

	snapshot := b.snapshot(name)
	ctx, logger := logctx.WithEvent(ctx, b.log, map[string]string{"event": name})

	if len(snapshot) == 0 {
		logger.Debug("event_dropped_no_subscriber")
		return 0
	}

	start := time.Now()
	handled := 0
	for _, d := range snapshot {
		if b.deliver(ctx, name, d, sender, args) {
			handled++
		}
		d.Destroy()
	}
	b.dispatchDur.Observe(time.Since(start).Seconds(), observability.L("event", name))

	span.SetAttributes(
		attribute.Int("subscribers", len(snapshot)),
		attribute.Int("handled", handled),
	)
	span.SetStatus(codes.Ok, "")
	logger.Debug("event_notified",
		observability.F("subscribers", len(snapshot)),
		observability.F("handled", handled),
	)
	return handled
}

// Publish queues args for delivery by the dispatch loop. Values reach delegates
// after Start; the call blocks while the queue is full. A nil return means the
// value will be delivered, Stop included.
func (b *Bus[A]) Publish(ctx context.Context, name string, sender any, args A) error {
	if name == "" {
		return ErrEmptyName
	}

	b.sendMu.RLock()
	defer b.sendMu.RUnlock()
	if b.closed.Load() {
		return ErrBusClosed
	}

	env := envelope[A]{ctx: context.WithoutCancel(ctx), name: name, sender: sender, args: args}
	select {
	case b.queue <- env:
		logctx.FromOr(ctx, b.log).Debug("event_enqueued", observability.F("event", name))
		return nil
	case <-b.closing:
		return ErrBusClosed
	case <-b.loopDone:
		return ErrBusClosed
	case <-ctx.Done():
		logctx.FromOr(ctx, b.log).Warn("event_enqueue_aborted",
			observability.F("event", name),
			observability.F("error", ctx.Err()),
		)
		return ctx.Err()
	}
}

// Prune removes and destroys every stored delegate that reports itself expired.
func (b *Bus[A]) Prune() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	removed := 0
	for name, list := range b.subs {
		kept := list[:0]
		n := 0
		for _, d := range list {
			if delegate.Expired(d) {
				d.Destroy()
				n++
				continue
			}
			kept = append(kept, d)
		}
		clear(list[len(kept):])
		b.setLocked(name, kept)
		if n > 0 {
			b.pruned.Add(float64(n), observability.L("event", name))
			removed += n
		}
	}
	if removed > 0 {
		b.log.Info("subscriptions_pruned", observability.F("count", removed))
	}
	return removed
}

func (b *Bus[A]) Start(ctx context.Context) {
	b.startOnce.Do(func() {
		b.mu.Lock()
		if b.closed.Load() {
			b.mu.Unlock()
			return
		}
		bg, cancel := context.WithCancel(ctx)
		b.cancel = cancel
		b.mu.Unlock()

		go b.dispatchLoop(bg)
		if b.opts.pruneInterval > 0 {
			go b.pruneLoop(bg)
		}
		logctx.FromOr(ctx, b.log).Info("event_bus_started",
			observability.F("queue_size", cap(b.queue)),
			observability.F("prune_interval", b.opts.pruneInterval.String()),
		)
	})
}

// Stop halts the dispatch loop after delivering what is already queued, then
// destroys every stored delegate. A bus that was never started delivers its queue
// from the calling goroutine. It returns ErrStopTimeout if ctx ends first.
func (b *Bus[A]) Stop(ctx context.Context) error {
	var err error
	b.stopOnce.Do(func() {
		b.mu.Lock()
		b.closed.Store(true)
		cancel := b.cancel
		b.mu.Unlock()

		// Wake blocked publishers, then wait out any send in progress so the
		// drain below sees every accepted value.
		close(b.closing)
		b.sendMu.Lock()
		b.sendMu.Unlock()

		if cancel != nil {
			cancel()
			select {
			case <-b.loopDone:
				// The loop may have exited on its own context before Stop.
				b.drain()
			case <-ctx.Done():
				err = fmt.Errorf("%w: %w", ErrStopTimeout, ctx.Err())
			}
		} else {
			b.drain()
			close(b.loopDone)
		}

		b.mu.Lock()
		for name, list := range b.subs {
			for _, d := range list {
				d.Destroy()
			}
			delete(b.subs, name)
		}
		b.mu.Unlock()

		logctx.FromOr(ctx, b.log).Info("event_bus_stopped")
	})
	return err
}

func (b *Bus[A]) Closed() bool {
	return b.closed.Load()
}

func (b *Bus[A]) dispatchLoop(ctx context.Context) {
	defer close(b.loopDone)
	for {
		select {
		case <-ctx.Done():
			b.drain()
			return
		case env := <-b.queue:
			b.Notify(env.ctx, env.name, env.sender, &env.args)
		}
	}
}

func (b *Bus[A]) drain() {
	for {
		select {
		case env := <-b.queue:
			b.Notify(env.ctx, env.name, env.sender, &env.args)
		default:
			return
		}
	}
}

func (b *Bus[A]) pruneLoop(ctx context.Context) {
	ticker := time.NewTicker(b.opts.pruneInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.Prune()
		}
	}
}

func (b *Bus[A]) snapshot(name string) []delegate.Delegate[A] {
	b.mu.RLock()
	defer b.mu.RUnlock()
	list := b.subs[name]
	if len(list) == 0 {
		return nil
	}
	out := make([]delegate.Delegate[A], len(list))
	for i, d := range list {
		out[i] = d.Clone()
	}
	return out
}

func (b *Bus[A]) deliver(ctx context.Context, name string, d delegate.Delegate[A], sender any, args *A) (handled bool) {
	defer func() {
		if r := recover(); r != nil {
			handled = false
			b.notifications.Add(1, observability.L("event", name), observability.L("outcome", outcomePanic))
			logctx.FromOr(ctx, b.log).Error("delegate_panic",
				observability.F("panic", r),
				observability.F("stack", string(debug.Stack())),
			)
		}
	}()

	handled = d.Notify(sender, args)
	outcome := outcomeDeclined
	if handled {
		outcome = outcomeHandled
	}
	b.notifications.Add(1, observability.L("event", name), observability.L("outcome", outcome))
	return handled
}

func (b *Bus[A]) setLocked(name string, list []delegate.Delegate[A]) {
	if len(list) == 0 {
		delete(b.subs, name)
		return
	}
	b.subs[name] = list
}
