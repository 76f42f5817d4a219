package delegate

import (
	"math"
	"time"
)

// maxExpireMillis is the longest expiration a time.Duration can hold.
const maxExpireMillis = int64(math.MaxInt64 / int64(time.Millisecond))

// Expire decorates a Delegate so that it stops delivering notifications once its
// expiration has elapsed since construction.
//
// Expiration is evaluated lazily on every Notify; no timer is involved and the
// decorator never unregisters itself. Copies keep the original creation time, so a
// copy expires at the same instant as its source.
//
// Expire has no internal synchronization. Notify may run concurrently with other
// Notify calls, but Assign and Destroy must be serialized by the owner.
type Expire[A any] struct {
	inner     Delegate[A]
	ttl       time.Duration
	createdAt time.Time
	clock     Clock
}

type ExpireOption func(*expireOptions)

type expireOptions struct {
	clock Clock
}

// WithClock overrides the time source, mainly for tests.
func WithClock(c Clock) ExpireOption {
	return func(o *expireOptions) {
		if c != nil {
			o.clock = c
		}
	}
}

// NewExpire wraps a clone of d that expires expireMillis milliseconds from now.
// An expiration of zero does not mean "never": such a decorator declines every
// notification. Expirations beyond what a time.Duration holds are capped at the
// largest Duration.
func NewExpire[A any](d Delegate[A], expireMillis int64, opts ...ExpireOption) (*Expire[A], error) {
	if IsNil(d) {
		return nil, ErrNilDelegate
	}
	if expireMillis < 0 {
		return nil, ErrNegativeTTL
	}

	o := expireOptions{clock: SystemClock{}}
	for _, opt := range opts {
		opt(&o)
	}

	ttl := time.Duration(math.MaxInt64)
	if expireMillis <= maxExpireMillis {
		ttl = time.Duration(expireMillis*1000) * time.Microsecond
	}

	return &Expire[A]{
		inner:     d.Clone(),
		ttl:       ttl,
		createdAt: o.clock.Now(),
		clock:     o.clock,
	}, nil
}

// Copy returns an independent decorator owning its own clone of the wrapped delegate.
func (e *Expire[A]) Copy() *Expire[A] {
	c := &Expire[A]{
		ttl:       e.ttl,
		createdAt: e.createdAt,
		clock:     e.clock,
	}
	if e.inner != nil {
		c.inner = e.inner.Clone()
	}
	return c
}

// Assign replaces the wrapped delegate with a clone of src's and takes over its
// expiration and creation time. Assigning a decorator to itself does nothing.
func (e *Expire[A]) Assign(src *Expire[A]) {
	if src == nil || src == e {
		return
	}
	e.Destroy()
	if src.inner != nil {
		e.inner = src.inner.Clone()
	}
	e.ttl = src.ttl
	e.createdAt = src.createdAt
	e.clock = src.clock
}

// Notify forwards to the wrapped delegate unless the decorator has expired or been
// destroyed, in which case it returns false.
func (e *Expire[A]) Notify(sender any, args *A) bool {
	if e.inner == nil || e.Expired() {
		return false
	}
	return e.inner.Notify(sender, args)
}

func (e *Expire[A]) Clone() Delegate[A] {
	return e.Copy()
}

// Destroy releases the wrapped delegate. Subsequent calls are no-ops.
func (e *Expire[A]) Destroy() {
	if e.inner == nil {
		return
	}
	inner := e.inner
	e.inner = nil
	inner.Destroy()
}

// Equal compares by the wrapped delegate, so an Expire matches the delegate it was
// built from as well as other decorators around the same target.
func (e *Expire[A]) Equal(other Delegate[A]) bool {
	if e.inner == nil || IsNil(other) {
		return false
	}
	if o, ok := other.(*Expire[A]); ok {
		other = o.Delegate()
		if other == nil {
			return false
		}
	}
	return e.inner.Equal(other)
}

// Delegate returns the wrapped delegate, or nil once destroyed. Callers must not
// destroy or retain it beyond the decorator's lifetime.
func (e *Expire[A]) Delegate() Delegate[A] {
	if e == nil {
		return nil
	}
	return e.inner
}

func (e *Expire[A]) Expired() bool {
	clock := e.clock
	if clock == nil {
		clock = SystemClock{}
	}
	return clock.Since(e.createdAt) >= e.ttl
}

func (e *Expire[A]) ExpiresAt() time.Time {
	return e.createdAt.Add(e.ttl)
}

func (e *Expire[A]) TTL() time.Duration { return e.ttl }

func (e *Expire[A]) CreatedAt() time.Time { return e.createdAt }

func (e *Expire[A]) Destroyed() bool { return e.inner == nil }

// IsNil reports whether d is nil or a typed nil pointer to a known delegate type.
func IsNil[A any](d Delegate[A]) bool {
	if d == nil {
		return true
	}
	switch v := d.(type) {
	case *FuncDelegate[A]:
		return v == nil
	case *Expire[A]:
		return v == nil
	}
	return false
}
