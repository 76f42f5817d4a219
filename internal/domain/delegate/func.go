package delegate

import (
	"sync/atomic"

	"github.com/google/uuid"
)

// HandlerFunc is the signature wrapped by FuncDelegate.
type HandlerFunc[A any] func(sender any, args *A) bool

// FuncDelegate adapts a plain function to the Delegate interface.
// Clones share the identity of the original so a subscription can be located by the
// delegate that registered it.
type FuncDelegate[A any] struct {
	id        uuid.UUID
	fn        HandlerFunc[A]
	destroyed atomic.Bool
}

// NewFunc returns a delegate with a fresh identity. It returns nil for a nil fn.
func NewFunc[A any](fn HandlerFunc[A]) *FuncDelegate[A] {
	if fn == nil {
		return nil
	}
	return &FuncDelegate[A]{id: uuid.New(), fn: fn}
}

func (f *FuncDelegate[A]) ID() uuid.UUID { return f.id }

func (f *FuncDelegate[A]) Notify(sender any, args *A) bool {
	if f.destroyed.Load() {
		return false
	}
	return f.fn(sender, args)
}

// Clone returns a copy sharing f's identity. A clone of a destroyed delegate is
// itself destroyed.
func (f *FuncDelegate[A]) Clone() Delegate[A] {
	c := &FuncDelegate[A]{id: f.id, fn: f.fn}
	c.destroyed.Store(f.destroyed.Load())
	return c
}

func (f *FuncDelegate[A]) Destroy() {
	f.destroyed.Store(true)
}

func (f *FuncDelegate[A]) Destroyed() bool {
	return f.destroyed.Load()
}

func (f *FuncDelegate[A]) Equal(other Delegate[A]) bool {
	for {
		e, ok := other.(*Expire[A])
		if !ok {
			break
		}
		other = e.Delegate()
	}
	o, ok := other.(*FuncDelegate[A])
	return ok && o != nil && o.id == f.id
}
