package delegatetest

import (
	"sync/atomic"

	"github.com/Zhima-Mochi/delegate-expiry/internal/domain/delegate"
)

// Recorder is a delegate that counts the notifications it receives and the number of
// times any of its clones were destroyed.
type Recorder[A any] struct {
	calls     *atomic.Int64
	destroys  *atomic.Int64
	result    bool
	destroyed bool
}

func NewRecorder[A any](result bool) *Recorder[A] {
	return &Recorder[A]{
		calls:    &atomic.Int64{},
		destroys: &atomic.Int64{},
		result:   result,
	}
}

func (r *Recorder[A]) Notify(any, *A) bool {
	if r.destroyed {
		return false
	}
	r.calls.Add(1)
	return r.result
}

func (r *Recorder[A]) Clone() delegate.Delegate[A] {
	return &Recorder[A]{calls: r.calls, destroys: r.destroys, result: r.result}
}

func (r *Recorder[A]) Destroy() {
	if r.destroyed {
		return
	}
	r.destroyed = true
	r.destroys.Add(1)
}

func (r *Recorder[A]) Equal(other delegate.Delegate[A]) bool {
	if e, ok := other.(*delegate.Expire[A]); ok {
		other = e.Delegate()
	}
	o, ok := other.(*Recorder[A])
	return ok && o != nil && o.calls == r.calls
}

// Calls is the number of notifications delivered to this recorder or its clones.
func (r *Recorder[A]) Calls() int64 { return r.calls.Load() }

// Destroys is the number of distinct clones that have been destroyed.
func (r *Recorder[A]) Destroys() int64 { return r.destroys.Load() }
