package delegate

import "errors"

var (
	ErrNilDelegate = errors.New("delegate: nil delegate")
	ErrNegativeTTL = errors.New("delegate: negative expiration")
)

// Delegate is the code to run when an event fires.
//
// Notify returns true when the delegate handled the notification. Clone returns an
// independent copy that the caller owns; Destroy releases whatever the delegate holds and
// must be safe to call more than once. Equal reports whether two delegates refer to the
// same subscription target.
type Delegate[A any] interface {
	Notify(sender any, args *A) bool
	Clone() Delegate[A]
	Destroy()
	Equal(other Delegate[A]) bool
}

// Expirer is implemented by delegates that stop delivering after a deadline.
type Expirer interface {
	Expired() bool
}

// Expired reports whether d is an Expirer past its deadline.
func Expired[A any](d Delegate[A]) bool {
	e, ok := d.(Expirer)
	return ok && e.Expired()
}
