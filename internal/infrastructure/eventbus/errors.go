package eventbus

import "errors"

var (
	ErrBusClosed   = errors.New("eventbus: closed")
	ErrEmptyName   = errors.New("eventbus: empty event name")
	ErrStopTimeout = errors.New("eventbus: stop timed out")
)
