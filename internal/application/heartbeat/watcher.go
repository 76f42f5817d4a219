package heartbeat

import (
	"sync/atomic"

	"github.com/Zhima-Mochi/delegate-expiry/internal/domain/delegate"
	domheartbeat "github.com/Zhima-Mochi/delegate-expiry/internal/domain/heartbeat"
	"github.com/Zhima-Mochi/delegate-expiry/internal/observability"
)

// Watcher logs the heartbeats it receives. Its delegate is typically registered
// with an expiration so watching stops on its own.
type Watcher struct {
	name     string
	log      observability.Logger
	seen     atomic.Uint64
	delegate *delegate.FuncDelegate[domheartbeat.Beat]
}

func NewWatcher(name string, logger observability.Logger) *Watcher {
	if logger == nil {
		logger = observability.NopLogger()
	}
	w := &Watcher{
		name: name,
		log:  logger.With(observability.F("watcher", name)),
	}
	w.delegate = delegate.NewFunc(w.onBeat)
	return w
}

// Delegate returns the delegate to register. Clones share its identity, so it can
// also be used to cancel the registration.
func (w *Watcher) Delegate() *delegate.FuncDelegate[domheartbeat.Beat] {
	return w.delegate
}

// Seen is the number of beats delivered to the watcher.
func (w *Watcher) Seen() uint64 { return w.seen.Load() }

func (w *Watcher) onBeat(sender any, beat *domheartbeat.Beat) bool {
	if beat == nil {
		return false
	}
	n := w.seen.Add(1)
	w.log.Info("heartbeat_watched",
		observability.F("seq", beat.Seq),
		observability.F("sender", sender),
		observability.F("seen", n),
	)
	return true
}
