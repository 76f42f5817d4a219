package heartbeat

import (
	"context"
	"sync"
	"time"

	"github.com/Zhima-Mochi/delegate-expiry/internal/domain/event"
	domheartbeat "github.com/Zhima-Mochi/delegate-expiry/internal/domain/heartbeat"
	"github.com/Zhima-Mochi/delegate-expiry/internal/observability"
)

const componentHeartbeat = "heartbeat_worker"

// Worker publishes a Beat every interval until stopped.
type Worker struct {
	publisher event.Publisher[domheartbeat.Beat]
	interval  time.Duration
	source    string
	log       observability.Logger

	startOnce sync.Once
	stopOnce  sync.Once
	cancel    context.CancelFunc
	done      chan struct{}
}

func New(publisher event.Publisher[domheartbeat.Beat], interval time.Duration, source string, logger observability.Logger) *Worker {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Worker{
		publisher: publisher,
		interval:  interval,
		source:    source,
		log:       logger.With(observability.F("component", componentHeartbeat)),
		done:      make(chan struct{}),
	}
}

func (w *Worker) Start(ctx context.Context) {
	if w.publisher == nil || w.interval <= 0 {
		return
	}
	w.startOnce.Do(func() {
		ctx, w.cancel = context.WithCancel(ctx)
		go w.run(ctx)
	})
}

// Stop halts the worker and waits for the publishing goroutine to exit.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() {
		if w.cancel == nil {
			return
		}
		w.cancel()
		<-w.done
	})
}

func (w *Worker) run(ctx context.Context) {
	defer close(w.done)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	var seq uint64
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			seq++
			beat := domheartbeat.NewBeat(seq, w.source)
			if err := w.publisher.Publish(ctx, beat.EventName(), w.source, beat); err != nil {
				w.log.Warn("heartbeat_publish_failed",
					observability.F("seq", seq),
					observability.F("error", err),
				)
				if ctx.Err() != nil {
					return
				}
			}
		}
	}
}
