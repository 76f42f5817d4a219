package heartbeat

import (
	"context"
	"sync"
	"testing"
	"time"

	domheartbeat "github.com/Zhima-Mochi/delegate-expiry/internal/domain/heartbeat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu    sync.Mutex
	beats []domheartbeat.Beat
}

func (p *recordingPublisher) Publish(_ context.Context, name string, _ any, args domheartbeat.Beat) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if name == domheartbeat.EventName {
		p.beats = append(p.beats, args)
	}
	return nil
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.beats)
}

func TestWorkerPublishesSequentialBeats(t *testing.T) {
	pub := &recordingPublisher{}
	w := New(pub, 5*time.Millisecond, "test", nil)

	w.Start(context.Background())
	require.Eventually(t, func() bool { return pub.count() >= 3 }, time.Second, time.Millisecond)
	w.Stop()
	w.Stop()

	pub.mu.Lock()
	defer pub.mu.Unlock()
	for i, b := range pub.beats {
		assert.EqualValues(t, i+1, b.Seq)
		assert.Equal(t, "test", b.Source)
	}
}

func TestWorkerStopWithoutStart(t *testing.T) {
	w := New(&recordingPublisher{}, time.Second, "test", nil)
	assert.NotPanics(t, w.Stop)
}

func TestWorkerIgnoresInvalidInterval(t *testing.T) {
	pub := &recordingPublisher{}
	w := New(pub, 0, "test", nil)
	w.Start(context.Background())
	w.Stop()
	assert.Zero(t, pub.count())
}
