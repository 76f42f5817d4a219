package subscription

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Zhima-Mochi/delegate-expiry/internal/domain/delegate"
	"github.com/Zhima-Mochi/delegate-expiry/internal/domain/delegate/delegatetest"
	"github.com/Zhima-Mochi/delegate-expiry/internal/infrastructure/eventbus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ping struct{}

type failingSubscriber struct{ err error }

func (f failingSubscriber) Subscribe(string, delegate.Delegate[ping]) error  { return f.err }
func (f failingSubscriber) Unsubscribe(string, delegate.Delegate[ping]) bool { return false }

func setup(t *testing.T) (*RegisterUseCase[ping], *eventbus.Bus[ping], *delegatetest.ManualClock) {
	t.Helper()
	bus := eventbus.NewBus[ping](nil, nil, eventbus.WithPruneInterval(0))
	t.Cleanup(func() { _ = bus.Stop(context.Background()) })
	clock := delegatetest.NewManualClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	return NewRegisterUseCase[ping](bus, clock, nil), bus, clock
}

func TestRegisterExpiring(t *testing.T) {
	uc, bus, clock := setup(t)
	rec := delegatetest.NewRecorder[ping](true)

	res, err := uc.Execute(context.Background(), Command[ping]{
		Event: "ping", Delegate: rec, Expires: true, TTL: 50 * time.Millisecond,
	})
	require.NoError(t, err)
	assert.Equal(t, KindExpiring, res.Kind)
	assert.Equal(t, clock.Now().Add(50*time.Millisecond), res.ExpiresAt)

	assert.Equal(t, 1, bus.Notify(context.Background(), "ping", nil, &ping{}))
	clock.Advance(50 * time.Millisecond)
	assert.Zero(t, bus.Notify(context.Background(), "ping", nil, &ping{}))
	assert.EqualValues(t, 1, rec.Calls())

	assert.Equal(t, 1, bus.Prune())
}

func TestRegisterPermanent(t *testing.T) {
	uc, bus, clock := setup(t)
	rec := delegatetest.NewRecorder[ping](true)

	res, err := uc.Execute(context.Background(), Command[ping]{Event: "ping", Delegate: rec})
	require.NoError(t, err)
	assert.Equal(t, KindPermanent, res.Kind)
	assert.True(t, res.ExpiresAt.IsZero())

	clock.Advance(time.Hour)
	assert.Equal(t, 1, bus.Notify(context.Background(), "ping", nil, &ping{}))
	assert.Zero(t, bus.Prune())
}

func TestRegisterRejectsInvalidCommands(t *testing.T) {
	uc, _, _ := setup(t)
	rec := delegatetest.NewRecorder[ping](true)

	_, err := uc.Execute(context.Background(), Command[ping]{Delegate: rec})
	assert.ErrorIs(t, err, ErrEmptyEvent)

	_, err = uc.Execute(context.Background(), Command[ping]{Event: "ping", Delegate: rec, Expires: true, TTL: -time.Second})
	assert.ErrorIs(t, err, delegate.ErrNegativeTTL)

	_, err = uc.Execute(context.Background(), Command[ping]{Event: "ping", Expires: true, TTL: time.Second})
	assert.ErrorIs(t, err, delegate.ErrNilDelegate)

	_, err = uc.Execute(context.Background(), Command[ping]{Event: "ping"})
	assert.ErrorIs(t, err, delegate.ErrNilDelegate)
}

func TestRegisterDestroysLocalDecoratorOnFailure(t *testing.T) {
	boom := errors.New("boom")
	uc := NewRegisterUseCase[ping](failingSubscriber{err: boom}, nil, nil)
	rec := delegatetest.NewRecorder[ping](true)

	_, err := uc.Execute(context.Background(), Command[ping]{Event: "ping", Delegate: rec, Expires: true, TTL: time.Second})
	assert.ErrorIs(t, err, boom)
	assert.EqualValues(t, 1, rec.Destroys())
}

func TestCancelRemovesByOriginalDelegate(t *testing.T) {
	uc, bus, _ := setup(t)
	fn := delegate.NewFunc(func(any, *ping) bool { return true })

	_, err := uc.Execute(context.Background(), Command[ping]{Event: "ping", Delegate: fn, Expires: true, TTL: time.Minute})
	require.NoError(t, err)
	require.Equal(t, 1, bus.Len("ping"))

	assert.True(t, uc.Cancel(context.Background(), "ping", fn))
	assert.Zero(t, bus.Len("ping"))
	assert.False(t, uc.Cancel(context.Background(), "ping", fn))
}
