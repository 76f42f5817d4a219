package delegate_test

import (
	"testing"

	"github.com/Zhima-Mochi/delegate-expiry/internal/domain/delegate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFuncNil(t *testing.T) {
	assert.Nil(t, delegate.NewFunc[tick](nil))
}

func TestFuncDelegateCloneSharesIdentity(t *testing.T) {
	calls := 0
	fn := delegate.NewFunc(func(any, *tick) bool {
		calls++
		return true
	})
	c := fn.Clone()

	assert.True(t, fn.Equal(c))
	assert.True(t, c.Equal(fn))
	assert.False(t, fn.Equal(delegate.NewFunc(func(any, *tick) bool { return true })))

	require.True(t, c.Notify(nil, &tick{}))
	assert.Equal(t, 1, calls)
}

func TestFuncDelegateDestroy(t *testing.T) {
	calls := 0
	fn := delegate.NewFunc(func(any, *tick) bool {
		calls++
		return true
	})
	c := fn.Clone()

	fn.Destroy()
	fn.Destroy()
	assert.True(t, fn.Destroyed())
	assert.False(t, fn.Notify(nil, &tick{}))
	assert.True(t, c.Notify(nil, &tick{}))
	assert.Equal(t, 1, calls)
}

func TestFuncDelegateCloneOfDestroyedStaysDestroyed(t *testing.T) {
	calls := 0
	fn := delegate.NewFunc(func(any, *tick) bool {
		calls++
		return true
	})
	fn.Destroy()

	c := fn.Clone()
	assert.False(t, c.Notify(nil, &tick{}))
	assert.True(t, c.(*delegate.FuncDelegate[tick]).Destroyed())
	assert.True(t, fn.Equal(c))
	assert.Zero(t, calls)
}

func TestFuncDelegateEqualUnwrapsNestedExpire(t *testing.T) {
	fn := delegate.NewFunc(func(any, *tick) bool { return true })
	inner, err := delegate.NewExpire[tick](fn, 100)
	require.NoError(t, err)
	outer, err := delegate.NewExpire[tick](inner, 100)
	require.NoError(t, err)

	assert.True(t, fn.Equal(outer))
	assert.True(t, outer.Equal(fn))
}

func TestExpiredHelper(t *testing.T) {
	fn := delegate.NewFunc(func(any, *tick) bool { return true })
	assert.False(t, delegate.Expired[tick](fn))

	e, err := delegate.NewExpire[tick](fn, 0)
	require.NoError(t, err)
	assert.True(t, delegate.Expired[tick](e))
}
