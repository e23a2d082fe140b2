package observability

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewShutdownManager_DefaultTimeout(t *testing.T) {
	sm := NewShutdownManager(NewNopLogger(), nil, 0)
	assert.Equal(t, 30*time.Second, sm.shutdownTimeout)

	sm = NewShutdownManager(NewNopLogger(), nil, time.Second)
	assert.Equal(t, time.Second, sm.shutdownTimeout)
}

func TestShutdownManager_RunsAllFuncs(t *testing.T) {
	sm := NewShutdownManager(NewNopLogger(), &http.Server{}, time.Second)

	var calls int32
	for i := 0; i < 3; i++ {
		sm.RegisterShutdownFunc(func(context.Context) error {
			atomic.AddInt32(&calls, 1)
			return nil
		})
	}

	require.NoError(t, sm.Shutdown())
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestShutdownManager_ReportsFailure(t *testing.T) {
	sm := NewShutdownManager(NewNopLogger(), nil, time.Second)
	sm.RegisterShutdownFunc(func(context.Context) error { return errors.New("close failed") })

	err := sm.Shutdown()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "close failed")
}

func TestShutdownManager_Timeout(t *testing.T) {
	sm := NewShutdownManager(NewNopLogger(), nil, 20*time.Millisecond)
	block := make(chan struct{})
	defer close(block)
	sm.RegisterShutdownFunc(func(context.Context) error {
		<-block
		return nil
	})

	err := sm.Shutdown()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeout")
}

func TestShutdownManager_WaitForShutdownOnContext(t *testing.T) {
	sm := NewShutdownManager(NewNopLogger(), nil, time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NoError(t, sm.WaitForShutdown(ctx))
}
