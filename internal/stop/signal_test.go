package stop

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignal_InitiallyUnset(t *testing.T) {
	s := New()
	assert.False(t, s.IsSet())
	assert.Equal(t, ReasonNone, s.Reason())
	assert.False(t, s.WaitOrTimeout(0))
}

func TestSignal_SetIsIdempotent(t *testing.T) {
	s := New()

	assert.True(t, s.Set(ReasonIdleTimeout))
	assert.False(t, s.Set(ReasonManual))
	assert.False(t, s.Set(ReasonIdleTimeout))

	assert.True(t, s.IsSet())
	assert.Equal(t, ReasonIdleTimeout, s.Reason())
}

func TestSignal_SetNoneDefaultsToManual(t *testing.T) {
	s := New()
	require.True(t, s.Set(ReasonNone))
	assert.Equal(t, ReasonManual, s.Reason())
}

func TestSignal_ConcurrentSetExactlyOneWinner(t *testing.T) {
	s := New()

	var winners atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			reason := ReasonManual
			if i%2 == 0 {
				reason = ReasonIdleTimeout
			}
			if s.Set(reason) {
				winners.Add(1)
			}
		}(i)
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), winners.Load())
	assert.True(t, s.IsSet())

	select {
	case <-s.Done():
	default:
		t.Fatal("Done channel should be closed")
	}
}

func TestSignal_WaitOrTimeout_Expires(t *testing.T) {
	s := New()
	start := time.Now()
	assert.False(t, s.WaitOrTimeout(20*time.Millisecond))
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestSignal_WaitOrTimeout_WakesEarly(t *testing.T) {
	s := New()

	go func() {
		time.Sleep(10 * time.Millisecond)
		s.Set(ReasonManual)
	}()

	start := time.Now()
	assert.True(t, s.WaitOrTimeout(10*time.Second))
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestSignal_WaitOrTimeout_AlreadySet(t *testing.T) {
	s := New()
	s.Set(ReasonHostSignal)
	assert.True(t, s.WaitOrTimeout(0))
	assert.True(t, s.WaitOrTimeout(time.Hour))
}

func TestSignal_Wait(t *testing.T) {
	s := New()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, s.Wait(ctx), context.DeadlineExceeded)

	s.Set(ReasonManual)
	assert.NoError(t, s.Wait(context.Background()))
}

func TestReason_String(t *testing.T) {
	tests := []struct {
		reason Reason
		expect string
	}{
		{ReasonNone, "none"},
		{ReasonIdleTimeout, "idle timeout"},
		{ReasonManual, "manual stop"},
		{ReasonHostSignal, "host signal"},
		{Reason(42), "none"},
	}
	for _, tt := range tests {
		t.Run(tt.expect, func(t *testing.T) {
			assert.Equal(t, tt.expect, tt.reason.String())
		})
	}
}
