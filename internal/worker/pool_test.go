package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestSubmitRunsAll(t *testing.T) {
	p := NewPool(3)

	var n atomic.Int32
	for i := 0; i < 20; i++ {
		require.NoError(t, p.Submit(func(context.Context) { n.Add(1) }))
	}
	p.Close()

	assert.Equal(t, int32(20), n.Load())
}

func TestSubmitIsBounded(t *testing.T) {
	const size = 2
	p := NewPool(size)

	var running, peak atomic.Int32
	release := make(chan struct{})
	for i := 0; i < 6; i++ {
		require.NoError(t, p.Submit(func(context.Context) {
			cur := running.Add(1)
			for {
				old := peak.Load()
				if cur <= old || peak.CompareAndSwap(old, cur) {
					break
				}
			}
			<-release
			running.Add(-1)
		}))
	}

	require.Eventually(t, func() bool { return running.Load() == size }, time.Second, time.Millisecond)
	close(release)
	p.Close()

	assert.Equal(t, int32(size), peak.Load())
}

func TestSubmitDoesNotBlockCaller(t *testing.T) {
	p := NewPool(1)
	block := make(chan struct{})

	done := make(chan struct{})
	go func() {
		for i := 0; i < 5; i++ {
			_ = p.Submit(func(context.Context) { <-block })
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Submit blocked")
	}
	close(block)
	p.Close()
}

func TestGoDeliversResult(t *testing.T) {
	p := NewPool(2)

	var (
		mu  sync.Mutex
		got []int
	)
	for i := 1; i <= 3; i++ {
		require.NoError(t, Go(p, func(context.Context) int { return i * 10 }, func(v int) {
			mu.Lock()
			got = append(got, v)
			mu.Unlock()
		}))
	}
	p.Close()

	assert.ElementsMatch(t, []int{10, 20, 30}, got)
}

func TestSubmitAfterClose(t *testing.T) {
	p := NewPool(1)
	p.Close()

	assert.ErrorIs(t, p.Submit(func(context.Context) {}), ErrClosed)
}

func TestPanickingTaskDoesNotKillPool(t *testing.T) {
	p := NewPool(1)

	var ran atomic.Bool
	require.NoError(t, p.Submit(func(context.Context) { panic("boom") }))
	require.NoError(t, p.Submit(func(context.Context) { ran.Store(true) }))
	p.Close()

	assert.True(t, ran.Load())
}

func TestCloseWaitsForFollowUps(t *testing.T) {
	p := NewPool(1)

	var followed atomic.Bool
	started := make(chan struct{})
	proceed := make(chan struct{})
	require.NoError(t, p.Submit(func(context.Context) {
		close(started)
		<-proceed
		assert.NoError(t, p.Submit(func(context.Context) { followed.Store(true) }))
	}))

	<-started
	closed := make(chan struct{})
	go func() {
		p.Close()
		close(closed)
	}()
	close(proceed)
	<-closed

	assert.True(t, followed.Load())
}

func TestSingleWorkerKeepsOrder(t *testing.T) {
	for trial := 0; trial < 50; trial++ {
		p := NewPool(1)

		var got []int
		for i := 0; i < 20; i++ {
			require.NoError(t, p.Submit(func(context.Context) { got = append(got, i) }))
		}
		p.Close()

		want := make([]int, 20)
		for i := range want {
			want[i] = i
		}
		require.Equal(t, want, got, "trial %d", trial)
	}
}
