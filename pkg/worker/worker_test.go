package worker

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerManager_ProcessesAllJobs(t *testing.T) {
	w := NewWorkerManager(4, 3, nil)

	var sum atomic.Int64
	w.SetWorker(func(_ int, job interface{}) {
		sum.Add(int64(job.(int)))
	})
	require.NoError(t, w.Start())

	for i := 1; i <= 100; i++ {
		require.NoError(t, w.Enqueue(i))
	}
	w.Close()

	assert.Equal(t, int64(5050), sum.Load())
}

func TestWorkerManager_PanickingJobDoesNotStopOthers(t *testing.T) {
	w := NewWorkerManager(10, 1, nil)

	var mu sync.Mutex
	var seen []int
	w.SetWorker(func(_ int, job interface{}) {
		n := job.(int)
		if n == 2 {
			panic("bad job")
		}
		mu.Lock()
		seen = append(seen, n)
		mu.Unlock()
	})
	require.NoError(t, w.Start())

	for i := 1; i <= 3; i++ {
		require.NoError(t, w.Enqueue(i))
	}
	w.Close()

	assert.Equal(t, []int{1, 3}, seen)
}

func TestWorkerManager_EnqueueAfterClose(t *testing.T) {
	w := NewWorkerManager(1, 1, nil)
	w.SetWorker(func(int, interface{}) {})
	require.NoError(t, w.Start())
	w.Close()
	w.Close()

	assert.ErrorIs(t, w.Enqueue(1), ErrWorkerClosed)
}

func TestWorkerManager_StartWithoutHandler(t *testing.T) {
	w := NewWorkerManager(1, 1, nil)
	assert.Error(t, w.Start())
}
