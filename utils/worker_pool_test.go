package utils

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerPoolSubmit(t *testing.T) {
	pool := NewWorkerPool(4)
	defer pool.Stop()

	var counter atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		ok := pool.Submit(func() {
			defer wg.Done()
			counter.Add(1)
		})
		require.True(t, ok)
	}
	wg.Wait()
	assert.Equal(t, int64(100), counter.Load())
}

func TestWorkerPoolForEachCoversAllIndices(t *testing.T) {
	pool := NewWorkerPool(4)
	defer pool.Stop()

	out := make([]int64, 10000)
	pool.ForEach(len(out), func(i int) {
		out[i] = int64(i) * 2
	})
	for i, v := range out {
		require.Equal(t, int64(i)*2, v)
	}

	// 小规模与空集同样正确
	small := make([]int64, 3)
	pool.ForEach(len(small), func(i int) { small[i] = 1 })
	assert.Equal(t, []int64{1, 1, 1}, small)
	pool.ForEach(0, func(int) { t.Fatal("must not be called") })
}

func TestWorkerPoolStoppedFallsBackToSerial(t *testing.T) {
	pool := NewWorkerPool(2)
	pool.Stop()

	assert.False(t, pool.Submit(func() {}))

	// 已关闭的池退化为串行执行，不丢任务
	out := make([]int, 100)
	pool.ForEach(len(out), func(i int) { out[i] = i })
	for i, v := range out {
		require.Equal(t, i, v)
	}

	pool.Stop() // 重复关闭无害
}
