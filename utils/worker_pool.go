package utils

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
)

// WorkerPool 表示一个常驻工作池
// 感知阶段借助它并行计算各车辆的规划输入，任务必须只读共享状态
type WorkerPool struct {
	jobs    chan func()
	wg      sync.WaitGroup
	workers int
	closed  atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewWorkerPool 创建并启动工作池
// workers 不为正时取 GOMAXPROCS
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	ctx, cancel := context.WithCancel(context.Background())
	pool := &WorkerPool{
		jobs:    make(chan func(), workers*2),
		workers: workers,
		ctx:     ctx,
		cancel:  cancel,
	}
	pool.start()
	return pool
}

func (p *WorkerPool) start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for {
				select {
				case <-p.ctx.Done():
					return
				case job, ok := <-p.jobs:
					if !ok {
						return
					}
					job()
				}
			}
		}()
	}
}

// Submit 提交一个任务
// 工作池已关闭时返回 false
func (p *WorkerPool) Submit(job func()) bool {
	if p.closed.Load() {
		return false
	}

	select {
	case p.jobs <- job:
		return true
	case <-p.ctx.Done():
		return false
	}
}

// ForEach 将 [0, n) 均分给各工作者并阻塞到全部完成
// fn 按下标并发执行，调用方保证各下标间无写冲突
func (p *WorkerPool) ForEach(n int, fn func(i int)) {
	if n <= 0 {
		return
	}
	if p.closed.Load() || n < p.workers*2 {
		// 规模太小时串行更快
		for i := 0; i < n; i++ {
			fn(i)
		}
		return
	}

	chunk := (n + p.workers - 1) / p.workers
	var wg sync.WaitGroup
	for lo := 0; lo < n; lo += chunk {
		hi := lo + chunk
		if hi > n {
			hi = n
		}
		wg.Add(1)
		ok := p.Submit(func() {
			defer wg.Done()
			for i := lo; i < hi; i++ {
				fn(i)
			}
		})
		if !ok {
			for i := lo; i < hi; i++ {
				fn(i)
			}
			wg.Done()
		}
	}
	wg.Wait()
}

// Stop 关闭工作池并等待所有工作协程退出
func (p *WorkerPool) Stop() {
	if p.closed.Swap(true) {
		return
	}
	p.cancel()
	close(p.jobs)
	p.wg.Wait()
}
