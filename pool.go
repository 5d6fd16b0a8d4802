package staticd

import (
	"errors"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

var (
	// ErrQueueFull 队列已满且策略为reject
	ErrQueueFull = errors.New("staticd: work queue is full")
	// ErrPoolClosed 工作池已关闭，不再接受任务
	ErrPoolClosed = errors.New("staticd: worker pool is closed")
)

// task 一个待处理的连接
type task func()

// workerPool 固定数量的worker从同一个有界队列中按FIFO顺序取任务
type workerPool struct {
	workers int
	policy  OverflowPolicy
	queue   chan task
	done    chan struct{} // 关闭时唤醒阻塞在Submit上的调用方
	logf    func(format string, args ...any)

	mu        sync.RWMutex // 保护closed，避免向已关闭的queue发送
	closed    bool
	startOnce sync.Once
	closeOnce sync.Once
	wg        sync.WaitGroup
	active    atomic.Int32
}

func newWorkerPool(workers, queueSize int, policy OverflowPolicy, logf func(string, ...any)) *workerPool {
	return &workerPool{
		workers: workers,
		policy:  policy,
		queue:   make(chan task, queueSize),
		done:    make(chan struct{}),
		logf:    logf,
	}
}

// Start 启动全部worker，只生效一次
func (p *workerPool) Start() {
	p.startOnce.Do(func() {
		for i := 0; i < p.workers; i++ {
			p.wg.Add(1)
			go p.worker(i)
		}
		p.logf("staticd: worker pool started with %d workers, queue size %d", p.workers, cap(p.queue))
	})
}

// Submit 把任务放到队尾。队列满时按策略阻塞或返回ErrQueueFull
func (p *workerPool) Submit(t task) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}
	if p.policy == OverflowReject {
		select {
		case p.queue <- t:
			return nil
		default:
			return ErrQueueFull
		}
	}
	select {
	case p.queue <- t:
		return nil
	case <-p.done:
		return ErrPoolClosed
	}
}

func (p *workerPool) worker(id int) {
	defer p.wg.Done()
	for t := range p.queue {
		p.run(id, t)
	}
}

// run 任务panic只影响当前任务，worker继续取下一个
func (p *workerPool) run(id int, t task) {
	p.active.Add(1)
	defer func() {
		p.active.Add(-1)
		if err := recover(); err != nil {
			p.logf("staticd: worker %d: task panicked: %v\n%s", id, err, debug.Stack())
		}
	}()
	t()
}

// Close 停止接受新任务，已排队的任务仍会被执行完
func (p *workerPool) Close() {
	p.closeOnce.Do(func() {
		close(p.done)
		p.mu.Lock()
		p.closed = true
		close(p.queue)
		p.mu.Unlock()
	})
}

// Wait 等待所有worker退出，需要先调用Close
func (p *workerPool) Wait() { p.wg.Wait() }

func (p *workerPool) Workers() int { return p.workers }
func (p *workerPool) Queued() int  { return len(p.queue) }
func (p *workerPool) Active() int  { return int(p.active.Load()) }
