package staticd

import (
	"bytes"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncBuffer 供多个worker并发写日志
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) logf(format string, args ...any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fmt.Fprintf(&b.buf, format+"\n", args...)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func discardf(string, ...any) {}

// blockWorker 提交一个阻塞任务，返回时该任务已经在执行
func blockWorker(t *testing.T, p *workerPool) (release func()) {
	t.Helper()
	started := make(chan struct{})
	gate := make(chan struct{})
	require.NoError(t, p.Submit(func() {
		close(started)
		<-gate
	}))
	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("blocking task never started")
	}
	var once sync.Once
	return func() { once.Do(func() { close(gate) }) }
}

func TestPoolFIFO(t *testing.T) {
	p := newWorkerPool(1, 64, OverflowBlock, discardf)
	p.Start()
	release := blockWorker(t, p)

	var mu sync.Mutex
	var order []int
	for i := 0; i < 20; i++ {
		i := i
		require.NoError(t, p.Submit(func() {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		}))
	}
	assert.Equal(t, 20, p.Queued())

	release()
	p.Close()
	p.Wait()

	want := make([]int, 20)
	for i := range want {
		want[i] = i
	}
	assert.Equal(t, want, order)
}

func TestPoolConcurrencyCeiling(t *testing.T) {
	const workers, tasks = 3, 30
	p := newWorkerPool(workers, tasks, OverflowBlock, discardf)
	p.Start()

	var running, peak atomic.Int32
	var done atomic.Int32
	for i := 0; i < tasks; i++ {
		require.NoError(t, p.Submit(func() {
			n := running.Add(1)
			for {
				old := peak.Load()
				if n <= old || peak.CompareAndSwap(old, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			running.Add(-1)
			done.Add(1)
		}))
	}
	p.Close()
	p.Wait()

	assert.Equal(t, int32(tasks), done.Load())
	assert.LessOrEqual(t, peak.Load(), int32(workers))
	assert.Equal(t, 0, p.Active())
}

func TestPoolRecoversPanic(t *testing.T) {
	logs := &syncBuffer{}
	p := newWorkerPool(1, 4, OverflowBlock, logs.logf)
	p.Start()

	served := make(chan struct{})
	require.NoError(t, p.Submit(func() { panic("boom") }))
	require.NoError(t, p.Submit(func() { close(served) }))

	select {
	case <-served:
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not survive the panic")
	}
	p.Close()
	p.Wait()

	assert.Contains(t, logs.String(), "task panicked: boom")
	assert.Equal(t, 1, p.Workers())
}

func TestPoolRejectWhenFull(t *testing.T) {
	p := newWorkerPool(1, 1, OverflowReject, discardf)
	p.Start()
	release := blockWorker(t, p)
	defer release()

	require.NoError(t, p.Submit(func() {}))
	assert.ErrorIs(t, p.Submit(func() {}), ErrQueueFull)
	assert.Equal(t, 1, p.Queued())
	assert.Equal(t, 1, p.Active())
}

func TestPoolBlockedSubmitReleasedByClose(t *testing.T) {
	p := newWorkerPool(1, 1, OverflowBlock, discardf)
	p.Start()
	release := blockWorker(t, p)
	require.NoError(t, p.Submit(func() {}))

	errC := make(chan error, 1)
	go func() { errC <- p.Submit(func() {}) }()

	select {
	case err := <-errC:
		t.Fatalf("submit should block while the queue is full, got %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	p.Close()
	select {
	case err := <-errC:
		assert.ErrorIs(t, err, ErrPoolClosed)
	case <-time.After(5 * time.Second):
		t.Fatal("blocked submit was not released by Close")
	}
	release()
	p.Wait()
}

func TestPoolCloseDrainsQueue(t *testing.T) {
	p := newWorkerPool(2, 16, OverflowBlock, discardf)
	var count atomic.Int32
	for i := 0; i < 10; i++ {
		require.NoError(t, p.Submit(func() { count.Add(1) }))
	}
	// 先入队再启动
	p.Start()
	p.Close()
	p.Close()
	p.Wait()

	assert.Equal(t, int32(10), count.Load())
	assert.ErrorIs(t, p.Submit(func() {}), ErrPoolClosed)
}
