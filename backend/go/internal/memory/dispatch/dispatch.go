package dispatch

import (
	"HealthMate/backend/go/internal/models"
	"context"
	"fmt"
	"sync"
)

// Processor 执行一次记忆提取任务。
type Processor interface {
	ProcessTask(ctx context.Context, task models.MemoryTask)
}

// Dispatcher 把记忆提取任务交给后台执行，调用方不等待任务完成。
type Dispatcher interface {
	Dispatch(ctx context.Context, task models.MemoryTask) error
	// Close 在给定期限内尽力排空尚未完成的任务。
	Close(ctx context.Context) error
}

// GoroutineDispatcher 在进程内为每个任务启动一个 goroutine。进程退出时未完成的任务可能丢失。
type GoroutineDispatcher struct {
	processor Processor
	wg        sync.WaitGroup
}

// NewGoroutineDispatcher creates a new GoroutineDispatcher.
func NewGoroutineDispatcher(p Processor) *GoroutineDispatcher {
	return &GoroutineDispatcher{processor: p}
}

// Dispatch 立即返回。任务使用脱离请求取消的上下文，保证请求结束后仍能完成。
func (d *GoroutineDispatcher) Dispatch(ctx context.Context, task models.MemoryTask) error {
	bg := context.WithoutCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.processor.ProcessTask(bg, task)
	}()
	return nil
}

// Close 等待所有已分发的任务结束，或直到 ctx 到期。
func (d *GoroutineDispatcher) Close(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("memory tasks still running at shutdown: %w", ctx.Err())
	}
}
