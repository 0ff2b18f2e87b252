package async

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

type Task func(ctx context.Context)

// taskTimeout bounds a single task; notification sends and job handlers must
// finish inside it.
const taskTimeout = 30 * time.Second

// WorkerPool runs queued tasks on a fixed set of goroutines, isolating panics
// so one bad task cannot take a worker down.
type WorkerPool struct {
	tasks  chan Task
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
	log    *zap.Logger
}

func NewWorkerPool(parent context.Context, size int, log *zap.Logger) *WorkerPool {
	ctx, cancel := context.WithCancel(parent)
	p := &WorkerPool{
		tasks:  make(chan Task),
		ctx:    ctx,
		cancel: cancel,
		log:    log,
	}

	for i := 0; i < size; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	return p
}

func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case task, ok := <-p.tasks:
			if !ok {
				return
			}
			p.runTask(id, task)
		}
	}
}

func (p *WorkerPool) runTask(workerID int, task Task) {
	taskCtx, cancel := context.WithTimeout(p.ctx, taskTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			p.log.Error("worker task panicked",
				zap.Int("worker", workerID),
				zap.Any("panic", r),
			)
		}
	}()
	task(taskCtx)
}

func (p *WorkerPool) Submit(task Task) {
	select {
	case <-p.ctx.Done():
		return
	case p.tasks <- task:
	}
}

func (p *WorkerPool) Shutdown() {
	p.cancel()
	close(p.tasks)
	p.wg.Wait()
}
