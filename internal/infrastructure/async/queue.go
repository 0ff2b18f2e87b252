package async

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Job is a unit of background work. Payload is an opaque serialized envelope
// so jobs survive a trip through an external broker unchanged.
type Job struct {
	Name    string
	Payload []byte
}

type JobHandler func(ctx context.Context, job Job) error

// Queue hands jobs off for out-of-band execution. The in-process PoolQueue
// serves development and tests; AMQPQueue is the broker-backed production
// path. Workers see the same Job either way.
type Queue interface {
	Enqueue(ctx context.Context, job Job) error
}

// Registry maps job names to handlers. Both queue implementations dispatch
// through one, keeping workers broker-agnostic.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string][]JobHandler
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string][]JobHandler)}
}

func (r *Registry) Register(name string, h JobHandler) {
	r.mu.Lock()
	r.handlers[name] = append(r.handlers[name], h)
	r.mu.Unlock()
}

func (r *Registry) HandlersFor(name string) []JobHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]JobHandler(nil), r.handlers[name]...)
}

// PoolQueue executes jobs on the worker pool in the same process.
type PoolQueue struct {
	pool     *WorkerPool
	registry *Registry
	log      *zap.Logger
}

func NewPoolQueue(pool *WorkerPool, registry *Registry, log *zap.Logger) *PoolQueue {
	return &PoolQueue{pool: pool, registry: registry, log: log}
}

func (q *PoolQueue) Enqueue(_ context.Context, job Job) error {
	q.pool.Submit(func(ctx context.Context) {
		for _, h := range q.registry.HandlersFor(job.Name) {
			if err := h(ctx, job); err != nil {
				q.log.Error("job handler failed",
					zap.String("job", job.Name),
					zap.Error(err),
				)
			}
		}
	})
	return nil
}
