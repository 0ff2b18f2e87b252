package async

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"travelsvc/internal/domain"
)

// Bus is the synchronous in-process event bus. Handlers run in registration
// order on the publisher's goroutine; a handler error or panic is logged and
// never reaches the publisher or suppresses later handlers. Handlers must
// therefore only do quick, non-blocking work (cache writes, queue handoff).
type Bus struct {
	mu   sync.RWMutex
	subs map[string][]domain.Handler
	log  *zap.Logger
}

func NewBus(log *zap.Logger) *Bus {
	return &Bus{
		subs: make(map[string][]domain.Handler),
		log:  log,
	}
}

func (b *Bus) Subscribe(eventName string, h domain.Handler) {
	b.mu.Lock()
	b.subs[eventName] = append(b.subs[eventName], h)
	b.mu.Unlock()
}

func (b *Bus) Unsubscribe(eventName string, h domain.Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	handlers := b.subs[eventName]
	for i, existing := range handlers {
		if existing == h {
			b.subs[eventName] = append(handlers[:i:i], handlers[i+1:]...)
			return
		}
	}
}

func (b *Bus) Publish(ctx context.Context, e domain.Event) {
	b.mu.RLock()
	handlers := append([]domain.Handler(nil), b.subs[e.Name()]...)
	b.mu.RUnlock()

	for _, h := range handlers {
		b.dispatch(ctx, h, e)
	}
}

func (b *Bus) dispatch(ctx context.Context, h domain.Handler, e domain.Event) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("event handler panicked",
				zap.String("event", e.Name()),
				zap.String("aggregate_id", e.AggregateID()),
				zap.Any("panic", r),
			)
		}
	}()

	if err := h.Handle(ctx, e); err != nil {
		b.log.Error("event handler failed",
			zap.String("event", e.Name()),
			zap.String("aggregate_id", e.AggregateID()),
			zap.Error(err),
		)
	}
}
