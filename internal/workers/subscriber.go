package workers

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"travelsvc/internal/domain"
	"travelsvc/internal/infrastructure/async"
)

const notifyJobPrefix = "notify."

// Subscriber bridges the in-process event bus to the job queue. It only
// serializes the envelope and enqueues; channel delivery happens in
// NotificationWorker, off the request path.
type Subscriber struct {
	queue async.Queue
	log   *zap.Logger
}

func NewSubscriber(queue async.Queue, log *zap.Logger) *Subscriber {
	return &Subscriber{queue: queue, log: log}
}

func (s *Subscriber) Register(bus *async.Bus) {
	for _, name := range []string{
		domain.EventBookingCreated,
		domain.EventBookingCancelled,
		domain.EventBookingCompleted,
		domain.EventPaymentProcessed,
		domain.EventVendorPayout,
	} {
		bus.Subscribe(name, s)
	}
}

func (s *Subscriber) Handle(ctx context.Context, e domain.Event) error {
	env, err := domain.NewEnvelope(e)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(env)
	if err != nil {
		return err
	}
	s.log.Debug("enqueueing notification job",
		zap.String("event", e.Name()),
		zap.String("aggregate_id", e.AggregateID()),
	)
	return s.queue.Enqueue(ctx, async.Job{Name: notifyJobPrefix + e.Name(), Payload: payload})
}
