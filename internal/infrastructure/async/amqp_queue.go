package async

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// AMQPQueue publishes jobs to a RabbitMQ topic exchange, routing by job name.
type AMQPQueue struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

func NewAMQPQueue(url, exchange string) (*AMQPQueue, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	return &AMQPQueue{conn: conn, ch: ch, exchange: exchange}, nil
}

func (q *AMQPQueue) Enqueue(ctx context.Context, job Job) error {
	return q.ch.PublishWithContext(ctx, q.exchange, job.Name, false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        job.Payload,
		Type:        job.Name,
	})
}

func (q *AMQPQueue) Close() error {
	if q.ch != nil {
		_ = q.ch.Close()
	}
	if q.conn != nil {
		return q.conn.Close()
	}
	return nil
}

// AMQPConsumer drains a queue bound to the job exchange and dispatches each
// delivery through the shared registry, acking on success and requeueing once
// on failure.
type AMQPConsumer struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	queue    string
	registry *Registry
	log      *zap.Logger
}

func NewAMQPConsumer(url, exchange, queue string, keys []string, registry *Registry, log *zap.Logger) (*AMQPConsumer, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	q, err := ch.QueueDeclare(queue, true, false, false, false, nil)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare queue %s: %w", queue, err)
	}
	for _, key := range keys {
		if err := ch.QueueBind(q.Name, key, exchange, false, nil); err != nil {
			_ = ch.Close()
			_ = conn.Close()
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}
	return &AMQPConsumer{conn: conn, ch: ch, queue: q.Name, registry: registry, log: log}, nil
}

func (c *AMQPConsumer) Run(ctx context.Context) error {
	deliveries, err := c.ch.ConsumeWithContext(ctx, c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", c.queue, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return nil
			}
			c.handle(ctx, d)
		}
	}
}

func (c *AMQPConsumer) handle(ctx context.Context, d amqp.Delivery) {
	job := Job{Name: d.RoutingKey, Payload: d.Body}

	var failed bool
	for _, h := range c.registry.HandlersFor(job.Name) {
		if err := h(ctx, job); err != nil {
			failed = true
			c.log.Error("job handler failed",
				zap.String("job", job.Name),
				zap.Error(err),
			)
		}
	}

	if failed && !d.Redelivered {
		_ = d.Nack(false, true)
		return
	}
	_ = d.Ack(false)
}

func (c *AMQPConsumer) Close() error {
	if c.ch != nil {
		_ = c.ch.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
