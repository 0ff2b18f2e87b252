package payment

import (
	"context"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

const maxAttempts = 3

var initialBackoff = 200 * time.Millisecond

// Orchestrator wraps the gateway with the retry and idempotency policy shared
// by every money-moving use case. Rate limits and outages are retried with
// backoff; declines and invalid requests surface immediately. A key whose
// prior attempt is known to have succeeded is short-circuited locally without
// touching the gateway again.
type Orchestrator struct {
	gateway Gateway
	log     *zap.Logger

	mu        sync.Mutex
	completed map[string]string // idempotency key -> transaction/refund id
}

func NewOrchestrator(gw Gateway, log *zap.Logger) *Orchestrator {
	return &Orchestrator{
		gateway:   gw,
		log:       log,
		completed: make(map[string]string),
	}
}

func (o *Orchestrator) Charge(ctx context.Context, key string, req ChargeRequest) (string, error) {
	if id, ok := o.recall(key); ok {
		o.log.Info("charge short-circuited by idempotency key",
			zap.String("key", key),
			zap.String("transaction_id", id),
		)
		return id, nil
	}
	req.IdempotencyKey = key

	var txnID string
	err := o.withRetry(ctx, key, "charge", func(ctx context.Context) error {
		res, err := o.gateway.ProcessPayment(ctx, req)
		if err != nil {
			return err
		}
		txnID = res.TransactionID
		return nil
	})
	if err != nil {
		return "", err
	}
	o.remember(key, txnID)
	return txnID, nil
}

func (o *Orchestrator) Refund(ctx context.Context, key string, req RefundRequest) (string, error) {
	if id, ok := o.recall(key); ok {
		o.log.Info("refund short-circuited by idempotency key",
			zap.String("key", key),
			zap.String("refund_id", id),
		)
		return id, nil
	}
	req.IdempotencyKey = key

	var refundID string
	err := o.withRetry(ctx, key, "refund", func(ctx context.Context) error {
		res, err := o.gateway.RefundPayment(ctx, req)
		if err != nil {
			return err
		}
		refundID = res.RefundID
		return nil
	})
	if err != nil {
		return "", err
	}
	o.remember(key, refundID)
	return refundID, nil
}

func (o *Orchestrator) Status(ctx context.Context, transactionID string) (TransactionStatus, error) {
	return o.gateway.PaymentStatus(ctx, transactionID)
}

func (o *Orchestrator) withRetry(ctx context.Context, key, op string, fn func(ctx context.Context) error) error {
	backoff := retry.WithMaxRetries(maxAttempts-1, retry.NewExponential(initialBackoff))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if ge, ok := AsGatewayError(err); ok && ge.Retryable() {
			o.log.Warn("gateway call failed, will retry",
				zap.String("op", op),
				zap.String("key", key),
				zap.Error(err),
			)
			return retry.RetryableError(err)
		}
		return err
	})
}

func (o *Orchestrator) recall(key string) (string, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	id, ok := o.completed[key]
	return id, ok
}

func (o *Orchestrator) remember(key, id string) {
	o.mu.Lock()
	o.completed[key] = id
	o.mu.Unlock()
}
