package gateway

import (
	"context"
	"fmt"
	"sync"

	"travelsvc/internal/domain/payment"
)

type sandboxCharge struct {
	id       string
	amount   int64
	refunded int64
	status   payment.TransactionStatus
}

type scripted struct {
	code  payment.GatewayErrorCode
	times int
	// phantom charges capture the money server-side and still report an
	// outage back, like a dropped connection after settlement.
	phantom bool
}

// Sandbox is the deterministic in-memory gateway. It never does network I/O,
// honors idempotency keys exactly, and lets tests script failures per key.
type Sandbox struct {
	mu      sync.Mutex
	byKey   map[string]string // idempotency key -> charge/refund id
	charges map[string]*sandboxCharge
	scripts map[string]*scripted
	seq     int
}

func NewSandbox() *Sandbox {
	return &Sandbox{
		byKey:   make(map[string]string),
		charges: make(map[string]*sandboxCharge),
		scripts: make(map[string]*scripted),
	}
}

// ScriptFailure makes the next `times` calls for the key fail with the code.
func (s *Sandbox) ScriptFailure(key string, code payment.GatewayErrorCode, times int) {
	s.mu.Lock()
	s.scripts[key] = &scripted{code: code, times: times}
	s.mu.Unlock()
}

// ScriptPhantomCharge makes the next call for the key capture the charge and
// still return GatewayUnavailable, simulating a timeout after settlement.
func (s *Sandbox) ScriptPhantomCharge(key string) {
	s.mu.Lock()
	s.scripts[key] = &scripted{code: payment.GatewayUnavailable, times: 1, phantom: true}
	s.mu.Unlock()
}

func (s *Sandbox) ProcessPayment(_ context.Context, req payment.ChargeRequest) (payment.ChargeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.byKey[req.IdempotencyKey]; ok {
		return payment.ChargeResult{TransactionID: id}, nil
	}

	if sc := s.scripts[req.IdempotencyKey]; sc != nil && sc.times > 0 {
		sc.times--
		if sc.phantom {
			id := s.nextID("txn")
			s.byKey[req.IdempotencyKey] = id
			s.charges[id] = &sandboxCharge{
				id:     id,
				amount: req.Amount.MinorUnits(),
				status: payment.TransactionSuccessful,
			}
		}
		return payment.ChargeResult{}, &payment.GatewayError{
			Code:    sc.code,
			Message: "scripted " + string(sc.code),
		}
	}

	id := s.nextID("txn")
	s.byKey[req.IdempotencyKey] = id
	s.charges[id] = &sandboxCharge{
		id:     id,
		amount: req.Amount.MinorUnits(),
		status: payment.TransactionSuccessful,
	}
	return payment.ChargeResult{TransactionID: id}, nil
}

func (s *Sandbox) RefundPayment(_ context.Context, req payment.RefundRequest) (payment.RefundResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.byKey[req.IdempotencyKey]; ok {
		return payment.RefundResult{RefundID: id}, nil
	}

	if sc := s.scripts[req.IdempotencyKey]; sc != nil && sc.times > 0 {
		sc.times--
		return payment.RefundResult{}, &payment.GatewayError{
			Code:    sc.code,
			Message: "scripted " + string(sc.code),
		}
	}

	ch, ok := s.charges[req.TransactionID]
	if !ok {
		return payment.RefundResult{}, &payment.GatewayError{
			Code:    payment.GatewayInvalidRequest,
			Message: "unknown transaction " + req.TransactionID,
		}
	}
	amount := req.Amount.MinorUnits()
	if ch.refunded+amount > ch.amount {
		return payment.RefundResult{}, &payment.GatewayError{
			Code:    payment.GatewayInvalidRequest,
			Message: "refund exceeds captured amount",
		}
	}
	ch.refunded += amount
	if ch.refunded == ch.amount {
		ch.status = payment.TransactionRefunded
	}

	id := s.nextID("rfnd")
	s.byKey[req.IdempotencyKey] = id
	return payment.RefundResult{RefundID: id}, nil
}

func (s *Sandbox) PaymentStatus(_ context.Context, transactionID string) (payment.TransactionStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch, ok := s.charges[transactionID]
	if !ok {
		return payment.TransactionUnknown, nil
	}
	return ch.status, nil
}

// ChargeCount reports how many charges were actually captured; tests use it
// to prove a retried key charged exactly once.
func (s *Sandbox) ChargeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.charges)
}

func (s *Sandbox) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s_sandbox_%06d", prefix, s.seq)
}
