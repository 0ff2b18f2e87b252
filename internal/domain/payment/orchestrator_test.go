package payment_test

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"travelsvc/internal/domain"
	"travelsvc/internal/domain/payment"
)

type gatewayFake struct {
	chargeCalls int
	refundCalls int
	failures    []payment.GatewayErrorCode // consumed one per call
}

func (g *gatewayFake) nextFailure() *payment.GatewayError {
	if len(g.failures) == 0 {
		return nil
	}
	code := g.failures[0]
	g.failures = g.failures[1:]
	return &payment.GatewayError{Code: code, Message: "scripted " + string(code)}
}

func (g *gatewayFake) ProcessPayment(_ context.Context, _ payment.ChargeRequest) (payment.ChargeResult, error) {
	g.chargeCalls++
	if err := g.nextFailure(); err != nil {
		return payment.ChargeResult{}, err
	}
	return payment.ChargeResult{TransactionID: "txn_1"}, nil
}

func (g *gatewayFake) RefundPayment(_ context.Context, _ payment.RefundRequest) (payment.RefundResult, error) {
	g.refundCalls++
	if err := g.nextFailure(); err != nil {
		return payment.RefundResult{}, err
	}
	return payment.RefundResult{RefundID: "rfnd_1"}, nil
}

func (g *gatewayFake) PaymentStatus(_ context.Context, _ string) (payment.TransactionStatus, error) {
	return payment.TransactionSuccessful, nil
}

func chargeReq() payment.ChargeRequest {
	return payment.ChargeRequest{Amount: domain.MoneyFromMinorUnits(15000, "USD"), Method: "card"}
}

func TestOrchestrator_Charge_RetriesRateLimited(t *testing.T) {
	gw := &gatewayFake{failures: []payment.GatewayErrorCode{
		payment.GatewayRateLimited,
		payment.GatewayRateLimited,
	}}
	o := payment.NewOrchestrator(gw, zap.NewNop())

	txnID, err := o.Charge(context.Background(), "charge:b1", chargeReq())
	if err != nil {
		t.Fatalf("Charge error: %v", err)
	}
	if txnID != "txn_1" {
		t.Fatalf("expected txn_1, got %s", txnID)
	}
	if gw.chargeCalls != 3 {
		t.Fatalf("expected 3 gateway calls, got %d", gw.chargeCalls)
	}
}

func TestOrchestrator_Charge_DeclineIsTerminal(t *testing.T) {
	gw := &gatewayFake{failures: []payment.GatewayErrorCode{payment.GatewayDeclined}}
	o := payment.NewOrchestrator(gw, zap.NewNop())

	_, err := o.Charge(context.Background(), "charge:b2", chargeReq())
	if err == nil {
		t.Fatal("expected decline error")
	}
	ge, ok := payment.AsGatewayError(err)
	if !ok || ge.Code != payment.GatewayDeclined {
		t.Fatalf("expected declined gateway error, got %v", err)
	}
	if gw.chargeCalls != 1 {
		t.Fatalf("declines must not be retried, got %d calls", gw.chargeCalls)
	}
}

func TestOrchestrator_Charge_GivesUpAfterMaxAttempts(t *testing.T) {
	gw := &gatewayFake{failures: []payment.GatewayErrorCode{
		payment.GatewayUnavailable,
		payment.GatewayUnavailable,
		payment.GatewayUnavailable,
		payment.GatewayUnavailable,
	}}
	o := payment.NewOrchestrator(gw, zap.NewNop())

	_, err := o.Charge(context.Background(), "charge:b3", chargeReq())
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if gw.chargeCalls != 3 {
		t.Fatalf("expected exactly 3 attempts, got %d", gw.chargeCalls)
	}
}

func TestOrchestrator_Charge_IdempotencyShortCircuit(t *testing.T) {
	gw := &gatewayFake{}
	o := payment.NewOrchestrator(gw, zap.NewNop())

	first, err := o.Charge(context.Background(), "charge:b4", chargeReq())
	if err != nil {
		t.Fatalf("first Charge error: %v", err)
	}
	second, err := o.Charge(context.Background(), "charge:b4", chargeReq())
	if err != nil {
		t.Fatalf("second Charge error: %v", err)
	}
	if first != second {
		t.Fatalf("expected identical transaction ids, got %s and %s", first, second)
	}
	if gw.chargeCalls != 1 {
		t.Fatalf("repeat of a completed key must not touch the gateway, got %d calls", gw.chargeCalls)
	}
}

func TestOrchestrator_Refund_RetriesThenRemembers(t *testing.T) {
	gw := &gatewayFake{failures: []payment.GatewayErrorCode{payment.GatewayUnavailable}}
	o := payment.NewOrchestrator(gw, zap.NewNop())

	req := payment.RefundRequest{TransactionID: "txn_1", Amount: domain.MoneyFromMinorUnits(5000, "USD")}
	refundID, err := o.Refund(context.Background(), "refund:p1", req)
	if err != nil {
		t.Fatalf("Refund error: %v", err)
	}
	if gw.refundCalls != 2 {
		t.Fatalf("expected 2 gateway calls, got %d", gw.refundCalls)
	}

	again, err := o.Refund(context.Background(), "refund:p1", req)
	if err != nil {
		t.Fatalf("repeat Refund error: %v", err)
	}
	if again != refundID || gw.refundCalls != 2 {
		t.Fatalf("repeat refund must short-circuit, got id %s after %d calls", again, gw.refundCalls)
	}
}
