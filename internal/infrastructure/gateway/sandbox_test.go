package gateway_test

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"travelsvc/internal/domain"
	"travelsvc/internal/domain/payment"
	"travelsvc/internal/infrastructure/gateway"
)

func usd(minor int64) domain.Money {
	return domain.MoneyFromMinorUnits(minor, "USD")
}

func TestSandbox_PhantomChargeChargesExactlyOnce(t *testing.T) {
	sb := gateway.NewSandbox()
	o := payment.NewOrchestrator(sb, zap.NewNop())

	// First attempt captures the money but reports an outage; the retry must
	// land on the already-captured charge instead of charging again.
	sb.ScriptPhantomCharge("charge:b1")

	txnID, err := o.Charge(context.Background(), "charge:b1", payment.ChargeRequest{
		Amount: usd(15000),
		Method: "card",
	})
	if err != nil {
		t.Fatalf("Charge error: %v", err)
	}
	if txnID == "" {
		t.Fatal("expected a transaction id")
	}
	if sb.ChargeCount() != 1 {
		t.Fatalf("expected exactly one captured charge, got %d", sb.ChargeCount())
	}

	status, err := sb.PaymentStatus(context.Background(), txnID)
	if err != nil || status != payment.TransactionSuccessful {
		t.Fatalf("expected successful status, got %s (%v)", status, err)
	}
}

func TestSandbox_ScriptedDecline(t *testing.T) {
	sb := gateway.NewSandbox()
	sb.ScriptFailure("charge:b2", payment.GatewayDeclined, 1)

	_, err := sb.ProcessPayment(context.Background(), payment.ChargeRequest{
		Amount:         usd(5000),
		IdempotencyKey: "charge:b2",
	})
	ge, ok := payment.AsGatewayError(err)
	if !ok || ge.Code != payment.GatewayDeclined {
		t.Fatalf("expected declined, got %v", err)
	}
	if sb.ChargeCount() != 0 {
		t.Fatal("a declined charge must not be captured")
	}

	// The script is spent; the retry of the same key goes through.
	res, err := sb.ProcessPayment(context.Background(), payment.ChargeRequest{
		Amount:         usd(5000),
		IdempotencyKey: "charge:b2",
	})
	if err != nil || res.TransactionID == "" {
		t.Fatalf("expected success after the script expired, got %v", err)
	}
}

func TestSandbox_RefundBoundedByCapture(t *testing.T) {
	sb := gateway.NewSandbox()

	res, err := sb.ProcessPayment(context.Background(), payment.ChargeRequest{
		Amount:         usd(10000),
		IdempotencyKey: "charge:b3",
	})
	if err != nil {
		t.Fatalf("ProcessPayment error: %v", err)
	}

	if _, err := sb.RefundPayment(context.Background(), payment.RefundRequest{
		TransactionID:  res.TransactionID,
		Amount:         usd(6000),
		IdempotencyKey: "refund:1",
	}); err != nil {
		t.Fatalf("partial refund error: %v", err)
	}

	_, err = sb.RefundPayment(context.Background(), payment.RefundRequest{
		TransactionID:  res.TransactionID,
		Amount:         usd(6000),
		IdempotencyKey: "refund:2",
	})
	ge, ok := payment.AsGatewayError(err)
	if !ok || ge.Code != payment.GatewayInvalidRequest {
		t.Fatalf("expected invalid_request for over-refund, got %v", err)
	}

	if _, err := sb.RefundPayment(context.Background(), payment.RefundRequest{
		TransactionID:  res.TransactionID,
		Amount:         usd(4000),
		IdempotencyKey: "refund:3",
	}); err != nil {
		t.Fatalf("remaining refund error: %v", err)
	}

	status, _ := sb.PaymentStatus(context.Background(), res.TransactionID)
	if status != payment.TransactionRefunded {
		t.Fatalf("expected refunded status, got %s", status)
	}
}
