package gateway

import (
	"context"
	"errors"

	"github.com/omise/omise-go"
	"github.com/omise/omise-go/operations"
	"go.uber.org/zap"

	"travelsvc/internal/domain/payment"
)

// OmiseGateway is the live processor backend. Amounts cross this boundary in
// minor units; everything above it stays decimal.
type OmiseGateway struct {
	client *omise.Client
	log    *zap.Logger
}

func NewOmise(publicKey, secretKey string, log *zap.Logger) (*OmiseGateway, error) {
	client, err := omise.NewClient(publicKey, secretKey)
	if err != nil {
		return nil, err
	}
	return &OmiseGateway{client: client, log: log}, nil
}

func (g *OmiseGateway) ProcessPayment(_ context.Context, req payment.ChargeRequest) (payment.ChargeResult, error) {
	meta := map[string]any{"idempotency_key": req.IdempotencyKey}
	for k, v := range req.Metadata {
		meta[k] = v
	}

	charge := &omise.Charge{}
	op := &operations.CreateCharge{
		Amount:   req.Amount.MinorUnits(),
		Currency: req.Amount.Currency,
		Card:     req.Method,
		Metadata: meta,
	}
	if err := g.client.Do(charge, op); err != nil {
		return payment.ChargeResult{}, translateOmiseError(err)
	}

	switch string(charge.Status) {
	case "successful":
		return payment.ChargeResult{TransactionID: charge.ID}, nil
	case "failed":
		return payment.ChargeResult{}, &payment.GatewayError{
			Code:    payment.GatewayDeclined,
			Message: failureMessage(charge),
		}
	default:
		// Still pending on the processor side; report unavailable so the
		// orchestrator's retry policy takes over.
		return payment.ChargeResult{}, &payment.GatewayError{
			Code:    payment.GatewayUnavailable,
			Message: "charge " + charge.ID + " still " + string(charge.Status),
		}
	}
}

func (g *OmiseGateway) RefundPayment(_ context.Context, req payment.RefundRequest) (payment.RefundResult, error) {
	refund := &omise.Refund{}
	op := &operations.CreateRefund{
		ChargeID: req.TransactionID,
		Amount:   req.Amount.MinorUnits(),
	}
	if err := g.client.Do(refund, op); err != nil {
		return payment.RefundResult{}, translateOmiseError(err)
	}
	return payment.RefundResult{RefundID: refund.ID}, nil
}

func (g *OmiseGateway) PaymentStatus(_ context.Context, transactionID string) (payment.TransactionStatus, error) {
	charge := &omise.Charge{}
	if err := g.client.Do(charge, &operations.RetrieveCharge{ChargeID: transactionID}); err != nil {
		return payment.TransactionUnknown, translateOmiseError(err)
	}
	switch string(charge.Status) {
	case "successful":
		return payment.TransactionSuccessful, nil
	case "failed":
		return payment.TransactionFailed, nil
	default:
		return payment.TransactionPending, nil
	}
}

func failureMessage(charge *omise.Charge) string {
	msg := "card declined"
	if charge.FailureCode != nil {
		msg = *charge.FailureCode
	}
	if charge.FailureMessage != nil {
		msg += ": " + *charge.FailureMessage
	}
	return msg
}

func translateOmiseError(err error) error {
	var oe *omise.Error
	if !errors.As(err, &oe) {
		// Transport-level failure: the charge may or may not have landed.
		return &payment.GatewayError{
			Code:    payment.GatewayUnavailable,
			Message: err.Error(),
		}
	}
	switch {
	case oe.StatusCode == 429 || oe.Code == "too_many_requests":
		return &payment.GatewayError{Code: payment.GatewayRateLimited, Message: oe.Message}
	case oe.StatusCode >= 500:
		return &payment.GatewayError{Code: payment.GatewayUnavailable, Message: oe.Message}
	case oe.StatusCode == 400 || oe.Code == "invalid_charge":
		return &payment.GatewayError{Code: payment.GatewayInvalidRequest, Message: oe.Message}
	default:
		return &payment.GatewayError{Code: payment.GatewayDeclined, Message: oe.Message}
	}
}
