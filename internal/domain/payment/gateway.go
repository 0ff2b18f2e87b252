package payment

import (
	"context"
	"errors"
	"net/http"

	"travelsvc/internal/domain"
)

func AsGatewayError(err error) (*GatewayError, bool) {
	var ge *GatewayError
	if errors.As(err, &ge) {
		return ge, true
	}
	return nil, false
}

type GatewayErrorCode string

const (
	GatewayDeclined       GatewayErrorCode = "declined"
	GatewayRateLimited    GatewayErrorCode = "rate_limited"
	GatewayInvalidRequest GatewayErrorCode = "invalid_request"
	GatewayUnavailable    GatewayErrorCode = "unavailable"
)

// GatewayError is the taxonomy surfaced by every gateway backend. Timeouts and
// dropped connections are reported as GatewayUnavailable.
type GatewayError struct {
	Code    GatewayErrorCode
	Message string
}

func (e *GatewayError) Error() string {
	return "gateway " + string(e.Code) + ": " + e.Message
}

func (e *GatewayError) Retryable() bool {
	return e.Code == GatewayRateLimited || e.Code == GatewayUnavailable
}

type ChargeRequest struct {
	Amount         domain.Money
	Method         string
	IdempotencyKey string
	Metadata       map[string]string
}

type ChargeResult struct {
	TransactionID string
}

type RefundRequest struct {
	TransactionID  string
	Amount         domain.Money
	IdempotencyKey string
}

type RefundResult struct {
	RefundID string
}

type TransactionStatus string

const (
	TransactionPending    TransactionStatus = "pending"
	TransactionSuccessful TransactionStatus = "successful"
	TransactionFailed     TransactionStatus = "failed"
	TransactionRefunded   TransactionStatus = "refunded"
	TransactionUnknown    TransactionStatus = "unknown"
)

// Gateway talks to the external payment processor. Implementations must be
// interchangeable without changing use-case logic.
type Gateway interface {
	ProcessPayment(ctx context.Context, req ChargeRequest) (ChargeResult, error)
	RefundPayment(ctx context.Context, req RefundRequest) (RefundResult, error)
	PaymentStatus(ctx context.Context, transactionID string) (TransactionStatus, error)
}

// TranslateError maps a gateway error onto the domain taxonomy. Non-gateway
// errors pass through for the caller to wrap.
func TranslateError(err error) error {
	ge, ok := AsGatewayError(err)
	if !ok {
		return err
	}
	switch ge.Code {
	case GatewayDeclined:
		return &domain.DomainError{
			Code:       domain.ErrorCodePaymentDeclined,
			Message:    ge.Message,
			HTTPStatus: http.StatusPaymentRequired,
		}
	case GatewayRateLimited:
		return &domain.DomainError{
			Code:       domain.ErrorCodePaymentRateLimited,
			Message:    ge.Message,
			HTTPStatus: http.StatusTooManyRequests,
		}
	case GatewayInvalidRequest:
		return &domain.DomainError{
			Code:       domain.ErrorCodeValidation,
			Message:    ge.Message,
			HTTPStatus: http.StatusBadRequest,
		}
	default:
		return &domain.DomainError{
			Code:       domain.ErrorCodePaymentUnavailable,
			Message:    ge.Message,
			HTTPStatus: http.StatusServiceUnavailable,
		}
	}
}
