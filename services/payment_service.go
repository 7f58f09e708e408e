package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/greenmart/checkout-service/apperrors"
	"github.com/greenmart/checkout-service/clients"
	"github.com/greenmart/checkout-service/database"
	"github.com/greenmart/checkout-service/kafka"
	"github.com/greenmart/checkout-service/models"
)

// PaymentService reconciles a payment confirmation against the committed
// order before marking it PAID.
type PaymentService interface {
	Reconcile(ctx context.Context, userID, orderID, paymentID string) (*ReconcileResult, *apperrors.Error)
}

type ReconcileResult struct {
	OrderID     string `json:"order_id"`
	RedirectURL string `json:"redirect_url"`
}

type paymentServiceImpl struct {
	payments            clients.PaymentAPI
	orders              clients.OrderAPI
	carts               clients.CartAPI
	sessions            database.SessionRepository
	transitions         TransitionService
	tokens              clients.TokenSource
	events              kafka.EventPublisher
	completeRedirectURL string
	logger              *zap.Logger
}

func NewPaymentService(
	payments clients.PaymentAPI,
	orders clients.OrderAPI,
	carts clients.CartAPI,
	sessions database.SessionRepository,
	transitions TransitionService,
	tokens clients.TokenSource,
	events kafka.EventPublisher,
	completeRedirectURL string,
	logger *zap.Logger,
) PaymentService {
	return &paymentServiceImpl{
		payments:            payments,
		orders:              orders,
		carts:               carts,
		sessions:            sessions,
		transitions:         transitions,
		tokens:              tokens,
		events:              events,
		completeRedirectURL: completeRedirectURL,
		logger:              logger,
	}
}

// Reconcile validates the provider's payment record against the order and
// advances the order to PAID. Steps 1-3 are strict: any failure aborts with
// no order mutation. Everything after the PAID patch is best-effort.
func (s *paymentServiceImpl) Reconcile(ctx context.Context, userID, orderID, paymentID string) (*ReconcileResult, *apperrors.Error) {
	record, err := s.payments.GetPayment(ctx, paymentID)
	if err != nil {
		s.logger.Error("Payment lookup failed",
			zap.String("payment_id", paymentID),
			zap.Error(err),
		)
		if clients.IsTimeout(err) {
			return nil, apperrors.ErrGatewayTimeout.WithErr(err)
		}
		if err == clients.ErrNotFound {
			return nil, apperrors.ErrPaymentNotCompleted.WithErr(err)
		}
		return nil, apperrors.ErrBadGateway.WithErr(err)
	}
	if record.Status != models.PaymentPaid {
		return nil, apperrors.ErrPaymentNotCompleted.WithErr(
			fmt.Errorf("payment %s has status %s", paymentID, record.Status))
	}

	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		if err == clients.ErrNotFound {
			return nil, apperrors.ErrOrderNotFound
		}
		if clients.IsTimeout(err) {
			return nil, apperrors.ErrGatewayTimeout.WithErr(err)
		}
		return nil, apperrors.ErrBadGateway.WithErr(err)
	}

	// Integrity guard against tampered client-submitted totals: the provider
	// record and the order's own cost breakdown must both line up.
	if !order.Cost.Consistent() {
		return nil, apperrors.ErrAmountMismatch.WithErr(
			fmt.Errorf("order %s cost breakdown is inconsistent", orderID))
	}
	if record.AmountTotal != order.Cost.Total {
		s.logger.Warn("Payment amount mismatch",
			zap.String("order_id", orderID),
			zap.String("payment_id", paymentID),
			zap.Int64("paid", record.AmountTotal),
			zap.Int64("order_total", order.Cost.Total),
		)
		return nil, apperrors.ErrAmountMismatch
	}

	// Duplicate confirmation (back button, double submit): already reconciled
	// is success, and nothing is re-patched.
	if order.State.AtLeast(models.StatePaid) {
		s.logger.Info("Order already reconciled",
			zap.String("order_id", orderID),
			zap.String("state", string(order.State)),
		)
		return s.result(orderID), nil
	}

	bearer, err := s.tokens.Token(ctx)
	if err != nil {
		s.logger.Error("Service account login failed", zap.Error(err))
		return nil, apperrors.ErrInternalServer.WithErr(err)
	}

	paidAt := time.Now().UTC()
	patched, err := s.orders.PatchState(ctx, orderID, &clients.OrderPatch{
		State:     models.StatePaid,
		PaymentID: paymentID,
		PaidAt:    &paidAt,
	}, bearer)
	if err != nil {
		s.logger.Error("Failed to mark order paid",
			zap.String("order_id", orderID),
			zap.Error(err),
		)
		if clients.IsTimeout(err) {
			return nil, apperrors.ErrGatewayTimeout.WithErr(err)
		}
		return nil, apperrors.ErrBadGateway.WithErr(err)
	}

	// From here on the payment is recorded; the rest never fails the call.
	s.cleanupSession(ctx, orderID)

	if regErr := s.transitions.RegisterPostPaymentTransitions(ctx, orderID); regErr != nil {
		s.logger.Error("Post-payment transition registration failed",
			zap.String("order_id", orderID),
			zap.Error(regErr),
		)
	}

	if err := s.events.SendOrderEvent(models.OrderEvent{
		Type:      models.EventOrderPaid,
		OrderID:   patched.ID,
		UserID:    userID,
		Amount:    record.AmountTotal,
		State:     patched.State,
		Timestamp: paidAt,
	}); err != nil {
		s.logger.Warn("Failed to publish order paid event",
			zap.String("order_id", orderID),
			zap.Error(err),
		)
	}

	s.logger.Info("Payment reconciled",
		zap.String("order_id", orderID),
		zap.String("payment_id", paymentID),
		zap.Int64("amount", record.AmountTotal),
	)
	return s.result(orderID), nil
}

// cleanupSession sweeps any cart lines the commit-time cleanup missed, then
// drops the session key.
func (s *paymentServiceImpl) cleanupSession(ctx context.Context, orderID string) {
	session, err := s.sessions.Get(ctx, orderID)
	if err != nil {
		s.logger.Warn("Failed to load checkout session",
			zap.String("order_id", orderID),
			zap.Error(err),
		)
		return
	}
	if session == nil {
		return
	}

	deleteCartLines(ctx, s.carts, session.CartLineIDs, s.logger)

	if err := s.sessions.Delete(ctx, orderID); err != nil {
		s.logger.Warn("Failed to delete checkout session",
			zap.String("order_id", orderID),
			zap.Error(err),
		)
	}
}

func (s *paymentServiceImpl) result(orderID string) *ReconcileResult {
	return &ReconcileResult{
		OrderID:     orderID,
		RedirectURL: fmt.Sprintf("%s?order_id=%s", s.completeRedirectURL, orderID),
	}
}
