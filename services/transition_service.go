package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/greenmart/checkout-service/apperrors"
	"github.com/greenmart/checkout-service/clients"
	"github.com/greenmart/checkout-service/kafka"
	"github.com/greenmart/checkout-service/models"
)

// TransitionService registers future order state changes with the external
// scheduler and applies them when the scheduler calls back. The scheduler
// owns all wall-clock waiting; nothing here sleeps.
type TransitionService interface {
	RegisterPostPaymentTransitions(ctx context.Context, orderID string) *apperrors.Error
	Apply(ctx context.Context, orderID string, target models.OrderState) *apperrors.Error
}

type transitionServiceImpl struct {
	scheduler     clients.SchedulerAPI
	orders        clients.OrderAPI
	tokens        clients.TokenSource
	events        kafka.EventPublisher
	publicBaseURL string
	location      *time.Location
	shippingDelay time.Duration
	deliveryDelay time.Duration
	now           func() time.Time
	logger        *zap.Logger
}

func NewTransitionService(
	scheduler clients.SchedulerAPI,
	orders clients.OrderAPI,
	tokens clients.TokenSource,
	events kafka.EventPublisher,
	publicBaseURL string,
	location *time.Location,
	shippingDelay, deliveryDelay time.Duration,
	logger *zap.Logger,
) TransitionService {
	return &transitionServiceImpl{
		scheduler:     scheduler,
		orders:        orders,
		tokens:        tokens,
		events:        events,
		publicBaseURL: publicBaseURL,
		location:      location,
		shippingDelay: shippingDelay,
		deliveryDelay: deliveryDelay,
		now:           time.Now,
		logger:        logger,
	}
}

// RegisterPostPaymentTransitions registers the SHIPPING and DELIVERED
// callbacks, concurrently. One registration failing never blocks or undoes
// the other; a missed registration degrades to "order stuck in PAID", which
// operators recover from, so the caller treats the returned error as
// log-and-continue.
func (s *transitionServiceImpl) RegisterPostPaymentTransitions(ctx context.Context, orderID string) *apperrors.Error {
	now := s.now().In(s.location)

	jobs := []*clients.SchedulerJob{
		s.buildJob(orderID, models.StateShipping, now.Add(s.shippingDelay)),
		s.buildJob(orderID, models.StateDelivered, now.Add(s.deliveryDelay)),
	}

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		failed []string
	)
	for _, job := range jobs {
		wg.Add(1)
		go func(job *clients.SchedulerJob) {
			defer wg.Done()
			if err := s.scheduler.Register(ctx, job); err != nil {
				s.logger.Error("Scheduler registration failed",
					zap.String("order_id", orderID),
					zap.String("job", job.Name),
					zap.Error(err),
				)
				mu.Lock()
				failed = append(failed, job.Name)
				mu.Unlock()
			}
		}(job)
	}
	wg.Wait()

	if len(failed) > 0 {
		return apperrors.ErrSchedulerRegistrationFailed.WithErr(
			fmt.Errorf("failed jobs: %v", failed))
	}

	s.logger.Info("Post-payment transitions registered",
		zap.String("order_id", orderID),
		zap.Time("shipping_at", now.Add(s.shippingDelay)),
		zap.Time("delivered_at", now.Add(s.deliveryDelay)),
	)
	return nil
}

func (s *transitionServiceImpl) buildJob(orderID string, target models.OrderState, triggerAt time.Time) *clients.SchedulerJob {
	return &clients.SchedulerJob{
		Name:        fmt.Sprintf("order-%s-%s", orderID, target),
		Description: fmt.Sprintf("move order %s to %s", orderID, target),
		TriggerAt:   triggerAt.In(s.location).Format(clients.TriggerTimeLayout),
		CallbackURL: fmt.Sprintf("%s/internal/orders/%s/transition", s.publicBaseURL, orderID),
	}
}

// Apply performs the state patch when the scheduler fires. It is idempotent
// by construction: the patch only ever writes the target state forward. A
// rejection from the order store (cancelled order, backward transition) is
// expected and reported as such so the handler can tell the scheduler not to
// retry.
func (s *transitionServiceImpl) Apply(ctx context.Context, orderID string, target models.OrderState) *apperrors.Error {
	if target != models.StateShipping && target != models.StateDelivered {
		return apperrors.ErrBadRequest.WithErr(fmt.Errorf("unsupported target state %q", target))
	}

	// The callback runs outside any user session; authenticate as the
	// service account.
	bearer, err := s.tokens.Token(ctx)
	if err != nil {
		s.logger.Error("Service account login failed", zap.Error(err))
		if clients.IsTimeout(err) {
			return apperrors.ErrGatewayTimeout.WithErr(err)
		}
		return apperrors.ErrInternalServer.WithErr(err)
	}

	order, err := s.orders.PatchState(ctx, orderID, &clients.OrderPatch{State: target}, bearer)
	if err != nil {
		switch {
		case err == clients.ErrTransitionRejected:
			s.logger.Info("Scheduled transition rejected by order store",
				zap.String("order_id", orderID),
				zap.String("target", string(target)),
			)
			return apperrors.ErrCallbackTransitionRejected.WithErr(err)
		case err == clients.ErrNotFound:
			return apperrors.ErrOrderNotFound.WithErr(err)
		case clients.IsTimeout(err):
			return apperrors.ErrGatewayTimeout.WithErr(err)
		default:
			s.logger.Error("Scheduled transition patch failed",
				zap.String("order_id", orderID),
				zap.String("target", string(target)),
				zap.Error(err),
			)
			return apperrors.ErrBadGateway.WithErr(err)
		}
	}

	eventType := models.EventOrderShipping
	if target == models.StateDelivered {
		eventType = models.EventOrderDelivered
	}
	if err := s.events.SendOrderEvent(models.OrderEvent{
		Type:      eventType,
		OrderID:   order.ID,
		UserID:    order.OwnerID,
		State:     order.State,
		Timestamp: time.Now().UTC(),
	}); err != nil {
		s.logger.Warn("Failed to publish transition event",
			zap.String("order_id", order.ID),
			zap.Error(err),
		)
	}

	s.logger.Info("Scheduled transition applied",
		zap.String("order_id", orderID),
		zap.String("state", string(order.State)),
	)
	return nil
}
