package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/greenmart/checkout-service/apperrors"
	"github.com/greenmart/checkout-service/clients"
	"github.com/greenmart/checkout-service/models"
)

type transitionFixture struct {
	svc       *transitionServiceImpl
	scheduler *mockSchedulerAPI
	orders    *mockOrderAPI
	events    *mockEvents
	location  *time.Location
}

func newTransitionFixture(t *testing.T) *transitionFixture {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Seoul")
	assert.NoError(t, err)

	f := &transitionFixture{
		scheduler: &mockSchedulerAPI{},
		orders:    &mockOrderAPI{},
		events:    &mockEvents{},
		location:  loc,
	}
	svc := NewTransitionService(
		f.scheduler, f.orders, &mockTokenSource{token: "svc-token"}, f.events,
		"https://checkout.greenmart.io", loc, 24*time.Hour, 48*time.Hour,
		zap.NewNop(),
	)
	f.svc = svc.(*transitionServiceImpl)
	return f
}

func TestRegisterPostPaymentTransitions(t *testing.T) {
	f := newTransitionFixture(t)
	now := time.Date(2026, 8, 30, 14, 30, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return now }

	err := f.svc.RegisterPostPaymentTransitions(context.Background(), "ord-1")
	assert.Nil(t, err)

	jobs := f.scheduler.registered()
	assert.Len(t, jobs, 2)

	byName := map[string]*clients.SchedulerJob{}
	for _, job := range jobs {
		byName[job.Name] = job
	}

	shipping := byName["order-ord-1-SHIPPING"]
	assert.NotNil(t, shipping)
	assert.Equal(t, now.Add(24*time.Hour).In(f.location).Format(clients.TriggerTimeLayout), shipping.TriggerAt)
	assert.Equal(t, "https://checkout.greenmart.io/internal/orders/ord-1/transition", shipping.CallbackURL)

	delivered := byName["order-ord-1-DELIVERED"]
	assert.NotNil(t, delivered)
	assert.Equal(t, now.Add(48*time.Hour).In(f.location).Format(clients.TriggerTimeLayout), delivered.TriggerAt)
}

func TestRegisterTriggerTimesAreReferenceLocal(t *testing.T) {
	f := newTransitionFixture(t)
	// 2026-08-30 23:00 UTC is 2026-08-31 08:00 in Seoul; the scheduler is
	// timezone-naive, so the formatted time must be the Seoul wall clock.
	now := time.Date(2026, 8, 30, 23, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return now }

	err := f.svc.RegisterPostPaymentTransitions(context.Background(), "ord-1")
	assert.Nil(t, err)

	for _, job := range f.scheduler.registered() {
		if job.Name == "order-ord-1-SHIPPING" {
			assert.Equal(t, "2026-09-01 08:00:00", job.TriggerAt)
		}
	}
}

func TestRegisterOneFailureDoesNotBlockOther(t *testing.T) {
	f := newTransitionFixture(t)
	f.scheduler.failFor = map[string]error{
		"order-ord-1-SHIPPING": errors.New("scheduler rejected job"),
	}

	err := f.svc.RegisterPostPaymentTransitions(context.Background(), "ord-1")
	assert.ErrorIs(t, err, apperrors.ErrSchedulerRegistrationFailed)

	jobs := f.scheduler.registered()
	assert.Len(t, jobs, 1)
	assert.Equal(t, "order-ord-1-DELIVERED", jobs[0].Name)
}

func TestApplyShipping(t *testing.T) {
	f := newTransitionFixture(t)
	f.orders.patchOrder = &models.Order{ID: "ord-1", OwnerID: "user-1", State: models.StateShipping}

	err := f.svc.Apply(context.Background(), "ord-1", models.StateShipping)
	assert.Nil(t, err)

	assert.Equal(t, 1, f.orders.patchCalls)
	assert.Equal(t, models.StateShipping, f.orders.lastPatch.State)
	assert.Equal(t, "svc-token", f.orders.lastBearer)
	assert.Equal(t, []string{models.EventOrderShipping}, f.events.types())
}

func TestApplyDelivered(t *testing.T) {
	f := newTransitionFixture(t)
	f.orders.patchOrder = &models.Order{ID: "ord-1", OwnerID: "user-1", State: models.StateDelivered}

	err := f.svc.Apply(context.Background(), "ord-1", models.StateDelivered)
	assert.Nil(t, err)
	assert.Equal(t, []string{models.EventOrderDelivered}, f.events.types())
}

func TestApplyRejectsUnsupportedTarget(t *testing.T) {
	f := newTransitionFixture(t)

	for _, target := range []models.OrderState{models.StatePending, models.StatePaid, models.StateCancelled} {
		err := f.svc.Apply(context.Background(), "ord-1", target)
		assert.NotNil(t, err, fmt.Sprintf("target %s must be rejected", target))
		assert.Equal(t, apperrors.ErrBadRequest.Code, err.Code)
	}
	assert.Equal(t, 0, f.orders.patchCalls)
}

func TestApplyTransitionRejectedByStore(t *testing.T) {
	f := newTransitionFixture(t)
	f.orders.patchErr = clients.ErrTransitionRejected

	err := f.svc.Apply(context.Background(), "ord-1", models.StateShipping)
	assert.ErrorIs(t, err, apperrors.ErrCallbackTransitionRejected)
	assert.Empty(t, f.events.types())
}

func TestApplyOrderMissing(t *testing.T) {
	f := newTransitionFixture(t)
	f.orders.patchErr = clients.ErrNotFound

	err := f.svc.Apply(context.Background(), "ord-1", models.StateShipping)
	assert.ErrorIs(t, err, apperrors.ErrOrderNotFound)
}

func TestApplyServiceLoginFailure(t *testing.T) {
	f := newTransitionFixture(t)
	svc := NewTransitionService(
		f.scheduler, f.orders, &mockTokenSource{err: errors.New("auth down")}, f.events,
		"https://checkout.greenmart.io", f.location, 24*time.Hour, 48*time.Hour,
		zap.NewNop(),
	)

	err := svc.Apply(context.Background(), "ord-1", models.StateShipping)
	assert.NotNil(t, err)
	assert.Equal(t, 0, f.orders.patchCalls)
}
