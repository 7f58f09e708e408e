package services

import (
	"context"
	"sync"

	"github.com/greenmart/checkout-service/apperrors"
	"github.com/greenmart/checkout-service/clients"
	"github.com/greenmart/checkout-service/models"
)

// ---- mock order gateway ----

type mockOrderAPI struct {
	createOrder *models.Order
	createErr   error
	createCalls int
	lastCreate  *clients.CreateOrderRequest

	getOrder *models.Order
	getErr   error

	patchOrder *models.Order
	patchErr   error
	patchCalls int
	lastPatch  *clients.OrderPatch
	lastBearer string
}

func (m *mockOrderAPI) Create(_ context.Context, req *clients.CreateOrderRequest) (*models.Order, error) {
	m.createCalls++
	m.lastCreate = req
	return m.createOrder, m.createErr
}

func (m *mockOrderAPI) Get(_ context.Context, _ string) (*models.Order, error) {
	return m.getOrder, m.getErr
}

func (m *mockOrderAPI) PatchState(_ context.Context, _ string, patch *clients.OrderPatch, bearer string) (*models.Order, error) {
	m.patchCalls++
	m.lastPatch = patch
	m.lastBearer = bearer
	if m.patchErr != nil {
		return nil, m.patchErr
	}
	if m.patchOrder != nil {
		return m.patchOrder, nil
	}
	return &models.Order{ID: "ord-1", State: patch.State}, nil
}

// ---- mock cart gateway ----

type mockCartAPI struct {
	mu      sync.Mutex
	deleted []string
	failFor map[string]error
}

func (m *mockCartAPI) DeleteLine(_ context.Context, lineID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.failFor[lineID]; ok {
		return err
	}
	m.deleted = append(m.deleted, lineID)
	return nil
}

func (m *mockCartAPI) deletedLines() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.deleted...)
}

// ---- mock session repository ----

type mockSessionRepo struct {
	mu      sync.Mutex
	saved   map[string]*models.CheckoutSession
	saveErr error
	getErr  error
	deleted []string
}

func newMockSessionRepo() *mockSessionRepo {
	return &mockSessionRepo{saved: make(map[string]*models.CheckoutSession)}
}

func (m *mockSessionRepo) Save(_ context.Context, session *models.CheckoutSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved[session.OrderID] = session
	return nil
}

func (m *mockSessionRepo) Get(_ context.Context, orderID string) (*models.CheckoutSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.saved[orderID], nil
}

func (m *mockSessionRepo) Delete(_ context.Context, orderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.saved, orderID)
	m.deleted = append(m.deleted, orderID)
	return nil
}

// ---- mock event publisher ----

type mockEvents struct {
	mu     sync.Mutex
	events []models.OrderEvent
	err    error
}

func (m *mockEvents) SendOrderEvent(event models.OrderEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, event)
	return nil
}

func (m *mockEvents) types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.events))
	for _, e := range m.events {
		out = append(out, e.Type)
	}
	return out
}

// ---- mock payment gateway ----

type mockPaymentAPI struct {
	record *models.PaymentRecord
	err    error
}

func (m *mockPaymentAPI) GetPayment(_ context.Context, _ string) (*models.PaymentRecord, error) {
	return m.record, m.err
}

// ---- mock scheduler ----

type mockSchedulerAPI struct {
	mu      sync.Mutex
	jobs    []*clients.SchedulerJob
	failFor map[string]error // keyed by job name
}

func (m *mockSchedulerAPI) Register(_ context.Context, job *clients.SchedulerJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.failFor[job.Name]; ok {
		return err
	}
	m.jobs = append(m.jobs, job)
	return nil
}

func (m *mockSchedulerAPI) registered() []*clients.SchedulerJob {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*clients.SchedulerJob(nil), m.jobs...)
}

// ---- mock token source ----

type mockTokenSource struct {
	token string
	err   error
}

func (m *mockTokenSource) Token(_ context.Context) (string, error) {
	return m.token, m.err
}

// ---- mock transition registrar ----

type mockTransitions struct {
	mu         sync.Mutex
	registered []string
	err        *apperrors.Error
}

func (m *mockTransitions) RegisterPostPaymentTransitions(_ context.Context, orderID string) *apperrors.Error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registered = append(m.registered, orderID)
	return m.err
}

func (m *mockTransitions) Apply(_ context.Context, _ string, _ models.OrderState) *apperrors.Error {
	return nil
}
