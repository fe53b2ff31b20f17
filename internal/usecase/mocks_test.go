package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	domain "github.com/amplerun/zain-crafter/internal/entity"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- catalog ---

type mockCatalog struct {
	products map[string]Product
}

func (m *mockCatalog) GetProduct(_ context.Context, id string) (Product, error) {
	p, ok := m.products[id]
	if !ok {
		return Product{}, fmt.Errorf("%w: %s", domain.ErrProductNotFound, id)
	}
	return p, nil
}

// --- inventory ledger ---

type mockLedger struct {
	mu       sync.Mutex
	stock    map[string]int
	releases int
}

func newMockLedger(stock map[string]int) *mockLedger {
	return &mockLedger{stock: stock}
}

func (m *mockLedger) Reserve(_ context.Context, lines []domain.OrderLine) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range lines {
		avail, ok := m.stock[l.ProductID]
		if !ok {
			return fmt.Errorf("%w: %s", domain.ErrProductNotFound, l.ProductID)
		}
		if avail < l.Quantity {
			return &domain.InsufficientStockError{ProductID: l.ProductID, Requested: l.Quantity, Available: avail}
		}
	}
	for _, l := range lines {
		m.stock[l.ProductID] -= l.Quantity
	}
	return nil
}

func (m *mockLedger) Release(_ context.Context, lines []domain.OrderLine) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.releases++
	for _, l := range lines {
		m.stock[l.ProductID] += l.Quantity
	}
	return nil
}

func (m *mockLedger) stockOf(id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stock[id]
}

// --- order repo ---

type mockOrderRepo struct {
	mu         sync.Mutex
	orders     map[string]*domain.Order
	failCreate bool
	states     map[domain.Channel]domain.SendState
	details    map[domain.Channel]string
}

func newMockOrderRepo() *mockOrderRepo {
	return &mockOrderRepo{
		orders:  make(map[string]*domain.Order),
		states:  make(map[domain.Channel]domain.SendState),
		details: make(map[domain.Channel]string),
	}
}

func (m *mockOrderRepo) Create(_ context.Context, o *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failCreate {
		return fmt.Errorf("db down")
	}
	m.orders[o.ID] = o
	return nil
}

func (m *mockOrderRepo) GetByID(_ context.Context, id string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return o, nil
}

func (m *mockOrderRepo) ListByCustomer(_ context.Context, customerID string) ([]*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Order
	for _, o := range m.orders {
		if o.CustomerID == customerID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *mockOrderRepo) ListAll(_ context.Context) ([]*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Order
	for _, o := range m.orders {
		out = append(out, o)
	}
	return out, nil
}

func (m *mockOrderRepo) Update(_ context.Context, o *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[o.ID]; !ok {
		return domain.ErrOrderNotFound
	}
	m.orders[o.ID] = o
	return nil
}

func (m *mockOrderRepo) SetNotificationState(_ context.Context, _ string, ch domain.Channel, st domain.SendState, detail string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[ch] = st
	m.details[ch] = detail
	return nil
}

func (m *mockOrderRepo) stateOf(ch domain.Channel) domain.SendState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.states[ch]
}

// --- dispatch queue ---

type mockQueue struct {
	mu          sync.Mutex
	jobs        []DispatchJob
	failEnqueue bool
}

func (m *mockQueue) Enqueue(job DispatchJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failEnqueue {
		return ErrQueueFull
	}
	m.jobs = append(m.jobs, job)
	return nil
}

func (m *mockQueue) jobCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.jobs)
}

// --- idempotency ---

type mockIdem struct {
	mu    sync.Mutex
	locks map[string]bool
	vals  map[string]string
}

func newMockIdem() *mockIdem {
	return &mockIdem{locks: make(map[string]bool), vals: make(map[string]string)}
}

func (m *mockIdem) TryLock(_ context.Context, scope, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := scope + ":" + key
	if m.locks[k] {
		return false, nil
	}
	m.locks[k] = true
	return true, nil
}

func (m *mockIdem) Unlock(_ context.Context, scope, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, scope+":"+key)
	return nil
}

func (m *mockIdem) Remember(_ context.Context, scope, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vals[scope+":"+key] = value
	return nil
}

func (m *mockIdem) Recall(_ context.Context, scope, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.vals[scope+":"+key]
	return v, ok, nil
}

// --- settings ---

type mockSettings struct {
	cfg NotificationConfig
	err error
}

func (m *mockSettings) NotificationConfig(context.Context) (NotificationConfig, error) {
	return m.cfg, m.err
}

func allEnabledConfig() NotificationConfig {
	return NotificationConfig{
		SellerAlertEnabled:   true,
		SellerAddress:        "15550001111",
		CustomerAlertEnabled: true,
		AuditLogEnabled:      true,
		AuditSheetID:         "sheet-1",
	}
}

// --- notification channel ---

type fakeChannel struct {
	name    domain.Channel
	events  []domain.EventKind
	sendErr error
	delay   time.Duration

	mu    sync.Mutex
	calls int
}

func (f *fakeChannel) Name() domain.Channel { return f.name }

func (f *fakeChannel) Handles(event domain.EventKind) bool {
	for _, e := range f.events {
		if e == event {
			return true
		}
	}
	return false
}

func (f *fakeChannel) Send(ctx context.Context, _ *domain.Order, _ domain.EventKind, _ NotificationConfig) error {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return f.sendErr
}

func (f *fakeChannel) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// --- authorizer ---

type roleAuthz struct{}

func (roleAuthz) IsSellerOrAdmin(actor Actor) bool {
	return actor.Role == "seller" || actor.Role == "admin"
}
