package usecase

import (
	"context"

	domain "github.com/amplerun/zain-crafter/internal/entity"
)

// Actor is the authenticated caller as seen by the pipeline.
type Actor struct {
	ID   string
	Name string
	Role string // "customer" | "seller" | "admin"
}

// OrderRepo persists order aggregates. Orders are append-only: there is no
// delete, only status supersession.
type OrderRepo interface {
	Create(ctx context.Context, o *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	ListByCustomer(ctx context.Context, customerID string) ([]*domain.Order, error)
	ListAll(ctx context.Context) ([]*domain.Order, error)
	Update(ctx context.Context, o *domain.Order) error
	SetNotificationState(ctx context.Context, orderID string, ch domain.Channel, st domain.SendState, detail string) error
}

// InventoryLedger is the only mutator of product stock. Reserve is
// all-or-nothing across every line of the order.
type InventoryLedger interface {
	Reserve(ctx context.Context, lines []domain.OrderLine) error
	Release(ctx context.Context, lines []domain.OrderLine) error
}

type Product struct {
	ID        string
	Name      string
	UnitCents int64
	Stock     int
}

// Catalog is the read-only collaborator used to snapshot prices and names.
type Catalog interface {
	GetProduct(ctx context.Context, id string) (Product, error)
}

// NotificationConfig carries the channel toggles and targets. It is fetched
// once per dispatch call, never read from ambient global state.
type NotificationConfig struct {
	SellerAlertEnabled   bool
	SellerAddress        string
	CustomerAlertEnabled bool
	AuditLogEnabled      bool
	AuditSheetID         string
}

func (c NotificationConfig) Enabled(ch domain.Channel) bool {
	switch ch {
	case domain.ChannelSellerAlert:
		return c.SellerAlertEnabled && c.SellerAddress != ""
	case domain.ChannelCustomerAlert:
		return c.CustomerAlertEnabled
	case domain.ChannelAuditLog:
		return c.AuditLogEnabled && c.AuditSheetID != ""
	}
	return false
}

type SettingsSource interface {
	NotificationConfig(ctx context.Context) (NotificationConfig, error)
}

// NotifyChannel delivers one event kind to one external sink.
type NotifyChannel interface {
	Name() domain.Channel
	Handles(event domain.EventKind) bool
	Send(ctx context.Context, o *domain.Order, event domain.EventKind, cfg NotificationConfig) error
}

// DispatchJob identifies one fan-out to run. The order is re-read at
// processing time so the job carries only identifiers.
type DispatchJob struct {
	OrderID string
	Event   domain.EventKind
}

// DispatchQueue hands a job to an asynchronous transport (in-process pool or
// a broker). Enqueue must never block the caller.
type DispatchQueue interface {
	Enqueue(job DispatchJob) error
}

// Authorizer is the external authorization collaborator.
type Authorizer interface {
	IsSellerOrAdmin(actor Actor) bool
}

type OrderCache interface {
	SetStatus(ctx context.Context, orderID string, status string) error
	GetStatus(ctx context.Context, orderID string) (string, error)
}

// IdempotencyStore guards against duplicate submissions. A TryLock winner
// that fails to produce an order must Unlock so the key can be retried.
type IdempotencyStore interface {
	TryLock(ctx context.Context, scope, key string) (bool, error)
	Unlock(ctx context.Context, scope, key string) error
	Remember(ctx context.Context, scope, key, value string) error
	Recall(ctx context.Context, scope, key string) (string, bool, error)
}
