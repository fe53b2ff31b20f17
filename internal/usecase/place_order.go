package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	domain "github.com/amplerun/zain-crafter/internal/entity"
	"github.com/google/uuid"
)

var ErrDuplicate = errors.New("duplicate idempotency key")

type CartLine struct {
	ProductID string
	Quantity  int
}

type PlaceOrderInput struct {
	CustomerID     string
	CustomerName   string
	IdempotencyKey string
	Lines          []CartLine
	ShippingAddr   domain.Address
	PaymentMethod  string
	TaxCents       int64
	ShippingCents  int64
}

type PlaceOrder struct {
	catalog Catalog
	ledger  InventoryLedger
	repo    OrderRepo
	idem    IdempotencyStore
	queue   DispatchQueue
	cache   OrderCache
	now     func() time.Time
	log     *slog.Logger
}

func NewPlaceOrder(catalog Catalog, ledger InventoryLedger, repo OrderRepo, idem IdempotencyStore, queue DispatchQueue, cache OrderCache, log *slog.Logger) *PlaceOrder {
	return &PlaceOrder{
		catalog: catalog,
		ledger:  ledger,
		repo:    repo,
		idem:    idem,
		queue:   queue,
		cache:   cache,
		now:     time.Now,
		log:     log,
	}
}

// Execute runs the critical path: validate → snapshot → reserve → persist.
// Notification fan-out happens off this path; its outcome never affects the
// returned order.
func (uc *PlaceOrder) Execute(ctx context.Context, in PlaceOrderInput) (order *domain.Order, err error) {
	if len(in.Lines) == 0 {
		return nil, domain.ErrEmptyCart
	}

	// Fast path: idempotency recall
	if in.IdempotencyKey != "" {
		if id, ok, _ := uc.idem.Recall(ctx, in.CustomerID, in.IdempotencyKey); ok {
			return uc.repo.GetByID(ctx, id)
		}
		ok, lockErr := uc.idem.TryLock(ctx, in.CustomerID, in.IdempotencyKey)
		if lockErr != nil {
			return nil, lockErr
		}
		if !ok {
			return nil, ErrDuplicate
		}
		// Insufficient stock and storage failures are normal outcomes here;
		// the key must stay retryable when no order was created.
		defer func() {
			if err != nil {
				if uerr := uc.idem.Unlock(ctx, in.CustomerID, in.IdempotencyKey); uerr != nil {
					uc.log.Error("idempotency unlock failed",
						"customer_id", in.CustomerID, "err", uerr)
				}
			}
		}()
	}

	// Snapshot unit prices and names from the catalog at call time.
	lines := make([]domain.OrderLine, 0, len(in.Lines))
	for _, cl := range in.Lines {
		if cl.Quantity <= 0 {
			return nil, domain.ErrInvalidLine
		}
		p, err := uc.catalog.GetProduct(ctx, cl.ProductID)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", domain.ErrProductNotFound, cl.ProductID)
		}
		lines = append(lines, domain.OrderLine{
			ProductID: p.ID,
			Name:      p.Name,
			Quantity:  cl.Quantity,
			UnitCents: p.UnitCents,
		})
	}

	// All-or-nothing reservation; on failure nothing was decremented.
	if err := uc.ledger.Reserve(ctx, lines); err != nil {
		return nil, err
	}

	now := uc.now()
	itemsCents := domain.ItemsTotal(lines)
	order = &domain.Order{
		ID:            uuid.NewString(),
		CustomerID:    in.CustomerID,
		CustomerName:  in.CustomerName,
		Lines:         lines,
		ShippingAddr:  in.ShippingAddr,
		PaymentMethod: in.PaymentMethod,
		ItemsCents:    itemsCents,
		TaxCents:      in.TaxCents,
		ShippingCents: in.ShippingCents,
		GrandCents:    itemsCents + in.TaxCents + in.ShippingCents,
		Status:        domain.StatusPending,
		Notifications: domain.NewNotificationState(),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := order.Validate(); err != nil {
		// Reservation already happened; give the stock back.
		uc.compensate(ctx, lines)
		return nil, err
	}

	if err := uc.repo.Create(ctx, order); err != nil {
		uc.compensate(ctx, lines)
		return nil, &domain.PersistenceError{Op: "create order", Err: err}
	}

	if in.IdempotencyKey != "" {
		_ = uc.idem.Remember(ctx, in.CustomerID, in.IdempotencyKey, order.ID)
	}
	if uc.cache != nil {
		_ = uc.cache.SetStatus(ctx, order.ID, string(order.Status))
	}

	// Fire-and-forget: a full queue or broker hiccup must not fail placement.
	if err := uc.queue.Enqueue(DispatchJob{OrderID: order.ID, Event: domain.EventCreated}); err != nil {
		uc.log.Error("dispatch enqueue failed", "order_id", order.ID, "err", err)
	}

	return order, nil
}

// compensate releases a reservation after a downstream failure so stock
// never leaks. A failed release is an operator problem, not a caller one.
func (uc *PlaceOrder) compensate(ctx context.Context, lines []domain.OrderLine) {
	if err := uc.ledger.Release(ctx, lines); err != nil {
		uc.log.Error("stock release after failed order creation", "err", err)
	}
}
