package usecase

import (
	"context"
	"log/slog"
	"time"

	domain "github.com/amplerun/zain-crafter/internal/entity"
)

// StatusUpdater owns every mutation of an existing order's lifecycle state.
type StatusUpdater struct {
	repo   OrderRepo
	ledger InventoryLedger
	authz  Authorizer
	queue  DispatchQueue
	cache  OrderCache
	now    func() time.Time
	log    *slog.Logger
}

func NewStatusUpdater(repo OrderRepo, ledger InventoryLedger, authz Authorizer, queue DispatchQueue, cache OrderCache, log *slog.Logger) *StatusUpdater {
	return &StatusUpdater{
		repo:   repo,
		ledger: ledger,
		authz:  authz,
		queue:  queue,
		cache:  cache,
		now:    time.Now,
		log:    log,
	}
}

type UpdateStatusInput struct {
	OrderID        string
	NewStatus      domain.Status
	TrackingNumber string
	Notes          string
	Actor          Actor
}

// UpdateStatus applies a seller-driven transition. Cancelling releases the
// reserved stock; a real status change notifies the customer asynchronously.
func (s *StatusUpdater) UpdateStatus(ctx context.Context, in UpdateStatusInput) (*domain.Order, error) {
	if !s.authz.IsSellerOrAdmin(in.Actor) {
		return nil, domain.ErrUnauthorized
	}

	order, err := s.repo.GetByID(ctx, in.OrderID)
	if err != nil {
		return nil, err
	}

	prev := order.Status
	if err := order.Transition(in.NewStatus, s.now()); err != nil {
		return nil, err
	}
	if in.TrackingNumber != "" {
		order.TrackingNumber = in.TrackingNumber
	}
	if in.Notes != "" {
		order.Notes = in.Notes
	}

	if err := s.repo.Update(ctx, order); err != nil {
		return nil, &domain.PersistenceError{Op: "update status", Err: err}
	}

	if order.Status == domain.StatusCancelled && prev != domain.StatusCancelled {
		if err := s.ledger.Release(ctx, order.Lines); err != nil {
			// Stock restore failed; the order stays cancelled. Left to the
			// reconciliation collaborator, but loudly.
			s.log.Error("stock release on cancellation failed", "order_id", order.ID, "err", err)
		}
	}

	if s.cache != nil {
		_ = s.cache.SetStatus(ctx, order.ID, string(order.Status))
	}

	if prev != order.Status {
		if err := s.queue.Enqueue(DispatchJob{OrderID: order.ID, Event: domain.EventStatusChanged}); err != nil {
			s.log.Error("dispatch enqueue failed", "order_id", order.ID, "err", err)
		}
	}

	return order, nil
}

// MarkPaid records a payment-gateway result. Only the status flag is
// consumed here; gateway integration lives elsewhere.
func (s *StatusUpdater) MarkPaid(ctx context.Context, orderID string, res domain.PaymentResult) (*domain.Order, error) {
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if err := order.MarkPaid(res, s.now()); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, order); err != nil {
		return nil, &domain.PersistenceError{Op: "mark paid", Err: err}
	}
	if s.cache != nil {
		_ = s.cache.SetStatus(ctx, order.ID, string(order.Status))
	}
	return order, nil
}
