package usecase

import (
	"context"

	domain "github.com/amplerun/zain-crafter/internal/entity"
)

// OrderQueries serves the read side: customers see their own orders, staff
// see everything.
type OrderQueries struct {
	repo  OrderRepo
	authz Authorizer
	cache OrderCache
}

func NewOrderQueries(repo OrderRepo, authz Authorizer, cache OrderCache) *OrderQueries {
	return &OrderQueries{repo: repo, authz: authz, cache: cache}
}

func (q *OrderQueries) Get(ctx context.Context, id string, actor Actor) (*domain.Order, error) {
	order, err := q.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.CustomerID != actor.ID && !q.authz.IsSellerOrAdmin(actor) {
		return nil, domain.ErrUnauthorized
	}
	return order, nil
}

// ListMine returns the customer's orders, newest first.
func (q *OrderQueries) ListMine(ctx context.Context, customerID string) ([]*domain.Order, error) {
	return q.repo.ListByCustomer(ctx, customerID)
}

func (q *OrderQueries) ListAll(ctx context.Context, actor Actor) ([]*domain.Order, error) {
	if !q.authz.IsSellerOrAdmin(actor) {
		return nil, domain.ErrUnauthorized
	}
	return q.repo.ListAll(ctx)
}

// Status answers the cheap polling question. Staff read straight from the
// cache; a customer's read goes through storage so ownership can be checked
// before anything about the order leaks.
func (q *OrderQueries) Status(ctx context.Context, id string, actor Actor) (string, error) {
	staff := q.authz.IsSellerOrAdmin(actor)
	if staff && q.cache != nil {
		if st, err := q.cache.GetStatus(ctx, id); err == nil && st != "" {
			return st, nil
		}
	}
	order, err := q.repo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if order.CustomerID != actor.ID && !staff {
		return "", domain.ErrUnauthorized
	}
	if q.cache != nil {
		_ = q.cache.SetStatus(ctx, id, string(order.Status))
	}
	return string(order.Status), nil
}
