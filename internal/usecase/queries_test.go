package usecase

import (
	"context"
	"errors"
	"testing"

	domain "github.com/amplerun/zain-crafter/internal/entity"
)

type mockCache struct {
	statuses map[string]string
	sets     int
}

func newMockCache() *mockCache { return &mockCache{statuses: make(map[string]string)} }

func (m *mockCache) SetStatus(_ context.Context, orderID, status string) error {
	m.sets++
	m.statuses[orderID] = status
	return nil
}

func (m *mockCache) GetStatus(_ context.Context, orderID string) (string, error) {
	return m.statuses[orderID], nil
}

func TestQueries_GetOwnership(t *testing.T) {
	repo := newMockOrderRepo()
	storedOrder(t, repo, domain.StatusPending)
	q := NewOrderQueries(repo, roleAuthz{}, nil)

	if _, err := q.Get(context.Background(), "order-1", customerActor()); err != nil {
		t.Fatalf("owner read: %v", err)
	}
	if _, err := q.Get(context.Background(), "order-1", sellerActor()); err != nil {
		t.Fatalf("staff read: %v", err)
	}
	_, err := q.Get(context.Background(), "order-1", Actor{ID: "cust-2", Role: "customer"})
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("stranger read = %v, want ErrUnauthorized", err)
	}
}

func TestQueries_ListAllStaffOnly(t *testing.T) {
	repo := newMockOrderRepo()
	storedOrder(t, repo, domain.StatusPending)
	q := NewOrderQueries(repo, roleAuthz{}, nil)

	if _, err := q.ListAll(context.Background(), customerActor()); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("customer list-all = %v, want ErrUnauthorized", err)
	}
	orders, err := q.ListAll(context.Background(), sellerActor())
	if err != nil || len(orders) != 1 {
		t.Fatalf("staff list-all: %v, %d orders", err, len(orders))
	}
}

func TestQueries_StatusStaffCacheHit(t *testing.T) {
	repo := newMockOrderRepo()
	cache := newMockCache()
	cache.statuses["order-1"] = "shipped"
	q := NewOrderQueries(repo, roleAuthz{}, cache)

	// Not in the repo at all: for staff, the cached answer wins without a
	// storage read.
	st, err := q.Status(context.Background(), "order-1", sellerActor())
	if err != nil || st != "shipped" {
		t.Fatalf("Status = %q, %v", st, err)
	}
}

func TestQueries_StatusOwnerChecked(t *testing.T) {
	repo := newMockOrderRepo()
	storedOrder(t, repo, domain.StatusShipped)
	cache := newMockCache()
	cache.statuses["order-1"] = "shipped"
	q := NewOrderQueries(repo, roleAuthz{}, cache)

	if st, err := q.Status(context.Background(), "order-1", customerActor()); err != nil || st != "shipped" {
		t.Fatalf("owner poll = %q, %v", st, err)
	}
	// A cached status must not leak to other customers.
	_, err := q.Status(context.Background(), "order-1", Actor{ID: "cust-2", Role: "customer"})
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("stranger poll = %v, want ErrUnauthorized", err)
	}
}

func TestQueries_StatusBackfillsCache(t *testing.T) {
	repo := newMockOrderRepo()
	storedOrder(t, repo, domain.StatusProcessing)
	cache := newMockCache()
	q := NewOrderQueries(repo, roleAuthz{}, cache)

	st, err := q.Status(context.Background(), "order-1", customerActor())
	if err != nil || st != "processing" {
		t.Fatalf("Status = %q, %v", st, err)
	}
	if cache.statuses["order-1"] != "processing" {
		t.Errorf("cache not backfilled")
	}
}

func TestQueries_StatusUnknownOrder(t *testing.T) {
	q := NewOrderQueries(newMockOrderRepo(), roleAuthz{}, newMockCache())
	if _, err := q.Status(context.Background(), "ghost", sellerActor()); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("got %v", err)
	}
}
