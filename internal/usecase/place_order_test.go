package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"

	domain "github.com/amplerun/zain-crafter/internal/entity"
)

func testCatalog() *mockCatalog {
	return &mockCatalog{products: map[string]Product{
		"sku-1": {ID: "sku-1", Name: "Ceramic Mug", UnitCents: 1000, Stock: 10},
		"sku-2": {ID: "sku-2", Name: "Woven Basket", UnitCents: 2500, Stock: 3},
	}}
}

func placeOrderFixture(ledger *mockLedger, repo *mockOrderRepo, queue *mockQueue) *PlaceOrder {
	return NewPlaceOrder(testCatalog(), ledger, repo, newMockIdem(), queue, nil, discardLogger())
}

func validInput() PlaceOrderInput {
	return PlaceOrderInput{
		CustomerID:    "cust-1",
		CustomerName:  "Amira",
		Lines:         []CartLine{{ProductID: "sku-1", Quantity: 2}},
		ShippingAddr:  domain.Address{Street: "1 Main St", City: "Muscat", Postal: "100", Country: "OM", Phone: "+96890000000"},
		PaymentMethod: "cod",
		TaxCents:      200,
		ShippingCents: 500,
	}
}

func TestPlaceOrder_Success(t *testing.T) {
	ledger := newMockLedger(map[string]int{"sku-1": 10})
	repo := newMockOrderRepo()
	queue := &mockQueue{}
	uc := placeOrderFixture(ledger, repo, queue)

	order, err := uc.Execute(context.Background(), validInput())
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}

	if order.ItemsCents != 2000 {
		t.Errorf("items total: expected 2000, got %d", order.ItemsCents)
	}
	if order.GrandCents != 2700 {
		t.Errorf("grand total: expected 2700, got %d", order.GrandCents)
	}
	if order.GrandCents != order.ItemsCents+order.TaxCents+order.ShippingCents {
		t.Errorf("grand total invariant violated")
	}
	if order.Status != domain.StatusPending {
		t.Errorf("expected pending, got %s", order.Status)
	}
	if got := order.Lines[0].UnitCents; got != 1000 {
		t.Errorf("unit price snapshot: expected 1000, got %d", got)
	}
	if got := order.Lines[0].Name; got != "Ceramic Mug" {
		t.Errorf("name snapshot: expected Ceramic Mug, got %q", got)
	}
	if ledger.stockOf("sku-1") != 8 {
		t.Errorf("expected stock 8, got %d", ledger.stockOf("sku-1"))
	}
	for _, ch := range domain.AllChannels() {
		if order.Notifications[ch] != domain.SendUnsent {
			t.Errorf("channel %s: expected unsent, got %s", ch, order.Notifications[ch])
		}
	}
	if queue.jobCount() != 1 {
		t.Errorf("expected 1 dispatch job, got %d", queue.jobCount())
	}
}

func TestPlaceOrder_EmptyCart(t *testing.T) {
	uc := placeOrderFixture(newMockLedger(nil), newMockOrderRepo(), &mockQueue{})

	in := validInput()
	in.Lines = nil
	_, err := uc.Execute(context.Background(), in)
	if !errors.Is(err, domain.ErrEmptyCart) {
		t.Errorf("expected ErrEmptyCart, got %v", err)
	}
}

func TestPlaceOrder_UnknownProduct(t *testing.T) {
	ledger := newMockLedger(map[string]int{"sku-1": 10})
	repo := newMockOrderRepo()
	uc := placeOrderFixture(ledger, repo, &mockQueue{})

	in := validInput()
	in.Lines = []CartLine{{ProductID: "sku-404", Quantity: 1}}
	_, err := uc.Execute(context.Background(), in)
	if !errors.Is(err, domain.ErrProductNotFound) {
		t.Errorf("expected ErrProductNotFound, got %v", err)
	}
	if len(repo.orders) != 0 {
		t.Errorf("no order should be created")
	}
	if ledger.stockOf("sku-1") != 10 {
		t.Errorf("stock must be untouched, got %d", ledger.stockOf("sku-1"))
	}
}

func TestPlaceOrder_InsufficientStock(t *testing.T) {
	ledger := newMockLedger(map[string]int{"sku-1": 1})
	repo := newMockOrderRepo()
	queue := &mockQueue{}
	uc := placeOrderFixture(ledger, repo, queue)

	_, err := uc.Execute(context.Background(), validInput()) // wants 2
	var insufficient *domain.InsufficientStockError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}
	if insufficient.Available != 1 || insufficient.ProductID != "sku-1" {
		t.Errorf("error detail wrong: %+v", insufficient)
	}
	if ledger.stockOf("sku-1") != 1 {
		t.Errorf("stock must be unchanged, got %d", ledger.stockOf("sku-1"))
	}
	if len(repo.orders) != 0 {
		t.Errorf("no order should be created")
	}
	if queue.jobCount() != 0 {
		t.Errorf("no notifications should be queued")
	}
}

func TestPlaceOrder_PersistenceFailureReleasesStock(t *testing.T) {
	ledger := newMockLedger(map[string]int{"sku-1": 10})
	repo := newMockOrderRepo()
	repo.failCreate = true
	uc := placeOrderFixture(ledger, repo, &mockQueue{})

	_, err := uc.Execute(context.Background(), validInput())
	var pe *domain.PersistenceError
	if !errors.As(err, &pe) {
		t.Fatalf("expected PersistenceError, got %v", err)
	}
	if ledger.stockOf("sku-1") != 10 {
		t.Errorf("reservation must be compensated, got stock %d", ledger.stockOf("sku-1"))
	}
	if ledger.releases != 1 {
		t.Errorf("expected exactly one release, got %d", ledger.releases)
	}
}

func TestPlaceOrder_ConcurrentSingleUnit(t *testing.T) {
	ledger := newMockLedger(map[string]int{"sku-1": 1})
	repo := newMockOrderRepo()
	uc := placeOrderFixture(ledger, repo, &mockQueue{})

	in := validInput()
	in.Lines = []CartLine{{ProductID: "sku-1", Quantity: 1}}
	in.TaxCents, in.ShippingCents = 0, 0

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = uc.Execute(context.Background(), in)
		}(i)
	}
	wg.Wait()

	var successes, conflicts int
	for _, err := range errs {
		var insufficient *domain.InsufficientStockError
		switch {
		case err == nil:
			successes++
		case errors.As(err, &insufficient):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if successes != 1 || conflicts != 1 {
		t.Errorf("expected exactly one winner: successes=%d conflicts=%d", successes, conflicts)
	}
	if ledger.stockOf("sku-1") != 0 {
		t.Errorf("expected final stock 0, got %d", ledger.stockOf("sku-1"))
	}
}

func TestPlaceOrder_EnqueueFailureDoesNotFailOrder(t *testing.T) {
	ledger := newMockLedger(map[string]int{"sku-1": 10})
	repo := newMockOrderRepo()
	queue := &mockQueue{failEnqueue: true}
	uc := placeOrderFixture(ledger, repo, queue)

	order, err := uc.Execute(context.Background(), validInput())
	if err != nil {
		t.Fatalf("order placement must not fail on a full queue: %v", err)
	}
	if _, ok := repo.orders[order.ID]; !ok {
		t.Errorf("order should be persisted")
	}
}

func TestPlaceOrder_IdempotencyRecall(t *testing.T) {
	ledger := newMockLedger(map[string]int{"sku-1": 10})
	repo := newMockOrderRepo()
	uc := placeOrderFixture(ledger, repo, &mockQueue{})

	in := validInput()
	in.IdempotencyKey = "req-1"

	first, err := uc.Execute(context.Background(), in)
	if err != nil {
		t.Fatalf("first submit: %v", err)
	}
	second, err := uc.Execute(context.Background(), in)
	if err != nil {
		t.Fatalf("second submit: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("duplicate submit must return the original order")
	}
	if ledger.stockOf("sku-1") != 8 {
		t.Errorf("stock must be decremented once, got %d", ledger.stockOf("sku-1"))
	}
}

func TestPlaceOrder_RetryAfterFailureSameKey(t *testing.T) {
	ledger := newMockLedger(map[string]int{"sku-1": 1})
	repo := newMockOrderRepo()
	uc := placeOrderFixture(ledger, repo, &mockQueue{})

	in := validInput() // wants 2
	in.IdempotencyKey = "req-1"

	_, err := uc.Execute(context.Background(), in)
	var insufficient *domain.InsufficientStockError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}

	// Restock, then retry with the same key: the failed attempt must not
	// have burned it.
	ledger.mu.Lock()
	ledger.stock["sku-1"] = 10
	ledger.mu.Unlock()

	order, err := uc.Execute(context.Background(), in)
	if err != nil {
		t.Fatalf("retry after restock should succeed, got %v", err)
	}
	if order == nil || len(repo.orders) != 1 {
		t.Fatalf("retry should create the order")
	}
	if ledger.stockOf("sku-1") != 8 {
		t.Errorf("stock = %d, want 8", ledger.stockOf("sku-1"))
	}

	// And the created order is now remembered for the key.
	again, err := uc.Execute(context.Background(), in)
	if err != nil || again.ID != order.ID {
		t.Errorf("third submit should recall the order: %v", err)
	}
}
