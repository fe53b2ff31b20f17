package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "github.com/amplerun/zain-crafter/internal/entity"
)

func dispatchOrder() *domain.Order {
	return &domain.Order{
		ID:            "order-1",
		CustomerID:    "cust-1",
		CustomerName:  "Amira",
		Lines:         []domain.OrderLine{{ProductID: "sku-1", Name: "Ceramic Mug", Quantity: 2, UnitCents: 1000}},
		ShippingAddr:  domain.Address{Phone: "+96890000000"},
		Status:        domain.StatusPending,
		Notifications: domain.NewNotificationState(),
	}
}

func threeChannels() (*fakeChannel, *fakeChannel, *fakeChannel) {
	seller := &fakeChannel{name: domain.ChannelSellerAlert, events: []domain.EventKind{domain.EventCreated}}
	customer := &fakeChannel{name: domain.ChannelCustomerAlert, events: []domain.EventKind{domain.EventCreated, domain.EventStatusChanged}}
	audit := &fakeChannel{name: domain.ChannelAuditLog, events: []domain.EventKind{domain.EventCreated}}
	return seller, customer, audit
}

func TestDispatch_FanOutAllChannels(t *testing.T) {
	repo := newMockOrderRepo()
	seller, customer, audit := threeChannels()
	d := NewDispatcher(repo, &mockSettings{cfg: allEnabledConfig()}, []NotifyChannel{seller, customer, audit}, time.Second, discardLogger())

	order := dispatchOrder()
	d.Dispatch(context.Background(), order, domain.EventCreated)

	for _, ch := range domain.AllChannels() {
		if got := order.Notifications[ch]; got != domain.SendSent {
			t.Errorf("channel %s: expected sent, got %s", ch, got)
		}
		if got := repo.stateOf(ch); got != domain.SendSent {
			t.Errorf("channel %s: persisted state expected sent, got %s", ch, got)
		}
	}
}

func TestDispatch_FailureIsolatedPerChannel(t *testing.T) {
	repo := newMockOrderRepo()
	seller, customer, audit := threeChannels()
	audit.sendErr = errors.New("sink unavailable")
	d := NewDispatcher(repo, &mockSettings{cfg: allEnabledConfig()}, []NotifyChannel{seller, customer, audit}, time.Second, discardLogger())

	order := dispatchOrder()
	d.Dispatch(context.Background(), order, domain.EventCreated)

	if order.Notifications[domain.ChannelAuditLog] != domain.SendFailed {
		t.Errorf("audit channel should be failed")
	}
	if order.Notifications[domain.ChannelSellerAlert] != domain.SendSent {
		t.Errorf("seller channel must not be affected by the audit failure")
	}
	if order.Notifications[domain.ChannelCustomerAlert] != domain.SendSent {
		t.Errorf("customer channel must not be affected by the audit failure")
	}
	if repo.details[domain.ChannelAuditLog] == "" {
		t.Errorf("failure detail should be recorded")
	}
}

func TestDispatch_DisabledChannelSkipped(t *testing.T) {
	repo := newMockOrderRepo()
	seller, customer, audit := threeChannels()
	cfg := allEnabledConfig()
	cfg.SellerAlertEnabled = false
	d := NewDispatcher(repo, &mockSettings{cfg: cfg}, []NotifyChannel{seller, customer, audit}, time.Second, discardLogger())

	order := dispatchOrder()
	d.Dispatch(context.Background(), order, domain.EventCreated)

	if seller.callCount() != 0 {
		t.Errorf("disabled channel must not be invoked")
	}
	if order.Notifications[domain.ChannelSellerAlert] != domain.SendUnsent {
		t.Errorf("disabled channel stays unsent, got %s", order.Notifications[domain.ChannelSellerAlert])
	}
}

func TestDispatch_SentGuardOnCreated(t *testing.T) {
	repo := newMockOrderRepo()
	seller, customer, audit := threeChannels()
	d := NewDispatcher(repo, &mockSettings{cfg: allEnabledConfig()}, []NotifyChannel{seller, customer, audit}, time.Second, discardLogger())

	order := dispatchOrder()
	d.Dispatch(context.Background(), order, domain.EventCreated)
	d.Dispatch(context.Background(), order, domain.EventCreated) // duplicate trigger

	if seller.callCount() != 1 {
		t.Errorf("created must not re-send: expected 1 call, got %d", seller.callCount())
	}
	if customer.callCount() != 1 {
		t.Errorf("created must not re-send: expected 1 call, got %d", customer.callCount())
	}
}

func TestDispatch_StatusChangeOnlyCustomerChannel(t *testing.T) {
	repo := newMockOrderRepo()
	seller, customer, audit := threeChannels()
	d := NewDispatcher(repo, &mockSettings{cfg: allEnabledConfig()}, []NotifyChannel{seller, customer, audit}, time.Second, discardLogger())

	order := dispatchOrder()
	d.Dispatch(context.Background(), order, domain.EventStatusChanged)

	if customer.callCount() != 1 {
		t.Errorf("customer channel should fire on status change")
	}
	if seller.callCount() != 0 || audit.callCount() != 0 {
		t.Errorf("seller/audit channels must not fire on status change")
	}
}

func TestDispatch_ChannelTimeout(t *testing.T) {
	repo := newMockOrderRepo()
	seller, customer, audit := threeChannels()
	seller.delay = 500 * time.Millisecond
	d := NewDispatcher(repo, &mockSettings{cfg: allEnabledConfig()}, []NotifyChannel{seller, customer, audit}, 20*time.Millisecond, discardLogger())

	order := dispatchOrder()
	d.Dispatch(context.Background(), order, domain.EventCreated)

	if order.Notifications[domain.ChannelSellerAlert] != domain.SendFailed {
		t.Errorf("timed-out channel should be failed, got %s", order.Notifications[domain.ChannelSellerAlert])
	}
	if order.Notifications[domain.ChannelAuditLog] != domain.SendSent {
		t.Errorf("other channels should still succeed")
	}
}

// The created-guard reads the notification map while goroutines for earlier
// channels are still writing it; run the fan-out repeatedly so the race
// detector sees overlapping access if the guard ever drops the lock.
func TestDispatch_CreatedGuardConcurrentWithFanOut(t *testing.T) {
	repo := newMockOrderRepo()
	seller, customer, audit := threeChannels()
	d := NewDispatcher(repo, &mockSettings{cfg: allEnabledConfig()}, []NotifyChannel{seller, customer, audit}, time.Second, discardLogger())

	for i := 0; i < 100; i++ {
		order := dispatchOrder()
		d.Dispatch(context.Background(), order, domain.EventCreated)
		for _, ch := range domain.AllChannels() {
			if order.Notifications[ch] != domain.SendSent {
				t.Fatalf("iteration %d: channel %s not sent", i, ch)
			}
		}
	}
}

func TestDispatch_SettingsFetchFailureSkipsAll(t *testing.T) {
	repo := newMockOrderRepo()
	seller, customer, audit := threeChannels()
	d := NewDispatcher(repo, &mockSettings{err: errors.New("settings down")}, []NotifyChannel{seller, customer, audit}, time.Second, discardLogger())

	order := dispatchOrder()
	d.Dispatch(context.Background(), order, domain.EventCreated)

	if seller.callCount()+customer.callCount()+audit.callCount() != 0 {
		t.Errorf("no channel should be invoked without config")
	}
}
