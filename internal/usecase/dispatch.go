package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	domain "github.com/amplerun/zain-crafter/internal/entity"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var notificationOutcomes = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "order_notifications_total",
		Help: "Notification channel attempts by outcome",
	},
	[]string{"channel", "event", "outcome"},
)

// Dispatcher fans one order event out to every enabled channel. Channels run
// concurrently; one channel's failure is recorded and logged but never
// reaches the other channels or the caller.
type Dispatcher struct {
	repo     OrderRepo
	settings SettingsSource
	channels []NotifyChannel
	timeout  time.Duration
	log      *slog.Logger

	mu sync.Mutex // guards the order's notification map during fan-out
}

func NewDispatcher(repo OrderRepo, settings SettingsSource, channels []NotifyChannel, timeout time.Duration, log *slog.Logger) *Dispatcher {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Dispatcher{
		repo:     repo,
		settings: settings,
		channels: channels,
		timeout:  timeout,
		log:      log,
	}
}

func (d *Dispatcher) Dispatch(ctx context.Context, order *domain.Order, event domain.EventKind) {
	cfg, err := d.settings.NotificationConfig(ctx)
	if err != nil {
		d.log.Error("notification config fetch failed, skipping dispatch",
			"order_id", order.ID, "event", event, "err", err)
		return
	}

	var wg sync.WaitGroup
	for _, ch := range d.channels {
		if !ch.Handles(event) {
			continue
		}
		if !cfg.Enabled(ch.Name()) {
			// Disabled channels stay unsent.
			continue
		}
		// Guard against duplicate "created" triggers; genuine status changes
		// notify again and overwrite the channel state. The map is shared
		// with goroutines already launched for earlier channels, so the read
		// takes the same lock as record.
		if event == domain.EventCreated {
			d.mu.Lock()
			sent := order.Notifications[ch.Name()] == domain.SendSent
			d.mu.Unlock()
			if sent {
				continue
			}
		}

		wg.Add(1)
		go func(ch NotifyChannel) {
			defer wg.Done()
			d.send(ctx, ch, order, event, cfg)
		}(ch)
	}
	wg.Wait()
}

func (d *Dispatcher) send(ctx context.Context, ch NotifyChannel, order *domain.Order, event domain.EventKind, cfg NotificationConfig) {
	defer func() {
		if r := recover(); r != nil {
			d.record(ctx, ch.Name(), order, event, fmt.Errorf("channel panic: %v", r))
		}
	}()

	cctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	d.record(ctx, ch.Name(), order, event, ch.Send(cctx, order, event, cfg))
}

func (d *Dispatcher) record(ctx context.Context, name domain.Channel, order *domain.Order, event domain.EventKind, sendErr error) {
	state := domain.SendSent
	detail := ""
	if sendErr != nil {
		state = domain.SendFailed
		detail = sendErr.Error()
		d.log.Error("notification channel failed",
			"order_id", order.ID, "channel", name, "event", event, "err", sendErr)
	} else {
		d.log.Info("notification sent",
			"order_id", order.ID, "channel", name, "event", event)
	}
	notificationOutcomes.WithLabelValues(string(name), string(event), string(state)).Inc()

	d.mu.Lock()
	order.Notifications[name] = state
	d.mu.Unlock()
	if err := d.repo.SetNotificationState(ctx, order.ID, name, state, detail); err != nil {
		d.log.Error("notification state persist failed",
			"order_id", order.ID, "channel", name, "err", err)
	}
}
