package kafka

import (
	"context"
	"errors"
	"log/slog"

	domain "github.com/amplerun/zain-crafter/internal/entity"
	"github.com/amplerun/zain-crafter/internal/usecase"
)

// PaymentEventHandler turns gateway payment results into MarkPaid calls.
// Only the status flag is consumed; everything else about the gateway stays
// outside this service.
type PaymentEventHandler struct {
	updater *usecase.StatusUpdater
	log     *slog.Logger
}

func NewPaymentEventHandler(updater *usecase.StatusUpdater, log *slog.Logger) *PaymentEventHandler {
	return &PaymentEventHandler{updater: updater, log: log}
}

func (h *PaymentEventHandler) Handle(ctx context.Context, ev usecase.PaymentEventMsg) error {
	if ev.Status != "SUCCESS" {
		h.log.Info("ignoring non-success payment event",
			"order_id", ev.OrderID, "status", ev.Status)
		return nil
	}

	_, err := h.updater.MarkPaid(ctx, ev.OrderID, domain.PaymentResult{
		ID:     ev.PaymentID,
		Status: ev.Status,
		Email:  ev.Email,
	})
	switch {
	case errors.Is(err, domain.ErrOrderNotFound):
		h.log.Error("payment event for unknown order", "order_id", ev.OrderID)
		return nil
	case errors.Is(err, domain.ErrInvalidTransition):
		// Already paid (duplicate delivery) or terminal; safe to ack.
		h.log.Info("payment event ignored by state machine", "order_id", ev.OrderID)
		return nil
	}
	return err
}
