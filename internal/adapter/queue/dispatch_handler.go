package queue

import (
	"context"
	"errors"
	"log/slog"

	domain "github.com/amplerun/zain-crafter/internal/entity"
	"github.com/amplerun/zain-crafter/internal/usecase"
)

// DispatchJobHandler runs the notification fan-out for jobs delivered over
// the broker. Intended for use with queue.JSONHandler[usecase.DispatchJobMsg].
type DispatchJobHandler struct {
	repo       usecase.OrderRepo
	dispatcher *usecase.Dispatcher
	log        *slog.Logger
}

func NewDispatchJobHandler(repo usecase.OrderRepo, d *usecase.Dispatcher, log *slog.Logger) *DispatchJobHandler {
	return &DispatchJobHandler{repo: repo, dispatcher: d, log: log}
}

func (h *DispatchJobHandler) HandleDispatch(ctx context.Context, msg usecase.DispatchJobMsg) error {
	order, err := h.repo.GetByID(ctx, msg.OrderID)
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			// Poison job; ack it away.
			h.log.Error("dispatch job for unknown order", "order_id", msg.OrderID)
			return nil
		}
		return err
	}
	h.dispatcher.Dispatch(ctx, order, domain.EventKind(msg.Event))
	return nil
}
