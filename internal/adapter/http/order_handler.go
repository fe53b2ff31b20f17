package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/amplerun/zain-crafter/internal/adapter/http/middleware"
	domain "github.com/amplerun/zain-crafter/internal/entity"
	"github.com/amplerun/zain-crafter/internal/usecase"
	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	place   *usecase.PlaceOrder
	updater *usecase.StatusUpdater
	queries *usecase.OrderQueries
}

func NewOrderHandler(place *usecase.PlaceOrder, updater *usecase.StatusUpdater, queries *usecase.OrderQueries) *OrderHandler {
	return &OrderHandler{place: place, updater: updater, queries: queries}
}

type addressReq struct {
	Street  string `json:"street" binding:"required"`
	City    string `json:"city" binding:"required"`
	Region  string `json:"region"`
	Postal  string `json:"postalCode" binding:"required"`
	Country string `json:"country" binding:"required"`
	Phone   string `json:"phone"`
}

type cartLineReq struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
}

type placeOrderReq struct {
	Items           []cartLineReq `json:"items" binding:"required"`
	ShippingAddress addressReq    `json:"shippingAddress" binding:"required"`
	PaymentMethod   string        `json:"paymentMethod" binding:"required"`
	TaxCents        int64         `json:"taxCents" binding:"gte=0"`
	ShippingCents   int64         `json:"shippingCents" binding:"gte=0"`
}

type updateStatusReq struct {
	Status         string `json:"status" binding:"required"`
	TrackingNumber string `json:"trackingNumber"`
	Notes          string `json:"notes"`
}

type payReq struct {
	ID     string `json:"id" binding:"required"`
	Status string `json:"status" binding:"required"`
	Email  string `json:"email"`
}

// PlaceOrder handler: translate to use case input
func (h *OrderHandler) PlaceOrder(c *gin.Context) {
	var req placeOrderReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request"})
		return
	}
	actor := middleware.ActorFrom(c)

	idemKey := c.GetHeader("X-Idempotency-Key") // prevent duplicated submissions

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	lines := make([]usecase.CartLine, len(req.Items))
	for i, it := range req.Items {
		lines[i] = usecase.CartLine{ProductID: it.ProductID, Quantity: it.Quantity}
	}

	order, err := h.place.Execute(ctx, usecase.PlaceOrderInput{
		CustomerID:     actor.ID,
		CustomerName:   actor.Name,
		IdempotencyKey: idemKey,
		Lines:          lines,
		ShippingAddr: domain.Address{
			Street:  req.ShippingAddress.Street,
			City:    req.ShippingAddress.City,
			Region:  req.ShippingAddress.Region,
			Postal:  req.ShippingAddress.Postal,
			Country: req.ShippingAddress.Country,
			Phone:   req.ShippingAddress.Phone,
		},
		PaymentMethod: req.PaymentMethod,
		TaxCents:      req.TaxCents,
		ShippingCents: req.ShippingCents,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, orderResponse(order))
}

func (h *OrderHandler) GetOrderByID(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	order, err := h.queries.Get(ctx, c.Param("id"), middleware.ActorFrom(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderResponse(order))
}

func (h *OrderHandler) GetOrderStatus(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status, err := h.queries.Status(ctx, c.Param("id"), middleware.ActorFrom(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "status": status})
}

func (h *OrderHandler) ListMyOrders(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	orders, err := h.queries.ListMine(ctx, middleware.ActorFrom(c).ID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderListResponse(orders))
}

func (h *OrderHandler) ListOrders(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	orders, err := h.queries.ListAll(ctx, middleware.ActorFrom(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderListResponse(orders))
}

func (h *OrderHandler) MarkPaid(c *gin.Context) {
	var req payReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	// Owner-or-staff gate; the Kafka path trusts the gateway instead.
	if _, err := h.queries.Get(ctx, c.Param("id"), middleware.ActorFrom(c)); err != nil {
		writeError(c, err)
		return
	}

	order, err := h.updater.MarkPaid(ctx, c.Param("id"), domain.PaymentResult{
		ID:     req.ID,
		Status: req.Status,
		Email:  req.Email,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderResponse(order))
}

func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	var req updateStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	order, err := h.updater.UpdateStatus(ctx, usecase.UpdateStatusInput{
		OrderID:        c.Param("id"),
		NewStatus:      domain.Status(req.Status),
		TrackingNumber: req.TrackingNumber,
		Notes:          req.Notes,
		Actor:          middleware.ActorFrom(c),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderResponse(order))
}

func writeError(c *gin.Context, err error) {
	var insufficient *domain.InsufficientStockError
	switch {
	case errors.Is(err, domain.ErrEmptyCart),
		errors.Is(err, domain.ErrInvalidLine),
		errors.Is(err, domain.ErrTotalMismatch),
		errors.Is(err, domain.ErrInvalidStatus):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrOrderNotFound),
		errors.Is(err, domain.ErrProductNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": "not_authorized"})
	case errors.As(err, &insufficient):
		c.JSON(http.StatusConflict, gin.H{
			"error":     "insufficient_stock",
			"productId": insufficient.ProductID,
			"requested": insufficient.Requested,
			"available": insufficient.Available,
		})
	case errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, usecase.ErrDuplicate):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
	}
}
