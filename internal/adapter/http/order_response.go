package http

import (
	"time"

	domain "github.com/amplerun/zain-crafter/internal/entity"
)

type lineResp struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitCents int64  `json:"unitCents"`
}

type addressResp struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	Region  string `json:"region,omitempty"`
	Postal  string `json:"postalCode"`
	Country string `json:"country"`
	Phone   string `json:"phone,omitempty"`
}

type orderResp struct {
	ID              string            `json:"id"`
	CustomerID      string            `json:"customerId"`
	CustomerName    string            `json:"customerName"`
	Items           []lineResp        `json:"items"`
	ShippingAddress addressResp       `json:"shippingAddress"`
	PaymentMethod   string            `json:"paymentMethod"`
	ItemsCents      int64             `json:"itemsCents"`
	TaxCents        int64             `json:"taxCents"`
	ShippingCents   int64             `json:"shippingCents"`
	GrandCents      int64             `json:"grandCents"`
	Status          string            `json:"status"`
	IsPaid          bool              `json:"isPaid"`
	PaidAt          *time.Time        `json:"paidAt,omitempty"`
	IsDelivered     bool              `json:"isDelivered"`
	DeliveredAt     *time.Time        `json:"deliveredAt,omitempty"`
	TrackingNumber  string            `json:"trackingNumber,omitempty"`
	Notes           string            `json:"notes,omitempty"`
	Notifications   map[string]string `json:"notifications"`
	CreatedAt       time.Time         `json:"createdAt"`
	UpdatedAt       time.Time         `json:"updatedAt"`
}

func orderResponse(o *domain.Order) orderResp {
	items := make([]lineResp, len(o.Lines))
	for i, l := range o.Lines {
		items[i] = lineResp{ProductID: l.ProductID, Name: l.Name, Quantity: l.Quantity, UnitCents: l.UnitCents}
	}
	notifications := make(map[string]string, len(o.Notifications))
	for ch, st := range o.Notifications {
		notifications[string(ch)] = string(st)
	}
	return orderResp{
		ID:           o.ID,
		CustomerID:   o.CustomerID,
		CustomerName: o.CustomerName,
		Items:        items,
		ShippingAddress: addressResp{
			Street:  o.ShippingAddr.Street,
			City:    o.ShippingAddr.City,
			Region:  o.ShippingAddr.Region,
			Postal:  o.ShippingAddr.Postal,
			Country: o.ShippingAddr.Country,
			Phone:   o.ShippingAddr.Phone,
		},
		PaymentMethod:  o.PaymentMethod,
		ItemsCents:     o.ItemsCents,
		TaxCents:       o.TaxCents,
		ShippingCents:  o.ShippingCents,
		GrandCents:     o.GrandCents,
		Status:         string(o.Status),
		IsPaid:         o.IsPaid,
		PaidAt:         o.PaidAt,
		IsDelivered:    o.IsDelivered,
		DeliveredAt:    o.DeliveredAt,
		TrackingNumber: o.TrackingNumber,
		Notes:          o.Notes,
		Notifications:  notifications,
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
	}
}

func orderListResponse(orders []*domain.Order) []orderResp {
	out := make([]orderResp, len(orders))
	for i, o := range orders {
		out[i] = orderResponse(o)
	}
	return out
}
