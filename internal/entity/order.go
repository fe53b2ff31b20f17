package domain

import "time"

type Status string

const (
	StatusPending    Status = "pending"
	StatusPaid       Status = "paid"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// Terminal statuses admit no further transitions (delivered→delivered is a no-op).
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

type Address struct {
	Street  string
	City    string
	Region  string
	Postal  string
	Country string
	Phone   string
}

// OrderLine snapshots name and unit price at order time; catalog price
// changes must not alter historical orders.
type OrderLine struct {
	ProductID string
	Name      string
	Quantity  int
	UnitCents int64
}

type PaymentResult struct {
	ID     string
	Status string
	Email  string
}

type Order struct {
	ID             string
	CustomerID     string
	CustomerName   string
	Lines          []OrderLine
	ShippingAddr   Address
	PaymentMethod  string
	ItemsCents     int64
	TaxCents       int64
	ShippingCents  int64
	GrandCents     int64
	Status         Status
	IsPaid         bool
	PaidAt         *time.Time
	IsDelivered    bool
	DeliveredAt    *time.Time
	TrackingNumber string
	Notes          string
	PaymentResult  *PaymentResult
	Notifications  NotificationState
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ItemsTotal sums quantity × unit price over all lines.
func ItemsTotal(lines []OrderLine) int64 {
	var total int64
	for _, l := range lines {
		total += int64(l.Quantity) * l.UnitCents
	}
	return total
}

func (o *Order) Validate() error {
	if len(o.Lines) == 0 {
		return ErrEmptyCart
	}
	for _, l := range o.Lines {
		if l.Quantity <= 0 || l.UnitCents < 0 {
			return ErrInvalidLine
		}
	}
	if o.GrandCents != o.ItemsCents+o.TaxCents+o.ShippingCents {
		return ErrTotalMismatch
	}
	return nil
}

// Transition is the only place order status, IsPaid and IsDelivered change.
// Handlers and repos must never assign these fields directly.
func (o *Order) Transition(to Status, now time.Time) error {
	if !to.Valid() {
		return ErrInvalidStatus
	}
	if o.Status == StatusCancelled {
		return ErrInvalidTransition
	}
	if o.Status == StatusDelivered && to != StatusDelivered {
		return ErrInvalidTransition
	}

	switch to {
	case StatusPaid:
		if o.Status != StatusPending && o.Status != StatusProcessing {
			return ErrInvalidTransition
		}
		if !o.IsPaid {
			o.IsPaid = true
			t := now
			o.PaidAt = &t
		}
	case StatusDelivered:
		if !o.IsDelivered {
			o.IsDelivered = true
			t := now
			o.DeliveredAt = &t
		}
	}

	o.Status = to
	o.UpdatedAt = now
	return nil
}

// MarkPaid records the gateway result and moves the order to paid.
func (o *Order) MarkPaid(res PaymentResult, now time.Time) error {
	if err := o.Transition(StatusPaid, now); err != nil {
		return err
	}
	o.PaymentResult = &res
	return nil
}
