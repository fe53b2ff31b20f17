package usecase

// PaymentEventMsg is published by the payment gateway on Kafka; only the
// status flag is consumed here.
type PaymentEventMsg struct {
	OrderID   string `json:"orderId"`
	PaymentID string `json:"paymentId"`
	Status    string `json:"status"` // e.g. "SUCCESS"
	Email     string `json:"email"`
}

// DispatchJobMsg is the broker form of DispatchJob (RabbitMQ transport).
type DispatchJobMsg struct {
	OrderID string `json:"orderId"`
	Event   string `json:"event"`
}
