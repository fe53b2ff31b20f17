package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/amplerun/zain-crafter/internal/usecase"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	exchangeName = "order.events"
	routingKey   = "order.dispatch"

	// DispatchQueueName is the durable queue the dispatch consumer drains.
	DispatchQueueName = "order.dispatch.q"

	publishTimeout = 5 * time.Second
)

// RabbitDispatchQueue is the broker-backed usecase.DispatchQueue: jobs
// survive a process restart, at the cost of running a broker.
type RabbitDispatchQueue struct {
	ch *amqp.Channel
}

// NewRabbitDispatchQueue sets up the exchange, queue, and binding once at startup.
func NewRabbitDispatchQueue(ch *amqp.Channel) (*RabbitDispatchQueue, error) {
	if err := ch.ExchangeDeclare(
		exchangeName,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	q, err := ch.QueueDeclare(
		DispatchQueueName,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("declare queue: %w", err)
	}

	if err := ch.QueueBind(
		q.Name,
		routingKey,
		exchangeName,
		false, // no-wait
		nil,
	); err != nil {
		return nil, fmt.Errorf("queue bind: %w", err)
	}

	if err := ch.Confirm(false); err != nil {
		return nil, fmt.Errorf("enable confirm mode: %w", err)
	}

	return &RabbitDispatchQueue{ch: ch}, nil
}

// Enqueue publishes one dispatch job. Bounded by publishTimeout so a broker
// outage cannot stall order placement.
func (p *RabbitDispatchQueue) Enqueue(job usecase.DispatchJob) error {
	body, err := json.Marshal(usecase.DispatchJobMsg{
		OrderID: job.OrderID,
		Event:   string(job.Event),
	})
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // survive broker restarts
		Body:         body,
	}
	if err := p.ch.PublishWithContext(
		ctx,
		exchangeName,
		routingKey,
		false, // mandatory
		false, // immediate
		pub,
	); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

var _ usecase.DispatchQueue = (*RabbitDispatchQueue)(nil)
