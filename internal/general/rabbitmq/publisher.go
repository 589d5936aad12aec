package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	publishTimeout    = 5 * time.Second
	confirmDrainGrace = 2 * time.Second
)

// MQPublisher adapts the Client to the service-facing publisher interface.
type MQPublisher struct {
	Client *Client
}

// NewMQPublisher constructs an MQPublisher backed by the given client.
func NewMQPublisher(client *Client) *MQPublisher {
	return &MQPublisher{Client: client}
}

// Publish sends body to the exchange under routingKey.
func (publisher *MQPublisher) Publish(exchange, routingKey string, body []byte) error {
	return publisher.Client.PublishMessage(exchange, routingKey, body)
}

// PublishMessage publishes one persistent JSON message and blocks until the
// broker confirms it. Publishes are serialized so each confirm can be matched
// to its message.
func (client *Client) PublishMessage(exchange, routingKey string, body []byte) error {
	client.mu.RLock()
	ch := client.pubChan
	conn := client.conn
	client.mu.RUnlock()

	if conn == nil || conn.IsClosed() {
		return errors.New("rabbitmq: connection is not open")
	}
	if ch == nil || ch.IsClosed() {
		return errors.New("rabbitmq: publish channel is not open")
	}

	client.pubMu.Lock()
	defer client.pubMu.Unlock()
	confirms := client.pubConfirms

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	err := ch.PublishWithContext(ctx, exchange, routingKey,
		true,  // mandatory: unroutable messages come back via NotifyReturn
		false, // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Body:         body,
		})
	if err != nil {
		return err
	}

	return awaitConfirm(ctx, confirms)
}

// awaitConfirm waits for exactly one broker confirmation. On timeout it still
// tries to drain that one confirm so the stream stays aligned with publishes.
func awaitConfirm(ctx context.Context, confirms chan amqp.Confirmation) error {
	select {
	case c := <-confirms:
		if !c.Ack {
			return fmt.Errorf("rabbitmq: publish not acknowledged")
		}
		return nil
	case <-ctx.Done():
		select {
		case c := <-confirms:
			if !c.Ack {
				return fmt.Errorf("rabbitmq: publish not acknowledged after timeout")
			}
		case <-time.After(confirmDrainGrace):
		}
		return ctx.Err()
	}
}
