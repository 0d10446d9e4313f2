package rabbitmq

import (
	"context"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// publishTimeout bounds the send to the broker. On timeout the publish fails
// closed: the caller logs and drops, it never retries or blocks the request.
const publishTimeout = 10 * time.Second

// Publisher publishes messages to a single topic exchange.
type Publisher struct {
	channel  *amqp.Channel
	exchange string
}

// NewPublisher creates a publisher and declares its topic exchange.
func NewPublisher(conn *Connection, exchange string) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}

	err = ch.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		return nil, err
	}

	return &Publisher{channel: ch, exchange: exchange}, nil
}

// Publish sends a message to the exchange with the given routing key.
func (p *Publisher) Publish(routingKey string, body []byte, correlationID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	logrus.WithFields(logrus.Fields{
		"exchange":       p.exchange,
		"routing_key":    routingKey,
		"correlation_id": correlationID,
	}).Info("Publishing event")

	return p.channel.PublishWithContext(
		ctx,
		p.exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:   "application/json",
			CorrelationId: correlationID,
			Body:          body,
			DeliveryMode:  amqp.Persistent,
			Timestamp:     time.Now(),
		},
	)
}

// Close closes the publisher channel.
func (p *Publisher) Close() error {
	if p.channel != nil {
		return p.channel.Close()
	}
	return nil
}
