package rabbitmq

import (
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// ConsumerConfig holds configuration for setting up a consumer. The queue is
// durable and owned by the consuming service; binding patterns may use topic
// wildcards ("user.*") so one queue receives every event of an entity kind.
type ConsumerConfig struct {
	Exchange     string
	QueueName    string
	DLQName      string
	RoutingKeys  []string
	ConsumerName string
}

// MessageHandler is a function that processes a delivered message.
// Return nil to ack, return error to nack (message goes to the DLQ).
type MessageHandler func(delivery amqp.Delivery) error

// SetupConsumer declares the exchange and queues (main + DLQ), binds them,
// and starts consuming on a background goroutine. Handlers run to completion
// before the delivery is acked.
func SetupConsumer(conn *Connection, cfg ConsumerConfig, handler MessageHandler) error {
	ch, err := conn.Channel()
	if err != nil {
		return err
	}

	// Declare the topic exchange (idempotent)
	err = ch.ExchangeDeclare(
		cfg.Exchange,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		return err
	}

	// Declare DLQ
	_, err = ch.QueueDeclare(
		cfg.DLQName,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return err
	}

	// Declare main queue with DLQ settings
	args := amqp.Table{
		"x-dead-letter-exchange":    "",          // default exchange
		"x-dead-letter-routing-key": cfg.DLQName, // route to DLQ
	}

	_, err = ch.QueueDeclare(
		cfg.QueueName,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		args,
	)
	if err != nil {
		return err
	}

	// Bind queue to exchange with routing keys
	for _, key := range cfg.RoutingKeys {
		err = ch.QueueBind(
			cfg.QueueName,
			key,
			cfg.Exchange,
			false,
			nil,
		)
		if err != nil {
			return err
		}
	}

	// Set prefetch count
	err = ch.Qos(1, 0, false)
	if err != nil {
		return err
	}

	// Start consuming
	msgs, err := ch.Consume(
		cfg.QueueName,
		cfg.ConsumerName,
		false, // auto-ack = false (manual ack)
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return err
	}

	log := logrus.WithField("consumer", cfg.ConsumerName)

	go func() {
		for msg := range msgs {
			log.WithFields(logrus.Fields{
				"routing_key":    msg.RoutingKey,
				"correlation_id": msg.CorrelationId,
			}).Info("Received message")

			if err := handler(msg); err != nil {
				log.WithError(err).WithField("correlation_id", msg.CorrelationId).
					Error("Error processing message, nacking to DLQ")
				_ = msg.Nack(false, false) // don't requeue — goes to DLQ
			} else {
				_ = msg.Ack(false)
			}
		}
	}()

	log.WithField("queue", cfg.QueueName).Info("Consumer started")
	return nil
}
