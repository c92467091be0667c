package rabbitmq

import (
	"context"
	"encoding/json"
	amqp "github.com/rabbitmq/amqp091-go"
	"scene-worker/config"
)

// Publish sends message as JSON to the exchange of binding.
func Publish(ctx context.Context, conn *amqp.Connection, cfg *config.RabbitMQ, binding Binding, message any) error {
	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	// Must match the consumer's declaration.
	err = ch.ExchangeDeclare(binding.Exchange, cfg.Kind, true, false, false, false, nil)
	if err != nil {
		return err
	}

	body, err := json.Marshal(message)
	if err != nil {
		return err
	}

	return ch.PublishWithContext(
		ctx,
		binding.Exchange,
		binding.RoutingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
}
