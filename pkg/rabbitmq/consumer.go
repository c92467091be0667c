package rabbitmq

import (
	"context"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"scene-worker/config"
	"sync"
)

const (
	RunExchange   = "scene_exchange"
	RunQueue      = "scene_run_queue"
	RunRoutingKey = "scene.run.request"
)

// Binding names the exchange, queue and routing key a consumer listens on.
type Binding struct {
	Exchange   string
	Queue      string
	RoutingKey string
}

var RunBinding = Binding{Exchange: RunExchange, Queue: RunQueue, RoutingKey: RunRoutingKey}

type Consumer[T any] interface {
	Consume(ctx context.Context, dependencies T) error
}

type consumer[T any] struct {
	conn       *amqp.Connection
	cfg        *config.RabbitMQ
	binding    Binding
	handler    func(ctx context.Context, msg amqp.Delivery, dependencies T) error
	numWorkers int
}

func (c consumer[T]) Consume(ctx context.Context, dependencies T) error {
	log := zerolog.Ctx(ctx).With().Str("queue", c.binding.Queue).Logger()

	ch, err := c.conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	err = ch.ExchangeDeclare(c.binding.Exchange, c.cfg.Kind, true, false, false, false, nil)
	if err != nil {
		log.Error().Err(err).Msg("failed to declare exchange")
		return err
	}

	q, err := ch.QueueDeclare(c.binding.Queue, true, false, false, false, nil)
	if err != nil {
		log.Error().Err(err).Msg("failed to declare queue")
		return err
	}

	err = ch.QueueBind(q.Name, c.binding.RoutingKey, c.binding.Exchange, false, nil)
	if err != nil {
		log.Error().Err(err).Msg("failed to bind queue")
		return err
	}

	err = ch.Qos(c.numWorkers, 0, false)
	if err != nil {
		log.Error().Err(err).Msg("failed to set QoS")
		return err
	}

	deliveries, err := ch.Consume(q.Name, "", false, false, false, false, nil)
	if err != nil {
		log.Error().Err(err).Msg("failed to consume queue")
		return err
	}
	log.Info().Str("routing_key", c.binding.RoutingKey).Msg("consuming")

	jobs := make(chan amqp.Delivery, c.numWorkers)
	var wg sync.WaitGroup
	for i := 1; i <= c.numWorkers; i++ {
		wg.Add(1)
		go func(workerId int) {
			defer wg.Done()
			for msg := range jobs {
				// Trigger messages are not redelivered; a rejected one is
				// picked up again by the next periodic run anyway.
				if err := c.handler(ctx, msg, dependencies); err != nil {
					log.Error().Err(err).Int("worker", workerId).Msg("failed to handle message")
				}
				if err := msg.Ack(false); err != nil {
					log.Error().Err(err).Msg("failed to acknowledge message")
				}
			}
		}(i)
	}

	for {
		select {
		case delivery, ok := <-deliveries:
			if !ok {
				close(jobs)
				wg.Wait()
				return nil
			}

			jobs <- delivery
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return ctx.Err()
		}
	}
}

func NewConsumer[T any](
	conn *amqp.Connection,
	cfg *config.RabbitMQ,
	binding Binding,
	numWorkers int,
	handler func(ctx context.Context, msg amqp.Delivery, dependencies T) error,
) Consumer[T] {
	if numWorkers < 1 {
		numWorkers = 1
	}
	return &consumer[T]{
		conn:       conn,
		cfg:        cfg,
		binding:    binding,
		handler:    handler,
		numWorkers: numWorkers,
	}
}
