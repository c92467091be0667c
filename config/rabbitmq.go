package config

import (
	"context"
	"github.com/cenkalti/backoff/v5"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"time"
)

const (
	dialMaxTries    = 5
	dialMaxInterval = 10 * time.Second
)

// URI is the broker address for cfg.
func (r *RabbitMQ) URI() amqp.URI {
	return amqp.URI{
		Scheme:   "amqp",
		Host:     r.Host,
		Port:     r.Port,
		Username: r.User,
		Password: r.Pass,
		Vhost:    "/",
	}
}

// NewRabbitMQConn dials the broker with exponential backoff and closes the
// connection when ctx is done.
func NewRabbitMQConn(ctx context.Context, cfg *RabbitMQ) (*amqp.Connection, error) {
	uri := cfg.URI()
	log := zerolog.Ctx(ctx).With().Str("broker", uri.Host).Int("port", uri.Port).Logger()

	operation := func() (*amqp.Connection, error) {
		conn, err := amqp.Dial(uri.String())
		if err != nil {
			log.Warn().Err(err).Msg("rabbitmq dial failed, retrying")
			return nil, err
		}
		return conn, nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxInterval = dialMaxInterval
	conn, err := backoff.Retry(ctx, operation, backoff.WithBackOff(bo), backoff.WithMaxTries(dialMaxTries))
	if err != nil {
		log.Error().Err(err).Msg("rabbitmq unreachable")
		return nil, err
	}

	log.Info().Msg("connected to rabbitmq")
	go func() {
		<-ctx.Done()
		if err := conn.Close(); err != nil && !conn.IsClosed() {
			log.Error().Err(err).Msg("failed to close rabbitmq connection")
		}
		log.Info().Msg("rabbitmq connection closed")
	}()

	return conn, nil
}
