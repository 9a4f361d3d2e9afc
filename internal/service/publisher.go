// Package service holds collaborators the handlers call after a successful
// write. Publishing is best effort: failures are logged and counted but never
// surface to the request.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/iliyamo/movie-watchlist/internal/config"
	"github.com/iliyamo/movie-watchlist/internal/metrics"
	"github.com/iliyamo/movie-watchlist/internal/queue"
)

// Publisher hands activity events to the broker.
type Publisher interface {
	Publish(ctx context.Context, ev queue.WatchlistEvent)
}

// NewPublisher returns an AMQP publisher when EVENTS_ENABLED is set and a
// no-op publisher otherwise.
func NewPublisher(cfg config.Config, log zerolog.Logger) Publisher {
	if !cfg.EventsEnabled {
		return NopPublisher{}
	}
	return &AMQPPublisher{URL: cfg.RabbitMQURL, Timeout: 3 * time.Second, Log: log}
}

// NopPublisher discards events.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, queue.WatchlistEvent) {}

// AMQPPublisher opens a short-lived connection per event and publishes a
// persistent JSON message to queue.ActivityQueue via the default exchange.
type AMQPPublisher struct {
	URL     string
	Timeout time.Duration
	Log     zerolog.Logger
}

func (p *AMQPPublisher) Publish(ctx context.Context, ev queue.WatchlistEvent) {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	if err := p.publish(ctx, ev); err != nil {
		metrics.EventsPublishedTotal.WithLabelValues("error").Inc()
		p.Log.Warn().Err(err).Str("type", string(ev.Type)).Msg("rabbitmq: publish failed")
		return
	}
	metrics.EventsPublishedTotal.WithLabelValues("ok").Inc()
}

func (p *AMQPPublisher) publish(ctx context.Context, ev queue.WatchlistEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	// detached so a finished request does not abort the publish midway
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.Timeout)
	defer cancel()

	conn, err := amqp.DialConfig(p.URL, amqp.Config{Dial: amqp.DefaultDial(p.Timeout)})
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(queue.ActivityQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	return ch.PublishWithContext(ctx, "", queue.ActivityQueue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    ev.OccurredAt,
		Body:         body,
	})
}
