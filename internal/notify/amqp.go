package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/ikoiii/booking-futsal/internal/config"
	"github.com/ikoiii/booking-futsal/internal/events"
)

const SinkAMQP = "amqp"

// amqpChannel is the subset of *amqp.Channel used for publishing.
type amqpChannel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type dialFunc func(url string) (amqpChannel, func() error, error)

// AMQPPublisher forwards booking events to RabbitMQ as persistent JSON messages.
// The connection is opened lazily and dropped after a failed publish.
type AMQPPublisher struct {
	cfg    config.EventsConfig
	dial   dialFunc
	logger *zerolog.Logger

	mu        sync.Mutex
	ch        amqpChannel
	closeConn func() error
}

func NewAMQPPublisher(cfg config.EventsConfig, logger *zerolog.Logger) *AMQPPublisher {
	return &AMQPPublisher{cfg: cfg, dial: dialAMQP, logger: logger}
}

func dialAMQP(url string) (amqpChannel, func() error, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("amqp channel: %w", err)
	}
	return ch, conn.Close, nil
}

func (p *AMQPPublisher) Name() string { return SinkAMQP }

// Deliver publishes the event payload. The event type travels in the Type property.
func (p *AMQPPublisher) Deliver(ctx context.Context, event *events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channel()
	if err != nil {
		return err
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Type:         event.Type,
		Timestamp:    event.CreatedAt.UTC(),
		Body:         event.Payload,
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}

	if err := ch.PublishWithContext(ctx, p.cfg.Exchange, p.cfg.RoutingKey, false, false, msg); err != nil {
		p.reset()
		return fmt.Errorf("amqp publish: %w", err)
	}
	return nil
}

func (p *AMQPPublisher) channel() (amqpChannel, error) {
	if p.ch != nil {
		return p.ch, nil
	}
	if p.cfg.AMQPURL == "" {
		return nil, errors.New("amqp url is not configured")
	}

	ch, closeConn, err := p.dial(p.cfg.AMQPURL)
	if err != nil {
		return nil, err
	}
	if err := p.declare(ch); err != nil {
		_ = ch.Close()
		_ = closeConn()
		return nil, err
	}

	p.ch = ch
	p.closeConn = closeConn
	p.logger.Info().Str("exchange", p.cfg.Exchange).Str("routing_key", p.cfg.RoutingKey).Msg("amqp publisher connected")
	return ch, nil
}

func (p *AMQPPublisher) declare(ch amqpChannel) error {
	if _, err := ch.QueueDeclare(p.cfg.RoutingKey, true, false, false, false, nil); err != nil {
		return fmt.Errorf("amqp queue declare: %w", err)
	}
	if p.cfg.Exchange == "" {
		return nil
	}
	if err := ch.ExchangeDeclare(p.cfg.Exchange, amqp.ExchangeDirect, true, false, false, false, nil); err != nil {
		return fmt.Errorf("amqp exchange declare: %w", err)
	}
	if err := ch.QueueBind(p.cfg.RoutingKey, p.cfg.RoutingKey, p.cfg.Exchange, false, nil); err != nil {
		return fmt.Errorf("amqp queue bind: %w", err)
	}
	return nil
}

func (p *AMQPPublisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.closeConn != nil {
		_ = p.closeConn()
	}
	p.ch = nil
	p.closeConn = nil
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reset()
	return nil
}
