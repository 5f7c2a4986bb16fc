// Package amqp implements the push-based price-tick channel. Ticks arrive as
// JSON messages ({symbol, price, serverTimeSec}) on a RabbitMQ queue,
// at-most-once, with no ordering guarantee across reconnects; the aggregator
// downstream is responsible for dropping whatever arrives late.
package amqp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"demo-trader/internal/state"
)

const (
	dialAttempts  = 10
	dialBackoff   = 2 * time.Second
	tickBufferLen = 1000
)

// TickHandler receives decoded ticks from the consumer. Handlers run on a
// single processor goroutine, so they never execute concurrently with each
// other.
type TickHandler func(state.Tick)

// Consumer receives tick messages from RabbitMQ and dispatches them to a
// handler through a buffered channel. When the buffer is full, ticks are
// discarded rather than blocking the delivery loop.
type Consumer struct {
	conn  *amqp091.Connection
	log   *zap.Logger
	queue string

	ticks  chan amqp091.Delivery
	onDrop func()
}

// NewConsumer dials RabbitMQ with retries and prepares a consumer for the
// given tick queue.
func NewConsumer(uri, queue string, log *zap.Logger) (*Consumer, error) {
	var conn *amqp091.Connection
	var err error

	for i := 0; i < dialAttempts; i++ {
		conn, err = amqp091.Dial(uri)
		if err == nil {
			break
		}
		log.Warn("rabbitmq connection attempt failed",
			zap.Int("attempt", i+1),
			zap.Error(err))
		time.Sleep(dialBackoff)
	}
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq after %d attempts: %w", dialAttempts, err)
	}

	return &Consumer{
		conn:  conn,
		log:   log,
		queue: queue,
		ticks: make(chan amqp091.Delivery, tickBufferLen),
	}, nil
}

// SetDropHook registers an optional counter invoked when a tick is discarded
// because the dispatch buffer is full. Must be called before Start.
func (c *Consumer) SetDropHook(onDrop func()) {
	c.onDrop = onDrop
}

// Start registers the queue consumer and launches the delivery and processor
// goroutines. The handler receives every decodable tick; malformed payloads
// are dropped here, semantic validation happens downstream.
func (c *Consumer) Start(ctx context.Context, handler TickHandler) error {
	ch, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}

	deliveries, err := ch.Consume(
		c.queue,
		"",    // consumer tag
		true,  // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("consume queue %s: %w", c.queue, err)
	}

	go c.receiveLoop(ctx, deliveries)
	go c.processLoop(ctx, handler)

	c.log.Info("tick consumer started", zap.String("queue", c.queue))
	return nil
}

func (c *Consumer) receiveLoop(ctx context.Context, deliveries <-chan amqp091.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-deliveries:
			if !ok {
				c.log.Warn("tick delivery channel closed")
				return
			}
			select {
			case c.ticks <- d:
			default:
				// Buffer full: shed load instead of blocking the broker.
				if c.onDrop != nil {
					c.onDrop()
				}
			}
		}
	}
}

func (c *Consumer) processLoop(ctx context.Context, handler TickHandler) {
	for {
		select {
		case <-ctx.Done():
			c.log.Info("tick processor stopped")
			return
		case d := <-c.ticks:
			var tick state.Tick
			if err := json.Unmarshal(d.Body, &tick); err != nil {
				c.log.Warn("unmarshal tick failed", zap.Error(err))
				continue
			}
			handler(tick)
		}
	}
}

// Close closes the underlying connection.
func (c *Consumer) Close() {
	if c.conn != nil {
		c.conn.Close()
	}
}
