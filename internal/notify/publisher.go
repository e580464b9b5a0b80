package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

const (
	flushBatchSize = 10
	flushInterval  = time.Second
	publishTimeout = 5 * time.Second

	reconnectDelay    = time.Second
	maxReconnectDelay = 30 * time.Second
)

// sender delivers one encoded event. It is swapped out in tests.
type sender func(ctx context.Context, body []byte) error

// brokerChannel is the part of *amqp.Channel the publisher uses.
type brokerChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	IsClosed() bool
	Close() error
}

// dialer opens a connection and a channel with the queue declared.
type dialer func() (io.Closer, brokerChannel, error)

// AMQPPublisher buffers events and publishes them to a durable queue from a
// single worker goroutine. A dropped broker connection is re-dialled on the
// next publish.
type AMQPPublisher struct {
	conn    io.Closer
	ch      brokerChannel
	dial    dialer
	backoff time.Duration
	queue   string
	send    sender
	events  chan Event
	log     *logrus.Logger

	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once
	done      chan struct{}
}

// NewAMQPPublisher dials url, declares queue and starts the worker.
func NewAMQPPublisher(url, queue string, buffer int, log *logrus.Logger) (*AMQPPublisher, error) {
	dial := func() (io.Closer, brokerChannel, error) { return dialQueue(url, queue) }
	conn, ch, err := dial()
	if err != nil {
		return nil, err
	}

	p := newPublisher(queue, buffer, log, nil)
	p.conn, p.ch, p.dial = conn, ch, dial
	p.send = p.publishAMQP
	go p.run()
	return p, nil
}

func dialQueue(url, queue string) (io.Closer, brokerChannel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("dial broker: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, fmt.Errorf("declare queue %s: %w", queue, err)
	}
	return conn, ch, nil
}

func newPublisher(queue string, buffer int, log *logrus.Logger, send sender) *AMQPPublisher {
	if buffer < 1 {
		buffer = 1
	}
	return &AMQPPublisher{
		queue:   queue,
		send:    send,
		backoff: reconnectDelay,
		events:  make(chan Event, buffer),
		log:     log,
		done:    make(chan struct{}),
	}
}

// Publish queues evt without blocking. When the buffer is full or the
// publisher is closed the event is dropped and a warning logged.
func (p *AMQPPublisher) Publish(_ context.Context, evt Event) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		p.log.WithField("event", evt.Type).Warn("notify: publisher closed, event dropped")
		return
	}
	select {
	case p.events <- evt:
	default:
		p.log.WithField("event", evt.Type).Warn("notify: buffer full, event dropped")
	}
}

// Close stops accepting events, flushes what is buffered and closes the broker
// connection.
func (p *AMQPPublisher) Close() error {
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		close(p.events)
		p.mu.Unlock()

		<-p.done
		p.closeBroker()
	})
	return nil
}

func (p *AMQPPublisher) run() {
	defer close(p.done)

	batch := make([]Event, 0, flushBatchSize)
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	for {
		select {
		case evt, ok := <-p.events:
			if !ok {
				p.flush(batch)
				return
			}
			batch = append(batch, evt)
			if len(batch) >= flushBatchSize {
				p.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				p.flush(batch)
				batch = batch[:0]
			}
		}
	}
}

func (p *AMQPPublisher) flush(batch []Event) {
	for _, evt := range batch {
		body, err := json.Marshal(evt)
		if err != nil {
			p.log.WithError(err).WithField("event", evt.Type).Error("notify: marshal event")
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		err = p.send(ctx, body)
		cancel()
		if err != nil {
			p.log.WithError(err).WithField("event", evt.Type).Error("notify: publish event")
			continue
		}
		p.log.WithField("event", evt.Type).Debug("notify: event published")
	}
}

func (p *AMQPPublisher) publishAMQP(ctx context.Context, body []byte) error {
	if p.ch == nil || p.ch.IsClosed() {
		if err := p.reconnect(ctx); err != nil {
			return err
		}
	}
	return p.ch.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
}

// reconnect re-dials the broker with exponential backoff until it succeeds or
// ctx expires. Only the worker goroutine calls it.
func (p *AMQPPublisher) reconnect(ctx context.Context) error {
	if p.dial == nil {
		return errors.New("notify: broker channel closed")
	}
	p.closeBroker()
	backoff := p.backoff
	for {
		conn, ch, err := p.dial()
		if err == nil {
			p.conn, p.ch = conn, ch
			p.log.Info("notify: reconnected to broker")
			return nil
		}
		p.log.WithError(err).Warnf("notify: dial failed, retrying in %s", backoff)
		select {
		case <-ctx.Done():
			return fmt.Errorf("reconnect broker: %w", err)
		case <-time.After(backoff):
		}
		if backoff < maxReconnectDelay {
			backoff *= 2
		}
	}
}

func (p *AMQPPublisher) closeBroker() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}
