package events

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"fintrack/internal/logger"

	"github.com/rabbitmq/amqp091-go"
)

const (
	publishTimeout = 5 * time.Second

	minRedialBackoff = 500 * time.Millisecond
	maxRedialBackoff = 30 * time.Second
)

var (
	ErrPublisherClosed = errors.New("publisher is closed")
	errRedialBackoff   = errors.New("waiting to redial broker")
)

type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Close() error
}

// session is one live connection and channel. Either close signal means
// the session is dead and must be replaced.
type session struct {
	conn       io.Closer
	channel    amqpChannel
	connClosed <-chan *amqp091.Error
	chanClosed <-chan *amqp091.Error
}

func (s *session) lost() (*amqp091.Error, bool) {
	select {
	case err := <-s.connClosed:
		return err, true
	case err := <-s.chanClosed:
		return err, true
	default:
		return nil, false
	}
}

func (s *session) close() {
	if s.channel != nil {
		s.channel.Close()
	}
	if s.conn != nil {
		s.conn.Close()
	}
}

type dialFunc func() (*session, error)

// AMQPPublisher publishes events to a durable topic exchange, routed by
// event type. When the broker drops the connection the next Publish
// re-dials, backing off between failed attempts.
type AMQPPublisher struct {
	dial     dialFunc
	exchange string
	now      func() time.Time

	mu       sync.Mutex
	session  *session
	closed   bool
	backoff  time.Duration
	nextDial time.Time
}

// NewAMQPPublisher dials url and declares the exchange.
func NewAMQPPublisher(url, exchange string) (*AMQPPublisher, error) {
	p := newPublisher(dialer(url, exchange), exchange)
	s, err := p.dial()
	if err != nil {
		return nil, err
	}
	p.session = s
	return p, nil
}

func newPublisher(dial dialFunc, exchange string) *AMQPPublisher {
	return &AMQPPublisher{
		dial:     dial,
		exchange: exchange,
		now:      time.Now,
		backoff:  minRedialBackoff,
	}
}

func dialer(url, exchange string) dialFunc {
	return func() (*session, error) {
		conn, err := amqp091.Dial(url)
		if err != nil {
			return nil, fmt.Errorf("dial AMQP: %w", err)
		}

		channel, err := conn.Channel()
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("open channel: %w", err)
		}

		err = channel.ExchangeDeclare(
			exchange, // name
			"topic",  // type
			true,     // durable
			false,    // auto-deleted
			false,    // internal
			false,    // no-wait
			nil,      // arguments
		)
		if err != nil {
			channel.Close()
			conn.Close()
			return nil, fmt.Errorf("declare exchange: %w", err)
		}

		return &session{
			conn:       conn,
			channel:    channel,
			connClosed: conn.NotifyClose(make(chan *amqp091.Error, 1)),
			chanClosed: channel.NotifyClose(make(chan *amqp091.Error, 1)),
		}, nil
	}
}

// current returns a live session, re-dialing if the last one was lost.
// Callers must hold p.mu.
func (p *AMQPPublisher) current() (*session, error) {
	if p.closed {
		return nil, ErrPublisherClosed
	}

	if p.session != nil {
		reason, lost := p.session.lost()
		if !lost {
			return p.session, nil
		}
		logger.Named("events").Warnw("AMQP connection lost", "reason", reason)
		p.session.close()
		p.session = nil
	}

	now := p.now()
	if now.Before(p.nextDial) {
		return nil, errRedialBackoff
	}

	s, err := p.dial()
	if err != nil {
		p.nextDial = now.Add(p.backoff)
		p.backoff = min(p.backoff*2, maxRedialBackoff)
		return nil, err
	}

	logger.Named("events").Infow("AMQP connection established", "exchange", p.exchange)
	p.session = s
	p.backoff = minRedialBackoff
	p.nextDial = time.Time{}
	return s, nil
}

// Publish implements Publisher.
func (p *AMQPPublisher) Publish(ctx context.Context, e Event) {
	log := logger.Named("events")

	body, err := e.ToJSON()
	if err != nil {
		log.Errorw("failed to encode event", "error", err, "type", e.Type, "resource_id", e.ResourceID)
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	p.mu.Lock()
	s, err := p.current()
	if err == nil {
		err = s.channel.PublishWithContext(
			ctx,
			p.exchange, // exchange
			e.Type,     // routing key
			false,      // mandatory
			false,      // immediate
			amqp091.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp091.Persistent,
				Timestamp:    e.OccurredAt,
				Body:         body,
			},
		)
		if err != nil {
			// Drop the session so the next event starts on a fresh one.
			s.close()
			p.session = nil
		}
	}
	p.mu.Unlock()
	if err != nil {
		log.Errorw("failed to publish event",
			"error", err,
			"type", e.Type,
			"user_id", e.UserID,
			"resource_id", e.ResourceID,
		)
		return
	}

	log.Debugw("published event", "type", e.Type, "resource_id", e.ResourceID)
}

// Close shuts down the channel and connection. Later events are dropped.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.closed = true
	if p.session == nil {
		return nil
	}
	s := p.session
	p.session = nil
	if s.channel != nil {
		s.channel.Close()
	}
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}
