// Package natsbus publishes ledger events to NATS subjects.
package natsbus

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"

	"activityrewards/core/events"
)

// DefaultPrefix is the subject root used when none is configured.
const DefaultPrefix = "rewards"

// Conn is the subset of *nats.Conn the publisher needs.
type Conn interface {
	Publish(subject string, data []byte) error
}

// Publisher implements events.Emitter by publishing every event as JSON on
// "<prefix>.<kind>", e.g. rewards.applied. Publishing is fire-and-forget; the
// NATS client buffers outbound messages while reconnecting.
type Publisher struct {
	conn   Conn
	prefix string
	logger *slog.Logger
	now    func() time.Time
	closer func()

	published atomic.Uint64
	failed    atomic.Uint64
}

// Message is the JSON payload of a published event.
type Message struct {
	Type       string            `json:"type"`
	EmittedAt  time.Time         `json:"emittedAt"`
	Attributes map[string]string `json:"attributes"`
}

// NewPublisher wraps an existing connection.
func NewPublisher(conn Conn, prefix string, logger *slog.Logger) (*Publisher, error) {
	if conn == nil {
		return nil, errors.New("natsbus: connection required")
	}
	prefix = strings.Trim(strings.TrimSpace(prefix), ".")
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{conn: conn, prefix: prefix, logger: logger, now: time.Now}, nil
}

// Connect dials url and returns a publisher owning the connection.
func Connect(url, prefix, name string, logger *slog.Logger) (*Publisher, error) {
	if strings.TrimSpace(url) == "" {
		return nil, errors.New("natsbus: url required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	conn, err := nats.Connect(url,
		nats.Name(name),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
		nats.Timeout(5*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", slog.String("component", "natsbus"), slog.Any("error", err))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", slog.String("component", "natsbus"), slog.String("url", nc.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("natsbus: connect: %w", err)
	}
	publisher, err := NewPublisher(conn, prefix, logger)
	if err != nil {
		conn.Close()
		return nil, err
	}
	publisher.closer = func() {
		if err := conn.Drain(); err != nil {
			conn.Close()
		}
	}
	return publisher, nil
}

// Subject returns the subject an event type is published on.
func (p *Publisher) Subject(eventType string) string {
	kind := strings.TrimPrefix(eventType, "rewards.")
	return p.prefix + "." + kind
}

// Emit implements events.Emitter.
func (p *Publisher) Emit(evt events.Event) {
	if p == nil || evt == nil {
		return
	}
	if err := p.Publish(evt); err != nil {
		p.failed.Add(1)
		p.logger.Warn("nats publish failed",
			slog.String("component", "natsbus"),
			slog.String("reason", err.Error()))
	}
}

// Publish encodes and publishes a single event.
func (p *Publisher) Publish(evt events.Event) error {
	flat := evt.Event()
	if flat == nil {
		return errors.New("natsbus: empty event")
	}
	data, err := json.Marshal(Message{Type: flat.Type, EmittedAt: p.now().UTC(), Attributes: flat.Attributes})
	if err != nil {
		return fmt.Errorf("natsbus: encode: %w", err)
	}
	if err := p.conn.Publish(p.Subject(flat.Type), data); err != nil {
		return fmt.Errorf("natsbus: publish: %w", err)
	}
	p.published.Add(1)
	return nil
}

// Published reports the number of events handed to NATS.
func (p *Publisher) Published() uint64 { return p.published.Load() }

// Failed reports the number of events that could not be published.
func (p *Publisher) Failed() uint64 { return p.failed.Load() }

// Close drains the connection when the publisher owns it.
func (p *Publisher) Close() {
	if p == nil || p.closer == nil {
		return
	}
	p.closer()
}
