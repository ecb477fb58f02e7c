package webhooks

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"activityrewards/core/events"
)

const (
	// HeaderEvent carries the event type of the delivery.
	HeaderEvent = "X-Rewards-Event"
	// HeaderSignature carries the hex HMAC-SHA256 of the body, prefixed with "sha256=".
	HeaderSignature = "X-Rewards-Signature"
	// HeaderDelivery carries the unique delivery identifier.
	HeaderDelivery = "X-Rewards-Delivery"

	defaultMaxAttempts = 5
	defaultMinBackoff  = 2 * time.Second
	defaultMaxBackoff  = 30 * time.Second
	defaultQueueSize   = 256
)

var (
	ErrEndpointRequired = errors.New("webhook: endpoint required")
	ErrSecretRequired   = errors.New("webhook: secret required")
	ErrClosed           = errors.New("webhook: dispatcher closed")
)

// Payload is the JSON body posted for every reward event.
type Payload struct {
	Type       string            `json:"type"`
	DeliveryID string            `json:"deliveryId"`
	EmittedAt  time.Time         `json:"emittedAt"`
	Attributes map[string]string `json:"attributes"`
}

// Dispatcher delivers reward events to a single HTTP endpoint with retry and
// exponential backoff. It implements events.Emitter; Emit never blocks the
// ledger and drops events when the queue is full.
type Dispatcher struct {
	endpoint    string
	secret      []byte
	client      *http.Client
	maxAttempts int
	minBackoff  time.Duration
	maxBackoff  time.Duration
	types       map[string]struct{}
	logger      *slog.Logger
	now         func() time.Time

	ctx     context.Context
	cancel  context.CancelFunc
	queue   chan delivery
	wg      sync.WaitGroup
	dropped atomic.Uint64
	failed  atomic.Uint64
}

type delivery struct {
	id        string
	eventType string
	body      []byte
}

// Option mutates dispatcher configuration.
type Option func(*Dispatcher)

// WithHTTPClient overrides the HTTP client used for deliveries.
func WithHTTPClient(client *http.Client) Option {
	return func(d *Dispatcher) {
		if client != nil {
			d.client = client
		}
	}
}

// WithRetryPolicy overrides the retry configuration.
func WithRetryPolicy(maxAttempts int, minBackoff, maxBackoff time.Duration) Option {
	return func(d *Dispatcher) {
		if maxAttempts > 0 {
			d.maxAttempts = maxAttempts
		}
		if minBackoff > 0 {
			d.minBackoff = minBackoff
		}
		if maxBackoff >= minBackoff && maxBackoff > 0 {
			d.maxBackoff = maxBackoff
		}
	}
}

// WithEventTypes restricts deliveries to the listed event types. Without it
// every event is delivered.
func WithEventTypes(eventTypes ...string) Option {
	return func(d *Dispatcher) {
		for _, t := range eventTypes {
			t = strings.TrimSpace(t)
			if t == "" {
				continue
			}
			if d.types == nil {
				d.types = make(map[string]struct{})
			}
			d.types[t] = struct{}{}
		}
	}
}

// WithQueueSize overrides the number of pending deliveries kept in memory.
func WithQueueSize(size int) Option {
	return func(d *Dispatcher) {
		if size > 0 {
			d.queue = make(chan delivery, size)
		}
	}
}

// WithLogger sets the logger used for failed deliveries.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// NewDispatcher constructs a dispatcher and spawns the worker goroutine.
func NewDispatcher(endpoint string, secret []byte, opts ...Option) (*Dispatcher, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, ErrEndpointRequired
	}
	if len(secret) == 0 {
		return nil, ErrSecretRequired
	}
	ctx, cancel := context.WithCancel(context.Background())
	dispatcher := &Dispatcher{
		endpoint:    endpoint,
		secret:      append([]byte(nil), secret...),
		client:      &http.Client{Timeout: 15 * time.Second},
		maxAttempts: defaultMaxAttempts,
		minBackoff:  defaultMinBackoff,
		maxBackoff:  defaultMaxBackoff,
		logger:      slog.Default(),
		now:         time.Now,
		ctx:         ctx,
		cancel:      cancel,
		queue:       make(chan delivery, defaultQueueSize),
	}
	for _, opt := range opts {
		opt(dispatcher)
	}
	dispatcher.wg.Add(1)
	go dispatcher.worker()
	return dispatcher, nil
}

// Close stops the dispatcher and waits for the worker to exit. The in-flight
// attempt is cancelled; it and every queued delivery are counted as failed.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.cancel()
	d.wg.Wait()
}

// Emit implements events.Emitter.
func (d *Dispatcher) Emit(evt events.Event) {
	if d == nil || evt == nil {
		return
	}
	if d.types != nil {
		if _, ok := d.types[evt.EventType()]; !ok {
			return
		}
	}
	if err := d.Enqueue(evt); err != nil {
		d.dropped.Add(1)
		d.logger.Warn("webhook delivery dropped",
			slog.String("component", "webhooks"),
			slog.String("reason", err.Error()))
	}
}

// Enqueue schedules an asynchronous delivery of evt.
// It fails fast when the queue is full or the dispatcher is closed.
func (d *Dispatcher) Enqueue(evt events.Event) error {
	if d == nil {
		return errors.New("webhook: dispatcher not initialised")
	}
	flat := evt.Event()
	if flat == nil {
		return errors.New("webhook: empty event")
	}
	payload := Payload{
		Type:       flat.Type,
		DeliveryID: uuid.NewString(),
		EmittedAt:  d.now().UTC(),
		Attributes: flat.Attributes,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if d.ctx.Err() != nil {
		return ErrClosed
	}
	select {
	case d.queue <- delivery{id: payload.DeliveryID, eventType: payload.Type, body: body}:
		return nil
	default:
		return errors.New("webhook: queue full")
	}
}

// Dropped reports how many events were discarded before delivery.
func (d *Dispatcher) Dropped() uint64 { return d.dropped.Load() }

// Failed reports how many deliveries exhausted every retry attempt or were
// abandoned by Close.
func (d *Dispatcher) Failed() uint64 { return d.failed.Load() }

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for {
		select {
		case job := <-d.queue:
			d.process(job)
		case <-d.ctx.Done():
			d.abandonQueued()
			return
		}
	}
}

func (d *Dispatcher) abandonQueued() {
	abandoned := 0
	for {
		select {
		case <-d.queue:
			abandoned++
			d.failed.Add(1)
		default:
			if abandoned > 0 {
				d.logger.Warn("webhook deliveries abandoned on close",
					slog.String("component", "webhooks"),
					slog.Int("count", abandoned))
			}
			return
		}
	}
}

func (d *Dispatcher) process(job delivery) {
	attempt := 0
	backoff := d.minBackoff
	for {
		attempt++
		ctx, cancel := context.WithTimeout(d.ctx, d.client.Timeout)
		err := d.send(ctx, job)
		cancel()
		if err == nil {
			return
		}
		if attempt >= d.maxAttempts || d.ctx.Err() != nil {
			d.failed.Add(1)
			d.logger.Error("webhook delivery failed",
				slog.String("component", "webhooks"),
				slog.String("delivery", job.id),
				slog.Int("attempts", attempt),
				slog.Any("error", err))
			return
		}
		select {
		case <-time.After(backoff):
		case <-d.ctx.Done():
			d.failed.Add(1)
			return
		}
		backoff = nextBackoff(backoff, d.maxBackoff)
	}
}

func (d *Dispatcher) send(ctx context.Context, job delivery) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, bytes.NewReader(job.body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderEvent, job.eventType)
	req.Header.Set(HeaderDelivery, job.id)
	req.Header.Set(HeaderSignature, Sign(d.secret, job.body))
	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return fmt.Errorf("webhook: delivery failed with status %d", resp.StatusCode)
}

// Sign returns the signature header value for body under secret.
func Sign(secret, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	_, _ = mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether signature matches body under secret.
func Verify(secret, body []byte, signature string) bool {
	return hmac.Equal([]byte(Sign(secret, body)), []byte(signature))
}

func nextBackoff(current, max time.Duration) time.Duration {
	next := current * 2
	if next > max {
		return max
	}
	if next < current {
		return max
	}
	return next
}
