package ledger

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"activityrewards/core/events"
	"activityrewards/native/rewards"
	"activityrewards/observability/logging"
	"activityrewards/observability/metrics"
	telemetry "activityrewards/observability/otel"
)

const lockStripes = 64

// Option customises a Processor.
type Option func(*Processor)

// WithEmitter sets the sink for applied and rejected events.
func WithEmitter(emitter events.Emitter) Option {
	return func(p *Processor) {
		if emitter != nil {
			p.emitter = emitter
		}
	}
}

// WithMetrics sets the metrics registry. A nil registry disables metrics.
func WithMetrics(m *metrics.RewardMetrics) Option {
	return func(p *Processor) { p.metrics = m }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Processor) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithClock stamps requests that arrive without a timestamp. Without a clock
// such requests are stored with timestamp zero.
func WithClock(now func() time.Time) Option {
	return func(p *Processor) { p.now = now }
}

// Processor serialises applications per slot around load, evaluate and write.
// Applications against different slots run in parallel.
type Processor struct {
	engine  *rewards.Engine
	store   *Store
	emitter events.Emitter
	metrics *metrics.RewardMetrics
	logger  *slog.Logger
	tracer  trace.Tracer
	now     func() time.Time

	locks [lockStripes]sync.Mutex
}

// NewProcessor binds an engine to a store.
func NewProcessor(engine *rewards.Engine, store *Store, opts ...Option) (*Processor, error) {
	if engine == nil {
		return nil, fmt.Errorf("%w: engine required", ErrNotInitialised)
	}
	if store == nil || store.db == nil {
		return nil, fmt.Errorf("%w: store required", ErrNotInitialised)
	}
	p := &Processor{
		engine:  engine,
		store:   store,
		emitter: events.NoopEmitter{},
		logger:  slog.Default(),
		tracer:  telemetry.Tracer(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p, nil
}

// Engine exposes the pricing engine.
func (p *Processor) Engine() *rewards.Engine { return p.engine }

// Store exposes the underlying slot store.
func (p *Processor) Store() *Store { return p.store }

func (p *Processor) lock(slot SlotID) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(slot))
	return &p.locks[h.Sum32()%lockStripes]
}

// Apply evaluates req against the entry currently in slot and, on success,
// replaces it. On any error the slot is left untouched.
func (p *Processor) Apply(ctx context.Context, slot SlotID, req rewards.Request) (*rewards.Outcome, error) {
	ctx, span := p.tracer.Start(ctx, "ledger.Apply", trace.WithAttributes(
		attribute.String("rewards.slot", string(slot)),
		attribute.String("rewards.activity", string(req.Activity)),
	))
	defer span.End()

	outcome, err := p.apply(ctx, slot, p.stamp(req))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		p.reject(slot, req, err)
		return nil, err
	}
	span.SetAttributes(
		attribute.Int64("rewards.consecutive", int64(outcome.Entry.ConsecutiveCount)),
		attribute.String("rewards.amount", rewards.FormatAmount(outcome.Entry.RewardAmount)),
	)
	p.accept(slot, outcome)
	return outcome, nil
}

func (p *Processor) apply(ctx context.Context, slot SlotID, req rewards.Request) (*rewards.Outcome, error) {
	if err := slot.Validate(); err != nil {
		return nil, err
	}
	mu := p.lock(slot)
	mu.Lock()
	defer mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	prior, err := p.prior(slot, req.User)
	if err != nil {
		return nil, err
	}
	outcome, err := p.engine.Evaluate(req, prior)
	if err != nil {
		return nil, err
	}
	if err := p.store.Put(slot, outcome.Entry); err != nil {
		return nil, err
	}
	return outcome, nil
}

// Quote evaluates req against slot without writing. An empty slot quotes a
// first application.
func (p *Processor) Quote(ctx context.Context, slot SlotID, req rewards.Request) (*rewards.Outcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	req = p.stamp(req)
	var prior *rewards.Entry
	if slot != "" {
		if err := slot.Validate(); err != nil {
			p.metrics.ObserveQuote(false)
			return nil, err
		}
		loaded, err := p.prior(slot, req.User)
		if err != nil {
			p.metrics.ObserveQuote(false)
			return nil, err
		}
		prior = loaded
	}
	outcome, err := p.engine.Evaluate(req, prior)
	p.metrics.ObserveQuote(err == nil)
	return outcome, err
}

// Entry returns the entry stored in slot.
func (p *Processor) Entry(ctx context.Context, slot SlotID) (*rewards.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return p.store.Get(slot)
}

// Entries lists every slot owned by owner in ascending slot order.
func (p *Processor) Entries(ctx context.Context, owner rewards.UserID) ([]SlotEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if owner == "" {
		return nil, fmt.Errorf("%w: owner required", rewards.ErrInvalidRequest)
	}
	return p.store.ListByOwner(owner)
}

func (p *Processor) prior(slot SlotID, user rewards.UserID) (*rewards.Entry, error) {
	prior, found, err := p.store.Lookup(slot)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	if user != "" && prior.Owner != user {
		return nil, fmt.Errorf("%w: %s", ErrSlotOwner, slot)
	}
	return prior, nil
}

func (p *Processor) stamp(req rewards.Request) rewards.Request {
	if req.Timestamp == 0 && p.now != nil {
		req.Timestamp = uint64(p.now().Unix())
	}
	return req
}

func (p *Processor) accept(slot SlotID, outcome *rewards.Outcome) {
	entry := outcome.Entry
	p.metrics.ObserveApplied(string(entry.Activity), entry.ConsecutiveCount, entry.RewardAmount, Band(outcome.Multiplier))
	p.emitter.Emit(events.RewardApplied{
		Slot:             string(slot),
		Owner:            string(entry.Owner),
		Activity:         string(entry.Activity),
		NumTasks:         entry.NumTasks,
		NumUsers:         entry.NumUsers,
		ConsecutiveCount: entry.ConsecutiveCount,
		RewardAmount:     entry.RewardAmount,
		BaseReward:       outcome.BaseReward,
		MultiplierBps:    outcome.Multiplier.Bps,
		DecayShift:       outcome.Decay.Shift,
		Timestamp:        entry.Timestamp,
	})
	p.logger.Info("reward applied",
		slog.String("slot", string(slot)),
		logging.MaskField("owner", string(entry.Owner)),
		slog.String("activity", string(entry.Activity)),
		slog.Uint64("consecutive", uint64(entry.ConsecutiveCount)),
		slog.String("multiplier", outcome.Multiplier.String()),
		slog.String("decay", outcome.Decay.String()),
		slog.String("reward", rewards.FormatAmount(entry.RewardAmount)),
	)
}

func (p *Processor) reject(slot SlotID, req rewards.Request, err error) {
	reason := Reason(err)
	p.metrics.ObserveRejected(reason)
	p.emitter.Emit(events.RewardRejected{
		Slot:     string(slot),
		Owner:    string(req.User),
		Activity: string(req.Activity),
		Reason:   reason,
	})
	p.logger.Warn("reward rejected",
		slog.String("slot", string(slot)),
		logging.MaskField("owner", string(req.User)),
		slog.String("activity", string(req.Activity)),
		slog.String("reason", reason),
		slog.Any("error", err),
	)
}

// Reason classifies an application error into a short metrics label.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, rewards.ErrUnknownActivity):
		return "unknown_activity"
	case errors.Is(err, rewards.ErrOverflow):
		return "overflow"
	case errors.Is(err, rewards.ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, ErrSlotOwner):
		return "slot_owner"
	case errors.Is(err, ErrInvalidSlot):
		return "invalid_slot"
	case errors.Is(err, rewards.ErrInvalidEntry):
		return "invalid_entry"
	case errors.Is(err, rewards.ErrConfig):
		return "config"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "storage"
	}
}

// Band names the demand multiplier for metrics labels.
func Band(m rewards.Multiplier) string {
	switch m.Bps {
	case rewards.HighDemandBps:
		return "high"
	case rewards.LowDemandBps:
		return "low"
	default:
		return "balanced"
	}
}
