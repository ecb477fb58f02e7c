package rewards

import (
	"fmt"
	"strings"

	"github.com/holiman/uint256"
)

// DefaultScalingFactor expresses rewards in the ledger's smallest unit.
const DefaultScalingFactor = 100

// maxDecayShift bounds the divisor we materialise. The scaled numerator is
// below 2^142, so any larger shift rounds to zero.
const maxDecayShift = 192

// Params tunes the reward engine.
type Params struct {
	ScalingFactor uint64
}

// DefaultParams returns the production engine parameters.
func DefaultParams() Params {
	return Params{ScalingFactor: DefaultScalingFactor}
}

// Validate ensures the parameters are usable.
func (p Params) Validate() error {
	if p.ScalingFactor == 0 {
		return fmt.Errorf("%w: scaling factor must be positive", ErrConfig)
	}
	return nil
}

// Request is an already-authenticated reward request.
type Request struct {
	User      UserID
	Activity  ActivityID
	NumTasks  uint64
	NumUsers  uint64
	Timestamp uint64
}

// Validate performs stateless request checks.
func (r Request) Validate() error {
	if strings.TrimSpace(string(r.User)) == "" {
		return fmt.Errorf("%w: user required", ErrInvalidRequest)
	}
	if strings.TrimSpace(string(r.Activity)) == "" {
		return fmt.Errorf("%w: activity required", ErrUnknownActivity)
	}
	return nil
}

// Outcome captures every intermediate value of a reward evaluation.
type Outcome struct {
	Entry      *Entry
	BaseReward uint64
	Multiplier Multiplier
	Decay      Decay
}

// Engine computes reward ledger transitions. It holds no mutable state and is
// safe for concurrent use.
type Engine struct {
	catalog *Catalog
	params  Params
}

// NewEngine constructs an engine over the supplied catalog.
func NewEngine(catalog *Catalog, params Params) (*Engine, error) {
	if catalog == nil {
		return nil, fmt.Errorf("%w: nil catalog", ErrConfig)
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Engine{catalog: catalog, params: params}, nil
}

// Catalog exposes the engine's activity catalog.
func (e *Engine) Catalog() *Catalog {
	return e.catalog
}

// Params returns the engine parameters.
func (e *Engine) Params() Params {
	return e.params
}

// Apply computes the entry that replaces prior in its slot. prior may be nil
// when the slot is empty. The same inputs always produce the same entry and
// prior is never modified.
func (e *Engine) Apply(req Request, prior *Entry) (*Entry, error) {
	outcome, err := e.Evaluate(req, prior)
	if err != nil {
		return nil, err
	}
	return outcome.Entry, nil
}

// Evaluate performs Apply and also reports the pricing inputs.
func (e *Engine) Evaluate(req Request, prior *Entry) (*Outcome, error) {
	if e == nil {
		return nil, fmt.Errorf("%w: engine not initialised", ErrConfig)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	base, err := e.catalog.BaseReward(req.Activity)
	if err != nil {
		return nil, err
	}
	if prior != nil && prior.Owner != req.User {
		return nil, fmt.Errorf("%w: slot owned by %q", ErrInvalidEntry, prior.Owner)
	}
	mult := DemandMultiplier(req.NumTasks, req.NumUsers)
	count, decay, err := Advance(prior, req.Activity)
	if err != nil {
		return nil, err
	}
	reward, err := ComputeReward(base, mult, e.params.ScalingFactor, decay)
	if err != nil {
		return nil, err
	}
	entry, err := NewEntry(req.User, req.Activity, req.NumTasks, req.NumUsers, count, reward, req.Timestamp)
	if err != nil {
		return nil, err
	}
	return &Outcome{Entry: entry, BaseReward: base, Multiplier: mult, Decay: decay}, nil
}

// ComputeReward evaluates round_half_up(base × mult × scale / decay) using
// exact 256-bit integer arithmetic.
func ComputeReward(base uint64, mult Multiplier, scale uint64, decay Decay) (uint64, error) {
	if mult.Bps >= 1<<14 {
		return 0, fmt.Errorf("%w: multiplier %d bps out of range", ErrOverflow, mult.Bps)
	}
	numerator, overflow := new(uint256.Int).MulOverflow(uint256.NewInt(base), uint256.NewInt(mult.Bps))
	if overflow {
		return 0, fmt.Errorf("%w: reward numerator", ErrOverflow)
	}
	if _, overflow = numerator.MulOverflow(numerator, uint256.NewInt(scale)); overflow {
		return 0, fmt.Errorf("%w: reward numerator", ErrOverflow)
	}
	if decay.Shift >= maxDecayShift {
		return 0, nil
	}
	denominator := new(uint256.Int).Lsh(uint256.NewInt(MultiplierDenominator), uint(decay.Shift))

	// floor((2n + d) / 2d) rounds half away from zero for non-negative n.
	twice := new(uint256.Int).Lsh(numerator, 1)
	twice.Add(twice, denominator)
	quotient := new(uint256.Int).Div(twice, new(uint256.Int).Lsh(denominator, 1))
	if !quotient.IsUint64() {
		return 0, fmt.Errorf("%w: reward exceeds uint64", ErrOverflow)
	}
	return quotient.Uint64(), nil
}
