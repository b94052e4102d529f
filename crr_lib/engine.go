package crr

import (
	"context"
	"runtime"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// OptionContract is one row of a batch: inputs plus the fields the engine fills
type OptionContract struct {
	Symbol           string
	StrikePrice      float64
	UnderlyingPrice  float64
	TimeToExpiration float64
	RiskFreeRate     float64
	Volatility       float64
	OptionType       OptionType
	Steps            int // 0 uses the engine default

	// Outputs
	TheoreticalPrice     float64
	EuropeanPrice        float64
	EarlyExercisePremium float64
	Delta                float64
	Gamma                float64
	Theta                float64
	Vega                 float64
	Rho                  float64
	Priced               bool // prices are set even when Err reports a Greek failure
	Err                  string
}

// Params converts the contract inputs for the lattice
func (c OptionContract) Params() Params {
	return Params{
		Spot:       c.UnderlyingPrice,
		Strike:     c.StrikePrice,
		Maturity:   c.TimeToExpiration,
		Rate:       c.RiskFreeRate,
		Volatility: c.Volatility,
		Steps:      c.Steps,
		Type:       c.OptionType,
	}
}

// ExecutionMode defines how batches and Greek evaluations are scheduled
type ExecutionMode string

const (
	ExecutionModeAuto     ExecutionMode = "auto"
	ExecutionModeParallel ExecutionMode = "parallel"
	ExecutionModeCPU      ExecutionMode = "cpu"
)

// Observer receives timing for every lattice and Greek computation.
// internal/metrics implements it.
type Observer interface {
	ObservePrice(optionType string, style string, d time.Duration, err error)
	ObserveGreeks(optionType string, d time.Duration, err error)
}

// EngineOptions configures an Engine
type EngineOptions struct {
	ExecutionMode   ExecutionMode
	Workers         int
	DefaultSteps    int
	MaxSteps        int
	RelativeStep    float64
	MinAbsoluteStep float64
	Observer        Observer
}

// Engine prices batches of contracts with shared defaults
type Engine struct {
	executionMode ExecutionMode
	workers       int
	defaultSteps  int
	maxSteps      int
	estimator     Estimator
	observer      Observer
}

const (
	defaultSteps = 100
	maxSteps     = 20000
)

// NewEngine creates an engine, filling unset options with defaults
func NewEngine(opts EngineOptions) *Engine {
	e := &Engine{
		executionMode: opts.ExecutionMode,
		workers:       opts.Workers,
		defaultSteps:  opts.DefaultSteps,
		maxSteps:      opts.MaxSteps,
		observer:      opts.Observer,
	}

	switch e.executionMode {
	case ExecutionModeParallel, ExecutionModeCPU:
	default:
		e.executionMode = ExecutionModeAuto
	}
	if e.workers <= 0 {
		e.workers = runtime.GOMAXPROCS(0)
	}
	if e.defaultSteps <= 0 {
		e.defaultSteps = defaultSteps
	}
	if e.maxSteps <= 0 {
		e.maxSteps = maxSteps
	}

	e.estimator = Estimator{
		RelativeStep:    opts.RelativeStep,
		MinAbsoluteStep: opts.MinAbsoluteStep,
		// auto spreads contracts over workers; parallel also fans out the
		// six evaluations behind each Greek estimate.
		Parallel: e.executionMode == ExecutionModeParallel,
	}
	if e.estimator.RelativeStep == 0 {
		e.estimator.RelativeStep = DefaultRelativeStep
	}

	return e
}

// NewEngineForced creates an engine with the named execution mode
func NewEngineForced(mode string) *Engine {
	switch strings.ToLower(mode) {
	case "cpu":
		return NewEngine(EngineOptions{ExecutionMode: ExecutionModeCPU})
	case "parallel":
		return NewEngine(EngineOptions{ExecutionMode: ExecutionModeParallel})
	default:
		return NewEngine(EngineOptions{ExecutionMode: ExecutionModeAuto})
	}
}

// ExecutionMode returns the active scheduling mode
func (e *Engine) ExecutionMode() ExecutionMode {
	return e.executionMode
}

// Workers returns the batch concurrency limit
func (e *Engine) Workers() int {
	if e.executionMode == ExecutionModeCPU {
		return 1
	}
	return e.workers
}

// DefaultSteps returns the step count used when a request leaves it unset
func (e *Engine) DefaultSteps() int {
	return e.defaultSteps
}

// resolve applies the default step count and the engine's step ceiling
func (e *Engine) resolve(p Params) (Params, error) {
	if p.Steps == 0 {
		p.Steps = e.defaultSteps
	}
	if p.Steps > e.maxSteps {
		return p, invalid("steps", p.Steps, "exceeds engine maximum")
	}
	return p, nil
}

// Price values p with the given exercise style
func (e *Engine) Price(p Params, style ExerciseStyle) (float64, error) {
	p, err := e.resolve(p)
	if err != nil {
		return 0, err
	}

	start := time.Now()
	v, err := PriceParams(p, style)
	if e.observer != nil {
		e.observer.ObservePrice(string(p.Type), style.String(), time.Since(start), err)
	}
	return v, err
}

// Greeks estimates the sensitivities of the American price of p
func (e *Engine) Greeks(p Params) (Greeks, error) {
	p, err := e.resolve(p)
	if err != nil {
		return Greeks{}, err
	}

	start := time.Now()
	g, err := e.estimator.Estimate(p)
	if e.observer != nil {
		e.observer.ObserveGreeks(string(p.Type), time.Since(start), err)
	}
	return g, err
}

// Convergence runs ConvergenceStudy after checking every step count against
// the engine ceiling
func (e *Engine) Convergence(p Params, steps []int) ([]ConvergencePoint, error) {
	for _, n := range steps {
		if n > e.maxSteps {
			return nil, invalid("steps", n, "exceeds engine maximum")
		}
	}
	return ConvergenceStudy(p, steps)
}

// Calculate fills prices and Greeks for every contract. A contract that fails
// validation keeps its error in Err and the rest of the batch continues; only
// context cancellation aborts the call.
func (e *Engine) Calculate(ctx context.Context, contracts []OptionContract) ([]OptionContract, error) {
	results := make([]OptionContract, len(contracts))
	copy(results, contracts)
	if len(results) == 0 {
		return results, nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.Workers())
	for i := range results {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			e.calculateOne(&results[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (e *Engine) calculateOne(c *OptionContract) {
	p := c.Params()
	if p.Steps == 0 {
		c.Steps = e.defaultSteps
	}

	american, err := e.Price(p, American)
	if err != nil {
		c.Err = err.Error()
		return
	}
	european, err := e.Price(p, European)
	if err != nil {
		c.Err = err.Error()
		return
	}
	c.TheoreticalPrice = american
	c.EuropeanPrice = european
	c.EarlyExercisePremium = american - european
	c.Priced = true

	// prices stay populated when only the Greeks fail (r = 0 or σ = 0)
	greeks, err := e.Greeks(p)
	if err != nil {
		c.Err = err.Error()
		return
	}
	c.Delta = greeks.Delta
	c.Gamma = greeks.Gamma
	c.Theta = greeks.Theta
	c.Vega = greeks.Vega
	c.Rho = greeks.Rho
}
