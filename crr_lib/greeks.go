package crr

import (
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"
)

// DefaultRelativeStep is the bump applied to S, T, σ and r, as a fraction of
// the parameter's value.
const DefaultRelativeStep = 1e-4

// Greeks holds finite-difference sensitivities of the American lattice price.
//
// Theta is (P(T-h) - P(T)) / h: the change in price per year of calendar time
// elapsing, so it is usually negative for a long option. It is not scaled to
// days. Vega and Rho are per unit of σ and r (not per percentage point).
type Greeks struct {
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Theta float64 `json:"theta"`
	Vega  float64 `json:"vega"`
	Rho   float64 `json:"rho"`
}

// Map returns the Greeks keyed by name
func (g Greeks) Map() map[string]float64 {
	return map[string]float64{
		"Delta": g.Delta,
		"Gamma": g.Gamma,
		"Theta": g.Theta,
		"Vega":  g.Vega,
		"Rho":   g.Rho,
	}
}

// Estimator computes Greeks from six lattice evaluations.
//
// When r or σ is zero its relative step is zero too. With MinAbsoluteStep == 0
// Estimate fails with ErrDivisionByZero; a positive MinAbsoluteStep replaces
// any step smaller in magnitude than it.
type Estimator struct {
	RelativeStep    float64
	MinAbsoluteStep float64
	Parallel        bool
}

// DefaultEstimator uses 1e-4 relative steps, sequential evaluation and the
// ErrDivisionByZero policy for zero bases.
var DefaultEstimator = Estimator{RelativeStep: DefaultRelativeStep}

// EstimateGreeks runs DefaultEstimator on an American option
func EstimateGreeks(s, k, t, r, sigma float64, steps int, optionType OptionType) (Greeks, error) {
	return DefaultEstimator.Estimate(Params{
		Spot:       s,
		Strike:     k,
		Maturity:   t,
		Rate:       r,
		Volatility: sigma,
		Steps:      steps,
		Type:       optionType,
	})
}

// evaluation slots, fixed so parallel and sequential runs combine identically
const (
	slotBase = iota
	slotSpotUp
	slotSpotDown
	slotTimeDown
	slotVolUp
	slotRateUp
	slotCount
)

// Estimate returns the Greeks of p. Every evaluation uses p.Steps and p.Type so
// discretization error is shared across the differenced points.
func (e Estimator) Estimate(p Params) (Greeks, error) {
	if err := p.Validate(); err != nil {
		return Greeks{}, err
	}

	rel := e.RelativeStep
	if rel == 0 {
		rel = DefaultRelativeStep
	}
	if rel < 0 || math.IsNaN(rel) || math.IsInf(rel, 0) {
		return Greeks{}, invalid("relative_step", rel, "must be positive and finite")
	}

	hS, err := e.step("spot", p.Spot, rel)
	if err != nil {
		return Greeks{}, err
	}
	hT, err := e.step("maturity", p.Maturity, rel)
	if err != nil {
		return Greeks{}, err
	}
	hV, err := e.step("volatility", p.Volatility, rel)
	if err != nil {
		return Greeks{}, err
	}
	hR, err := e.step("rate", p.Rate, rel)
	if err != nil {
		return Greeks{}, err
	}

	points := [slotCount]Params{}
	points[slotBase] = p
	points[slotSpotUp] = p
	points[slotSpotUp].Spot = p.Spot + hS
	points[slotSpotDown] = p
	points[slotSpotDown].Spot = p.Spot - hS
	points[slotTimeDown] = p
	points[slotTimeDown].Maturity = p.Maturity - hT
	points[slotVolUp] = p
	points[slotVolUp].Volatility = p.Volatility + hV
	points[slotRateUp] = p
	points[slotRateUp].Rate = p.Rate + hR

	var prices [slotCount]float64
	if e.Parallel {
		var g errgroup.Group
		for i := range points {
			i := i
			g.Go(func() error {
				v, err := PriceParams(points[i], American)
				if err != nil {
					return err
				}
				prices[i] = v
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return Greeks{}, fmt.Errorf("greeks: %w", err)
		}
	} else {
		for i := range points {
			v, err := PriceParams(points[i], American)
			if err != nil {
				return Greeks{}, fmt.Errorf("greeks: %w", err)
			}
			prices[i] = v
		}
	}

	p0 := prices[slotBase]
	return Greeks{
		Delta: (prices[slotSpotUp] - prices[slotSpotDown]) / (2 * hS),
		Gamma: (prices[slotSpotUp] - 2*p0 + prices[slotSpotDown]) / (hS * hS),
		Theta: (prices[slotTimeDown] - p0) / hT,
		Vega:  (prices[slotVolUp] - p0) / hV,
		Rho:   (prices[slotRateUp] - p0) / hR,
	}, nil
}

// step returns rel·base, falling back to MinAbsoluteStep (keeping the sign of
// base) when that is too small.
func (e Estimator) step(param string, base, rel float64) (float64, error) {
	h := rel * base
	if math.Abs(h) >= e.MinAbsoluteStep && h != 0 {
		return h, nil
	}
	if e.MinAbsoluteStep <= 0 {
		return 0, zeroStep(param)
	}
	if base < 0 {
		return -e.MinAbsoluteStep, nil
	}
	return e.MinAbsoluteStep, nil
}
