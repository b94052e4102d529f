package crr_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	crr "github.com/jwaldner/crr/crr_lib"
	testdata "github.com/jwaldner/crr/test_data"
)

type countingObserver struct {
	mu       sync.Mutex
	prices   map[string]int
	greeks   int
	failures int
}

func newCountingObserver() *countingObserver {
	return &countingObserver{prices: make(map[string]int)}
}

func (o *countingObserver) ObservePrice(optionType, style string, d time.Duration, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.prices[optionType+"/"+style]++
	if err != nil {
		o.failures++
	}
}

func (o *countingObserver) ObserveGreeks(optionType string, d time.Duration, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.greeks++
	if err != nil {
		o.failures++
	}
}

func contractFromScenario(sc testdata.Scenario) crr.OptionContract {
	return crr.OptionContract{
		Symbol:           sc.Name,
		StrikePrice:      sc.Strike,
		UnderlyingPrice:  sc.Spot,
		TimeToExpiration: sc.Maturity,
		RiskFreeRate:     sc.Rate,
		Volatility:       sc.Volatility,
		OptionType:       crr.OptionType(sc.OptionType),
		Steps:            sc.Steps,
	}
}

func TestNewEngineDefaults(t *testing.T) {
	engine := crr.NewEngine(crr.EngineOptions{})
	if engine.ExecutionMode() != crr.ExecutionModeAuto {
		t.Errorf("expected auto mode, got %s", engine.ExecutionMode())
	}
	if engine.DefaultSteps() != 100 {
		t.Errorf("expected 100 default steps, got %d", engine.DefaultSteps())
	}
	if engine.Workers() < 1 {
		t.Errorf("expected at least one worker, got %d", engine.Workers())
	}
}

func TestNewEngineForced(t *testing.T) {
	cases := map[string]crr.ExecutionMode{
		"cpu":      crr.ExecutionModeCPU,
		"CPU":      crr.ExecutionModeCPU,
		"parallel": crr.ExecutionModeParallel,
		"auto":     crr.ExecutionModeAuto,
		"cuda":     crr.ExecutionModeAuto,
	}
	for mode, want := range cases {
		engine := crr.NewEngineForced(mode)
		if engine.ExecutionMode() != want {
			t.Errorf("NewEngineForced(%q) mode = %s, want %s", mode, engine.ExecutionMode(), want)
		}
	}
	if w := crr.NewEngineForced("cpu").Workers(); w != 1 {
		t.Errorf("cpu engine should run one worker, got %d", w)
	}
}

func TestEngineCalculateBatch(t *testing.T) {
	contracts := []crr.OptionContract{
		contractFromScenario(testdata.ATMCall),
		contractFromScenario(testdata.ATMPut),
		{Symbol: "BAD", StrikePrice: 100, UnderlyingPrice: 100, TimeToExpiration: 1, RiskFreeRate: 0.05, Volatility: 0.2, OptionType: "straddle"},
		{Symbol: "ZERO_RATE", StrikePrice: 100, UnderlyingPrice: 100, TimeToExpiration: 1, RiskFreeRate: 0, Volatility: 0.2, OptionType: crr.Put},
	}

	observer := newCountingObserver()
	engine := crr.NewEngine(crr.EngineOptions{ExecutionMode: crr.ExecutionModeAuto, Workers: 2, Observer: observer})
	results, err := engine.Calculate(context.Background(), contracts)
	if err != nil {
		t.Fatalf("batch failed: %v", err)
	}
	if len(results) != len(contracts) {
		t.Fatalf("expected %d results, got %d", len(contracts), len(results))
	}

	call := results[0]
	if call.Err != "" {
		t.Fatalf("call failed: %s", call.Err)
	}
	if call.TheoreticalPrice < testdata.ATMCall.MinPrice || call.TheoreticalPrice > testdata.ATMCall.MaxPrice {
		t.Errorf("call price %.6f out of range", call.TheoreticalPrice)
	}
	if call.EarlyExercisePremium > 1e-9 || call.EarlyExercisePremium < -1e-9 {
		t.Errorf("call early exercise premium should be 0, got %.12f", call.EarlyExercisePremium)
	}
	if call.Delta <= 0 || call.Delta >= 1 {
		t.Errorf("call delta %.6f out of (0,1)", call.Delta)
	}

	put := results[1]
	if put.Err != "" {
		t.Fatalf("put failed: %s", put.Err)
	}
	if put.EarlyExercisePremium <= 0 {
		t.Errorf("put early exercise premium should be positive, got %.6f", put.EarlyExercisePremium)
	}

	if !strings.Contains(results[2].Err, "invalid argument") {
		t.Errorf("expected invalid argument for straddle, got %q", results[2].Err)
	}
	if results[2].Priced {
		t.Errorf("straddle must not be marked priced")
	}

	zeroRate := results[3]
	if !strings.Contains(zeroRate.Err, "division by zero") {
		t.Errorf("expected division by zero for r=0 greeks, got %q", zeroRate.Err)
	}
	if !zeroRate.Priced || zeroRate.TheoreticalPrice <= 0 {
		t.Errorf("r=0 price should still be filled, got %.6f", zeroRate.TheoreticalPrice)
	}
	if zeroRate.Steps != engine.DefaultSteps() {
		t.Errorf("unset steps should default to %d, got %d", engine.DefaultSteps(), zeroRate.Steps)
	}

	if contracts[0].TheoreticalPrice != 0 {
		t.Errorf("Calculate must not modify its input slice")
	}

	observer.mu.Lock()
	defer observer.mu.Unlock()
	if observer.prices["call/american"] != 1 || observer.prices["put/european"] != 2 {
		t.Errorf("unexpected observed price calls: %v", observer.prices)
	}
	if observer.greeks != 3 {
		t.Errorf("expected 3 greek estimates, got %d", observer.greeks)
	}
}

func TestEngineModesAgree(t *testing.T) {
	contracts := []crr.OptionContract{
		contractFromScenario(testdata.ATMCall),
		contractFromScenario(testdata.ATMPut),
		contractFromScenario(testdata.DeepITMPut),
	}

	var baseline []crr.OptionContract
	for _, mode := range []string{"cpu", "auto", "parallel"} {
		results, err := crr.NewEngineForced(mode).Calculate(context.Background(), contracts)
		if err != nil {
			t.Fatalf("%s: %v", mode, err)
		}
		if baseline == nil {
			baseline = results
			continue
		}
		for i := range results {
			if results[i] != baseline[i] {
				t.Errorf("%s result %d differs from cpu: %+v vs %+v", mode, i, results[i], baseline[i])
			}
		}
	}
}

func TestEngineStepLimit(t *testing.T) {
	engine := crr.NewEngine(crr.EngineOptions{MaxSteps: 500})
	p := crr.Params{Spot: 100, Strike: 100, Maturity: 1, Rate: 0.05, Volatility: 0.2, Steps: 501, Type: crr.Call}

	if _, err := engine.Price(p, crr.American); !errors.Is(err, crr.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument above max steps, got %v", err)
	}
	if _, err := engine.Greeks(p); !errors.Is(err, crr.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument above max steps, got %v", err)
	}

	p.Steps = 0
	price, err := engine.Price(p, crr.American)
	if err != nil {
		t.Fatalf("default steps: %v", err)
	}
	want, _ := crr.Price(100, 100, 1, 0.05, 0.2, 100, crr.Call)
	if price != want {
		t.Errorf("Steps=0 should price with 100 steps: got %v want %v", price, want)
	}
}

func TestEngineCalculateCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	contracts := []crr.OptionContract{contractFromScenario(testdata.ATMCall)}
	if _, err := crr.NewEngineForced("cpu").Calculate(ctx, contracts); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestEngineCalculateEmpty(t *testing.T) {
	results, err := crr.NewEngine(crr.EngineOptions{}).Calculate(context.Background(), nil)
	if err != nil {
		t.Fatalf("empty batch: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no results, got %d", len(results))
	}
}

func TestEngineConvergenceStepLimit(t *testing.T) {
	engine := crr.NewEngine(crr.EngineOptions{MaxSteps: 200})
	p := crr.Params{Spot: 100, Strike: 100, Maturity: 1, Rate: 0.05, Volatility: 0.2, Type: crr.Put}

	if _, err := engine.Convergence(p, []int{50, 500}); !errors.Is(err, crr.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument above max steps, got %v", err)
	}
	points, err := engine.Convergence(p, []int{50, 200})
	if err != nil {
		t.Fatalf("convergence: %v", err)
	}
	if len(points) != 2 {
		t.Errorf("expected 2 points, got %d", len(points))
	}
}
