package testdata

// Scenario is a frozen set of lattice inputs with the values a correct
// implementation is expected to produce.
type Scenario struct {
	Name       string
	Spot       float64
	Strike     float64
	Maturity   float64 // years
	Rate       float64
	Volatility float64
	Steps      int
	OptionType string // "call" or "put"

	// Bounds on the American lattice price
	MinPrice float64
	MaxPrice float64
}

// ATMCall is the textbook reference contract. The Black-Scholes value of the
// European call is 10.4506; the American call has the same value and the
// N=100 lattice sits about two cents below it.
var ATMCall = Scenario{
	Name:       "atm-call",
	Spot:       100,
	Strike:     100,
	Maturity:   1,
	Rate:       0.05,
	Volatility: 0.20,
	Steps:      100,
	OptionType: "call",
	MinPrice:   10.40,
	MaxPrice:   10.46,
}

// ATMPut is the same contract as a put. Early exercise lifts it above the
// European value (5.55) to about 6.08.
var ATMPut = Scenario{
	Name:       "atm-put",
	Spot:       100,
	Strike:     100,
	Maturity:   1,
	Rate:       0.05,
	Volatility: 0.20,
	Steps:      100,
	OptionType: "put",
	MinPrice:   5.0,
	MaxPrice:   7.0,
}

// DeepITMPut is exercised immediately: the price equals K-S and the rate has
// no effect on it.
var DeepITMPut = Scenario{
	Name:       "deep-itm-put",
	Spot:       50,
	Strike:     100,
	Maturity:   1,
	Rate:       0.05,
	Volatility: 0.20,
	Steps:      200,
	OptionType: "put",
	MinPrice:   49.999,
	MaxPrice:   50.001,
}

// DeepOTMCall is worth almost nothing
var DeepOTMCall = Scenario{
	Name:       "deep-otm-call",
	Spot:       50,
	Strike:     100,
	Maturity:   1,
	Rate:       0.05,
	Volatility: 0.20,
	Steps:      200,
	OptionType: "call",
	MinPrice:   0,
	MaxPrice:   0.01,
}

// All lists every scenario
var All = []Scenario{ATMCall, ATMPut, DeepITMPut, DeepOTMCall}

// ConvergenceSteps are the step counts used for convergence tables
var ConvergenceSteps = []int{10, 50, 100, 200, 500, 1000}
