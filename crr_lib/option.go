package crr

import (
	"math"
	"strings"
)

// OptionType is the contract variant
type OptionType string

const (
	Call OptionType = "call"
	Put  OptionType = "put"
)

// ExerciseStyle selects whether the lattice allows exercise before maturity
type ExerciseStyle int

const (
	American ExerciseStyle = iota
	European
)

func (s ExerciseStyle) String() string {
	switch s {
	case American:
		return "american"
	case European:
		return "european"
	default:
		return "unknown"
	}
}

// Valid reports whether t is Call or Put
func (t OptionType) Valid() bool {
	return t == Call || t == Put
}

// ParseOptionType accepts "call"/"put" and the single letter codes used by
// contract feeds ("C"/"P"), case-insensitively.
func ParseOptionType(s string) (OptionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "call", "c":
		return Call, nil
	case "put", "p":
		return Put, nil
	}
	return "", invalid("option_type", s, "must be call or put")
}

// intrinsic is the immediate exercise value, which may be negative
func (t OptionType) intrinsic(asset, strike float64) float64 {
	if t == Call {
		return asset - strike
	}
	return strike - asset
}

// Params holds everything one lattice evaluation needs
type Params struct {
	Spot       float64
	Strike     float64
	Maturity   float64 // years
	Rate       float64 // continuously compounded, may be zero or negative
	Volatility float64
	Steps      int
	Type       OptionType
}

// Validate checks the pricer preconditions
func (p Params) Validate() error {
	if !p.Type.Valid() {
		return invalid("option_type", string(p.Type), "must be call or put")
	}
	if p.Steps < 1 {
		return invalid("steps", p.Steps, "must be at least 1")
	}
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"spot", p.Spot}, {"strike", p.Strike}, {"maturity", p.Maturity},
		{"rate", p.Rate}, {"volatility", p.Volatility},
	} {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return invalid(f.name, f.v, "must be finite")
		}
	}
	if p.Spot <= 0 {
		return invalid("spot", p.Spot, "must be positive")
	}
	if p.Strike <= 0 {
		return invalid("strike", p.Strike, "must be positive")
	}
	if p.Maturity <= 0 {
		return invalid("maturity", p.Maturity, "must be positive")
	}
	if p.Volatility < 0 {
		return invalid("volatility", p.Volatility, "must not be negative")
	}
	return nil
}
