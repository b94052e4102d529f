package crr

import "math"

// Price values an American option on a Cox-Ross-Rubinstein lattice with the
// given number of steps.
func Price(s, k, t, r, sigma float64, steps int, optionType OptionType) (float64, error) {
	return PriceParams(Params{
		Spot:       s,
		Strike:     k,
		Maturity:   t,
		Rate:       r,
		Volatility: sigma,
		Steps:      steps,
		Type:       optionType,
	}, American)
}

// PriceEuropean values the same lattice without early exercise
func PriceEuropean(s, k, t, r, sigma float64, steps int, optionType OptionType) (float64, error) {
	return PriceParams(Params{
		Spot:       s,
		Strike:     k,
		Maturity:   t,
		Rate:       r,
		Volatility: sigma,
		Steps:      steps,
		Type:       optionType,
	}, European)
}

// PriceParams runs backward induction over a freshly built lattice. Nothing is
// cached between calls, so concurrent calls never share state.
func PriceParams(p Params, style ExerciseStyle) (float64, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}
	if style != American && style != European {
		return 0, invalid("style", int(style), "must be american or european")
	}

	if p.Volatility == 0 {
		return priceDeterministic(p, style), nil
	}

	n := p.Steps
	dt := p.Maturity / float64(n)
	u := math.Exp(p.Volatility * math.Sqrt(dt))
	d := 1 / u
	prob := (math.Exp(p.Rate*dt) - d) / (u - d)
	disc := math.Exp(-p.Rate * dt)
	// σ·√dt smaller than |r|·dt pushes the growth factor outside [d, u]
	if !(prob >= 0 && prob <= 1) {
		return 0, invalid("volatility", p.Volatility, "too low for the step size: risk-neutral probability outside [0,1]")
	}

	assets := make([]float64, n+1)
	values := make([]float64, n+1)
	for j := 0; j <= n; j++ {
		assets[j] = p.Spot * math.Pow(u, float64(j)) * math.Pow(d, float64(n-j))
		values[j] = math.Max(0, p.Type.intrinsic(assets[j], p.Strike))
	}

	// values is overwritten in ascending j: slot j+1 still holds the later
	// slice when slot j is computed.
	for i := n - 1; i >= 0; i-- {
		for j := 0; j <= i; j++ {
			cont := disc * (prob*values[j+1] + (1-prob)*values[j])
			// S·u^j·d^(i+1-j) -> S·u^j·d^(i-j)
			assets[j] *= u
			if style == American {
				values[j] = math.Max(cont, p.Type.intrinsic(assets[j], p.Strike))
			} else {
				values[j] = cont
			}
		}
	}

	return values[0], nil
}

// priceDeterministic handles σ = 0, where u = d = 1 and the CRR probability is
// undefined. The asset then grows along its forward S·e^(r·t).
func priceDeterministic(p Params, style ExerciseStyle) float64 {
	n := p.Steps
	dt := p.Maturity / float64(n)
	disc := math.Exp(-p.Rate * dt)

	value := math.Max(0, p.Type.intrinsic(p.Spot*math.Exp(p.Rate*p.Maturity), p.Strike))
	for i := n - 1; i >= 0; i-- {
		value *= disc
		if style == American {
			asset := p.Spot * math.Exp(p.Rate*dt*float64(i))
			value = math.Max(value, p.Type.intrinsic(asset, p.Strike))
		}
	}
	return value
}
