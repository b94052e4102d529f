package models

import (
	"math"
	"strconv"

	crr "github.com/jwaldner/crr/crr_lib"
	"github.com/shopspring/decimal"
)

// Places used for display strings
const (
	CurrencyPlaces = 2
	GreekPlaces    = 4
)

// FormatCurrency rounds half away from zero on the decimal value, so 2.675
// displays as $2.68.
func FormatCurrency(value float64) FieldValue {
	if notFinite(value) {
		return unavailable("currency")
	}
	d := decimal.NewFromFloat(value)
	display := "$" + d.Abs().StringFixed(CurrencyPlaces)
	if d.Round(CurrencyPlaces).IsNegative() {
		display = "-" + display
	}
	return FieldValue{Raw: value, Display: display, Type: "currency"}
}

func FormatNumber(value float64, places int32) FieldValue {
	if notFinite(value) {
		return unavailable("number")
	}
	return FieldValue{
		Raw:     value,
		Display: decimal.NewFromFloat(value).StringFixed(places),
		Type:    "number",
	}
}

func FormatPercentage(value float64) FieldValue {
	if notFinite(value) {
		return unavailable("percentage")
	}
	return FieldValue{
		Raw:     value,
		Display: decimal.NewFromFloat(value).Shift(2).StringFixed(2) + "%",
		Type:    "percentage",
	}
}

func FormatInteger(value int) FieldValue {
	return FieldValue{
		Raw:     value,
		Display: strconv.Itoa(value),
		Type:    "integer",
	}
}

func FormatText(value string) FieldValue {
	return FieldValue{
		Raw:     value,
		Display: value,
		Type:    "text",
	}
}

// NaN and ±Inf cannot be encoded as JSON numbers
func notFinite(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0)
}

func unavailable(kind string) FieldValue {
	return FieldValue{Raw: nil, Display: "N/A", Type: kind}
}

// FormatPrice converts the contract inputs and, when priced, its lattice
// prices to the dual raw/display form
func FormatPrice(c crr.OptionContract, style crr.ExerciseStyle) FormattedResult {
	result := FormattedResult{
		"symbol":             FormatText(c.Symbol),
		"option_type":        FormatText(string(c.OptionType)),
		"style":              FormatText(style.String()),
		"strike":             FormatCurrency(c.StrikePrice),
		"underlying_price":   FormatCurrency(c.UnderlyingPrice),
		"time_to_expiration": FormatNumber(c.TimeToExpiration, GreekPlaces),
		"risk_free_rate":     FormatPercentage(c.RiskFreeRate),
		"volatility":         FormatPercentage(c.Volatility),
		"steps":              FormatInteger(c.Steps),
	}

	if c.Priced {
		price := c.TheoreticalPrice
		if style == crr.European {
			price = c.EuropeanPrice
		}
		result["price"] = FormatCurrency(price)
		result["american_price"] = FormatCurrency(c.TheoreticalPrice)
		result["european_price"] = FormatCurrency(c.EuropeanPrice)
		result["early_exercise_premium"] = FormatCurrency(c.EarlyExercisePremium)
	}
	if c.Err != "" {
		result["error"] = FormatText(c.Err)
	}
	return result
}

// FormatContract is FormatPrice plus the Greeks, which are left out when the
// contract carries an error
func FormatContract(c crr.OptionContract, style crr.ExerciseStyle) FormattedResult {
	result := FormatPrice(c, style)
	if c.Err != "" {
		return result
	}

	result["delta"] = FormatNumber(c.Delta, GreekPlaces)
	result["gamma"] = FormatNumber(c.Gamma, GreekPlaces)
	result["theta"] = FormatNumber(c.Theta, GreekPlaces)
	result["vega"] = FormatNumber(c.Vega, GreekPlaces)
	result["rho"] = FormatNumber(c.Rho, GreekPlaces)
	return result
}

// ContractFieldMetadata describes the FormatContract fields for table rendering
func ContractFieldMetadata() map[string]FieldMetadata {
	return map[string]FieldMetadata{
		"symbol":                 {DisplayName: "Symbol", Type: "text", Sortable: true, Alignment: "left"},
		"option_type":            {DisplayName: "Type", Type: "text", Sortable: true, Alignment: "center"},
		"style":                  {DisplayName: "Style", Type: "text", Sortable: true, Alignment: "center"},
		"strike":                 {DisplayName: "Strike", Type: "currency", Sortable: true, Alignment: "right"},
		"underlying_price":       {DisplayName: "Underlying", Type: "currency", Sortable: true, Alignment: "right"},
		"time_to_expiration":     {DisplayName: "T (years)", Type: "number", Sortable: true, Alignment: "right"},
		"risk_free_rate":         {DisplayName: "Rate", Type: "percentage", Sortable: true, Alignment: "right"},
		"volatility":             {DisplayName: "Vol", Type: "percentage", Sortable: true, Alignment: "right"},
		"steps":                  {DisplayName: "Steps", Type: "integer", Sortable: true, Alignment: "right"},
		"price":                  {DisplayName: "Price", Type: "currency", Sortable: true, Alignment: "right"},
		"american_price":         {DisplayName: "American", Type: "currency", Sortable: true, Alignment: "right"},
		"european_price":         {DisplayName: "European", Type: "currency", Sortable: true, Alignment: "right"},
		"early_exercise_premium": {DisplayName: "Early Ex.", Type: "currency", Sortable: true, Alignment: "right"},
		"delta":                  {DisplayName: "Delta", Type: "number", Sortable: true, Alignment: "right"},
		"gamma":                  {DisplayName: "Gamma", Type: "number", Sortable: true, Alignment: "right"},
		"theta":                  {DisplayName: "Theta", Type: "number", Sortable: true, Alignment: "right"},
		"vega":                   {DisplayName: "Vega", Type: "number", Sortable: true, Alignment: "right"},
		"rho":                    {DisplayName: "Rho", Type: "number", Sortable: true, Alignment: "right"},
		"error":                  {DisplayName: "Error", Type: "text", Sortable: false, Alignment: "left"},
	}
}
