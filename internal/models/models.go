package models

import (
	crr "github.com/jwaldner/crr/crr_lib"
)

// FieldValue represents a field with both raw data and formatted display
type FieldValue struct {
	Raw     interface{} `json:"raw"`     // For CSV/sorting: 10.430611
	Display string      `json:"display"` // For UI: "$10.43"
	Type    string      `json:"type"`    // For CSS: "currency"
}

// FormattedResult is one priced contract keyed by field name
type FormattedResult map[string]FieldValue

type FieldMetadata struct {
	DisplayName string `json:"display_name"`
	Type        string `json:"type"`
	Sortable    bool   `json:"sortable"`
	Alignment   string `json:"alignment"`
}

type ResponseMetadata struct {
	Timestamp          string  `json:"timestamp"`
	ProcessingTime     float64 `json:"processing_time"` // milliseconds
	ExecutionMode      string  `json:"execution_mode"`
	Workers            int     `json:"workers"`
	ContractsProcessed int     `json:"contracts_processed,omitempty"`
	ErrorCount         int     `json:"error_count,omitempty"`
}

// PricingRequest describes one contract. Maturity comes from
// time_to_expiration (years) or, when that is zero, expiration_date.
type PricingRequest struct {
	Symbol           string  `json:"symbol,omitempty"`
	UnderlyingPrice  float64 `json:"underlying_price"`
	StrikePrice      float64 `json:"strike_price"`
	TimeToExpiration float64 `json:"time_to_expiration,omitempty"`
	ExpirationDate   string  `json:"expiration_date,omitempty"` // YYYY-MM-DD
	RiskFreeRate     float64 `json:"risk_free_rate"`
	Volatility       float64 `json:"volatility"`
	OptionType       string  `json:"option_type"`     // "call" or "put"
	Steps            int     `json:"steps,omitempty"` // 0 = engine default
	Style            string  `json:"style,omitempty"` // "american" (default) or "european"
}

// BatchRequest prices many contracts in one call
type BatchRequest struct {
	Contracts []PricingRequest `json:"contracts"`
}

// ConvergenceRequest prices one contract over several step counts
type ConvergenceRequest struct {
	PricingRequest
	StepCounts []int `json:"step_counts"`
}

// PriceResponse is returned by /api/price and /api/greeks
type PriceResponse struct {
	Success bool             `json:"success"`
	Data    FormattedResult  `json:"data"`
	Meta    ResponseMetadata `json:"meta"`
}

type BatchData struct {
	Results       []FormattedResult        `json:"results"`
	FieldMetadata map[string]FieldMetadata `json:"field_metadata"`
}

// BatchResponse is returned by /api/batch
type BatchResponse struct {
	Success bool             `json:"success"`
	Data    BatchData        `json:"data"`
	Meta    ResponseMetadata `json:"meta"`
}

// ConvergenceResponse is returned by /api/convergence
type ConvergenceResponse struct {
	Success bool                   `json:"success"`
	Data    []crr.ConvergencePoint `json:"data"`
	Meta    ResponseMetadata       `json:"meta"`
}

// ErrorResponse carries a machine-readable code and a message
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
}
