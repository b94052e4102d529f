package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	crr "github.com/jwaldner/crr/crr_lib"
	"github.com/jwaldner/crr/internal/models"
	"github.com/jwaldner/crr/internal/utils"
)

// ErrMalformedRequest is returned when a body cannot be decoded
var ErrMalformedRequest = errors.New("malformed request")

// DefaultConvergenceSteps is used when a convergence request lists none
var DefaultConvergenceSteps = []int{10, 50, 100, 200, 500, 1000}

// maxBodyBytes bounds request bodies; a full batch fits comfortably
const maxBodyBytes = 4 << 20

// RequestService handles HTTP request parsing
type RequestService struct {
	maxBatchSize int
	now          func() time.Time
}

// NewRequestService creates a new request service. maxBatchSize <= 0 means
// no limit.
func NewRequestService(maxBatchSize int) *RequestService {
	return &RequestService{maxBatchSize: maxBatchSize, now: time.Now}
}

// WithClock replaces the clock used to convert expiration dates
func (s *RequestService) WithClock(now func() time.Time) *RequestService {
	s.now = now
	return s
}

// ParsePricingRequest decodes a single-contract request
func (s *RequestService) ParsePricingRequest(r *http.Request) (*models.PricingRequest, error) {
	var req models.PricingRequest
	if err := decode(r, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

// ParseBatchRequest decodes a batch and enforces the batch size limit
func (s *RequestService) ParseBatchRequest(r *http.Request) (*models.BatchRequest, error) {
	var req models.BatchRequest
	if err := decode(r, &req); err != nil {
		return nil, err
	}

	if len(req.Contracts) == 0 {
		return nil, fmt.Errorf("%w: contracts are required", crr.ErrInvalidArgument)
	}
	if s.maxBatchSize > 0 && len(req.Contracts) > s.maxBatchSize {
		return nil, fmt.Errorf("%w: %d contracts exceeds batch limit %d", crr.ErrInvalidArgument, len(req.Contracts), s.maxBatchSize)
	}
	return &req, nil
}

// ParseConvergenceRequest decodes a convergence request, defaulting the step
// counts
func (s *RequestService) ParseConvergenceRequest(r *http.Request) (*models.ConvergenceRequest, error) {
	var req models.ConvergenceRequest
	if err := decode(r, &req); err != nil {
		return nil, err
	}
	if len(req.StepCounts) == 0 {
		req.StepCounts = append([]int(nil), DefaultConvergenceSteps...)
	}
	return &req, nil
}

// Contract converts a request to an engine contract. Value checks are left to
// the pricer; only the option type, style and expiration date are parsed here.
func (s *RequestService) Contract(req models.PricingRequest) (crr.OptionContract, crr.ExerciseStyle, error) {
	style, err := ParseStyle(req.Style)
	if err != nil {
		return crr.OptionContract{}, style, err
	}
	optionType, err := crr.ParseOptionType(req.OptionType)
	if err != nil {
		return crr.OptionContract{}, style, err
	}

	maturity := req.TimeToExpiration
	if maturity == 0 && req.ExpirationDate != "" {
		maturity, err = utils.YearsToExpiration(req.ExpirationDate, s.now())
		if err != nil {
			return crr.OptionContract{}, style, fmt.Errorf("%w: %v", crr.ErrInvalidArgument, err)
		}
	}

	return crr.OptionContract{
		Symbol:           strings.TrimSpace(strings.ToUpper(req.Symbol)),
		StrikePrice:      req.StrikePrice,
		UnderlyingPrice:  req.UnderlyingPrice,
		TimeToExpiration: maturity,
		RiskFreeRate:     req.RiskFreeRate,
		Volatility:       req.Volatility,
		OptionType:       optionType,
		Steps:            req.Steps,
	}, style, nil
}

// ParseStyle accepts "american" (the default) and "european"
func ParseStyle(style string) (crr.ExerciseStyle, error) {
	switch strings.ToLower(strings.TrimSpace(style)) {
	case "", "american":
		return crr.American, nil
	case "european":
		return crr.European, nil
	}
	return crr.American, &crr.ArgumentError{Param: "style", Value: style, Reason: "must be american or european"}
}

func decode(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return fmt.Errorf("%w: empty body", ErrMalformedRequest)
	}
	body := io.LimitReader(r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		return fmt.Errorf("%w: failed to decode request: %v", ErrMalformedRequest, err)
	}
	return nil
}
