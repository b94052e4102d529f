package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	crr "github.com/jwaldner/crr/crr_lib"
	"github.com/jwaldner/crr/internal/logger"
	"github.com/jwaldner/crr/internal/metrics"
	"github.com/jwaldner/crr/internal/models"
	"github.com/jwaldner/crr/internal/services"
)

// PricingHandler serves the lattice engine over HTTP
type PricingHandler struct {
	engine   *crr.Engine
	requests *services.RequestService
	metrics  *metrics.Metrics
}

// NewPricingHandler creates a handler. m may be nil.
func NewPricingHandler(engine *crr.Engine, requests *services.RequestService, m *metrics.Metrics) *PricingHandler {
	return &PricingHandler{
		engine:   engine,
		requests: requests,
		metrics:  m,
	}
}

// RegisterRoutes mounts the API (and /metrics when metrics are enabled)
func (h *PricingHandler) RegisterRoutes(r *mux.Router) {
	api := r.PathPrefix("/api").Subrouter()
	api.Use(h.instrument)
	api.HandleFunc("/price", h.PriceHandler).Methods("POST")
	api.HandleFunc("/greeks", h.GreeksHandler).Methods("POST")
	api.HandleFunc("/batch", h.BatchHandler).Methods("POST")
	api.HandleFunc("/convergence", h.ConvergenceHandler).Methods("POST")
	api.HandleFunc("/health", h.HealthHandler).Methods("GET")

	if h.metrics != nil {
		r.Handle("/metrics", h.metrics.Handler()).Methods("GET")
	}
}

// PriceHandler values one contract without Greeks
func (h *PricingHandler) PriceHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	req, err := h.requests.ParsePricingRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}
	c, style, err := h.requests.Contract(*req)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.price(&c); err != nil {
		writeError(w, err)
		return
	}

	logger.Debug.Printf("💰 %s %s S=%.2f K=%.2f T=%.4f N=%d -> %.6f",
		style, c.OptionType, c.UnderlyingPrice, c.StrikePrice, c.TimeToExpiration, c.Steps, c.TheoreticalPrice)

	writeJSON(w, http.StatusOK, models.PriceResponse{
		Success: true,
		Data:    models.FormatPrice(c, style),
		Meta:    h.meta(start, 1, 0),
	})
}

// GreeksHandler values one contract and estimates its Greeks. A zero rate or
// volatility yields 422 unless a minimum absolute step is configured.
func (h *PricingHandler) GreeksHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	req, err := h.requests.ParsePricingRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}
	c, style, err := h.requests.Contract(*req)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.price(&c); err != nil {
		writeError(w, err)
		return
	}
	greeks, err := h.engine.Greeks(c.Params())
	if err != nil {
		writeError(w, err)
		return
	}
	c.Delta = greeks.Delta
	c.Gamma = greeks.Gamma
	c.Theta = greeks.Theta
	c.Vega = greeks.Vega
	c.Rho = greeks.Rho

	writeJSON(w, http.StatusOK, models.PriceResponse{
		Success: true,
		Data:    models.FormatContract(c, style),
		Meta:    h.meta(start, 1, 0),
	})
}

// price fills the American and European prices of c
func (h *PricingHandler) price(c *crr.OptionContract) error {
	if c.Steps == 0 {
		c.Steps = h.engine.DefaultSteps()
	}
	american, err := h.engine.Price(c.Params(), crr.American)
	if err != nil {
		return err
	}
	european, err := h.engine.Price(c.Params(), crr.European)
	if err != nil {
		return err
	}
	c.TheoreticalPrice = american
	c.EuropeanPrice = european
	c.EarlyExercisePremium = american - european
	c.Priced = true
	return nil
}

// BatchHandler prices every contract. Failures are reported per contract and
// never fail the request.
func (h *PricingHandler) BatchHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	req, err := h.requests.ParseBatchRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	n := len(req.Contracts)
	styles := make([]crr.ExerciseStyle, n)
	contracts := make([]crr.OptionContract, n)
	var valid []crr.OptionContract
	var validIdx []int

	for i, cr := range req.Contracts {
		c, style, err := h.requests.Contract(cr)
		styles[i] = style
		if err != nil {
			contracts[i] = crr.OptionContract{Symbol: cr.Symbol, OptionType: crr.OptionType(cr.OptionType), Err: err.Error()}
			continue
		}
		valid = append(valid, c)
		validIdx = append(validIdx, i)
	}

	priced, err := h.engine.Calculate(r.Context(), valid)
	if err != nil {
		writeError(w, err)
		return
	}
	for j, i := range validIdx {
		contracts[i] = priced[j]
	}

	results := make([]models.FormattedResult, n)
	errorCount := 0
	for i, c := range contracts {
		if c.Err != "" {
			errorCount++
		}
		results[i] = models.FormatContract(c, styles[i])
	}

	logger.Info.Printf("📊 Batch of %d contracts priced in %v (%d errors, mode=%s)",
		n, time.Since(start), errorCount, h.engine.ExecutionMode())

	writeJSON(w, http.StatusOK, models.BatchResponse{
		Success: true,
		Data: models.BatchData{
			Results:       results,
			FieldMetadata: models.ContractFieldMetadata(),
		},
		Meta: h.meta(start, n, errorCount),
	})
}

// ConvergenceHandler prices one contract over a range of step counts
func (h *PricingHandler) ConvergenceHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	req, err := h.requests.ParseConvergenceRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}
	c, _, err := h.requests.Contract(req.PricingRequest)
	if err != nil {
		writeError(w, err)
		return
	}

	points, err := h.engine.Convergence(c.Params(), req.StepCounts)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, models.ConvergenceResponse{
		Success: true,
		Data:    points,
		Meta:    h.meta(start, len(points), 0),
	})
}

// HealthHandler reports the engine configuration
func (h *PricingHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":         "ok",
		"execution_mode": h.engine.ExecutionMode(),
		"workers":        h.engine.Workers(),
		"default_steps":  h.engine.DefaultSteps(),
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *PricingHandler) meta(start time.Time, processed, errorCount int) models.ResponseMetadata {
	return models.ResponseMetadata{
		Timestamp:          time.Now().UTC().Format(time.RFC3339),
		ProcessingTime:     float64(time.Since(start).Microseconds()) / 1000,
		ExecutionMode:      string(h.engine.ExecutionMode()),
		Workers:            h.engine.Workers(),
		ContractsProcessed: processed,
		ErrorCount:         errorCount,
	}
}

// statusRecorder captures the status code for metrics
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (h *PricingHandler) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.metrics == nil {
			next.ServeHTTP(w, r)
			return
		}

		route := r.URL.Path
		if current := mux.CurrentRoute(r); current != nil {
			if tpl, err := current.GetPathTemplate(); err == nil {
				route = tpl
			}
		}

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		h.metrics.RecordHTTPRequest(route, rec.status, time.Since(start))
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error.Printf("❌ Failed to encode response: %v", err)
	}
}

// writeError maps pricer errors to status codes: invalid input is 400, a
// collapsed finite-difference step is 422.
func writeError(w http.ResponseWriter, err error) {
	status, code := http.StatusInternalServerError, "INTERNAL_ERROR"
	switch {
	case errors.Is(err, services.ErrMalformedRequest):
		status, code = http.StatusBadRequest, "MALFORMED_REQUEST"
	case errors.Is(err, crr.ErrInvalidArgument):
		status, code = http.StatusBadRequest, "INVALID_ARGUMENT"
	case errors.Is(err, crr.ErrDivisionByZero):
		status, code = http.StatusUnprocessableEntity, "DIVISION_BY_ZERO"
	}

	if status >= http.StatusInternalServerError {
		logger.Error.Printf("❌ %v", err)
	} else {
		logger.Warn.Printf("⚠️ %s: %v", code, err)
	}

	writeJSON(w, status, models.ErrorResponse{
		Success: false,
		Error:   code,
		Message: err.Error(),
	})
}
