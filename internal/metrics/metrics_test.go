package metrics

import (
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	crr "github.com/jwaldner/crr/crr_lib"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != 200 {
		t.Fatalf("scrape returned %d", rec.Code)
	}
	body, err := io.ReadAll(rec.Body)
	if err != nil {
		t.Fatalf("read scrape: %v", err)
	}
	return string(body)
}

func TestErrorKind(t *testing.T) {
	_, invalid := crr.Price(100, 100, 1, 0.05, 0.2, 0, crr.Call)
	_, zero := crr.EstimateGreeks(100, 100, 1, 0, 0.2, 10, crr.Call)

	cases := []struct {
		err  error
		want string
	}{
		{invalid, "invalid_argument"},
		{zero, "division_by_zero"},
		{fmt.Errorf("batch: %w", invalid), "invalid_argument"},
		{errors.New("boom"), "other"},
	}
	for _, c := range cases {
		if got := ErrorKind(c.err); got != c.want {
			t.Errorf("ErrorKind(%v) = %s, want %s", c.err, got, c.want)
		}
	}
}

func TestEngineObserverIsScraped(t *testing.T) {
	m := New()
	engine := crr.NewEngine(crr.EngineOptions{ExecutionMode: crr.ExecutionModeCPU, Observer: m})

	p := crr.Params{Spot: 100, Strike: 100, Maturity: 1, Rate: 0.05, Volatility: 0.2, Steps: 50, Type: crr.Call}
	if _, err := engine.Price(p, crr.American); err != nil {
		t.Fatalf("price: %v", err)
	}
	if _, err := engine.Greeks(p); err != nil {
		t.Fatalf("greeks: %v", err)
	}
	p.Rate = 0
	if _, err := engine.Greeks(p); !errors.Is(err, crr.ErrDivisionByZero) {
		t.Fatalf("expected division by zero, got %v", err)
	}
	p.Type = "straddle"
	if _, err := engine.Price(p, crr.European); err == nil {
		t.Fatalf("expected invalid argument")
	}
	m.RecordHTTPRequest("/api/price", 400, 3*time.Millisecond)

	out := scrape(t, m)
	for _, want := range []string{
		`crr_pricer_calls_total{option_type="call",style="american"} 1`,
		`crr_pricer_calls_total{option_type="straddle",style="european"} 1`,
		`crr_greeks_duration_seconds_count{option_type="call"} 2`,
		`crr_errors_total{kind="division_by_zero"} 1`,
		`crr_errors_total{kind="invalid_argument"} 1`,
		`crr_http_requests_total{code="400",route="/api/price"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("scrape missing %q", want)
		}
	}
}

func TestRegistriesAreIndependent(t *testing.T) {
	a, b := New(), New()
	a.ObservePrice("put", "american", time.Millisecond, nil)

	if strings.Contains(scrape(t, b), `crr_pricer_calls_total{option_type="put"`) {
		t.Errorf("second registry saw the first one's observations")
	}
}
