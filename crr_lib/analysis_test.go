package crr_test

import (
	"errors"
	"math"
	"testing"

	crr "github.com/jwaldner/crr/crr_lib"
	testdata "github.com/jwaldner/crr/test_data"
)

func TestConvergenceStudyOrdersAndDeduplicates(t *testing.T) {
	p := scenarioParams(t, testdata.ATMCall)
	points, err := crr.ConvergenceStudy(p, []int{1000, 100, 200, 100})
	if err != nil {
		t.Fatalf("study failed: %v", err)
	}
	if len(points) != 3 {
		t.Fatalf("expected 3 points, got %d", len(points))
	}

	for i, want := range []int{100, 200, 1000} {
		if points[i].Steps != want {
			t.Errorf("point %d: steps %d, want %d", i, points[i].Steps, want)
		}
	}
	if points[0].Change != 0 {
		t.Errorf("first point change should be 0, got %v", points[0].Change)
	}
	for i := 1; i < len(points); i++ {
		want := points[i].Price - points[i-1].Price
		if points[i].Change != want {
			t.Errorf("point %d: change %v, want %v", i, points[i].Change, want)
		}
	}
	// calls are never exercised early
	for _, pt := range points {
		if math.Abs(pt.Price-pt.European) > 1e-9 {
			t.Errorf("N=%d: american %.12f != european %.12f", pt.Steps, pt.Price, pt.European)
		}
		t.Logf("✅ N=%d price=%.6f change=%+.6f", pt.Steps, pt.Price, pt.Change)
	}
}

func TestConvergenceStudyPutPremium(t *testing.T) {
	p := scenarioParams(t, testdata.ATMPut)
	points, err := crr.ConvergenceStudy(p, testdata.ConvergenceSteps)
	if err != nil {
		t.Fatalf("study failed: %v", err)
	}
	if len(points) != len(testdata.ConvergenceSteps) {
		t.Fatalf("expected %d points, got %d", len(testdata.ConvergenceSteps), len(points))
	}
	for _, pt := range points {
		if pt.Price <= pt.European {
			t.Errorf("N=%d: american put %.6f should exceed european %.6f", pt.Steps, pt.Price, pt.European)
		}
	}
	// the last refinements move the price by well under a cent
	if last := points[len(points)-1]; math.Abs(last.Change) > 0.01 {
		t.Errorf("N=%d: change %.6f still large", last.Steps, last.Change)
	}
}

func TestConvergenceStudyErrors(t *testing.T) {
	p := scenarioParams(t, testdata.ATMCall)
	if _, err := crr.ConvergenceStudy(p, nil); !errors.Is(err, crr.ErrInvalidArgument) {
		t.Errorf("empty steps: expected ErrInvalidArgument, got %v", err)
	}
	if _, err := crr.ConvergenceStudy(p, []int{0, 10}); !errors.Is(err, crr.ErrInvalidArgument) {
		t.Errorf("zero steps: expected ErrInvalidArgument, got %v", err)
	}
}
