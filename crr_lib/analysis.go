package crr

import (
	"log"
	"sort"
	"time"
)

// ConvergencePoint is the lattice price of one contract at one step count
type ConvergencePoint struct {
	Steps     int     `json:"steps"`
	Price     float64 `json:"price"` // American
	European  float64 `json:"european_price"`
	Change    float64 `json:"change"` // Price minus the previous point's Price, 0 for the first
	ElapsedMs float64 `json:"elapsed_ms"`
}

// ConvergenceStudy prices p at each step count in ascending order. p.Steps is
// ignored. Step counts are deduplicated.
func ConvergenceStudy(p Params, steps []int) ([]ConvergencePoint, error) {
	if len(steps) == 0 {
		return nil, invalid("steps", steps, "at least one step count is required")
	}

	ordered := append([]int(nil), steps...)
	sort.Ints(ordered)

	var points []ConvergencePoint
	var totalAmerican, totalEuropean float64

	for _, n := range ordered {
		if len(points) > 0 && points[len(points)-1].Steps == n {
			continue
		}
		q := p
		q.Steps = n

		start := time.Now()
		american, err := PriceParams(q, American)
		if err != nil {
			return nil, err
		}
		americanMs := time.Since(start).Seconds() * 1000

		start = time.Now()
		european, err := PriceParams(q, European)
		if err != nil {
			return nil, err
		}
		europeanMs := time.Since(start).Seconds() * 1000

		totalAmerican += americanMs
		totalEuropean += europeanMs

		point := ConvergencePoint{
			Steps:     n,
			Price:     american,
			European:  european,
			ElapsedMs: americanMs + europeanMs,
		}
		if len(points) > 0 {
			point.Change = american - points[len(points)-1].Price
		}
		points = append(points, point)

		log.Printf("🔧 LATTICE N=%d: %.3fms | american=%.6f european=%.6f change=%+.6f",
			n, point.ElapsedMs, american, european, point.Change)
	}

	total := totalAmerican + totalEuropean
	if total > 0 {
		log.Printf("📈 CONVERGENCE SUMMARY (%s S=%.2f K=%.2f T=%.4f):", p.Type, p.Spot, p.Strike, p.Maturity)
		log.Printf("  ⚡ American: %.3fms (%.1f%%)", totalAmerican, totalAmerican/total*100)
		log.Printf("  📊 European: %.3fms (%.1f%%)", totalEuropean, totalEuropean/total*100)
		log.Printf("  🎯 Total:    %.3fms | %d step counts", total, len(points))
	}

	return points, nil
}
