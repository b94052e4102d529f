package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	crr "github.com/jwaldner/crr/crr_lib"
	testdata "github.com/jwaldner/crr/test_data"
)

// Prints how the lattice price of each reference scenario settles as the
// step count grows
func main() {
	name := flag.String("scenario", "", "scenario name (default: all)")
	flag.Parse()

	fmt.Println("📈 CRR Lattice Convergence")
	fmt.Println(strings.Repeat("=", 72))

	found := false
	for _, sc := range testdata.All {
		if *name != "" && sc.Name != *name {
			continue
		}
		found = true

		optionType, err := crr.ParseOptionType(sc.OptionType)
		if err != nil {
			log.Fatalf("%s: %v", sc.Name, err)
		}
		p := crr.Params{
			Spot:       sc.Spot,
			Strike:     sc.Strike,
			Maturity:   sc.Maturity,
			Rate:       sc.Rate,
			Volatility: sc.Volatility,
			Type:       optionType,
		}

		fmt.Printf("\n🔍 %s: S=%.2f K=%.2f T=%.2f r=%.4f σ=%.4f\n", sc.Name, sc.Spot, sc.Strike, sc.Maturity, sc.Rate, sc.Volatility)
		points, err := crr.ConvergenceStudy(p, testdata.ConvergenceSteps)
		if err != nil {
			log.Fatalf("%s: %v", sc.Name, err)
		}

		fmt.Printf("%8s %14s %14s %14s %12s\n", "N", "American", "European", "Change", "ms")
		for _, pt := range points {
			fmt.Printf("%8d %14.6f %14.6f %+14.6f %12.3f\n", pt.Steps, pt.Price, pt.European, pt.Change, pt.ElapsedMs)
		}

		last := points[len(points)-1]
		status := "✅"
		if last.Price < sc.MinPrice || last.Price > sc.MaxPrice {
			status = "❌"
		}
		fmt.Printf("%s N=%d price %.6f, expected [%.4f, %.4f]\n", status, last.Steps, last.Price, sc.MinPrice, sc.MaxPrice)
	}

	if !found {
		fmt.Fprintf(os.Stderr, "❌ unknown scenario %q\n", *name)
		os.Exit(2)
	}
}
