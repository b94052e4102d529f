package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	crr "github.com/jwaldner/crr/crr_lib"
	"github.com/jwaldner/crr/internal/logger"
	"github.com/jwaldner/crr/internal/models"
	"github.com/jwaldner/crr/internal/services"
	"github.com/jwaldner/crr/internal/utils"
)

// Prices one contract from the command line:
//
//	crr -type put -s 100 -k 100 -t 1 -r 0.05 -sigma 0.2 -n 100 -greeks
func main() {
	spot := flag.Float64("s", 100, "underlying price")
	strike := flag.Float64("k", 100, "strike price")
	maturity := flag.Float64("t", 0, "time to expiration in years")
	expiration := flag.String("expiration", "", "expiration date YYYY-MM-DD (default: next monthly expiration when -t is unset)")
	rate := flag.Float64("r", 0.05, "continuously compounded risk-free rate")
	sigma := flag.Float64("sigma", 0.2, "volatility")
	steps := flag.Int("n", 100, "lattice steps")
	optionType := flag.String("type", "call", "call or put")
	style := flag.String("style", "american", "american or european")
	withGreeks := flag.Bool("greeks", false, "estimate Delta, Gamma, Theta, Vega and Rho")
	minStep := flag.Float64("min-step", 0, "minimum absolute finite-difference step (0 rejects r=0 or σ=0)")
	parallel := flag.Bool("parallel", false, "run the six Greek evaluations concurrently")
	asJSON := flag.Bool("json", false, "print the result as JSON")
	logLevel := flag.String("log-level", "warn", "error, warn, info, debug or verbose")
	flag.Parse()

	if err := logger.InitWithConfig(*logLevel, ""); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}

	now := time.Now()
	if *maturity == 0 && *expiration == "" {
		*expiration = utils.CalculateNextOptionsExpiration(now)
		logger.Info.Printf("📅 No maturity given, using next monthly expiration %s", *expiration)
	}

	req := models.PricingRequest{
		UnderlyingPrice:  *spot,
		StrikePrice:      *strike,
		TimeToExpiration: *maturity,
		ExpirationDate:   *expiration,
		RiskFreeRate:     *rate,
		Volatility:       *sigma,
		OptionType:       *optionType,
		Steps:            *steps,
		Style:            *style,
	}
	contract, exerciseStyle, err := services.NewRequestService(0).WithClock(func() time.Time { return now }).Contract(req)
	if err != nil {
		fail(err)
	}
	p := contract.Params()

	start := time.Now()
	american, err := crr.PriceParams(p, crr.American)
	if err != nil {
		fail(err)
	}
	european, err := crr.PriceParams(p, crr.European)
	if err != nil {
		fail(err)
	}
	contract.TheoreticalPrice = american
	contract.EuropeanPrice = european
	contract.EarlyExercisePremium = american - european
	contract.Priced = true

	if *withGreeks {
		estimator := crr.Estimator{RelativeStep: crr.DefaultRelativeStep, MinAbsoluteStep: *minStep, Parallel: *parallel}
		g, err := estimator.Estimate(p)
		if err != nil {
			contract.Err = err.Error()
		} else {
			contract.Delta, contract.Gamma, contract.Theta, contract.Vega, contract.Rho = g.Delta, g.Gamma, g.Theta, g.Vega, g.Rho
		}
	}
	elapsed := time.Since(start)
	logger.Info.Printf("⚡ Priced in %v", elapsed)

	if *asJSON {
		var result models.FormattedResult
		if *withGreeks {
			result = models.FormatContract(contract, exerciseStyle)
		} else {
			result = models.FormatPrice(contract, exerciseStyle)
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			log.Fatalf("encode: %v", err)
		}
	} else {
		price := american
		if exerciseStyle == crr.European {
			price = european
		}
		fmt.Printf("📊 %s %s  S=%.2f K=%.2f T=%.6f r=%.4f σ=%.4f N=%d\n",
			exerciseStyle, p.Type, p.Spot, p.Strike, p.Maturity, p.Rate, p.Volatility, p.Steps)
		fmt.Printf("💰 Price:               %s\n", models.FormatCurrency(price).Display)
		fmt.Printf("   American:            %.6f\n", american)
		fmt.Printf("   European:            %.6f\n", european)
		fmt.Printf("   Early exercise:      %.6f\n", contract.EarlyExercisePremium)
		if *withGreeks && contract.Err == "" {
			fmt.Printf("📐 Delta %.6f  Gamma %.6f  Theta %.6f/yr  Vega %.6f  Rho %.6f\n",
				contract.Delta, contract.Gamma, contract.Theta, contract.Vega, contract.Rho)
		}
		fmt.Printf("⏱️  %v\n", elapsed)
	}

	if contract.Err != "" {
		fmt.Fprintf(os.Stderr, "❌ Greeks: %s\n", contract.Err)
		os.Exit(3)
	}
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "❌ %v\n", err)
	if errors.Is(err, crr.ErrInvalidArgument) {
		os.Exit(2)
	}
	os.Exit(1)
}
