package main

import (
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"lob-engine/src/logger"
	"lob-engine/src/pricer"
)

var (
	spot     float64
	strike   float64
	maturity float64
	rate     float64
	vol      float64
	steps    int
	seed     int64
	barrier  float64
	paths    []int
)

func main() {
	log := logger.Init()
	defer logger.Close()

	rootCmd := &cobra.Command{
		Use:          "mcpricer",
		Short:        "Monte Carlo option pricing under geometric Brownian motion",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			run()
			return nil
		},
	}

	rootCmd.Flags().Float64Var(&spot, "spot", 100.0, "current asset price")
	rootCmd.Flags().Float64Var(&strike, "strike", 100.0, "strike price")
	rootCmd.Flags().Float64Var(&maturity, "maturity", 1.0, "time to maturity in years")
	rootCmd.Flags().Float64Var(&rate, "rate", 0.05, "risk-free rate")
	rootCmd.Flags().Float64Var(&vol, "vol", 0.20, "annualized volatility")
	rootCmd.Flags().IntVar(&steps, "steps", 252, "time steps per path")
	rootCmd.Flags().Int64Var(&seed, "seed", 1, "random generator base seed")
	rootCmd.Flags().Float64Var(&barrier, "barrier", 90.0, "down-and-out barrier level")
	rootCmd.Flags().IntSliceVar(&paths, "paths", []int{100000, 1000000}, "path counts for the European price table")

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("Pricer failed")
		os.Exit(1)
	}
}

func run() {
	params := pricer.Params{Spot: spot, Strike: strike, Maturity: maturity, Rate: rate, Vol: vol}

	fmt.Println("=== Monte Carlo Option Pricing ===")
	fmt.Println("Market Parameters:")
	fmt.Printf("  S0 = $%.2f\n", params.Spot)
	fmt.Printf("  K = $%.2f\n", params.Strike)
	fmt.Printf("  T = %g years\n", params.Maturity)
	fmt.Printf("  r = %g%%\n", params.Rate*100)
	fmt.Printf("  vol = %g%%\n\n", params.Vol*100)

	bsPrice := pricer.BlackScholesCall(params)
	fmt.Printf("Black-Scholes Call Price: $%.4f\n\n", bsPrice)

	fmt.Println("=== European Call Option ===")
	fmt.Printf("%15s%15s%15s%15s%20s\n", "Paths", "MC Price", "Error", "Time (ms)", "Paths/sec")
	fmt.Println(strings.Repeat("-", 80))

	for _, n := range paths {
		mc := pricer.NewMonteCarlo(params, n, steps, seed)

		start := time.Now()
		price := mc.PriceEuropean(true)
		elapsed := time.Since(start)

		pathsPerSec := float64(n) / elapsed.Seconds()
		fmt.Printf("%15d%15.4f%15.4f%15d%20.3e\n",
			n, price, math.Abs(price-bsPrice), elapsed.Milliseconds(), pathsPerSec)
	}

	fmt.Println("\n=== Variance Reduction (Antithetic Variates) ===")
	testPaths := paths[len(paths)-1]
	mc := pricer.NewMonteCarlo(params, testPaths, steps, seed)

	priceStd := mc.PriceEuropean(true)
	priceAnti := mc.PriceEuropeanAntithetic(true)

	fmt.Printf("Standard MC:   Price = $%.4f, Error = $%.4f\n", priceStd, math.Abs(priceStd-bsPrice))
	fmt.Printf("Antithetic MC: Price = $%.4f, Error = $%.4f\n\n", priceAnti, math.Abs(priceAnti-bsPrice))

	fmt.Println("=== Exotic Options ===")
	fmt.Printf("Asian Call Option: $%.4f\n", mc.PriceAsian())
	fmt.Printf("Barrier Down-and-Out Call (Barrier=$%.2f): $%.4f\n", barrier, mc.PriceBarrier(barrier))
}
