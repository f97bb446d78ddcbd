package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"lob-engine/src/engine"
	"lob-engine/src/logger"
	"lob-engine/src/sim"
)

var (
	demoDepth int

	benchOrders int
	benchSeed   int64
	benchDepth  int
)

func main() {
	log := logger.Init()
	defer logger.Close()

	rootCmd := &cobra.Command{
		Use:          "lobsim",
		Short:        "Single-book limit order book simulator",
		SilenceUsage: true,
	}

	demoCmd := &cobra.Command{
		Use:   "demo",
		Short: "Play the reference scenario script and print the book at each stage",
		RunE: func(cmd *cobra.Command, args []string) error {
			sim.RunDemo(os.Stdout, demoDepth, log)
			return nil
		},
	}
	demoCmd.Flags().IntVar(&demoDepth, "depth", 5, "price levels to print per side")

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "Drive random limit orders through a fresh book and report throughput",
		RunE: func(cmd *cobra.Command, args []string) error {
			e := engine.NewEngine(log)
			g := sim.NewGenerator(benchSeed)

			fmt.Println("=== Performance Test ===")
			result := sim.RunBench(e, g, benchOrders)

			fmt.Printf("Processed %d orders in %d ms\n", result.Orders, result.Elapsed.Milliseconds())
			fmt.Printf("Throughput: %.0f orders/sec\n\n", result.Throughput)

			p := sim.NewPrinter(os.Stdout)
			p.PrintStats(e)
			p.PrintBook(e, benchDepth)
			return nil
		},
	}
	benchCmd.Flags().IntVar(&benchOrders, "orders", 100000, "number of random orders to submit")
	benchCmd.Flags().Int64Var(&benchSeed, "seed", 42, "random generator seed")
	benchCmd.Flags().IntVar(&benchDepth, "depth", 5, "price levels to print per side")

	rootCmd.AddCommand(demoCmd, benchCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("Simulator failed")
		os.Exit(1)
	}
}
