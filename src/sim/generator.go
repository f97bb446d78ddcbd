package sim

import (
	"math/rand"
	"time"

	"lob-engine/src/engine"
)

// Generator produces a reproducible stream of random limit orders on a fixed
// tick grid, matching the reference performance scenario: prices uniform in
// [99.00, 101.00] at cent resolution, quantities in [10, 500], random side.
type Generator struct {
	MinPrice int64 // ticks, inclusive
	MaxPrice int64 // ticks, inclusive
	MinQty   int64
	MaxQty   int64

	rng *rand.Rand
}

func NewGenerator(seed int64) *Generator {
	return &Generator{
		MinPrice: 9900,
		MaxPrice: 10100,
		MinQty:   10,
		MaxQty:   500,
		rng:      rand.New(rand.NewSource(seed)),
	}
}

// Next returns the side, price and quantity of the next random limit order.
func (g *Generator) Next() (engine.OrderSide, int64, int64) {
	side := engine.SideBuy
	if g.rng.Intn(2) == 1 {
		side = engine.SideSell
	}
	price := g.MinPrice + g.rng.Int63n(g.MaxPrice-g.MinPrice+1)
	quantity := g.MinQty + g.rng.Int63n(g.MaxQty-g.MinQty+1)
	return side, price, quantity
}

// BenchResult reports a bench run.
type BenchResult struct {
	Orders     int
	Elapsed    time.Duration
	Throughput float64 // orders per second
}

// RunBench drives n random limit orders through the engine and times them.
func RunBench(e *engine.Engine, g *Generator, n int) BenchResult {
	start := time.Now()
	for i := 0; i < n; i++ {
		side, price, quantity := g.Next()
		if _, err := e.AddOrder(side, engine.TypeLimit, price, quantity); err != nil {
			// generator only emits valid orders
			panic(err)
		}
	}
	elapsed := time.Since(start)

	throughput := 0.0
	if elapsed > 0 {
		throughput = float64(n) / elapsed.Seconds()
	}
	return BenchResult{Orders: n, Elapsed: elapsed, Throughput: throughput}
}
