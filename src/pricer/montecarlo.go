package pricer

import (
	"math"
	"math/rand"
	"runtime"
	"sync"
)

// Params are the market inputs of a single-asset option under geometric
// Brownian motion.
type Params struct {
	Spot     float64 // current asset price
	Strike   float64
	Maturity float64 // years
	Rate     float64 // continuously compounded risk-free rate
	Vol      float64 // annualized volatility
}

// MonteCarlo prices options by simulating independent GBM paths across a
// worker pool. Each worker owns a seeded RNG, so runs are reproducible for a
// fixed seed up to worker partitioning.
type MonteCarlo struct {
	Params
	Paths   int
	Steps   int
	Workers int
	Seed    int64
}

func NewMonteCarlo(p Params, paths, steps int, seed int64) *MonteCarlo {
	if steps <= 0 {
		steps = 252
	}
	return &MonteCarlo{
		Params:  p,
		Paths:   paths,
		Steps:   steps,
		Workers: runtime.GOMAXPROCS(0),
		Seed:    seed,
	}
}

// fillPath simulates one GBM path into buf (length Steps). When antithetic is
// set the driving normals are negated.
func (m *MonteCarlo) fillPath(rng *rand.Rand, buf []float64, antithetic bool) {
	dt := m.Maturity / float64(m.Steps)
	drift := (m.Rate - 0.5*m.Vol*m.Vol) * dt
	diffusion := m.Vol * math.Sqrt(dt)

	s := m.Spot
	for i := range buf {
		z := rng.NormFloat64()
		if antithetic {
			z = -z
		}
		s *= math.Exp(drift + diffusion*z)
		buf[i] = s
	}
}

// sumPayoffs fans paths out over the worker pool and returns the payoff sum.
// payoff receives the worker's RNG and a scratch path buffer.
func (m *MonteCarlo) sumPayoffs(paths int, payoff func(rng *rand.Rand, buf []float64) float64) float64 {
	workers := m.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > paths {
		workers = paths
	}

	var wg sync.WaitGroup
	sums := make([]float64, workers)

	for w := 0; w < workers; w++ {
		share := paths / workers
		if w < paths%workers {
			share++
		}

		wg.Add(1)
		go func(w, share int) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(m.Seed + int64(w)))
			buf := make([]float64, m.Steps)

			var local float64
			for i := 0; i < share; i++ {
				local += payoff(rng, buf)
			}
			sums[w] = local
		}(w, share)
	}
	wg.Wait()

	var total float64
	for _, s := range sums {
		total += s
	}
	return total
}

func (m *MonteCarlo) discount(payoffMean float64) float64 {
	return math.Exp(-m.Rate*m.Maturity) * payoffMean
}

// PriceEuropean estimates a European call or put price by plain Monte Carlo.
func (m *MonteCarlo) PriceEuropean(call bool) float64 {
	sum := m.sumPayoffs(m.Paths, func(rng *rand.Rand, buf []float64) float64 {
		m.fillPath(rng, buf, false)
		terminal := buf[len(buf)-1]
		if call {
			return europeanCall(terminal, m.Strike)
		}
		return europeanPut(terminal, m.Strike)
	})
	return m.discount(sum / float64(m.Paths))
}

// PriceEuropeanAntithetic estimates the European price with antithetic
// variates: each draw prices a path and its mirror, reducing the variance of
// the estimator for the same number of normal draws.
func (m *MonteCarlo) PriceEuropeanAntithetic(call bool) float64 {
	halfPaths := m.Paths / 2
	if halfPaths == 0 {
		halfPaths = 1
	}

	sum := m.sumPayoffs(halfPaths, func(rng *rand.Rand, buf []float64) float64 {
		payoffOf := func(terminal float64) float64 {
			if call {
				return europeanCall(terminal, m.Strike)
			}
			return europeanPut(terminal, m.Strike)
		}

		// regular and mirrored paths driven by the same normals, the mirror
		// taking each one negated
		dt := m.Maturity / float64(m.Steps)
		drift := (m.Rate - 0.5*m.Vol*m.Vol) * dt
		diffusion := m.Vol * math.Sqrt(dt)

		s, mirror := m.Spot, m.Spot
		for range buf {
			z := rng.NormFloat64()
			s *= math.Exp(drift + diffusion*z)
			mirror *= math.Exp(drift - diffusion*z)
		}

		return (payoffOf(s) + payoffOf(mirror)) / 2
	})
	return m.discount(sum / float64(halfPaths))
}

// PriceAsian estimates an arithmetic-average Asian call.
func (m *MonteCarlo) PriceAsian() float64 {
	sum := m.sumPayoffs(m.Paths, func(rng *rand.Rand, buf []float64) float64 {
		m.fillPath(rng, buf, false)
		return asianCall(buf, m.Strike)
	})
	return m.discount(sum / float64(m.Paths))
}

// PriceBarrier estimates a down-and-out barrier call: paths touching the
// barrier pay nothing.
func (m *MonteCarlo) PriceBarrier(barrier float64) float64 {
	sum := m.sumPayoffs(m.Paths, func(rng *rand.Rand, buf []float64) float64 {
		m.fillPath(rng, buf, false)
		return barrierDownOutCall(buf, m.Strike, barrier)
	})
	return m.discount(sum / float64(m.Paths))
}

func europeanCall(s, k float64) float64 {
	return math.Max(s-k, 0)
}

func europeanPut(s, k float64) float64 {
	return math.Max(k-s, 0)
}

func asianCall(path []float64, k float64) float64 {
	var avg float64
	for _, s := range path {
		avg += s
	}
	avg /= float64(len(path))
	return math.Max(avg-k, 0)
}

func barrierDownOutCall(path []float64, k, barrier float64) float64 {
	for _, s := range path {
		if s <= barrier {
			return 0
		}
	}
	return math.Max(path[len(path)-1]-k, 0)
}
