package pricer

import "math"

func normCDF(x float64) float64 {
	return 0.5 * math.Erfc(-x/math.Sqrt2)
}

// BlackScholesCall is the closed-form European call price, used as the
// reference the Monte Carlo estimates are measured against.
func BlackScholesCall(p Params) float64 {
	sqrtT := math.Sqrt(p.Maturity)
	d1 := (math.Log(p.Spot/p.Strike) + (p.Rate+0.5*p.Vol*p.Vol)*p.Maturity) / (p.Vol * sqrtT)
	d2 := d1 - p.Vol*sqrtT

	return p.Spot*normCDF(d1) - p.Strike*math.Exp(-p.Rate*p.Maturity)*normCDF(d2)
}

// BlackScholesPut follows from put-call parity.
func BlackScholesPut(p Params) float64 {
	call := BlackScholesCall(p)
	return call - p.Spot + p.Strike*math.Exp(-p.Rate*p.Maturity)
}
