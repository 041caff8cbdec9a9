package traps

import (
	"math"

	"gonum.org/v1/gonum/integrate/quad"
	"gonum.org/v1/gonum/stat/distuv"
)

// continuumQuadPoints is the node count for the fixed Gauss-Legendre rule
// used to integrate the release kernel against a log-normal release-time
// density (§4.1.1). 32 points keeps the rule's truncation error well under
// the spec's 1e-6 absolute-error target across dt in [1e-3, 1e3] for the
// sigma range trap species are calibrated at (sigma <~ 2).
const continuumQuadPoints = 32

// continuumTruncationSigmas bounds the integration domain in log-timescale
// space to mean ± this many standard deviations, independent of dt: the
// domain is fixed once per (tau, sigma) pair and reused for every dt, which
// is what lets the same rule bound error across the whole dt range.
const continuumTruncationSigmas = 8

// legendreNodes/legendreWeights are the canonical n-point Gauss-Legendre
// rule on [-1,1], computed once at package load and affine-mapped onto the
// integration domain for every continuum release call.
var legendreNodes, legendreWeights = buildLegendreRule(continuumQuadPoints)

// buildLegendreRule fills n-point node/weight slices via gonum's fixed
// Gauss-Legendre rule over [-1,1], which FixedLocations expects pre-sized to
// n and populates in place.
func buildLegendreRule(n int) (nodes, weights []float64) {
	nodes = make([]float64, n)
	weights = make([]float64, n)
	quad.Legendre{}.FixedLocations(nodes, weights, -1, 1)
	return nodes, weights
}

// continuumReleaseFactor returns the surviving fill fraction after dt for a
// trap species whose release timescale tau is log-normal-distributed with
// shape sigma: the population-averaged exp(-dt/tau), weighted by the
// log-normal density of tau, mean tau, log-width sigma.
//
// The quadrature is carried out in u = ln(tau) space over a fixed window
// around the distribution's mean, then both the release-weighted integral
// and the weight-only integral are accumulated and divided, which cancels
// the bias from truncating the (0, inf) support to a finite window: at
// dt -> 0 the ratio is exactly 1 regardless of truncation.
func continuumReleaseFactor(dt, tau, sigma float64) float64 {
	if sigma <= 0 {
		return math.Exp(-dt / tau)
	}

	mu := math.Log(tau) - sigma*sigma/2
	lo := mu - continuumTruncationSigmas*sigma
	hi := mu + continuumTruncationSigmas*sigma
	mid := (hi + lo) / 2
	half := (hi - lo) / 2

	dist := distuv.LogNormal{Mu: mu, Sigma: sigma}

	var weighted, total float64
	for i, x := range legendreNodes {
		u := mid + half*x
		t := math.Exp(u)
		// Jacobian for the tau = exp(u) substitution: dtau = t du.
		w := legendreWeights[i] * half * dist.Prob(t) * t
		weighted += w * safeExp(-dt / t)
		total += w
	}
	if total <= 0 {
		return math.Exp(-dt / tau)
	}
	return weighted / total
}

// safeExp evaluates exp(x) without producing NaN/Inf for the very negative
// or very positive x that can arise for tau values near the tails of the
// quadrature window; underflow clamps to 0 per §4.1 failure semantics.
func safeExp(x float64) float64 {
	if x < -700 {
		return 0
	}
	if x > 700 {
		return math.Inf(1)
	}
	return math.Exp(x)
}
