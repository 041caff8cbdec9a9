package traps

import (
	"math"
	"math/rand"
)

// PoissonDensity draws a Poisson-distributed realisation of an
// InstantCapture species' per-pixel density, scaled by totalPixels, then
// converted back to a per-pixel density. This mirrors a Monte-Carlo
// technique from the original arctic source (poisson_density_from) for
// sampling trap-population uncertainty: the same seed always produces the
// same density, so a caller that wants reproducible runs fixes the seed
// rather than relying on global RNG state (§5: no shared mutable state
// between calls).
func PoissonDensity(s Species, totalPixels float64, seed int64) (Species, error) {
	rng := rand.New(rand.NewSource(seed))
	meanCount := s.Density * totalPixels
	sampledCount := poissonSample(rng, meanCount)
	sampled := s
	sampled.Density = sampledCount / totalPixels
	if err := sampled.validateCommon(); err != nil {
		return Species{}, err
	}
	return sampled, nil
}

// poissonSample draws one Poisson(mean) sample using Knuth's algorithm,
// adequate for the modest trap-count means this function is used with.
func poissonSample(rng *rand.Rand, mean float64) float64 {
	if mean <= 0 {
		return 0
	}
	l := -mean
	k := 0
	logP := 0.0
	for {
		k++
		u := rng.Float64()
		if u <= 0 {
			u = 1e-300
		}
		logP += math.Log(u)
		if logP <= l {
			return float64(k - 1)
		}
	}
}
