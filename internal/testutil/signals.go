package testutil

import (
	"math"
	"math/rand"

	"github.com/cwbudde/algo-xafs/xafs/core"
)

// DeterministicNoise generates white noise with a fixed seed for reproducibility.
func DeterministicNoise(seed int64, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}
	return out
}

// Shell is one scattering path of a synthetic EXAFS signal.
type Shell struct {
	R      float64 // half path length (Å)
	Amp    float64
	Sigma2 float64 // Debye-Waller factor (Å²)
	Phase  float64
}

// XAFSParams describes a synthetic absorption spectrum.
type XAFSParams struct {
	E0       float64
	Step     float64
	KMax     float64
	Shells   []Shell
	Noise    float64
	Seed     int64
	PreSlope float64
}

// DefaultXAFS returns a copper-like K edge with two shells.
func DefaultXAFS() XAFSParams {
	return XAFSParams{
		E0:   8979,
		Step: 1.2,
		KMax: 16,
		Shells: []Shell{
			{R: 2.55, Amp: 4, Sigma2: 0.006},
			{R: 3.6, Amp: 2.5, Sigma2: 0.009, Phase: 0.7},
		},
		PreSlope: -2e-5,
	}
}

// Chi returns the noiseless EXAFS signal of p at wavenumber k.
func (p XAFSParams) Chi(k float64) float64 {
	if k <= 0 {
		return 0
	}
	sum := 0.0
	for _, s := range p.Shells {
		sum += s.Amp * math.Sin(2*s.R*k+s.Phase) * math.Exp(-2*s.Sigma2*k*k) / (k * s.R * s.R)
	}
	// Suppress the oscillations right above the edge so they do not compete
	// with the edge itself.
	onset := 1 - math.Exp(-k*k*k*k/16)
	return onset * sum
}

// Background returns the smooth atomic absorption of p at energy e,
// excluding the oscillations.
func (p XAFSParams) Background(e float64) float64 {
	pre := 0.2 + p.PreSlope*(e-p.E0)
	edge := p.Step * (0.5 + math.Atan((e-p.E0)/1.5)/math.Pi)
	decay := 0.0
	if e > p.E0 {
		decay = -0.12 * p.Step * (1 - math.Exp(-(e-p.E0)/350))
	}
	return pre + edge + decay
}

// XAFSSpectrum samples p on a typical energy grid: coarse pre-edge, fine
// edge region and uniform k spacing above the edge.
func XAFSSpectrum(p XAFSParams) core.Spectrum {
	var energy []float64
	for e := p.E0 - 200; e < p.E0-20; e += 5 {
		energy = append(energy, e)
	}
	for e := p.E0 - 20; e < p.E0+30; e += 0.5 {
		energy = append(energy, e)
	}
	for k := core.EnergyToK(p.E0+30, p.E0); k <= p.KMax; k += 0.05 {
		energy = append(energy, core.KToEnergy(k, p.E0))
	}

	var rng *rand.Rand
	if p.Noise > 0 {
		rng = rand.New(rand.NewSource(p.Seed))
	}

	mu := make([]float64, len(energy))
	for i, e := range energy {
		k := core.EnergyToK(e, p.E0)
		mu[i] = p.Background(e) + p.Step*p.Chi(k)
		if rng != nil {
			mu[i] += p.Noise * rng.NormFloat64()
		}
	}

	return core.Spectrum{Name: "synthetic", Energy: energy, Mu: mu}
}
