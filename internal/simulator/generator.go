package simulator

import (
	"math"
	"math/rand/v2"
	"strings"

	"github.com/okian/eegscope/internal/domain/model"
	"github.com/okian/eegscope/internal/domain/parser"
)

// Signal model constants.
const (
	indexEpsilon = 1e-6
	rmsMin       = 0.5
	rmsMax       = 80.0
	rmsStep      = 1.5
	powerMax     = 5000.0
	powerStep    = 0.15
	moveChance   = 0.05
	spikeMax     = 6
)

// Dominant frequency candidates scanned by the analyzer for each band.
var (
	thetaFreqs = []float64{4, 5, 6, 7, 8}
	deltaFreqs = []float64{0.5, 1, 2, 3, 4}
	betaFreqs  = []float64{13, 15, 20, 25, 30}
)

// malformation is a way of corrupting a well-formed line.
type malformation func(rng *rand.Rand, line string) string

var malformations = []malformation{
	// drop a field
	func(rng *rand.Rand, line string) string {
		parts := strings.Split(line, parser.FieldSeparator+" ")
		i := rng.IntN(len(parts))
		return strings.Join(append(parts[:i:i], parts[i+1:]...), parser.FieldSeparator+" ")
	},
	// non-numeric value
	func(_ *rand.Rand, line string) string {
		return strings.Replace(line, parser.KeyRMS+parser.KeyValueSeparator, parser.KeyRMS+parser.KeyValueSeparator+"nan?", 1)
	},
	// empty state
	func(_ *rand.Rand, line string) string {
		i := strings.LastIndex(line, parser.KeyState+parser.KeyValueSeparator)
		return line[:i+len(parser.KeyState+parser.KeyValueSeparator)]
	},
	// cut off mid-record
	func(rng *rand.Rand, line string) string {
		return line[:rng.IntN(strings.LastIndex(line, parser.KeyState))]
	},
}

// Generator produces a random walk of plausible analyzer readings.
type Generator struct {
	rng     *rand.Rand
	second  int64
	rms     float64
	alpha   float64
	theta   float64
	delta   float64
	beta    float64
	malRate float64
}

// NewGenerator creates a generator. Generators with the same seed and rate
// produce the same sequence.
func NewGenerator(seed uint64, malformedRate float64) *Generator {
	return &Generator{
		rng:     rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		rms:     8,
		alpha:   400,
		theta:   300,
		delta:   250,
		beta:    350,
		malRate: malformedRate,
	}
}

// Next advances the walk by one second and returns the reading.
func (g *Generator) Next() model.Reading {
	g.second++
	g.rms = clamp(g.rms+(g.rng.Float64()*2-1)*rmsStep, rmsMin, rmsMax)
	g.alpha = g.walkPower(g.alpha)
	g.theta = g.walkPower(g.theta)
	g.delta = g.walkPower(g.delta)
	g.beta = g.walkPower(g.beta)

	rms := g.rms
	var spikes int64
	if g.rng.Float64() < moveChance {
		rms += rmsMax
		spikes = int64(g.rng.IntN(spikeMax) + 1)
	}

	energy := rms*rms + indexEpsilon
	r := model.Reading{
		Sample: model.Sample{
			Seconds:    g.second,
			RMS:        rms,
			Attention:  g.alpha / (g.alpha + energy),
			AlphaPower: g.alpha,
			ThetaPower: g.theta,
			DeltaPower: g.delta,
			BetaPower:  g.beta,
		},
		SpikeCount:        spikes,
		ThetaIndex:        g.theta / (g.theta + energy),
		DominantThetaFreq: g.pick(thetaFreqs),
		DeltaIndex:        g.delta / (g.delta + energy),
		DominantDeltaFreq: g.pick(deltaFreqs),
		BetaIndex:         g.beta / (g.beta + energy),
		DominantBetaFreq:  g.pick(betaFreqs),
	}
	r.State = Classify(r)
	return r
}

// NextLine returns the next record in wire format, without a terminator. The
// second return value reports whether the line was deliberately corrupted.
func (g *Generator) NextLine() (string, bool) {
	line := parser.Format(g.Next())
	if g.malRate <= 0 || g.rng.Float64() >= g.malRate {
		return line, false
	}
	corrupt := malformations[g.rng.IntN(len(malformations))]
	return corrupt(g.rng, line), true
}

func (g *Generator) walkPower(p float64) float64 {
	return clamp(p*(1+(g.rng.Float64()*2-1)*powerStep), 1, powerMax)
}

func (g *Generator) pick(freqs []float64) float64 {
	return freqs[g.rng.IntN(len(freqs))]
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
