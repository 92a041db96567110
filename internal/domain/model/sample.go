// Package model contains domain models passed between layers.
package model

// Sample is one decoded telemetry record as retained by the window.
type Sample struct {
	Seconds    int64   `json:"second"` // device-reported elapsed seconds, may repeat or skip
	RMS        float64 `json:"rms"`
	Attention  float64 `json:"attention"`
	AlphaPower float64 `json:"alpha_power"`
	ThetaPower float64 `json:"theta_power"`
	DeltaPower float64 `json:"delta_power"`
	BetaPower  float64 `json:"beta_power"`
	State      string  `json:"state"`
}

// Reading is the full fifteen-field record emitted by the analyzer. The
// fields beyond Sample are validated on parse but not kept by the window.
type Reading struct {
	Sample

	SpikeCount        int64
	ThetaIndex        float64
	DominantThetaFreq float64
	DeltaIndex        float64
	DominantDeltaFreq float64
	BetaIndex         float64
	DominantBetaFreq  float64
}

// Retained returns the projection of r that the window stores.
func (r Reading) Retained() Sample {
	return r.Sample
}

// Columns holds a window snapshot split into index-aligned channels.
type Columns struct {
	Seconds   []int64
	RMS       []float64
	Attention []float64
	Alpha     []float64
	Theta     []float64
	Delta     []float64
	Beta      []float64
	States    []string
}

// Len returns the number of samples in c.
func (c Columns) Len() int {
	return len(c.Seconds)
}

// ColumnsOf splits samples into per-channel slices. Index i of every slice
// refers to samples[i].
func ColumnsOf(samples []Sample) Columns {
	n := len(samples)
	c := Columns{
		Seconds:   make([]int64, n),
		RMS:       make([]float64, n),
		Attention: make([]float64, n),
		Alpha:     make([]float64, n),
		Theta:     make([]float64, n),
		Delta:     make([]float64, n),
		Beta:      make([]float64, n),
		States:    make([]string, n),
	}
	for i, s := range samples {
		c.Seconds[i] = s.Seconds
		c.RMS[i] = s.RMS
		c.Attention[i] = s.Attention
		c.Alpha[i] = s.AlphaPower
		c.Theta[i] = s.ThetaPower
		c.Delta[i] = s.DeltaPower
		c.Beta[i] = s.BetaPower
		c.States[i] = s.State
	}
	return c
}
