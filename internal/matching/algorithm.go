// internal/matching/algorithm.go
package matching

import (
	"fmt"
	"math"
)

// FailurePolicy decides what happens when a scorer fails.
type FailurePolicy string

const (
	FailOpen FailurePolicy = "fail_open"
	FailFast FailurePolicy = "fail_fast"
)

const DefaultAlgorithmVersion = "v1.0"

// Weights are the per-criterion weights. They must sum to 1.
type Weights struct {
	Sector       float64 `mapstructure:"sector" json:"sector"`
	Timezone     float64 `mapstructure:"timezone" json:"timezone"`
	Stage        float64 `mapstructure:"stage" json:"stage"`
	Availability float64 `mapstructure:"availability" json:"availability"`
	Experience   float64 `mapstructure:"experience" json:"experience"`
}

// Algorithm is a versioned scoring configuration. Results written under one version are
// overwritten when the same pair is recomputed under another.
type Algorithm struct {
	Version       string        `mapstructure:"version" json:"version"`
	Weights       Weights       `mapstructure:"weights" json:"weights"`
	FailurePolicy FailurePolicy `mapstructure:"failure_policy" json:"failurePolicy"`
}

func DefaultWeights() Weights {
	return Weights{
		Sector:       0.30,
		Timezone:     0.20,
		Stage:        0.20,
		Availability: 0.20,
		Experience:   0.10,
	}
}

func DefaultAlgorithm() Algorithm {
	return Algorithm{
		Version:       DefaultAlgorithmVersion,
		Weights:       DefaultWeights(),
		FailurePolicy: FailOpen,
	}
}

// Vector returns the weights in criterion order.
func (w Weights) Vector() [criterionCount]float64 {
	return [criterionCount]float64{w.Sector, w.Timezone, w.Stage, w.Availability, w.Experience}
}

func (w Weights) Sum() float64 {
	total := 0.0
	for _, v := range w.Vector() {
		total += v
	}
	return total
}

func (a Algorithm) Validate() error {
	if a.Version == "" {
		return fmt.Errorf("algorithm version is required")
	}
	for i, v := range a.Weights.Vector() {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("weight %s must be a non-negative number, got %v", CriterionNames[i], v)
		}
	}
	if sum := a.Weights.Sum(); math.Abs(sum-1.0) > 1e-6 {
		return fmt.Errorf("weights must sum to 1.0, got %.6f", sum)
	}
	switch a.FailurePolicy {
	case FailOpen, FailFast:
	default:
		return fmt.Errorf("unknown failure policy %q", a.FailurePolicy)
	}
	return nil
}

// Overall reproduces the weighted overall score from integer sub-scores.
func (w Weights) Overall(sub [criterionCount]int) int {
	vec := w.Vector()
	total := 0.0
	for i := range sub {
		total += vec[i] * float64(sub[i])
	}
	// 0.3*85 style products carry float noise; settle it before rounding half away from zero.
	return int(math.Round(math.Round(total*1e6) / 1e6))
}
