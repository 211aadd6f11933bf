package canc

import "math"

// AttributeEvaluator scores one nominal column against the parallel class
// column. Each position i contributes weights[i] to the estimates.
type AttributeEvaluator interface {
	InfoGain(column, labels []string, weights []float64) float64
	GainRatio(column, labels []string, weights []float64) float64
}

// EntropyEvaluator computes weighted Shannon entropy measures in bits.
// Positions whose column value is missing are left out of every estimate.
type EntropyEvaluator struct{}

// InfoGain returns the class entropy minus the conditional class entropy
// given the column.
func (EntropyEvaluator) InfoGain(column, labels []string, weights []float64) float64 {
	gain, _ := infoGain(column, labels, weights)
	return gain
}

// GainRatio returns the information gain divided by the entropy of the
// column's own value distribution. A column with a single value scores 0.
func (EntropyEvaluator) GainRatio(column, labels []string, weights []float64) float64 {
	gain, split := infoGain(column, labels, weights)
	if split <= 0 {
		return 0
	}
	return gain / split
}

func infoGain(column, labels []string, weights []float64) (gain, split float64) {
	classDist := make(map[string]float64)
	valueDist := make(map[string]float64)
	joint := make(map[string]map[string]float64)
	total := 0.0

	for i, v := range column {
		if v == "" || v == MissingValue {
			continue
		}
		w := weights[i]
		total += w
		classDist[labels[i]] += w
		valueDist[v] += w
		byClass, ok := joint[v]
		if !ok {
			byClass = make(map[string]float64)
			joint[v] = byClass
		}
		byClass[labels[i]] += w
	}
	if total <= 0 {
		return 0, 0
	}

	conditional := 0.0
	for v, wv := range valueDist {
		conditional += wv / total * entropy(joint[v], wv)
	}
	gain = entropy(classDist, total) - conditional
	if gain < 0 {
		gain = 0
	}
	return gain, entropy(valueDist, total)
}

// entropy returns the base-2 entropy of a weighted distribution.
func entropy(dist map[string]float64, total float64) float64 {
	if total <= 0 {
		return 0
	}
	h := 0.0
	for _, w := range dist {
		if w <= 0 {
			continue
		}
		p := w / total
		h -= p * math.Log2(p)
	}
	return h
}
