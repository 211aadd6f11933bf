package canc

import (
	"slices"
)

// ClosureEngine implements the two Galois connection operators over a
// RecordStore and the scores used to choose which pairs become concepts.
type ClosureEngine struct {
	store     *RecordStore
	attribute AttributeMethod
	value     ValueMethod
	evaluator AttributeEvaluator
}

// NewClosureEngine creates an engine over store. A nil evaluator uses
// EntropyEvaluator.
func NewClosureEngine(store *RecordStore, attr AttributeMethod, value ValueMethod, eval AttributeEvaluator) *ClosureEngine {
	if eval == nil {
		eval = EntropyEvaluator{}
	}
	return &ClosureEngine{
		store:     store,
		attribute: attr,
		value:     value,
		evaluator: eval,
	}
}

// Store returns the record store the engine reads.
func (e *ClosureEngine) Store() *RecordStore {
	return e.store
}

// ExtensionOf returns the positions of records having value for attr.
func (e *ClosureEngine) ExtensionOf(attr, value string) Extent {
	return e.store.Lookup(attr, value)
}

// DescriptionOf returns the pairs shared by every record in positions,
// ordered by attribute. An empty input has an empty description.
func (e *ClosureEngine) DescriptionOf(positions Extent) []Pair {
	if len(positions) == 0 {
		return []Pair{}
	}

	desc := e.store.records[positions[0]].pairs()
	for _, pos := range positions[1:] {
		rec := e.store.records[pos]
		desc = slices.DeleteFunc(desc, func(p Pair) bool {
			return !rec.Has(p)
		})
		if len(desc) == 0 {
			break
		}
	}
	slices.SortFunc(desc, comparePairs)
	return desc
}

// ExtensionOfAll intersects the extensions of every pair. An empty
// description is shared by every record.
func (e *ClosureEngine) ExtensionOfAll(desc []Pair) Extent {
	if len(desc) == 0 {
		return e.store.All()
	}
	ext := e.ExtensionOf(desc[0].Attribute, desc[0].Value)
	for _, p := range desc[1:] {
		if len(ext) == 0 {
			break
		}
		ext = ext.Intersect(e.ExtensionOf(p.Attribute, p.Value))
	}
	return ext
}

// Closure returns the largest set of records sharing the description of
// positions.
func (e *ClosureEngine) Closure(positions Extent) Extent {
	return e.ExtensionOfAll(e.DescriptionOf(positions))
}

// IsClosed reports whether ext is non-empty and a fixed point of Closure.
func (e *ClosureEngine) IsClosed(ext Extent) bool {
	return len(ext) > 0 && e.Closure(ext).Equal(ext)
}

// AttributeScore returns the weighted information gain or gain ratio of attr.
func (e *ClosureEngine) AttributeScore(attr string) float64 {
	n := e.store.Len()
	if n == 0 {
		return 0
	}
	column := make([]string, n)
	labels := make([]string, n)
	weights := make([]float64, n)
	for i, rec := range e.store.records {
		v, _ := rec.Value(attr)
		column[i] = v
		labels[i] = rec.Label
		weights[i] = rec.Weight
	}
	if e.attribute == AttributeInfoGain {
		return e.evaluator.InfoGain(column, labels, weights)
	}
	return e.evaluator.GainRatio(column, labels, weights)
}

// ValueScore returns the relevance of value for attr. With ValueEntropy it is
// the weighted class entropy of the records having the value; with
// ValueSupport it is the share of records having it.
func (e *ClosureEngine) ValueScore(attr, value string) float64 {
	ext := e.ExtensionOf(attr, value)
	if e.value == ValueSupport {
		if e.store.Len() == 0 {
			return 0
		}
		return float64(len(ext)) / float64(e.store.Len())
	}

	dist := make(map[string]float64)
	total := 0.0
	for _, pos := range ext {
		w := e.store.Weight(pos)
		dist[e.store.ClassLabel(pos)] += w
		total += w
	}
	return entropy(dist, total)
}

// MostInformativeAttribute returns the attribute with the highest score.
// Ties go to the lexically smallest name. It reports false when nothing is
// indexed.
func (e *ClosureEngine) MostInformativeAttribute() (string, bool) {
	best, found := "", false
	bestScore := 0.0
	for _, attr := range e.store.Attributes() {
		score := e.AttributeScore(attr)
		if !found || score > bestScore+scoreTolerance {
			best, bestScore, found = attr, score, true
		}
	}
	return best, found
}

// MostRelevantValue returns the best scoring value of attr. Ties go to the
// lexically smallest value. It reports false for an unknown attribute.
func (e *ClosureEngine) MostRelevantValue(attr string) (string, bool) {
	best, found := "", false
	bestScore := 0.0
	for _, value := range e.store.Values(attr) {
		score := e.ValueScore(attr, value)
		if !found || e.value.Better(score, bestScore) {
			best, bestScore, found = value, score, true
		}
	}
	return best, found
}
