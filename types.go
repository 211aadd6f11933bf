package canc

import (
	"slices"
	"strings"
)

// MissingValue is the token for an attribute without a value. Missing
// values are never indexed and never appear in a description.
const MissingValue = "?"

// RejectedScore is the score assigned to every label of a rejected prediction.
const RejectedScore = -1.0

// Pair is a single attribute/value condition.
type Pair struct {
	Attribute string `json:"attribute" yaml:"attribute"`
	Value     string `json:"value" yaml:"value"`
}

func (p Pair) String() string {
	return p.Attribute + " = '" + p.Value + "'"
}

// comparePairs orders pairs by attribute, then value.
func comparePairs(a, b Pair) int {
	if c := strings.Compare(a.Attribute, b.Attribute); c != 0 {
		return c
	}
	return strings.Compare(a.Value, b.Value)
}

// Record is one labelled observation from the stream.
type Record struct {
	// Attrs holds the nominal attribute values in schema order. The class
	// attribute is not included.
	Attrs []Pair `json:"attrs"`

	// Label is the class label.
	Label string `json:"label"`

	// Weight is the record's influence during resampling. The learner
	// assigns it; callers leave it zero.
	Weight float64 `json:"weight,omitempty"`
}

// NewRecord builds a record from an attribute map. Attributes are ordered by
// name since a map carries no schema order.
func NewRecord(values map[string]string, label string) Record {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	slices.Sort(names)

	attrs := make([]Pair, 0, len(names))
	for _, name := range names {
		attrs = append(attrs, Pair{Attribute: name, Value: values[name]})
	}
	return Record{Attrs: attrs, Label: label}
}

// Value returns the record's value for attr. Missing values report false.
func (r Record) Value(attr string) (string, bool) {
	for _, p := range r.Attrs {
		if p.Attribute == attr {
			if p.Value == MissingValue || p.Value == "" {
				return "", false
			}
			return p.Value, true
		}
	}
	return "", false
}

// Has reports whether the record exhibits the pair.
func (r Record) Has(p Pair) bool {
	v, ok := r.Value(p.Attribute)
	return ok && v == p.Value
}

// Satisfies reports whether the record exhibits every pair in conds.
func (r Record) Satisfies(conds []Pair) bool {
	for _, c := range conds {
		if !r.Has(c) {
			return false
		}
	}
	return true
}

// pairs returns the record's non-missing pairs.
func (r Record) pairs() []Pair {
	out := make([]Pair, 0, len(r.Attrs))
	for _, p := range r.Attrs {
		if p.Value == MissingValue || p.Value == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

func (r Record) clone() Record {
	r.Attrs = slices.Clone(r.Attrs)
	return r
}

// Instance is the contract a host stream object satisfies to be learned from.
type Instance interface {
	AttributeNames() []string
	Value(name string) string
	ClassLabel() string
}

// Weighted is implemented by host objects that carry their own weight.
type Weighted interface {
	Weight() float64
	SetWeight(w float64)
}

// FromInstance converts a host object into a Record.
func FromInstance(inst Instance) Record {
	names := inst.AttributeNames()
	rec := Record{
		Attrs: make([]Pair, 0, len(names)),
		Label: inst.ClassLabel(),
	}
	for _, name := range names {
		rec.Attrs = append(rec.Attrs, Pair{Attribute: name, Value: inst.Value(name)})
	}
	if w, ok := inst.(Weighted); ok {
		rec.Weight = w.Weight()
	}
	return rec
}

// Variant selects the concept generation strategy.
type Variant string

const (
	// VariantPertinentAllValues uses the most informative attribute and every value it takes.
	VariantPertinentAllValues Variant = "cpnc-comv"
	// VariantPertinentRelevantValue uses the most informative attribute and its most relevant value.
	VariantPertinentRelevantValue Variant = "cpnc-corv"
	// VariantAllAttributesAllValues uses every attribute and every value.
	VariantAllAttributesAllValues Variant = "canc-comv"
	// VariantAllAttributesRelevantValue uses every attribute and its most relevant value.
	VariantAllAttributesRelevantValue Variant = "canc-corv"
)

// ValidVariants returns all concept generation variants.
func ValidVariants() []Variant {
	return []Variant{
		VariantPertinentAllValues,
		VariantPertinentRelevantValue,
		VariantAllAttributesAllValues,
		VariantAllAttributesRelevantValue,
	}
}

// IsValid checks if the variant is known.
func (v Variant) IsValid() bool {
	return slices.Contains(ValidVariants(), v)
}

// AttributeMethod scores attributes.
type AttributeMethod string

const (
	AttributeInfoGain  AttributeMethod = "info-gain"
	AttributeGainRatio AttributeMethod = "gain-ratio"
)

// IsValid checks if the method is known.
func (m AttributeMethod) IsValid() bool {
	return m == AttributeInfoGain || m == AttributeGainRatio
}

// ValueMethod scores the values of one attribute.
type ValueMethod string

const (
	// ValueEntropy prefers the value with the purest class distribution.
	ValueEntropy ValueMethod = "entropy"
	// ValueSupport prefers the most frequent value.
	ValueSupport ValueMethod = "support"
)

// IsValid checks if the method is known.
func (m ValueMethod) IsValid() bool {
	return m == ValueEntropy || m == ValueSupport
}

// scoreTolerance absorbs rounding differences so that equal scores tie.
const scoreTolerance = 1e-12

// Better reports whether score a beats score b under this method. Scores
// within scoreTolerance of each other tie.
func (m ValueMethod) Better(a, b float64) bool {
	if m == ValueEntropy {
		return a < b-scoreTolerance
	}
	return a > b+scoreTolerance
}

// State is the learner's lifecycle state.
type State string

const (
	StateAccumulating State = "accumulating"
	StateReady        State = "ready"
)

// Outcome classifies a test-then-train prediction.
type Outcome string

const (
	OutcomeNone      Outcome = ""
	OutcomeCorrect   Outcome = "correct"
	OutcomeIncorrect Outcome = "incorrect"
	OutcomeRejected  Outcome = "rejected"
)

// Prediction is the result of rule voting.
type Prediction struct {
	// Label is the highest scoring label. Empty when rejected.
	Label string `json:"label,omitempty"`

	// Scores maps each candidate label to its normalized vote. A rejected
	// prediction sets every score to RejectedScore.
	Scores map[string]float64 `json:"scores"`

	// Rejected is true when no rule matched the record.
	Rejected bool `json:"rejected"`

	// Matched is the number of rules that voted.
	Matched int `json:"matched"`
}

// LearnResult describes what one learning step did.
type LearnResult struct {
	Position   int         `json:"position"`
	State      State       `json:"state"`
	Outcome    Outcome     `json:"outcome,omitempty"`
	Prediction *Prediction `json:"prediction,omitempty"`
	Built      bool        `json:"built"`
	Rebuilt    bool        `json:"rebuilt"`
	Touched    int         `json:"touched"`
	Evicted    bool        `json:"evicted"`
}

// Stats contains learner measurements.
type Stats struct {
	State        State   `json:"state"`
	Variant      Variant `json:"variant"`
	RecordsSeen  int     `json:"records_seen"`
	StoreSize    int     `json:"store_size"`
	ConceptCount int     `json:"concept_count"`
	RuleCount    int     `json:"rule_count"`
	Rebuilds     int     `json:"rebuilds"`
	Correct      int     `json:"correct"`
	Incorrect    int     `json:"incorrect"`
	Rejected     int     `json:"rejected"`
}

// Accuracy is the share of ready-state predictions that were correct.
// Rejections count as misses.
func (s Stats) Accuracy() float64 {
	total := s.Correct + s.Incorrect + s.Rejected
	if total == 0 {
		return 0
	}
	return float64(s.Correct) / float64(total)
}
