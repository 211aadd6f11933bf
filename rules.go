package canc

import (
	"fmt"
	"slices"
	"strings"
)

// Rule predicts Label for every record satisfying all of its Conditions.
type Rule struct {
	Conditions []Pair  `json:"conditions" yaml:"conditions"`
	Label      string  `json:"label" yaml:"label"`
	Concept    int     `json:"concept" yaml:"concept"`
	Premise    int     `json:"premise_occurrence" yaml:"premise_occurrence"`
	TruePos    int     `json:"true_positives" yaml:"true_positives"`
	Confidence float64 `json:"confidence" yaml:"confidence"`
	Support    float64 `json:"support" yaml:"support"`
	Weight     float64 `json:"weight" yaml:"weight"`
}

// Matches reports whether rec satisfies every condition.
func (r *Rule) Matches(rec Record) bool {
	return rec.Satisfies(r.Conditions)
}

// refresh recomputes the derived metrics from the counts for a store of
// size records.
func (r *Rule) refresh(size int) {
	r.Confidence = 0
	if r.Premise > 0 {
		r.Confidence = float64(r.TruePos) / float64(r.Premise)
	}
	r.Support = 0
	if size > 0 {
		r.Support = float64(r.Premise) / float64(size)
	}
	r.Weight = r.Confidence * r.Support
}

func (r *Rule) String() string {
	conds := make([]string, len(r.Conditions))
	for i, c := range r.Conditions {
		conds[i] = c.String()
	}
	return fmt.Sprintf("IF %s THEN class = '%s' [occurrence=%d, true_positives=%d, support=%.4f, confidence=%.4f, weight=%.4f]",
		strings.Join(conds, " AND "), r.Label, r.Premise, r.TruePos, r.Support, r.Confidence, r.Weight)
}

func (r *Rule) clone() *Rule {
	c := *r
	c.Conditions = slices.Clone(r.Conditions)
	return &c
}

// Extractor turns concepts into rules and keeps rule metrics current.
type Extractor struct {
	// Disjoint emits one single-condition rule per intent pair.
	Disjoint bool
}

// ExtractRules derives rules from concepts. Rule.Concept is set to offset
// plus the concept's index in concepts. Metrics are left zero; call
// CalculateRuleMetrics afterwards.
func (x *Extractor) ExtractRules(concepts []Concept, offset int, store *RecordStore) []*Rule {
	var rules []*Rule
	for i, c := range concepts {
		if len(c.Intent) == 0 {
			continue
		}
		label := majorityLabel(c.Extent, store)
		if !x.Disjoint {
			rules = append(rules, &Rule{
				Conditions: slices.Clone(c.Intent),
				Label:      label,
				Concept:    offset + i,
			})
			continue
		}
		for _, p := range c.Intent {
			rules = append(rules, &Rule{
				Conditions: []Pair{p},
				Label:      label,
				Concept:    offset + i,
			})
		}
	}
	return rules
}

// majorityLabel returns the most frequent label over ext. Ties go to the
// label met first in position order.
func majorityLabel(ext Extent, store *RecordStore) string {
	counts := make(map[string]int)
	var order []string
	for _, pos := range ext {
		label := store.ClassLabel(pos)
		if _, ok := counts[label]; !ok {
			order = append(order, label)
		}
		counts[label]++
	}

	best, bestCount := "", 0
	for _, label := range order {
		if counts[label] > bestCount {
			best, bestCount = label, counts[label]
		}
	}
	return best
}

// CalculateRuleMetrics recounts premise occurrences and true positives for
// every rule by scanning the store.
func (x *Extractor) CalculateRuleMetrics(rules []*Rule, store *RecordStore) {
	for _, r := range rules {
		r.Premise, r.TruePos = 0, 0
		for _, rec := range store.records {
			if !r.Matches(rec) {
				continue
			}
			r.Premise++
			if rec.Label == r.Label {
				r.TruePos++
			}
		}
		r.refresh(store.Len())
	}
}

// Update lists what ExtendWithRecord modified.
type Update struct {
	Concepts []int
	Rules    []int
}

// Count returns the number of concepts touched.
func (u Update) Count() int {
	return len(u.Concepts)
}

// ExtendWithRecord folds the record stored at pos into the model without
// regenerating concepts. Every concept whose intent the record satisfies
// gains pos in its extent. Every rule the record satisfies, which includes
// every rule of a touched concept, has its counts bumped. Support depends on
// the store size, so the metrics of every rule are refreshed for a store of
// size records, matched or not.
func (x *Extractor) ExtendWithRecord(concepts []Concept, rules []*Rule, rec Record, pos, size int) Update {
	var up Update
	for i := range concepts {
		if !rec.Satisfies(concepts[i].Intent) {
			continue
		}
		concepts[i].Extent = concepts[i].Extent.Insert(pos)
		up.Concepts = append(up.Concepts, i)
	}
	for i, r := range rules {
		if !r.Matches(rec) {
			continue
		}
		r.Premise++
		if rec.Label == r.Label {
			r.TruePos++
		}
		up.Rules = append(up.Rules, i)
	}
	refreshAll(rules, size)
	return up
}

// RetractRecord removes an evicted record's contribution from the counts of
// every rule it satisfies and refreshes every rule for the new size.
func (x *Extractor) RetractRecord(rules []*Rule, rec Record, size int) {
	for _, r := range rules {
		if !r.Matches(rec) {
			continue
		}
		r.Premise = max(r.Premise-1, 0)
		if rec.Label == r.Label {
			r.TruePos = max(r.TruePos-1, 0)
		}
	}
	refreshAll(rules, size)
}

func refreshAll(rules []*Rule, size int) {
	for _, r := range rules {
		r.refresh(size)
	}
}
