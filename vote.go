package canc

import (
	"slices"
)

// Vote scores rec against rules. Each matching rule adds its weight to its
// label. When no rule matches, the prediction is rejected and every label in
// labels scores RejectedScore. When every matching rule weighs zero, each
// counts as one vote.
func Vote(rules []*Rule, rec Record, labels []string) Prediction {
	scores := make(map[string]float64, len(labels))
	for _, l := range labels {
		scores[l] = 0
	}

	var matched []*Rule
	total := 0.0
	for _, r := range rules {
		if !r.Matches(rec) {
			continue
		}
		matched = append(matched, r)
		scores[r.Label] += r.Weight
		total += r.Weight
	}

	if len(matched) == 0 {
		for l := range scores {
			scores[l] = RejectedScore
		}
		return Prediction{Scores: scores, Rejected: true}
	}

	if total <= 0 {
		for _, r := range matched {
			scores[r.Label]++
		}
		total = float64(len(matched))
	}

	names := make([]string, 0, len(scores))
	for l := range scores {
		scores[l] /= total
		names = append(names, l)
	}
	slices.Sort(names)

	best := names[0]
	for _, l := range names[1:] {
		if scores[l] > scores[best] {
			best = l
		}
	}
	return Prediction{Label: best, Scores: scores, Matched: len(matched)}
}

// RuleSet predicts from a fixed list of rules, such as an imported model.
// It never learns.
type RuleSet struct {
	rules  []*Rule
	labels []string
}

// NewRuleSet copies rules into a RuleSet. The candidate labels are the
// labels given plus every rule label.
func NewRuleSet(rules []Rule, labels []string) *RuleSet {
	rs := &RuleSet{labels: slices.Clone(labels)}
	for i := range rules {
		r := rules[i]
		rs.rules = append(rs.rules, r.clone())
		if !slices.Contains(rs.labels, r.Label) {
			rs.labels = append(rs.labels, r.Label)
		}
	}
	slices.Sort(rs.labels)
	return rs
}

// Predict votes the rules on rec.
func (rs *RuleSet) Predict(rec Record) Prediction {
	return Vote(rs.rules, rec, rs.labels)
}

// Len returns the number of rules.
func (rs *RuleSet) Len() int {
	return len(rs.rules)
}
