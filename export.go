package canc

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// ExportVersion is the current version of the model format.
const ExportVersion = "1.0"

// Format selects a model encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Model is the learned state as plain data: the concepts, the rules voting
// on their behalf, and the measurements at the time of the snapshot.
type Model struct {
	Version         string          `json:"version" yaml:"version"`
	ExportedAt      time.Time       `json:"exported_at" yaml:"exported_at"`
	Variant         Variant         `json:"variant" yaml:"variant"`
	AttributeMethod AttributeMethod `json:"attribute_method" yaml:"attribute_method"`
	ValueMethod     ValueMethod     `json:"value_method" yaml:"value_method"`
	DisjointRules   bool            `json:"disjoint_rules" yaml:"disjoint_rules"`
	Stats           Stats           `json:"stats" yaml:"stats"`
	Labels          []string        `json:"labels" yaml:"labels"`
	Concepts        []Concept       `json:"concepts" yaml:"concepts"`
	Rules           []Rule          `json:"rules" yaml:"rules"`
}

// Snapshot captures the learner's current model.
func (l *Learner) Snapshot() Model {
	l.mu.Lock()
	defer l.mu.Unlock()

	m := Model{
		Version:         ExportVersion,
		ExportedAt:      time.Now().UTC(),
		Variant:         l.cfg.Variant,
		AttributeMethod: l.cfg.AttributeMethod,
		ValueMethod:     l.cfg.ValueMethod,
		DisjointRules:   l.cfg.DisjointRules,
		Stats:           l.stats(),
		Labels:          append([]string(nil), l.labels...),
		Concepts:        make([]Concept, len(l.concepts)),
		Rules:           make([]Rule, len(l.rules)),
	}
	for i, c := range l.concepts {
		m.Concepts[i] = c.clone()
	}
	for i, r := range l.rules {
		m.Rules[i] = *r.clone()
	}
	return m
}

// RuleSet returns a predictor over the model's rules.
func (m *Model) RuleSet() *RuleSet {
	return NewRuleSet(m.Rules, m.Labels)
}

// WriteModel encodes m to w.
func WriteModel(w io.Writer, m Model, format Format) error {
	switch format {
	case FormatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return errors.Wrap(enc.Encode(m), "encode model json")
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(m); err != nil {
			return errors.Wrap(err, "encode model yaml")
		}
		return errors.Wrap(enc.Close(), "encode model yaml")
	default:
		return errors.Wrapf(ErrUnsupportedFormat, "%q", format)
	}
}

// ExportSnapshot writes a stored snapshot to w. An empty id exports the
// latest snapshot.
func (s *Store) ExportSnapshot(ctx context.Context, id string, w io.Writer, format Format) (*SnapshotInfo, error) {
	var (
		m    *Model
		info *SnapshotInfo
		err  error
	)
	if id == "" {
		m, info, err = s.LatestSnapshot(ctx)
	} else {
		m, info, err = s.GetSnapshot(ctx, id)
	}
	if err != nil {
		return nil, err
	}
	if err := WriteModel(w, *m, format); err != nil {
		return nil, err
	}
	return info, nil
}
