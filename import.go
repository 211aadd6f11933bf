package canc

import (
	"context"
	"encoding/json"
	"io"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// ReadModel decodes a model written by WriteModel.
func ReadModel(r io.Reader, format Format) (Model, error) {
	var m Model
	switch format {
	case FormatJSON, "":
		if err := json.NewDecoder(r).Decode(&m); err != nil {
			return Model{}, errors.Wrap(err, "decode model json")
		}
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&m); err != nil {
			return Model{}, errors.Wrap(err, "decode model yaml")
		}
	default:
		return Model{}, errors.Wrapf(ErrUnsupportedFormat, "%q", format)
	}

	if err := m.validate(); err != nil {
		return Model{}, err
	}
	return m, nil
}

// validate checks that an imported model is internally consistent.
func (m *Model) validate() error {
	if m.Version == "" {
		return errors.New("model: missing version")
	}
	if m.Version != ExportVersion {
		return errors.Newf("model: unsupported version %q", m.Version)
	}
	if m.Variant != "" && !m.Variant.IsValid() {
		return errors.Newf("model: unknown variant %q", m.Variant)
	}
	for i, r := range m.Rules {
		if len(r.Conditions) == 0 {
			return errors.Newf("model: rule %d has no conditions", i)
		}
		if r.Label == "" {
			return errors.Newf("model: rule %d has no label", i)
		}
		if r.Concept < 0 || (len(m.Concepts) > 0 && r.Concept >= len(m.Concepts)) {
			return errors.Newf("model: rule %d references concept %d of %d", i, r.Concept, len(m.Concepts))
		}
	}
	return nil
}

// ImportSnapshot reads a model from r and stores it as a new snapshot. With
// dryRun set the model is validated but not stored.
func (s *Store) ImportSnapshot(ctx context.Context, r io.Reader, format Format, label string, dryRun bool) (*SnapshotInfo, error) {
	m, err := ReadModel(r, format)
	if err != nil {
		return nil, err
	}
	if dryRun {
		return &SnapshotInfo{
			Variant:      m.Variant,
			RecordsSeen:  m.Stats.RecordsSeen,
			ConceptCount: len(m.Concepts),
			RuleCount:    len(m.Rules),
			Label:        label,
		}, nil
	}
	return s.SaveSnapshot(ctx, m, label)
}
