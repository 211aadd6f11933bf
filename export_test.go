package canc

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteReadModel(t *testing.T) {
	l := weatherLearner(t, Config{})
	_, err := l.Learn(weather("rainy", "yes", "no"))
	require.NoError(t, err)
	m := l.Snapshot()

	for _, format := range []Format{FormatJSON, FormatYAML} {
		t.Run(string(format), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, WriteModel(&buf, m, format))

			got, err := ReadModel(&buf, format)
			require.NoError(t, err)
			assert.Equal(t, m.Variant, got.Variant)
			assert.Equal(t, m.Labels, got.Labels)
			assert.Equal(t, m.Concepts, got.Concepts)
			assert.Equal(t, m.Rules, got.Rules)
			assert.Equal(t, m.Stats, got.Stats)
		})
	}
}

func TestModel_RuleSetPredictsLikeLearner(t *testing.T) {
	l := weatherLearner(t, Config{})
	_, err := l.Learn(weather("rainy", "yes", "no"))
	require.NoError(t, err)

	m := l.Snapshot()
	rs := m.RuleSet()
	assert.Equal(t, len(m.Rules), rs.Len())

	for _, r := range []Record{
		weather("sunny", "no", ""),
		weather("rainy", "yes", ""),
		weather("cloudy", "calm", ""),
	} {
		assert.Equal(t, l.Predict(r), rs.Predict(r))
	}
}

func TestReadModel_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"not json", "{"},
		{"missing version", `{"rules": []}`},
		{"wrong version", `{"version": "9.0"}`},
		{"unknown variant", `{"version": "1.0", "variant": "lattice"}`},
		{"rule without conditions", `{"version": "1.0", "rules": [{"label": "yes"}]}`},
		{"rule without label", `{"version": "1.0", "rules": [{"conditions": [{"attribute": "a", "value": "b"}]}]}`},
		{"dangling concept", `{"version": "1.0", "concepts": [{"extent": [0], "intent": []}],
			"rules": [{"conditions": [{"attribute": "a", "value": "b"}], "label": "yes", "concept": 3}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadModel(strings.NewReader(tt.input), FormatJSON)
			assert.Error(t, err)
		})
	}
}

func TestWriteModel_UnsupportedFormat(t *testing.T) {
	err := WriteModel(&bytes.Buffer{}, Model{}, "xml")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = ReadModel(strings.NewReader(""), "xml")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestStore_ExportImportSnapshot(t *testing.T) {
	ctx := context.Background()
	src, err := NewStore(filepath.Join(t.TempDir(), "src.db"))
	require.NoError(t, err)
	defer src.Close()
	dst, err := NewStore(filepath.Join(t.TempDir(), "dst.db"))
	require.NoError(t, err)
	defer dst.Close()

	m := weatherLearner(t, Config{}).Snapshot()
	saved, err := src.SaveSnapshot(ctx, m, "weather")
	require.NoError(t, err)

	var buf bytes.Buffer
	info, err := src.ExportSnapshot(ctx, "", &buf, FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, info.ID)

	dry, err := dst.ImportSnapshot(ctx, bytes.NewReader(buf.Bytes()), FormatYAML, "copy", true)
	require.NoError(t, err)
	assert.Empty(t, dry.ID)
	assert.Equal(t, len(m.Rules), dry.RuleCount)
	_, _, err = dst.LatestSnapshot(ctx)
	assert.ErrorIs(t, err, ErrSnapshotNotFound)

	imported, err := dst.ImportSnapshot(ctx, &buf, FormatYAML, "copy", false)
	require.NoError(t, err)
	got, _, err := dst.GetSnapshot(ctx, imported.ID)
	require.NoError(t, err)
	assert.Equal(t, m.Rules, got.Rules)
}
