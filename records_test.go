package canc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordStore_AddAssignsSequentialPositions(t *testing.T) {
	s := NewRecordStore(0)
	for i, r := range []Record{weather("sunny", "no", "no"), weather("rainy", "yes", "yes")} {
		pos, evicted := s.Add(r)
		assert.Equal(t, i, pos)
		assert.False(t, evicted)
	}
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, "yes", s.ClassLabel(1))
}

func TestRecordStore_LookupAbsentIsEmpty(t *testing.T) {
	s := weatherStore()

	assert.Empty(t, s.Lookup("humidity", "high"))
	assert.Empty(t, s.Lookup("sky", "cloudy"))
	assert.Equal(t, Extent{0, 2}, s.Lookup("sky", "sunny"))
}

func TestRecordStore_LookupReturnsCopy(t *testing.T) {
	s := weatherStore()
	ext := s.Lookup("sky", "sunny")
	ext[0] = 99

	assert.Equal(t, Extent{0, 2}, s.Lookup("sky", "sunny"))
}

func TestRecordStore_MissingValuesAreNotIndexed(t *testing.T) {
	s := NewRecordStore(0)
	s.Add(weather("sunny", MissingValue, "no"))

	assert.Equal(t, []string{"sky"}, s.Attributes())
	assert.Empty(t, s.Lookup("wind", MissingValue))
}

// ============================================================================
// Eviction
// ============================================================================

func TestRecordStore_WindowEvictionKeepsIndexConsistent(t *testing.T) {
	s := NewRecordStore(3)
	stream := []Record{
		weather("sunny", "no", "no"),
		weather("rainy", "no", "yes"),
		weather("sunny", "yes", "yes"),
		weather("cloudy", "yes", "yes"),
		weather("rainy", "calm", "no"),
	}

	for i, r := range stream {
		pos, evicted := s.Add(r)
		assert.Equal(t, i >= 3, evicted, "record %d", i)
		assert.Equal(t, min(i, 2), pos, "record %d", i)

		for _, attr := range []string{"sky", "wind"} {
			for _, value := range []string{"sunny", "rainy", "cloudy", "no", "yes", "calm"} {
				assert.Equal(t, bruteLookup(s, attr, value), append(Extent{}, s.Lookup(attr, value)...),
					"after record %d: lookup(%s, %s)", i, attr, value)
			}
		}
		_, ok := s.checkIndex()
		assert.True(t, ok, "after record %d", i)
	}

	assert.Equal(t, []string{"cloudy", "rainy", "sunny"}, s.Values("sky"))
	assert.Equal(t, []string{"calm", "yes"}, s.Values("wind"), "empty buckets are dropped")
}

// ============================================================================
// Weights
// ============================================================================

func TestRecordStore_NormalizeWeightsSumsToOne(t *testing.T) {
	for _, n := range []int{1, 2, 7, 100} {
		s := NewRecordStore(0)
		for i := range n {
			r := weather("sunny", "no", "no")
			r.Weight = float64(i%5) + 0.5
			s.Add(r)
		}

		s.NormalizeWeights()
		assert.InDelta(t, 1.0, s.TotalWeight(), 1e-9, "n=%d", n)
	}
}

func TestRecordStore_NormalizeWeightsLeavesZeroTotal(t *testing.T) {
	s := NewRecordStore(0)
	s.Add(weather("sunny", "no", "no"))

	s.NormalizeWeights()
	assert.Zero(t, s.Weight(0))
}

func TestRecordStore_SetWeightClampsNegative(t *testing.T) {
	s := weatherStore()
	s.SetWeight(1, -2)
	assert.Zero(t, s.Weight(1))
}

func TestRecordStore_Subset(t *testing.T) {
	s := weatherStore()
	s.SetWeight(2, 0.9)

	arena := s.Subset([]int{2, 0})
	require.Equal(t, 2, arena.Len())
	assert.Equal(t, "yes", arena.ClassLabel(0))
	assert.Equal(t, 0.9, arena.Weight(0))
	assert.Equal(t, Extent{0, 1}, arena.Lookup("sky", "sunny"))

	arena.SetWeight(0, 0.1)
	assert.Equal(t, 0.9, s.Weight(2), "arena is independent of the store")
}

type hostRow struct {
	names  []string
	values map[string]string
	class  string
	weight float64
}

func (h *hostRow) AttributeNames() []string { return h.names }
func (h *hostRow) Value(name string) string  { return h.values[name] }
func (h *hostRow) ClassLabel() string        { return h.class }
func (h *hostRow) Weight() float64           { return h.weight }
func (h *hostRow) SetWeight(w float64)       { h.weight = w }

type plainRow struct{ hostRow }

func (p plainRow) AttributeNames() []string { return p.names }
func (p plainRow) Value(name string) string { return p.values[name] }
func (p plainRow) ClassLabel() string       { return p.class }

func TestFromInstance(t *testing.T) {
	row := &hostRow{
		names:  []string{"wind", "sky"},
		values: map[string]string{"sky": "rainy", "wind": MissingValue},
		class:  "yes",
		weight: 0.25,
	}

	rec := FromInstance(row)
	assert.Equal(t, "yes", rec.Label)
	assert.Equal(t, 0.25, rec.Weight)
	require.Len(t, rec.Attrs, 2)
	assert.Equal(t, Pair{Attribute: "wind", Value: MissingValue}, rec.Attrs[0])

	s := NewRecordStore(0)
	s.Add(rec)
	assert.Empty(t, s.Lookup("wind", MissingValue))
	assert.Equal(t, Extent{0}, s.Lookup("sky", "rainy"))

	plain := FromInstance(plainRow{hostRow{names: []string{"sky"}, values: map[string]string{"sky": "sunny"}, class: "no"}})
	assert.Zero(t, plain.Weight)
	assert.Equal(t, "no", plain.Label)
}
