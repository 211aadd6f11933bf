package canc

import (
	"slices"
)

// RecordStore owns the ordered records, their weights, and the inverted
// index from attribute/value pairs to positions.
//
// The index always reflects the current record sequence. When a window is
// configured and the store is full, adding a record evicts position 0 and
// every remaining position shifts down by one; positions held by callers
// before the eviction are stale.
//
// RecordStore is not safe for concurrent use. The Learner serializes access.
type RecordStore struct {
	records []Record
	index   map[string]map[string]Extent
	window  int
}

// NewRecordStore creates an empty store. A window of zero keeps every record.
func NewRecordStore(window int) *RecordStore {
	return &RecordStore{
		index:  make(map[string]map[string]Extent),
		window: window,
	}
}

// Add appends a record and indexes its values. It returns the record's
// position and whether the oldest record was evicted to make room.
func (s *RecordStore) Add(rec Record) (int, bool) {
	evicted := false
	if s.window > 0 && len(s.records) >= s.window {
		s.evict()
		evicted = true
	}

	pos := len(s.records)
	s.records = append(s.records, rec.clone())
	for _, p := range rec.pairs() {
		s.indexPair(p, pos)
	}
	return pos, evicted
}

func (s *RecordStore) indexPair(p Pair, pos int) {
	values, ok := s.index[p.Attribute]
	if !ok {
		values = make(map[string]Extent)
		s.index[p.Attribute] = values
	}
	values[p.Value] = values[p.Value].Insert(pos)
}

// evict removes position 0 and re-indexes every bucket.
func (s *RecordStore) evict() {
	s.records = slices.Delete(s.records, 0, 1)
	for attr, values := range s.index {
		for value, ext := range values {
			shifted := ext.Shift()
			if len(shifted) == 0 {
				delete(values, value)
				continue
			}
			values[value] = shifted
		}
		if len(values) == 0 {
			delete(s.index, attr)
		}
	}
}

// Len returns the number of stored records.
func (s *RecordStore) Len() int {
	return len(s.records)
}

// Record returns a copy of the record at pos.
func (s *RecordStore) Record(pos int) Record {
	return s.records[pos].clone()
}

// Lookup returns the positions whose record has value for attr. Unknown
// attributes or values yield an empty extent.
func (s *RecordStore) Lookup(attr, value string) Extent {
	return slices.Clone(s.index[attr][value])
}

// All returns every position in the store.
func (s *RecordStore) All() Extent {
	all := make(Extent, len(s.records))
	for i := range all {
		all[i] = i
	}
	return all
}

// Weight returns the weight of the record at pos.
func (s *RecordStore) Weight(pos int) float64 {
	return s.records[pos].Weight
}

// SetWeight replaces the weight of the record at pos. Negative weights are
// clamped to zero.
func (s *RecordStore) SetWeight(pos int, w float64) {
	s.records[pos].Weight = max(w, 0)
}

// TotalWeight returns the sum of all weights.
func (s *RecordStore) TotalWeight() float64 {
	total := 0.0
	for _, r := range s.records {
		total += r.Weight
	}
	return total
}

// NormalizeWeights rescales the weights so they sum to 1. A store whose
// weights sum to zero is left unchanged.
func (s *RecordStore) NormalizeWeights() {
	total := s.TotalWeight()
	if total <= 0 {
		return
	}
	for i := range s.records {
		s.records[i].Weight /= total
	}
}

// ClassLabel returns the label of the record at pos.
func (s *RecordStore) ClassLabel(pos int) string {
	return s.records[pos].Label
}

// Attributes returns the indexed attribute names in lexical order.
func (s *RecordStore) Attributes() []string {
	names := make([]string, 0, len(s.index))
	for name := range s.index {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Values returns the indexed values of attr in lexical order.
func (s *RecordStore) Values(attr string) []string {
	values := make([]string, 0, len(s.index[attr]))
	for v := range s.index[attr] {
		values = append(values, v)
	}
	slices.Sort(values)
	return values
}

// Labels returns the distinct class labels in lexical order.
func (s *RecordStore) Labels() []string {
	seen := make(map[string]struct{})
	labels := make([]string, 0)
	for _, r := range s.records {
		if _, ok := seen[r.Label]; ok {
			continue
		}
		seen[r.Label] = struct{}{}
		labels = append(labels, r.Label)
	}
	slices.Sort(labels)
	return labels
}

// Subset copies the records at positions into a new, unwindowed store. The
// record at positions[i] becomes local position i, so positions doubles as
// the local-to-global translation table.
func (s *RecordStore) Subset(positions []int) *RecordStore {
	arena := NewRecordStore(0)
	for _, pos := range positions {
		arena.Add(s.records[pos])
	}
	return arena
}

// checkIndex verifies that the index matches the record sequence. It
// returns the first inconsistent pair, if any.
func (s *RecordStore) checkIndex() (Pair, bool) {
	expected := NewRecordStore(0)
	for _, r := range s.records {
		expected.Add(r)
	}
	for attr, values := range expected.index {
		for value, ext := range values {
			if !s.index[attr][value].Equal(ext) {
				return Pair{Attribute: attr, Value: value}, false
			}
		}
	}
	for attr, values := range s.index {
		for value := range values {
			if _, ok := expected.index[attr][value]; !ok {
				return Pair{Attribute: attr, Value: value}, false
			}
		}
	}
	return Pair{}, true
}
