package canc

import (
	"slices"
	"strconv"
	"strings"
)

// Extent is a sorted set of record positions.
type Extent []int

// NewExtent builds an extent from positions in any order.
func NewExtent(positions ...int) Extent {
	e := Extent(slices.Clone(positions))
	slices.Sort(e)
	return slices.Compact(e)
}

// Contains reports whether pos is in the extent.
func (e Extent) Contains(pos int) bool {
	_, ok := slices.BinarySearch(e, pos)
	return ok
}

// Equal reports whether both extents hold the same positions.
func (e Extent) Equal(other Extent) bool {
	return slices.Equal(e, other)
}

// SubsetOf reports whether every position of e is in other.
func (e Extent) SubsetOf(other Extent) bool {
	j := 0
	for _, p := range e {
		for j < len(other) && other[j] < p {
			j++
		}
		if j == len(other) || other[j] != p {
			return false
		}
	}
	return true
}

// Intersect returns the positions present in both extents.
func (e Extent) Intersect(other Extent) Extent {
	out := make(Extent, 0, min(len(e), len(other)))
	i, j := 0, 0
	for i < len(e) && j < len(other) {
		switch {
		case e[i] < other[j]:
			i++
		case e[i] > other[j]:
			j++
		default:
			out = append(out, e[i])
			i++
			j++
		}
	}
	return out
}

// Insert returns the extent with pos added.
func (e Extent) Insert(pos int) Extent {
	i, ok := slices.BinarySearch(e, pos)
	if ok {
		return e
	}
	return slices.Insert(e, i, pos)
}

// Shift drops position 0 and decrements every other position.
func (e Extent) Shift() Extent {
	out := e[:0]
	for _, p := range e {
		if p == 0 {
			continue
		}
		out = append(out, p-1)
	}
	return out
}

// Translate maps local arena positions to global positions.
func (e Extent) Translate(table []int) Extent {
	out := make(Extent, 0, len(e))
	for _, p := range e {
		out = append(out, table[p])
	}
	slices.Sort(out)
	return out
}

// key identifies an extent for deduplication.
func (e Extent) key() string {
	var b strings.Builder
	for i, p := range e {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(p))
	}
	return b.String()
}
