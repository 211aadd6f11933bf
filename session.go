package canc

import (
	"fmt"
	"slices"
	"sync"
)

// Pending is a predicted record waiting for its true label.
type Pending struct {
	Ref        string     `json:"ref"`
	Record     Record     `json:"record"`
	Prediction Prediction `json:"prediction"`
}

// Session tracks predictions made for unlabelled records so that the label
// can be supplied later and the record learned.
type Session struct {
	mu      sync.Mutex
	pending map[string]Pending // ref (P1, P2) -> pending prediction
	order   []string
	counter int
	limit   int
}

// DefaultSessionLimit bounds the number of unresolved predictions kept.
const DefaultSessionLimit = 1000

// NewSession creates a new session tracker holding at most limit pending
// predictions. A non-positive limit uses DefaultSessionLimit.
func NewSession(limit int) *Session {
	if limit <= 0 {
		limit = DefaultSessionLimit
	}
	return &Session{
		pending: make(map[string]Pending),
		limit:   limit,
	}
}

// Track stores a prediction and returns its reference. When the session is
// full the oldest pending prediction is dropped.
func (s *Session) Track(rec Record, pred Prediction) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.counter++
	ref := fmt.Sprintf("P%d", s.counter)
	s.pending[ref] = Pending{Ref: ref, Record: rec.clone(), Prediction: pred}
	s.order = append(s.order, ref)
	s.trim()
	return ref
}

// Restore puts back a prediction taken by Resolve, under its original
// reference. A reference already pending again is left alone.
func (s *Session) Restore(p Pending) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.pending[p.Ref]; ok {
		return
	}
	s.pending[p.Ref] = p
	if !slices.Contains(s.order, p.Ref) {
		s.order = append(s.order, p.Ref)
	}
	s.trim()
}

// trim drops the oldest predictions until the session fits its limit.
func (s *Session) trim() {
	for len(s.pending) > s.limit && len(s.order) > 0 {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.pending, oldest)
	}
}

// Resolve returns the pending prediction for ref and forgets it.
func (s *Session) Resolve(ref string) (Pending, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.pending[ref]
	if ok {
		delete(s.pending, ref)
	}
	if len(s.order) > 2*s.limit {
		live := s.order[:0]
		for _, r := range s.order {
			if _, ok := s.pending[r]; ok {
				live = append(live, r)
			}
		}
		s.order = live
	}
	return p, ok
}

// Peek returns the pending prediction for ref without forgetting it.
func (s *Session) Peek(ref string) (Pending, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.pending[ref]
	return p, ok
}

// Count returns the number of pending predictions.
func (s *Session) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Clear drops every pending prediction. References keep increasing.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = make(map[string]Pending)
	s.order = nil
}
