package canc

import (
	"math"
	"slices"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

const (
	// rewardFactor scales the weight of a correctly classified record.
	rewardFactor = 0.5
	// penaltyFactor scales the weight of a misclassified or rejected record
	// when the store is re-evaluated after a rebuild.
	penaltyFactor = 1.5
)

// Learner is the online classifier. It accumulates records until the grace
// period is reached, builds concepts and rules once, and from then on
// predicts each record before learning it.
//
// Each call to Learn holds one lock for the whole step, so a Learner may be
// shared between goroutines.
type Learner struct {
	mu sync.Mutex

	cfg       Config
	store     *RecordStore
	engine    *ClosureEngine
	generator Generator
	extractor *Extractor
	sampler   ResamplePolicy
	logger    *zap.SugaredLogger
	metrics   *Metrics

	state    State
	concepts []Concept
	intents  map[string]struct{}
	rules    []*Rule
	labels   []string

	seen      int
	rebuilds  int
	correct   int
	incorrect int
	rejected  int
}

// NewLearner validates cfg and creates an empty learner.
func NewLearner(cfg Config) (*Learner, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	gen, err := NewGenerator(cfg.Variant)
	if err != nil {
		return nil, err
	}
	metrics, err := NewMetrics(cfg.Registerer)
	if err != nil {
		return nil, errors.Wrap(err, "register metrics")
	}

	store := NewRecordStore(cfg.WindowSize)
	return &Learner{
		cfg:       cfg,
		store:     store,
		engine:    NewClosureEngine(store, cfg.AttributeMethod, cfg.ValueMethod, cfg.Evaluator),
		generator: gen,
		extractor: &Extractor{Disjoint: cfg.DisjointRules},
		sampler:   NewResamplePolicy(cfg),
		logger:    orNop(cfg.Logger),
		metrics:   metrics,
		state:     StateAccumulating,
		intents:   make(map[string]struct{}),
	}, nil
}

// Learn processes one labelled record.
func (l *Learner) Learn(rec Record) (LearnResult, error) {
	if rec.Label == "" || rec.Label == MissingValue {
		return LearnResult{}, ErrMissingLabel
	}
	if len(rec.pairs()) == 0 {
		return LearnResult{}, ErrEmptyRecord
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.seen++
	var res LearnResult
	if l.state == StateAccumulating {
		res = l.accumulate(rec)
	} else {
		res = l.step(rec)
	}

	l.metrics.observeRecord(res.Outcome)
	l.metrics.setModel(l.store.Len(), len(l.concepts), len(l.rules))
	if l.cfg.Debug {
		l.assertInvariants()
	}
	return res, nil
}

func (l *Learner) accumulate(rec Record) LearnResult {
	rec.Weight = 1 / float64(l.cfg.GracePeriod)
	pos, evicted := l.add(rec)
	res := LearnResult{Position: pos, State: StateAccumulating, Evicted: evicted}

	if l.seen >= l.cfg.GracePeriod {
		l.build()
		l.state = StateReady
		res.State = StateReady
		res.Built = true
	}
	return res
}

func (l *Learner) step(rec Record) LearnResult {
	pred := l.predict(rec)

	rec.Weight = 1
	pos, evicted := l.add(rec)
	res := LearnResult{Position: pos, State: StateReady, Prediction: &pred, Evicted: evicted}

	switch {
	case pred.Rejected:
		res.Outcome = OutcomeRejected
		l.rejected++
		l.rebuild(rec)
		res.Rebuilt = true
	case pred.Label == rec.Label:
		res.Outcome = OutcomeCorrect
		l.correct++
		l.store.SetWeight(pos, l.store.Weight(pos)*rewardFactor)
		res.Touched = l.extend(rec, pos)
	default:
		res.Outcome = OutcomeIncorrect
		l.incorrect++
		l.logger.Debugw("misclassified", "position", pos, "label", rec.Label, "predicted", pred.Label)
		res.Touched = l.extend(rec, pos)
	}
	return res
}

// add stores rec and keeps concepts and rule counts consistent when the
// window evicts the oldest record.
func (l *Learner) add(rec Record) (int, bool) {
	var oldest Record
	full := l.cfg.WindowSize > 0 && l.store.Len() >= l.cfg.WindowSize
	if full {
		oldest = l.store.Record(0)
	}

	pos, evicted := l.store.Add(rec)
	if evicted {
		for i := range l.concepts {
			l.concepts[i].Extent = l.concepts[i].Extent.Shift()
		}
		l.extractor.RetractRecord(l.rules, oldest, l.store.Len())
	}
	if _, ok := slices.BinarySearch(l.labels, rec.Label); !ok {
		l.labels = append(l.labels, rec.Label)
		slices.Sort(l.labels)
	}
	return pos, evicted
}

// extend is the bounded-cost path: it grows matching concepts and rules
// with one record.
func (l *Learner) extend(rec Record, pos int) int {
	up := l.extractor.ExtendWithRecord(l.concepts, l.rules, rec, pos, l.store.Len())
	l.metrics.observeExtend(up.Count())
	return up.Count()
}

// build generates the first model from the whole store.
func (l *Learner) build() {
	start := time.Now()

	concepts := l.generator.Generate(l.engine, GenerateOptions{})
	added := l.merge(concepts, nil)
	l.extractor.CalculateRuleMetrics(l.rules, l.store)
	l.store.NormalizeWeights()

	l.metrics.observeBuild("initial", time.Since(start))
	l.logger.Infow("model built",
		"records", l.store.Len(),
		"concepts", added,
		"rules", len(l.rules),
		"duration", time.Since(start))
}

// rebuild is the full-cost path run after a rejection. It regenerates
// concepts on a resampled arena, merges them, and re-weights the store.
func (l *Learner) rebuild(anchor Record) {
	start := time.Now()

	selected := l.sampler.Select(l.store)
	arena := l.store.Subset(selected)
	engine := NewClosureEngine(arena, l.cfg.AttributeMethod, l.cfg.ValueMethod, l.cfg.Evaluator)
	concepts := l.generator.Generate(engine, GenerateOptions{Anchor: &anchor})
	added := l.merge(concepts, selected)

	for local, global := range selected {
		l.store.SetWeight(global, arena.Weight(local))
	}
	l.extractor.CalculateRuleMetrics(l.rules, l.store)
	l.reevaluate()
	l.store.NormalizeWeights()

	l.rebuilds++
	l.metrics.observeBuild("rejection", time.Since(start))
	l.logger.Debugw("model rebuilt",
		"sample", len(selected),
		"concepts_added", added,
		"concepts", len(l.concepts),
		"rules", len(l.rules),
		"duration", time.Since(start))
}

// merge appends new concepts and their rules to the model. When table is
// non-nil the concept extents are arena positions and are translated to
// store positions first. Concepts whose intent is already known are
// skipped. It returns the number of concepts added.
func (l *Learner) merge(concepts []Concept, table []int) int {
	added := 0
	for _, c := range concepts {
		if table != nil {
			c.Extent = c.Extent.Translate(table)
		}
		key := c.intentKey()
		if _, ok := l.intents[key]; ok {
			continue
		}
		l.intents[key] = struct{}{}

		idx := len(l.concepts)
		l.concepts = append(l.concepts, c)
		l.rules = append(l.rules, l.extractor.ExtractRules([]Concept{c}, idx, l.store)...)
		added++
	}
	return added
}

// reevaluate predicts every stored record against the current rules and
// scales its weight by the reward or penalty factor.
func (l *Learner) reevaluate() {
	for pos := range l.store.Len() {
		rec := l.store.records[pos]
		pred := Vote(l.rules, rec, l.labels)
		factor := penaltyFactor
		if !pred.Rejected && pred.Label == rec.Label {
			factor = rewardFactor
		}
		l.store.SetWeight(pos, rec.Weight*factor)
	}
}

// Predict scores rec without learning it.
func (l *Learner) Predict(rec Record) Prediction {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.predict(rec)
}

func (l *Learner) predict(rec Record) Prediction {
	return Vote(l.rules, rec, l.labels)
}

// State returns the learner's lifecycle state.
func (l *Learner) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Config returns the effective configuration.
func (l *Learner) Config() Config {
	return l.cfg
}

// Rules returns a copy of the rule list.
func (l *Learner) Rules() []Rule {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Rule, len(l.rules))
	for i, r := range l.rules {
		out[i] = *r.clone()
	}
	return out
}

// Concepts returns a copy of the concept list.
func (l *Learner) Concepts() []Concept {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Concept, len(l.concepts))
	for i, c := range l.concepts {
		out[i] = c.clone()
	}
	return out
}

// Weights returns the current weight of every stored record by position.
func (l *Learner) Weights() []float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]float64, l.store.Len())
	for pos := range out {
		out[pos] = l.store.Weight(pos)
	}
	return out
}

// Stats returns the learner's measurements.
func (l *Learner) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stats()
}

func (l *Learner) stats() Stats {
	return Stats{
		State:        l.state,
		Variant:      l.cfg.Variant,
		RecordsSeen:  l.seen,
		StoreSize:    l.store.Len(),
		ConceptCount: len(l.concepts),
		RuleCount:    len(l.rules),
		Rebuilds:     l.rebuilds,
		Correct:      l.correct,
		Incorrect:    l.incorrect,
		Rejected:     l.rejected,
	}
}

// assertInvariants logs any broken structural invariant. It indicates a bug,
// never a data problem.
func (l *Learner) assertInvariants() {
	if p, ok := l.store.checkIndex(); !ok {
		l.logger.Errorw("index inconsistent with records", "attribute", p.Attribute, "value", p.Value)
	}
	n := l.store.Len()
	for i, c := range l.concepts {
		if len(c.Extent) > 0 && (c.Extent[0] < 0 || c.Extent[len(c.Extent)-1] >= n) {
			l.logger.Errorw("concept extent out of range", "concept", i, "store", n)
		}
	}
	if total := l.store.TotalWeight(); math.IsNaN(total) || math.IsInf(total, 0) {
		l.logger.Errorw("record weights are not finite", "total", total)
	}
}
