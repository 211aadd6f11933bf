package canc

import (
	"cmp"
	"math/rand/v2"
	"slices"
)

// ResamplePolicy chooses which stored records form the rebuild arena after
// a rejection. Select returns positions ordered by descending weight.
type ResamplePolicy interface {
	Select(store *RecordStore) []int
}

// NewResamplePolicy builds the policy configured in cfg.
func NewResamplePolicy(cfg Config) ResamplePolicy {
	if cfg.Resample == ResampleRandomFraction {
		var rng *rand.Rand
		if cfg.Seed != 0 {
			rng = rand.New(rand.NewPCG(cfg.Seed, cfg.Seed))
		}
		return &RandomFraction{Fraction: cfg.SampleFraction, Rand: rng}
	}
	return TopK{K: cfg.SampleSize}
}

// rankByWeight returns every position, heaviest first. Equal weights keep
// position order.
func rankByWeight(store *RecordStore) []int {
	ranked := store.All()
	slices.SortStableFunc(ranked, func(a, b int) int {
		return cmp.Compare(store.Weight(b), store.Weight(a))
	})
	return ranked
}

// TopK keeps the K heaviest records.
type TopK struct {
	K int
}

func (p TopK) Select(store *RecordStore) []int {
	ranked := rankByWeight(store)
	return ranked[:min(p.K, len(ranked))]
}

// RandomFraction keeps the heaviest share of the records, at least one.
// A zero Fraction draws the share uniformly from [0, 1) at every call.
type RandomFraction struct {
	Fraction float64
	Rand     *rand.Rand
}

func (p *RandomFraction) Select(store *RecordStore) []int {
	ranked := rankByWeight(store)
	if len(ranked) == 0 {
		return ranked
	}

	ratio := p.Fraction
	if ratio <= 0 {
		if p.Rand != nil {
			ratio = p.Rand.Float64()
		} else {
			ratio = rand.Float64()
		}
	}
	keep := max(1, int(float64(len(ranked))*ratio))
	return ranked[:min(keep, len(ranked))]
}
