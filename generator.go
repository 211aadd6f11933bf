package canc

import (
	"slices"

	"github.com/cockroachdb/errors"
)

// Concept is a closed extent together with the pairs its records share.
type Concept struct {
	Extent Extent `json:"extent" yaml:"extent,flow"`
	Intent []Pair `json:"intent" yaml:"intent"`
}

func (c Concept) clone() Concept {
	return Concept{
		Extent: slices.Clone(c.Extent),
		Intent: slices.Clone(c.Intent),
	}
}

// intentKey identifies a concept by its intent.
func (c Concept) intentKey() string {
	key := ""
	for _, p := range c.Intent {
		key += p.Attribute + "\x00" + p.Value + "\x01"
	}
	return key
}

// GenerateOptions tunes a single generation pass.
type GenerateOptions struct {
	// Anchor restricts generation to the anchor's value for the most
	// informative attribute. Only variants that search every value of a
	// single attribute honour it.
	Anchor *Record
}

// Generator produces closed concepts from the records behind a ClosureEngine.
// An empty store or one without indexed attributes yields no concepts.
type Generator interface {
	Generate(e *ClosureEngine, opts GenerateOptions) []Concept
}

// generators maps each variant to its constructor.
var generators = map[Variant]func() Generator{
	VariantPertinentAllValues:         func() Generator { return pertinentAllValues{} },
	VariantPertinentRelevantValue:     func() Generator { return pertinentRelevantValue{} },
	VariantAllAttributesAllValues:     func() Generator { return allAttributesAllValues{} },
	VariantAllAttributesRelevantValue: func() Generator { return allAttributesRelevantValue{} },
}

// NewGenerator returns the generator for variant.
func NewGenerator(v Variant) (Generator, error) {
	mk, ok := generators[v]
	if !ok {
		return nil, errors.Wrapf(&ValidationError{Field: "Variant", Message: "unknown variant"}, "generator %q", v)
	}
	return mk(), nil
}

// candidate builds the concept anchored on one pair. It reports false when
// the pair's extent is empty or not closed.
func candidate(e *ClosureEngine, attr, value string) (Concept, bool) {
	ext := e.ExtensionOf(attr, value)
	if len(ext) == 0 {
		return Concept{}, false
	}
	intent := e.DescriptionOf(ext)
	if !e.ExtensionOfAll(intent).Equal(ext) {
		return Concept{}, false
	}
	return Concept{Extent: ext, Intent: intent}, true
}

// dedup collects concepts, keeping the first concept for each extent.
type dedup struct {
	seen     map[string]struct{}
	concepts []Concept
}

func (d *dedup) add(c Concept) {
	if d.seen == nil {
		d.seen = make(map[string]struct{})
	}
	k := c.Extent.key()
	if _, ok := d.seen[k]; ok {
		return
	}
	d.seen[k] = struct{}{}
	d.concepts = append(d.concepts, c)
}

type pertinentAllValues struct{}

func (pertinentAllValues) Generate(e *ClosureEngine, opts GenerateOptions) []Concept {
	attr, ok := e.MostInformativeAttribute()
	if !ok {
		return nil
	}

	if opts.Anchor != nil {
		value, ok := opts.Anchor.Value(attr)
		if !ok {
			return nil
		}
		if c, ok := candidate(e, attr, value); ok {
			return []Concept{c}
		}
		return nil
	}

	var out []Concept
	for _, value := range e.Store().Values(attr) {
		if c, ok := candidate(e, attr, value); ok {
			out = append(out, c)
		}
	}
	return out
}

type pertinentRelevantValue struct{}

func (pertinentRelevantValue) Generate(e *ClosureEngine, _ GenerateOptions) []Concept {
	attr, ok := e.MostInformativeAttribute()
	if !ok {
		return nil
	}
	value, ok := e.MostRelevantValue(attr)
	if !ok {
		return nil
	}
	if c, ok := candidate(e, attr, value); ok {
		return []Concept{c}
	}
	return nil
}

type allAttributesAllValues struct{}

func (allAttributesAllValues) Generate(e *ClosureEngine, _ GenerateOptions) []Concept {
	var d dedup
	tried := make(map[Pair]struct{})
	store := e.Store()
	for pos := range store.Len() {
		for _, p := range store.records[pos].pairs() {
			if _, ok := tried[p]; ok {
				continue
			}
			tried[p] = struct{}{}
			if c, ok := candidate(e, p.Attribute, p.Value); ok {
				d.add(c)
			}
		}
	}
	return d.concepts
}

type allAttributesRelevantValue struct{}

func (allAttributesRelevantValue) Generate(e *ClosureEngine, _ GenerateOptions) []Concept {
	var d dedup
	for _, attr := range e.Store().Attributes() {
		value, ok := e.MostRelevantValue(attr)
		if !ok {
			continue
		}
		if c, ok := candidate(e, attr, value); ok {
			d.add(c)
		}
	}
	return d.concepts
}
