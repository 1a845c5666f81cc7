package batch

import (
	"sort"
	"strings"

	"github.com/matzehuels/chartsnap/pkg/errors"
)

// StemSeparator joins the plan prefix and value labels into a file stem.
const StemSeparator = "-"

// Patch is a set of renderer settings to overwrite, keyed by setting name.
type Patch map[string]string

// Merge returns a new patch with q's entries layered over p's.
func (p Patch) Merge(q Patch) Patch {
	out := make(Patch, len(p)+len(q))
	for k, v := range p {
		out[k] = v
	}
	for k, v := range q {
		out[k] = v
	}
	return out
}

// Keys returns the patch's setting names in sorted order.
func (p Patch) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Value is one setting of a dimension. Label appears in file stems.
type Value struct {
	Label string
	Patch Patch
}

// Dimension is one varying axis of a plan.
type Dimension struct {
	Name   string
	Values []Value
}

// Values builds a dimension whose values set the setting name to each label.
func Values(name string, labels ...string) Dimension {
	d := Dimension{Name: name}
	for _, l := range labels {
		d.Values = append(d.Values, Value{Label: l, Patch: Patch{name: l}})
	}
	return d
}

// Coord is an item's position on one dimension.
type Coord struct {
	Dimension string
	Label     string
}

// Item is one element of a plan.
type Item struct {
	Index  int
	Stem   string
	Coords []Coord
	Patch  Patch
}

// Label returns the item's label on the named dimension.
func (it Item) Label(dimension string) (string, bool) {
	for _, c := range it.Coords {
		if c.Dimension == dimension {
			return c.Label, true
		}
	}
	return "", false
}

// Coordinates returns the item's labels keyed by dimension name.
func (it Item) Coordinates() map[string]string {
	m := make(map[string]string, len(it.Coords))
	for _, c := range it.Coords {
		m[c.Dimension] = c.Label
	}
	return m
}

// String formats the coordinates as "name=label" pairs.
func (it Item) String() string {
	parts := make([]string, len(it.Coords))
	for i, c := range it.Coords {
		parts[i] = c.Dimension + "=" + c.Label
	}
	return strings.Join(parts, " ")
}

// Plan is the cartesian product of its dimensions.
type Plan struct {
	// Prefix starts every stem, e.g. "bar".
	Prefix string

	Dimensions []Dimension

	// AssetDimension names the dimension whose value selects the overlay
	// asset. When it changes between items the orchestrator prefetches the
	// asset's processed imagery. Empty disables prefetching.
	AssetDimension string
}

// NewPlan builds and validates a plan.
func NewPlan(prefix string, dims ...Dimension) (*Plan, error) {
	p := &Plan{Prefix: prefix, Dimensions: dims}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Len returns the number of items: the product of the dimension sizes.
func (p *Plan) Len() int {
	if p == nil || len(p.Dimensions) == 0 {
		return 0
	}
	n := 1
	for _, d := range p.Dimensions {
		n *= len(d.Values)
	}
	return n
}

// Validate checks dimension names and labels, and that every item gets a
// distinct stem.
func (p *Plan) Validate() error {
	if p == nil || len(p.Dimensions) == 0 {
		return errors.New(errors.ErrCodeInvalidPlan, "plan has no dimensions")
	}
	names := make(map[string]bool, len(p.Dimensions))
	for _, d := range p.Dimensions {
		if strings.TrimSpace(d.Name) == "" {
			return errors.New(errors.ErrCodeInvalidPlan, "dimension without a name")
		}
		if names[d.Name] {
			return errors.New(errors.ErrCodeInvalidPlan, "duplicate dimension %q", d.Name)
		}
		names[d.Name] = true
		if len(d.Values) == 0 {
			return errors.New(errors.ErrCodeInvalidPlan, "dimension %q has no values", d.Name)
		}
		labels := make(map[string]bool, len(d.Values))
		for _, v := range d.Values {
			if strings.TrimSpace(v.Label) == "" {
				return errors.New(errors.ErrCodeInvalidPlan, "dimension %q has an empty label", d.Name)
			}
			if labels[v.Label] {
				return errors.New(errors.ErrCodeInvalidPlan, "dimension %q repeats label %q", d.Name, v.Label)
			}
			labels[v.Label] = true
		}
	}
	if p.AssetDimension != "" && !names[p.AssetDimension] {
		return errors.New(errors.ErrCodeInvalidPlan, "asset dimension %q is not in the plan", p.AssetDimension)
	}

	stems := make(map[string]int, p.Len())
	for i := 0; i < p.Len(); i++ {
		it := p.Item(i)
		if err := errors.ValidateStem(it.Stem); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidPlan, err, "item %d", i)
		}
		if j, dup := stems[it.Stem]; dup {
			return errors.New(errors.ErrCodeInvalidPlan, "items %d and %d share stem %q", j, i, it.Stem)
		}
		stems[it.Stem] = i
	}
	return nil
}

// Item returns the i-th item in nested order. The last dimension varies
// fastest.
func (p *Plan) Item(i int) Item {
	coords := make([]Coord, len(p.Dimensions))
	values := make([]Value, len(p.Dimensions))
	rem := i
	for d := len(p.Dimensions) - 1; d >= 0; d-- {
		dim := p.Dimensions[d]
		v := dim.Values[rem%len(dim.Values)]
		rem /= len(dim.Values)
		coords[d] = Coord{Dimension: dim.Name, Label: v.Label}
		values[d] = v
	}

	patch := Patch{}
	parts := make([]string, 0, len(values)+1)
	if p.Prefix != "" {
		parts = append(parts, p.Prefix)
	}
	for _, v := range values {
		patch = patch.Merge(v.Patch)
		parts = append(parts, v.Label)
	}
	return Item{
		Index:  i,
		Stem:   strings.Join(parts, StemSeparator),
		Coords: coords,
		Patch:  patch,
	}
}

// Items enumerates the whole plan.
func (p *Plan) Items() []Item {
	items := make([]Item, p.Len())
	for i := range items {
		items[i] = p.Item(i)
	}
	return items
}
