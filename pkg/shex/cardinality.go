package shex

import "fmt"

// Cardinality is the resolved min/max pair of a triple expression.
type Cardinality struct {
	Min int
	Max int
}

func newCardinality(lo, hi *int) Cardinality {
	c := Cardinality{Min: 1, Max: 1}
	if lo != nil {
		c.Min = *lo
	}
	if hi != nil {
		c.Max = *hi
	}
	return c
}

// Cardinality returns the constraint's bounds, defaulting absent values to 1.
func (tc *TripleConstraint) Cardinality() Cardinality {
	return newCardinality(tc.Min, tc.Max)
}

// Cardinality returns the group's bounds, defaulting absent values to 1.
func (e *EachOf) Cardinality() Cardinality {
	return newCardinality(e.Min, e.Max)
}

// Cardinality returns the group's bounds, defaulting absent values to 1.
func (o *OneOf) Cardinality() Cardinality {
	return newCardinality(o.Min, o.Max)
}

// ExactlyOne reports the {1,1} cardinality.
func (c Cardinality) ExactlyOne() bool {
	return c.Min == 1 && c.Max == 1
}

// Optional reports the {0,1} cardinality.
func (c Cardinality) Optional() bool {
	return c.Min == 0 && c.Max == 1
}

// Repeated reports every cardinality that is neither exactly-one nor optional.
func (c Cardinality) Repeated() bool {
	return !c.ExactlyOne() && !c.Optional()
}

// AllowsMore reports whether another element may be added to count existing ones.
func (c Cardinality) AllowsMore(count int) bool {
	return c.Max == Unbounded || count < c.Max
}

// Validate rejects negative minimums and maximums below the minimum.
func (c Cardinality) Validate() error {
	if c.Min < 0 {
		return fmt.Errorf("shex: negative min cardinality %d", c.Min)
	}
	if c.Max != Unbounded && (c.Max < 0 || c.Max < c.Min) {
		return fmt.Errorf("shex: max cardinality %d below min %d", c.Max, c.Min)
	}
	return nil
}

func (c Cardinality) String() string {
	switch {
	case c.ExactlyOne():
		return "{1}"
	case c.Optional():
		return "?"
	case c.Min == 0 && c.Max == Unbounded:
		return "*"
	case c.Min == 1 && c.Max == Unbounded:
		return "+"
	case c.Max == Unbounded:
		return fmt.Sprintf("{%d,*}", c.Min)
	}
	return fmt.Sprintf("{%d,%d}", c.Min, c.Max)
}
