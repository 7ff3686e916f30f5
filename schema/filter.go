package schema

// Comparator is the closed set of filter comparisons and functions.
type Comparator string

const (
	CmpEQ          Comparator = "eq"
	CmpNE          Comparator = "ne"
	CmpLT          Comparator = "lt"
	CmpLTE         Comparator = "lte"
	CmpGT          Comparator = "gt"
	CmpGTE         Comparator = "gte"
	CmpBetween     Comparator = "between"
	CmpIn          Comparator = "in"
	CmpContains    Comparator = "contains"
	CmpBeginsWith  Comparator = "begins_with"
	CmpExists      Comparator = "exists"
	CmpNotExists   Comparator = "not_exists"
)

var comparators = []Comparator{
	CmpEQ, CmpNE, CmpLT, CmpLTE, CmpGT, CmpGTE,
	CmpBetween, CmpIn, CmpContains, CmpBeginsWith, CmpExists, CmpNotExists,
}

// Valid reports whether c is a member of the closed set.
func (c Comparator) Valid() bool {
	for _, v := range comparators {
		if c == v {
			return true
		}
	}
	return false
}

// Operands returns the parameter arity of the comparator: (min, max).
// max < 0 means unbounded (the "in" function takes one or more parameters).
func (c Comparator) Operands() (min, max int) {
	switch c {
	case CmpBetween:
		return 2, 2
	case CmpIn:
		return 1, -1
	case CmpExists, CmpNotExists:
		return 0, 0
	default:
		return 1, 1
	}
}

// String returns the comparator name.
func (c Comparator) String() string { return string(c) }

// Comparators returns the valid comparator names in stable order.
func Comparators() []string { return names(comparators) }

// Combinator is the logical connective joining filter conditions.
type Combinator string

const (
	CombineAnd Combinator = "and"
	CombineOr  Combinator = "or"
)

var combinators = []Combinator{CombineAnd, CombineOr}

// Valid reports whether c is a member of the closed set.
func (c Combinator) Valid() bool {
	return c == CombineAnd || c == CombineOr
}

// String returns the combinator name.
func (c Combinator) String() string { return string(c) }

// Combinators returns the valid combinator names in stable order.
func Combinators() []string { return names(combinators) }
