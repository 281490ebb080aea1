package condition

import (
	"strings"

	"github.com/getmockd/faultmock/pkg/value"
)

// Op names a field operator.
type Op string

// Field operators.
const (
	OpExists      Op = "exists"
	OpNot         Op = "not"
	OpContains    Op = "contains"
	OpStartsWith  Op = "startsWith"
	OpEndsWith    Op = "endsWith"
	OpGreaterThan Op = "greaterThan"
	OpLessThan    Op = "lessThan"
	OpIn          Op = "in"
)

var knownOps = map[Op]bool{
	OpExists:      true,
	OpNot:         true,
	OpContains:    true,
	OpStartsWith:  true,
	OpEndsWith:    true,
	OpGreaterThan: true,
	OpLessThan:    true,
	OpIn:          true,
}

// IsOperator reports whether name is a known field operator.
func IsOperator(name string) bool {
	return knownOps[Op(name)]
}

// Operand is one operator with its argument.
type Operand struct {
	Op  Op
	Arg value.Value
}

// Operators matches when every operand holds.
type Operators []Operand

// Match implements Matcher.
func (ops Operators) Match(v value.Value, present bool) bool {
	for _, o := range ops {
		if !o.holds(v, present) {
			return false
		}
	}
	return true
}

func (o Operand) holds(v value.Value, present bool) bool {
	switch o.Op {
	case OpExists:
		want, ok := o.Arg.AsBool()
		if !ok {
			return false
		}
		return (present && v.Present()) == want
	case OpNot:
		return !present || !o.Arg.Equal(v)
	case OpContains, OpStartsWith, OpEndsWith:
		s, ok := v.AsString()
		if !present || !ok {
			return false
		}
		arg := o.Arg.Text()
		switch o.Op {
		case OpContains:
			return strings.Contains(s, arg)
		case OpStartsWith:
			return strings.HasPrefix(s, arg)
		default:
			return strings.HasSuffix(s, arg)
		}
	case OpGreaterThan, OpLessThan:
		n, ok := v.AsNumber()
		if !present || !ok {
			return false
		}
		limit, ok := o.Arg.AsNumber()
		if !ok {
			return false
		}
		if o.Op == OpGreaterThan {
			return n > limit
		}
		return n < limit
	case OpIn:
		if !present {
			return false
		}
		items, ok := o.Arg.AsList()
		if !ok {
			return false
		}
		for _, item := range items {
			if item.Equal(v) {
				return true
			}
		}
		return false
	default:
		return false
	}
}
