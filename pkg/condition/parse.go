package condition

import (
	"errors"
	"fmt"
	"strings"

	"github.com/expr-lang/expr"

	"github.com/getmockd/faultmock/pkg/value"
)

// Logical keys.
const (
	KeyAnd  = "$and"
	KeyOr   = "$or"
	KeyNot  = "$not"
	KeyExpr = "$expr"
)

// ErrInvalidCondition is wrapped by every Parse error.
var ErrInvalidCondition = errors.New("invalid condition")

// Parse builds a Node from a decoded `when` value.
//
// Objects whose only key starts with "$" are logical nodes; any other object
// is a field map. A field value that is an object made only of operator names
// is an operator set, any other value is a literal.
func Parse(v value.Value) (Node, error) {
	n, err := parse(v, "when")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCondition, err)
	}
	return n, nil
}

// MustParse is Parse for static trees. It panics on error.
func MustParse(v value.Value) Node {
	n, err := Parse(v)
	if err != nil {
		panic(err)
	}
	return n
}

func parse(v value.Value, at string) (Node, error) {
	fields, ok := v.AsObject()
	if !ok {
		return nil, fmt.Errorf("%s: expected object, got %s", at, v.Kind())
	}

	var logical []string
	for _, k := range v.Keys() {
		if strings.HasPrefix(k, "$") {
			logical = append(logical, k)
		}
	}
	if len(logical) == 0 {
		return parseFieldMap(v, at)
	}
	if len(fields) != 1 {
		return nil, fmt.Errorf("%s: logical key %s must be the only key in its object", at, logical[0])
	}

	key := logical[0]
	arg := fields[key]
	at = at + "." + key
	switch key {
	case KeyAnd, KeyOr:
		items, ok := arg.AsList()
		if !ok {
			return nil, fmt.Errorf("%s: expected list, got %s", at, arg.Kind())
		}
		children := make([]Node, len(items))
		for i, item := range items {
			child, err := parse(item, fmt.Sprintf("%s[%d]", at, i))
			if err != nil {
				return nil, err
			}
			children[i] = child
		}
		if key == KeyAnd {
			return AndNode{Children: children}, nil
		}
		return OrNode{Children: children}, nil
	case KeyNot:
		child, err := parse(arg, at)
		if err != nil {
			return nil, err
		}
		return NotNode{Child: child}, nil
	case KeyExpr:
		src, ok := arg.AsString()
		if !ok || strings.TrimSpace(src) == "" {
			return nil, fmt.Errorf("%s: expected non-empty expression string", at)
		}
		program, err := expr.Compile(src, expr.AllowUndefinedVariables())
		if err != nil {
			return nil, fmt.Errorf("%s: %w", at, err)
		}
		return ExprNode{Source: src, program: program}, nil
	default:
		return nil, fmt.Errorf("%s: unknown logical operator", at)
	}
}

func parseFieldMap(v value.Value, at string) (Node, error) {
	keys := v.Keys()
	node := FieldMapNode{Fields: make([]FieldCondition, 0, len(keys))}
	for _, path := range keys {
		raw, _ := v.Field(path)
		m, err := parseMatcher(raw, at+"."+path)
		if err != nil {
			return nil, err
		}
		node.Fields = append(node.Fields, FieldCondition{Path: path, Matcher: m})
	}
	return node, nil
}

func parseMatcher(raw value.Value, at string) (Matcher, error) {
	fields, ok := raw.AsObject()
	if !ok || len(fields) == 0 {
		return Literal{Want: raw}, nil
	}

	var ops, other []string
	for _, k := range raw.Keys() {
		if IsOperator(k) {
			ops = append(ops, k)
		} else {
			other = append(other, k)
		}
	}
	if len(ops) == 0 {
		return Literal{Want: raw}, nil
	}
	if len(other) > 0 {
		return nil, fmt.Errorf("%s: unknown operator %q", at, other[0])
	}

	out := make(Operators, 0, len(ops))
	for _, name := range ops {
		arg := fields[name]
		if err := checkOperand(Op(name), arg); err != nil {
			return nil, fmt.Errorf("%s.%s: %w", at, name, err)
		}
		out = append(out, Operand{Op: Op(name), Arg: arg})
	}
	return out, nil
}

func checkOperand(op Op, arg value.Value) error {
	switch op {
	case OpExists:
		if _, ok := arg.AsBool(); !ok {
			return fmt.Errorf("expected boolean, got %s", arg.Kind())
		}
	case OpGreaterThan, OpLessThan:
		if _, ok := arg.AsNumber(); !ok {
			return fmt.Errorf("expected number, got %s", arg.Kind())
		}
	case OpIn:
		if _, ok := arg.AsList(); !ok {
			return fmt.Errorf("expected list, got %s", arg.Kind())
		}
	case OpContains, OpStartsWith, OpEndsWith:
		switch arg.Kind() {
		case value.KindList, value.KindObject:
			return fmt.Errorf("expected scalar, got %s", arg.Kind())
		}
	}
	return nil
}
