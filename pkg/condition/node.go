// Package condition evaluates the boolean `when` trees attached to route
// conditions.
//
// A tree is built once, when a route document is loaded, by Parse. The result
// is a Node: one of AndNode, OrNode, NotNode, FieldMapNode or ExprNode.
// Evaluate walks the tree against a request snapshot. Evaluation never fails:
// missing fields and type mismatches make the affected comparison false.
//
//	{"$or": [
//	    {"query.status": "active"},
//	    {"headers.x-role": {"in": ["admin", "owner"]}}
//	]}
package condition

import (
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/getmockd/faultmock/pkg/request"
	"github.com/getmockd/faultmock/pkg/value"
)

// Node is a parsed condition tree node.
type Node interface {
	node()
}

// AndNode is true when every child is true.
type AndNode struct {
	Children []Node
}

// OrNode is true when any child is true.
type OrNode struct {
	Children []Node
}

// NotNode negates its child.
type NotNode struct {
	Child Node
}

// FieldMapNode is an implicit AND over field conditions. An empty map is true.
type FieldMapNode struct {
	Fields []FieldCondition
}

// ExprNode evaluates an expr-lang expression with params, query, body and
// headers in scope. Anything other than a boolean true result is false.
type ExprNode struct {
	Source  string
	program *vm.Program
}

func (AndNode) node()      {}
func (OrNode) node()       {}
func (NotNode) node()      {}
func (FieldMapNode) node() {}
func (ExprNode) node()     {}

// FieldCondition compares the value at a dotted request path.
type FieldCondition struct {
	Path    string
	Matcher Matcher
}

// Matcher decides whether a resolved field satisfies a condition. present is
// false when the path did not resolve.
type Matcher interface {
	Match(v value.Value, present bool) bool
}

// Literal matches by strict equality.
type Literal struct {
	Want value.Value
}

// Match implements Matcher.
func (l Literal) Match(v value.Value, present bool) bool {
	return present && l.Want.Equal(v)
}

// Evaluate reports whether node holds for the request.
func Evaluate(node Node, ctx *request.Context) bool {
	switch n := node.(type) {
	case nil:
		return true
	case AndNode:
		for _, child := range n.Children {
			if !Evaluate(child, ctx) {
				return false
			}
		}
		return true
	case OrNode:
		for _, child := range n.Children {
			if Evaluate(child, ctx) {
				return true
			}
		}
		return false
	case NotNode:
		return !Evaluate(n.Child, ctx)
	case FieldMapNode:
		for _, f := range n.Fields {
			v, ok := ctx.Resolve(f.Path)
			if !f.Matcher.Match(v, ok) {
				return false
			}
		}
		return true
	case ExprNode:
		return n.eval(ctx)
	default:
		return false
	}
}

func (n ExprNode) eval(ctx *request.Context) bool {
	if n.program == nil || ctx == nil {
		return false
	}
	env, _ := ctx.Root().Any().(map[string]any)
	out, err := expr.Run(n.program, env)
	if err != nil {
		return false
	}
	b, ok := out.(bool)
	return ok && b
}
