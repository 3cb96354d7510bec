package shex

import "fmt"

// ShapeExprVisitor handles every shape expression kind. Adding a kind adds a
// method here, so implementations fail to compile until they handle it.
type ShapeExprVisitor[R any] interface {
	VisitShape(*Shape) R
	VisitShapeAnd(*ShapeAnd) R
	VisitShapeOr(*ShapeOr) R
	VisitShapeNot(*ShapeNot) R
	VisitShapeExternal(*ShapeExternal) R
	VisitNodeConstraint(*NodeConstraint) R
	VisitShapeRef(ShapeRef) R
}

// TripleExprVisitor handles every triple expression kind.
type TripleExprVisitor[R any] interface {
	VisitEachOf(*EachOf) R
	VisitOneOf(*OneOf) R
	VisitTripleConstraint(*TripleConstraint) R
	VisitTripleExprRef(TripleExprRef) R
}

// DispatchShapeExpr calls the visitor method matching expr. expr must not be nil.
func DispatchShapeExpr[R any](expr ShapeExpr, v ShapeExprVisitor[R]) R {
	switch e := expr.(type) {
	case *Shape:
		return v.VisitShape(e)
	case *ShapeAnd:
		return v.VisitShapeAnd(e)
	case *ShapeOr:
		return v.VisitShapeOr(e)
	case *ShapeNot:
		return v.VisitShapeNot(e)
	case *ShapeExternal:
		return v.VisitShapeExternal(e)
	case *NodeConstraint:
		return v.VisitNodeConstraint(e)
	case ShapeRef:
		return v.VisitShapeRef(e)
	}
	panic(fmt.Sprintf("shex: unhandled shape expression %T", expr))
}

// DispatchTripleExpr calls the visitor method matching expr. expr must not be nil.
func DispatchTripleExpr[R any](expr TripleExpr, v TripleExprVisitor[R]) R {
	switch e := expr.(type) {
	case *EachOf:
		return v.VisitEachOf(e)
	case *OneOf:
		return v.VisitOneOf(e)
	case *TripleConstraint:
		return v.VisitTripleConstraint(e)
	case TripleExprRef:
		return v.VisitTripleExprRef(e)
	}
	panic(fmt.Sprintf("shex: unhandled triple expression %T", expr))
}

// KindOf names the ShExJ type of a shape expression.
func KindOf(expr ShapeExpr) string {
	switch expr.(type) {
	case *Shape:
		return "Shape"
	case *ShapeAnd:
		return "ShapeAnd"
	case *ShapeOr:
		return "ShapeOr"
	case *ShapeNot:
		return "ShapeNot"
	case *ShapeExternal:
		return "ShapeExternal"
	case *NodeConstraint:
		return "NodeConstraint"
	case ShapeRef:
		return "ShapeRef"
	case nil:
		return ""
	}
	return fmt.Sprintf("%T", expr)
}

// Predicates returns the predicates a triple expression binds directly: the
// constraint's own predicate, or those of an EachOf/OneOf's direct triple
// constraints.
func Predicates(expr TripleExpr) []string {
	switch e := expr.(type) {
	case *TripleConstraint:
		return []string{e.Predicate}
	case *EachOf:
		return directPredicates(e.Expressions)
	case *OneOf:
		return directPredicates(e.Expressions)
	}
	return nil
}

func directPredicates(exprs []TripleExpr) []string {
	var out []string
	for _, child := range exprs {
		if tc, ok := child.(*TripleConstraint); ok {
			out = append(out, tc.Predicate)
		}
	}
	return out
}

// Walk visits every triple expression reachable from expr, depth first.
func Walk(expr TripleExpr, fn func(TripleExpr)) {
	if expr == nil {
		return
	}
	fn(expr)
	switch e := expr.(type) {
	case *EachOf:
		for _, child := range e.Expressions {
			Walk(child, fn)
		}
	case *OneOf:
		for _, child := range e.Expressions {
			Walk(child, fn)
		}
	}
}
