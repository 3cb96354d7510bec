package form

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-shexform/pkg/document"
	"github.com/goliatone/go-shexform/pkg/shex"
)

// Render builds the widget tree for decl against the context's document.
func Render(ctx Context, decl *shex.ShapeDecl) *Node {
	ctx = ctx.normalized()
	if decl == nil || decl.ShapeExpr == nil {
		return placeholder(ctx, "", "shape declaration is empty")
	}
	root := shex.DispatchShapeExpr[*Node](decl.ShapeExpr, shapeRenderer{ctx: ctx, shapeID: decl.ID})
	root.ShapeID = decl.ID
	if root.Label == "" {
		root.Label = shex.LocalName(decl.ID)
	}
	return root
}

// shapeRenderer renders shape expressions. Under a triple constraint (leaf
// true) node constraints become input widgets; at shape level they have no
// predicate to bind and render as placeholders.
type shapeRenderer struct {
	ctx     Context
	shapeID string
	leaf    bool
}

func (r shapeRenderer) VisitShape(shape *shex.Shape) *Node {
	ctx := r.ctx
	node := &Node{
		ID:      ctx.ID(),
		Kind:    KindShape,
		ShapeID: r.shapeID,
		Path:    ctx.Path.String(),
		ctx:     ctx,
	}
	if r.shapeID != "" {
		node.Label = shex.LocalName(r.shapeID)
	}
	if shape.Expression != nil {
		child := shex.DispatchTripleExpr[*Node](shape.Expression, tripleRenderer{ctx: ctx, shapeID: r.shapeID})
		node.Children = append(node.Children, child)
	}
	node.Present = ctx.Value() != nil
	return node
}

func (r shapeRenderer) VisitShapeAnd(*shex.ShapeAnd) *Node {
	return placeholder(r.ctx, "", "ShapeAnd is not implemented")
}

func (r shapeRenderer) VisitShapeOr(*shex.ShapeOr) *Node {
	return placeholder(r.ctx, "", "ShapeOr is not implemented")
}

func (r shapeRenderer) VisitShapeNot(*shex.ShapeNot) *Node {
	return placeholder(r.ctx, "", "ShapeNot is not implemented")
}

func (r shapeRenderer) VisitShapeExternal(*shex.ShapeExternal) *Node {
	return placeholder(r.ctx, "", "ShapeExternal is not implemented")
}

func (r shapeRenderer) VisitNodeConstraint(nc *shex.NodeConstraint) *Node {
	if !r.leaf {
		return placeholder(r.ctx, "", "node constraint outside a triple constraint is not implemented")
	}
	return renderLeaf(r.ctx, nc)
}

func (r shapeRenderer) VisitShapeRef(ref shex.ShapeRef) *Node {
	ctx := r.ctx
	if ctx.depth >= ctx.opts.maxDepth {
		return placeholder(ctx, "", fmt.Sprintf("reference to %s exceeds the nesting limit", shex.LocalName(string(ref))))
	}
	expr, id, ok := ctx.Schema.ResolveShapeExpr(ref)
	if !ok {
		return placeholder(ctx, "", fmt.Sprintf("unresolved shape reference %s", ref))
	}
	ctx.depth++
	return shex.DispatchShapeExpr[*Node](expr, shapeRenderer{ctx: ctx, shapeID: id, leaf: r.leaf})
}

// tripleRenderer renders triple expressions of the shape identified by shapeID.
type tripleRenderer struct {
	ctx     Context
	shapeID string
}

func (r tripleRenderer) VisitEachOf(each *shex.EachOf) *Node {
	ctx := r.ctx.child("each")
	node := &Node{
		ID:          ctx.ID(),
		Kind:        KindEachOf,
		ShapeID:     r.shapeID,
		Path:        ctx.Path.String(),
		Cardinality: cardinalityLabel(each.Cardinality()),
		ctx:         ctx,
	}
	for i, expr := range each.Expressions {
		child := shex.DispatchTripleExpr[*Node](expr, tripleRenderer{ctx: ctx.child(strconv.Itoa(i)), shapeID: r.shapeID})
		node.Children = append(node.Children, child)
	}
	return node
}

func (r tripleRenderer) VisitOneOf(one *shex.OneOf) *Node {
	ctx := r.ctx.child("one")
	node := &Node{
		ID:           ctx.ID(),
		Kind:         KindOneOf,
		ShapeID:      r.shapeID,
		Path:         ctx.Path.String(),
		Cardinality:  cardinalityLabel(one.Cardinality()),
		ctx:          ctx,
		alternatives: one.Expressions,
	}
	if len(one.Expressions) == 0 {
		node.Selected = -1
		return node
	}
	for i, expr := range one.Expressions {
		node.Choices = append(node.Choices, Choice{Label: alternativeLabel(ctx.Schema, expr, i), Value: i})
	}
	node.Selected = selectedAlternative(ctx, node.ID, one.Expressions)
	active := one.Expressions[node.Selected]
	child := shex.DispatchTripleExpr[*Node](active, tripleRenderer{ctx: ctx.child(strconv.Itoa(node.Selected)), shapeID: r.shapeID})
	node.Children = append(node.Children, child)
	return node
}

func (r tripleRenderer) VisitTripleConstraint(tc *shex.TripleConstraint) *Node {
	ctx := r.ctx.child(tc.Predicate)
	node := &Node{
		ID:          ctx.ID(),
		Kind:        KindTriple,
		Label:       shex.LocalName(tc.Predicate),
		ShapeID:     r.shapeID,
		Predicate:   tc.Predicate,
		Path:        ctx.Path.Extend(document.Key(tc.Predicate)).String(),
		Cardinality: cardinalityLabel(tc.Cardinality()),
		ctx:         ctx,
	}
	if tc.Inverse {
		node.Children = append(node.Children, placeholder(ctx.child("value"), tc.Predicate, "inverse triple constraints are not implemented"))
		return node
	}
	if tc.ValueExpr == nil {
		return node
	}
	expr, refID, ok := ctx.Schema.ResolveShapeExpr(tc.ValueExpr)
	if !ok {
		return node
	}
	if refID != "" {
		if ctx.depth >= ctx.opts.maxDepth {
			node.Children = append(node.Children, placeholder(ctx.child("value"), tc.Predicate,
				fmt.Sprintf("reference to %s exceeds the nesting limit", shex.LocalName(refID))))
			return node
		}
		ctx.depth++
	}
	node.Children = renderCardinality(ctx, tc, expr, refID)
	return node
}

func (r tripleRenderer) VisitTripleExprRef(ref shex.TripleExprRef) *Node {
	ctx := r.ctx
	if ctx.depth >= ctx.opts.maxDepth {
		return placeholder(ctx.child("ref"), "", "triple expression reference exceeds the nesting limit")
	}
	expr, ok := ctx.Schema.ResolveTripleExpr(ref)
	if !ok {
		return placeholder(ctx.child("ref"), "", fmt.Sprintf("unresolved triple expression %s", ref))
	}
	ctx.depth++
	return shex.DispatchTripleExpr[*Node](expr, tripleRenderer{ctx: ctx, shapeID: r.shapeID})
}

func placeholder(ctx Context, predicate, reason string) *Node {
	return &Node{
		ID:        ctx.ID(),
		Kind:      KindPlaceholder,
		Label:     "not implemented",
		Predicate: predicate,
		Path:      ctx.Path.String(),
		Reason:    reason,
		Selected:  -1,
		ctx:       ctx,
	}
}

func selectedAlternative(ctx Context, id string, alternatives []shex.TripleExpr) int {
	materialized := -1
	for i := range alternatives {
		if alternativePresent(ctx, alternatives, i) {
			materialized = i
			break
		}
	}
	if index, ok := ctx.opts.selections.Selected(id); ok && index >= 0 && index < len(alternatives) {
		// The document wins over a stored choice it contradicts.
		if materialized < 0 || alternativePresent(ctx, alternatives, index) {
			return index
		}
	}
	if materialized >= 0 {
		return materialized
	}
	return 0
}

// alternativePresent reports whether the document holds any predicate of
// alternative index.
func alternativePresent(ctx Context, alternatives []shex.TripleExpr, index int) bool {
	for _, predicate := range alternativePredicates(alternatives, index) {
		if ctx.Extend(document.Key(predicate)).Value() != nil {
			return true
		}
	}
	return false
}

func alternativePredicates(alternatives []shex.TripleExpr, index int) []string {
	if index < 0 || index >= len(alternatives) {
		return nil
	}
	return shex.Predicates(alternatives[index])
}

func alternativeLabel(schema *shex.Schema, expr shex.TripleExpr, index int) string {
	if ref, ok := expr.(shex.TripleExprRef); ok {
		if resolved, found := schema.ResolveTripleExpr(ref); found {
			expr = resolved
		}
	}
	predicates := shex.Predicates(expr)
	if len(predicates) == 0 {
		return fmt.Sprintf("option %d", index+1)
	}
	labels := make([]string, len(predicates))
	for i, predicate := range predicates {
		labels[i] = shex.LocalName(predicate)
	}
	return strings.Join(labels, " + ")
}

func cardinalityLabel(card shex.Cardinality) string {
	if card.ExactlyOne() {
		return ""
	}
	return card.String()
}
