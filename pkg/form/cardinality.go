package form

import (
	"fmt"
	"strconv"

	"github.com/goliatone/go-shexform/pkg/document"
	"github.com/goliatone/go-shexform/pkg/shex"
)

// renderCardinality renders the value slot(s) of a triple constraint. Single
// slots (exactly one, optional) live at [predicate]; repeated values live at
// [predicate, i].
func renderCardinality(ctx Context, tc *shex.TripleConstraint, expr shex.ShapeExpr, refID string) []*Node {
	card := tc.Cardinality()
	slotCtx := ctx.Extend(document.Key(tc.Predicate))

	if !card.Repeated() {
		valueCtx := slotCtx.child("value")
		valueCtx.slot = slotRequired
		if card.Optional() {
			valueCtx.slot = slotOptional
		}
		return []*Node{renderValue(valueCtx, tc.Predicate, expr, refID)}
	}

	listCtx := slotCtx.child("list")
	count := document.Len(listCtx.Document, listCtx.Path)
	list := &Node{
		ID:          listCtx.ID(),
		Kind:        KindList,
		Label:       shex.LocalName(tc.Predicate),
		Predicate:   tc.Predicate,
		Path:        listCtx.Path.String(),
		Count:       count,
		CanAdd:      card.AllowsMore(count),
		Cardinality: card.String(),
		Selected:    -1,
		ctx:         listCtx,
		isIRIHint:   isIRIConstraint(expr),
	}
	list.Errors = validateCount(card, count)

	for i := 0; i < count; i++ {
		itemCtx := listCtx.Extend(document.Index(i)).child(strconv.Itoa(i))
		itemCtx.slot = slotItem
		item := &Node{
			ID:        itemCtx.ID(),
			Kind:      KindItem,
			Label:     fmt.Sprintf("%s %d", list.Label, i+1),
			Predicate: tc.Predicate,
			Path:      itemCtx.Path.String(),
			Present:   true,
			Selected:  -1,
			ctx:       itemCtx,
			object:    itemCtx.Value(),
		}
		item.Children = []*Node{renderValue(itemCtx.child("value"), tc.Predicate, expr, refID)}
		list.Children = append(list.Children, item)
	}
	return []*Node{list}
}

// renderValue renders the value expression of one slot.
func renderValue(ctx Context, predicate string, expr shex.ShapeExpr, refID string) *Node {
	node := shex.DispatchShapeExpr[*Node](expr, shapeRenderer{ctx: ctx, shapeID: refID, leaf: true})
	if node.Predicate == "" {
		node.Predicate = predicate
	}
	if ctx.slot == slotOptional && node.Kind != KindPlaceholder && node.Widget != WidgetCheckbox {
		node.Optional = true
	}
	return node
}

func isIRIConstraint(expr shex.ShapeExpr) bool {
	nc, ok := expr.(*shex.NodeConstraint)
	return ok && nc.NodeKind == shex.NodeKindIRI
}
