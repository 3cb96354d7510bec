package shex

import "strings"

// maxRefHops bounds chains of declarations that merely alias other
// declarations.
const maxRefHops = 16

// ShapeDecl returns the first declaration with the given id.
func (s *Schema) ShapeDecl(id string) (*ShapeDecl, bool) {
	if s == nil {
		return nil, false
	}
	for _, decl := range s.Shapes {
		if decl != nil && decl.ID == id {
			return decl, true
		}
	}
	return nil, false
}

// ShapeIDs lists declaration identifiers in declared order.
func (s *Schema) ShapeIDs() []string {
	if s == nil {
		return nil
	}
	ids := make([]string, 0, len(s.Shapes))
	for _, decl := range s.Shapes {
		if decl != nil {
			ids = append(ids, decl.ID)
		}
	}
	return ids
}

// StartShape returns the declaration named by the schema's start reference.
func (s *Schema) StartShape() (*ShapeDecl, bool) {
	if s == nil {
		return nil, false
	}
	ref, ok := s.Start.(ShapeRef)
	if !ok {
		return nil, false
	}
	return s.ShapeDecl(string(ref))
}

// ResolveShapeExpr returns the expression a value expression stands for.
// Inline expressions are returned unchanged with an empty id. References are
// looked up among the declarations and the id of the matched declaration is
// returned. The boolean is false for nil expressions and unresolved ids.
func (s *Schema) ResolveShapeExpr(expr ShapeExpr) (ShapeExpr, string, bool) {
	if expr == nil {
		return nil, "", false
	}
	id := ""
	for hops := 0; hops < maxRefHops; hops++ {
		ref, ok := expr.(ShapeRef)
		if !ok {
			return expr, id, true
		}
		decl, found := s.ShapeDecl(string(ref))
		if !found || decl.ShapeExpr == nil {
			return nil, string(ref), false
		}
		id = decl.ID
		expr = decl.ShapeExpr
	}
	return nil, id, false
}

// TripleExpr returns the labelled triple expression with the given id.
func (s *Schema) TripleExpr(id string) (TripleExpr, bool) {
	if s == nil || id == "" {
		return nil, false
	}
	var found TripleExpr
	for _, decl := range s.Shapes {
		if decl == nil {
			continue
		}
		shape, ok := decl.ShapeExpr.(*Shape)
		if !ok {
			continue
		}
		Walk(shape.Expression, func(expr TripleExpr) {
			if found != nil {
				return
			}
			if tripleExprID(expr) == id {
				found = expr
			}
		})
		if found != nil {
			return found, true
		}
	}
	return nil, false
}

// ResolveTripleExpr follows TripleExprRef labels to their expression.
func (s *Schema) ResolveTripleExpr(expr TripleExpr) (TripleExpr, bool) {
	for hops := 0; hops < maxRefHops; hops++ {
		ref, ok := expr.(TripleExprRef)
		if !ok {
			return expr, expr != nil
		}
		next, found := s.TripleExpr(string(ref))
		if !found {
			return nil, false
		}
		expr = next
	}
	return nil, false
}

func tripleExprID(expr TripleExpr) string {
	switch e := expr.(type) {
	case *EachOf:
		return e.ID
	case *OneOf:
		return e.ID
	case *TripleConstraint:
		return e.ID
	}
	return ""
}

// LocalName derives a short label from an IRI: the fragment after '#', else
// the last '/' segment, else the input.
func LocalName(iri string) string {
	if i := strings.LastIndex(iri, "#"); i >= 0 && i < len(iri)-1 {
		return iri[i+1:]
	}
	trimmed := strings.TrimRight(iri, "/")
	if i := strings.LastIndex(trimmed, "/"); i >= 0 && i < len(trimmed)-1 {
		return trimmed[i+1:]
	}
	return iri
}
