package shex

import (
	"encoding/json"
	"fmt"
)

type jsonSchema struct {
	Context string          `json:"@context"`
	Type    string          `json:"type"`
	Imports []string        `json:"imports,omitempty"`
	Start   any             `json:"start,omitempty"`
	Shapes  []jsonShapeDecl `json:"shapes,omitempty"`
}

type jsonShapeDecl struct {
	Type      string `json:"type"`
	ID        string `json:"id"`
	Abstract  bool   `json:"abstract,omitempty"`
	ShapeExpr any    `json:"shapeExpr"`
}

type jsonShape struct {
	Type       string   `json:"type"`
	ID         string   `json:"id,omitempty"`
	Closed     bool     `json:"closed,omitempty"`
	Extra      []string `json:"extra,omitempty"`
	Extends    []any    `json:"extends,omitempty"`
	Expression any      `json:"expression,omitempty"`
}

type jsonShapeJunction struct {
	Type       string `json:"type"`
	ID         string `json:"id,omitempty"`
	ShapeExprs []any  `json:"shapeExprs"`
}

type jsonShapeNot struct {
	Type      string `json:"type"`
	ID        string `json:"id,omitempty"`
	ShapeExpr any    `json:"shapeExpr"`
}

type jsonNodeConstraint struct {
	Type           string   `json:"type"`
	ID             string   `json:"id,omitempty"`
	NodeKind       NodeKind `json:"nodeKind,omitempty"`
	Datatype       string   `json:"datatype,omitempty"`
	Values         []any    `json:"values,omitempty"`
	Pattern        string   `json:"pattern,omitempty"`
	Flags          string   `json:"flags,omitempty"`
	Length         *int     `json:"length,omitempty"`
	MinLength      *int     `json:"minlength,omitempty"`
	MaxLength      *int     `json:"maxlength,omitempty"`
	MinInclusive   *float64 `json:"mininclusive,omitempty"`
	MinExclusive   *float64 `json:"minexclusive,omitempty"`
	MaxInclusive   *float64 `json:"maxinclusive,omitempty"`
	MaxExclusive   *float64 `json:"maxexclusive,omitempty"`
	TotalDigits    *int     `json:"totaldigits,omitempty"`
	FractionDigits *int     `json:"fractiondigits,omitempty"`
}

type jsonTripleJunction struct {
	Type        string `json:"type"`
	ID          string `json:"id,omitempty"`
	Expressions []any  `json:"expressions"`
	Min         *int   `json:"min,omitempty"`
	Max         *int   `json:"max,omitempty"`
}

type jsonTripleConstraint struct {
	Type      string `json:"type"`
	ID        string `json:"id,omitempty"`
	Inverse   bool   `json:"inverse,omitempty"`
	Predicate string `json:"predicate"`
	ValueExpr any    `json:"valueExpr,omitempty"`
	Min       *int   `json:"min,omitempty"`
	Max       *int   `json:"max,omitempty"`
}

// MarshalJSON encodes the schema as ShExJ with ShapeDecl wrappers.
func (s Schema) MarshalJSON() ([]byte, error) {
	out := jsonSchema{Context: ContextIRI, Type: "Schema", Imports: s.Imports}
	if s.Start != nil {
		start, err := encodeShapeExpr(s.Start)
		if err != nil {
			return nil, fmt.Errorf("shex: encode start: %w", err)
		}
		out.Start = start
	}
	for _, decl := range s.Shapes {
		if decl == nil {
			continue
		}
		expr, err := encodeShapeExpr(decl.ShapeExpr)
		if err != nil {
			return nil, fmt.Errorf("shex: encode %s: %w", decl.ID, err)
		}
		out.Shapes = append(out.Shapes, jsonShapeDecl{
			Type:      "ShapeDecl",
			ID:        decl.ID,
			Abstract:  decl.Abstract,
			ShapeExpr: expr,
		})
	}
	return json.Marshal(out)
}

func encodeShapeExprs(exprs []ShapeExpr) ([]any, error) {
	out := make([]any, 0, len(exprs))
	for _, expr := range exprs {
		encoded, err := encodeShapeExpr(expr)
		if err != nil {
			return nil, err
		}
		out = append(out, encoded)
	}
	return out, nil
}

func encodeShapeExpr(expr ShapeExpr) (any, error) {
	switch e := expr.(type) {
	case ShapeRef:
		return string(e), nil
	case *Shape:
		out := jsonShape{Type: "Shape", ID: e.ID, Closed: e.Closed, Extra: e.Extra}
		if len(e.Extends) > 0 {
			extends, err := encodeShapeExprs(e.Extends)
			if err != nil {
				return nil, err
			}
			out.Extends = extends
		}
		if e.Expression != nil {
			expression, err := encodeTripleExpr(e.Expression)
			if err != nil {
				return nil, err
			}
			out.Expression = expression
		}
		return out, nil
	case *ShapeAnd:
		exprs, err := encodeShapeExprs(e.ShapeExprs)
		if err != nil {
			return nil, err
		}
		return jsonShapeJunction{Type: "ShapeAnd", ID: e.ID, ShapeExprs: exprs}, nil
	case *ShapeOr:
		exprs, err := encodeShapeExprs(e.ShapeExprs)
		if err != nil {
			return nil, err
		}
		return jsonShapeJunction{Type: "ShapeOr", ID: e.ID, ShapeExprs: exprs}, nil
	case *ShapeNot:
		inner, err := encodeShapeExpr(e.ShapeExpr)
		if err != nil {
			return nil, err
		}
		return jsonShapeNot{Type: "ShapeNot", ID: e.ID, ShapeExpr: inner}, nil
	case *ShapeExternal:
		return struct {
			Type string `json:"type"`
			ID   string `json:"id,omitempty"`
		}{Type: "ShapeExternal", ID: e.ID}, nil
	case *NodeConstraint:
		out := jsonNodeConstraint{
			Type:           "NodeConstraint",
			ID:             e.ID,
			NodeKind:       e.NodeKind,
			Datatype:       e.Datatype,
			Pattern:        e.Pattern,
			Flags:          e.Flags,
			Length:         e.Length,
			MinLength:      e.MinLength,
			MaxLength:      e.MaxLength,
			MinInclusive:   e.MinInclusive,
			MinExclusive:   e.MinExclusive,
			MaxInclusive:   e.MaxInclusive,
			MaxExclusive:   e.MaxExclusive,
			TotalDigits:    e.TotalDigits,
			FractionDigits: e.FractionDigits,
		}
		for _, value := range e.Values {
			switch {
			case value.IsLiteral():
				out.Values = append(out.Values, value.Literal)
			case value.IsIRI():
				out.Values = append(out.Values, value.IRI)
			default:
				return nil, fmt.Errorf("value set entry %q cannot be encoded", value.Kind)
			}
		}
		return out, nil
	case nil:
		return nil, fmt.Errorf("missing shape expression")
	}
	return nil, fmt.Errorf("unhandled shape expression %T", expr)
}

func encodeTripleExpr(expr TripleExpr) (any, error) {
	switch e := expr.(type) {
	case TripleExprRef:
		return string(e), nil
	case *EachOf:
		exprs, err := encodeTripleExprs(e.Expressions)
		if err != nil {
			return nil, err
		}
		return jsonTripleJunction{Type: "EachOf", ID: e.ID, Expressions: exprs, Min: e.Min, Max: e.Max}, nil
	case *OneOf:
		exprs, err := encodeTripleExprs(e.Expressions)
		if err != nil {
			return nil, err
		}
		return jsonTripleJunction{Type: "OneOf", ID: e.ID, Expressions: exprs, Min: e.Min, Max: e.Max}, nil
	case *TripleConstraint:
		out := jsonTripleConstraint{
			Type:      "TripleConstraint",
			ID:        e.ID,
			Inverse:   e.Inverse,
			Predicate: e.Predicate,
			Min:       e.Min,
			Max:       e.Max,
		}
		if e.ValueExpr != nil {
			value, err := encodeShapeExpr(e.ValueExpr)
			if err != nil {
				return nil, err
			}
			out.ValueExpr = value
		}
		return out, nil
	}
	return nil, fmt.Errorf("unhandled triple expression %T", expr)
}

func encodeTripleExprs(exprs []TripleExpr) ([]any, error) {
	out := make([]any, 0, len(exprs))
	for _, expr := range exprs {
		encoded, err := encodeTripleExpr(expr)
		if err != nil {
			return nil, err
		}
		out = append(out, encoded)
	}
	return out, nil
}
