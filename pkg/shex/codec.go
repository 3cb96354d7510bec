package shex

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownType reports a ShExJ object whose "type" is not recognised.
var ErrUnknownType = errors.New("shex: unknown ShExJ type")

type typeHeader struct {
	Type  string          `json:"type"`
	ID    string          `json:"id"`
	Value json.RawMessage `json:"value"`
}

// UnmarshalJSON decodes a ShExJ schema. Both ShapeDecl wrappers and bare
// shape expressions carrying an id are accepted as shape entries.
func (s *Schema) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type    string            `json:"type"`
		Start   json.RawMessage   `json:"start"`
		Imports []string          `json:"imports"`
		Shapes  []json.RawMessage `json:"shapes"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("shex: decode schema: %w", err)
	}
	if raw.Type != "" && raw.Type != "Schema" {
		return fmt.Errorf("shex: expected Schema, got %q", raw.Type)
	}

	out := Schema{Imports: raw.Imports}
	if len(raw.Start) > 0 && !isNull(raw.Start) {
		start, err := decodeShapeExpr(raw.Start)
		if err != nil {
			return fmt.Errorf("shex: decode start: %w", err)
		}
		out.Start = start
	}
	for i, entry := range raw.Shapes {
		decl, err := decodeShapeDecl(entry)
		if err != nil {
			return fmt.Errorf("shex: decode shapes[%d]: %w", i, err)
		}
		out.Shapes = append(out.Shapes, decl)
	}
	*s = out
	return nil
}

// Decode parses a ShExJ document.
func Decode(data []byte) (*Schema, error) {
	var schema Schema
	if err := json.Unmarshal(data, &schema); err != nil {
		return nil, err
	}
	return &schema, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func isString(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '"'
}

func header(raw json.RawMessage) (typeHeader, error) {
	var p typeHeader
	if err := json.Unmarshal(raw, &p); err != nil {
		return typeHeader{}, err
	}
	return p, nil
}

func decodeShapeDecl(raw json.RawMessage) (*ShapeDecl, error) {
	p, err := header(raw)
	if err != nil {
		return nil, err
	}
	if p.Type == "ShapeDecl" {
		var wrapper struct {
			ID        string          `json:"id"`
			Abstract  bool            `json:"abstract"`
			ShapeExpr json.RawMessage `json:"shapeExpr"`
		}
		if err := json.Unmarshal(raw, &wrapper); err != nil {
			return nil, err
		}
		if wrapper.ID == "" {
			return nil, errors.New("shape declaration without id")
		}
		expr, err := decodeShapeExpr(wrapper.ShapeExpr)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", wrapper.ID, err)
		}
		return &ShapeDecl{ID: wrapper.ID, Abstract: wrapper.Abstract, ShapeExpr: expr}, nil
	}
	if p.ID == "" {
		return nil, fmt.Errorf("%s declaration without id", p.Type)
	}
	expr, err := decodeShapeExpr(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p.ID, err)
	}
	return &ShapeDecl{ID: p.ID, ShapeExpr: expr}, nil
}

func decodeShapeExprs(raws []json.RawMessage) ([]ShapeExpr, error) {
	out := make([]ShapeExpr, 0, len(raws))
	for i, raw := range raws {
		expr, err := decodeShapeExpr(raw)
		if err != nil {
			return nil, fmt.Errorf("shapeExprs[%d]: %w", i, err)
		}
		out = append(out, expr)
	}
	return out, nil
}

func decodeShapeExpr(raw json.RawMessage) (ShapeExpr, error) {
	if len(raw) == 0 || isNull(raw) {
		return nil, errors.New("missing shape expression")
	}
	if isString(raw) {
		var ref string
		if err := json.Unmarshal(raw, &ref); err != nil {
			return nil, err
		}
		return ShapeRef(ref), nil
	}
	p, err := header(raw)
	if err != nil {
		return nil, err
	}

	switch p.Type {
	case "Shape":
		var v struct {
			ID         string            `json:"id"`
			Closed     bool              `json:"closed"`
			Extra      []string          `json:"extra"`
			Extends    []json.RawMessage `json:"extends"`
			Expression json.RawMessage   `json:"expression"`
		}
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		shape := &Shape{ID: v.ID, Closed: v.Closed, Extra: v.Extra}
		if len(v.Extends) > 0 {
			extends, err := decodeShapeExprs(v.Extends)
			if err != nil {
				return nil, fmt.Errorf("extends: %w", err)
			}
			shape.Extends = extends
		}
		if len(v.Expression) > 0 && !isNull(v.Expression) {
			expr, err := decodeTripleExpr(v.Expression)
			if err != nil {
				return nil, fmt.Errorf("expression: %w", err)
			}
			shape.Expression = expr
		}
		return shape, nil

	case "ShapeAnd", "ShapeOr":
		var v struct {
			ID         string            `json:"id"`
			ShapeExprs []json.RawMessage `json:"shapeExprs"`
		}
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		exprs, err := decodeShapeExprs(v.ShapeExprs)
		if err != nil {
			return nil, err
		}
		if p.Type == "ShapeAnd" {
			return &ShapeAnd{ID: v.ID, ShapeExprs: exprs}, nil
		}
		return &ShapeOr{ID: v.ID, ShapeExprs: exprs}, nil

	case "ShapeNot":
		var v struct {
			ID        string          `json:"id"`
			ShapeExpr json.RawMessage `json:"shapeExpr"`
		}
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		expr, err := decodeShapeExpr(v.ShapeExpr)
		if err != nil {
			return nil, err
		}
		return &ShapeNot{ID: v.ID, ShapeExpr: expr}, nil

	case "ShapeExternal":
		return &ShapeExternal{ID: p.ID}, nil

	case "NodeConstraint":
		return decodeNodeConstraint(raw)
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownType, p.Type)
}

func decodeNodeConstraint(raw json.RawMessage) (*NodeConstraint, error) {
	var v struct {
		ID             string            `json:"id"`
		NodeKind       NodeKind          `json:"nodeKind"`
		Datatype       string            `json:"datatype"`
		Values         []json.RawMessage `json:"values"`
		Pattern        string            `json:"pattern"`
		Flags          string            `json:"flags"`
		Length         *int              `json:"length"`
		MinLength      *int              `json:"minlength"`
		MaxLength      *int              `json:"maxlength"`
		MinInclusive   *float64          `json:"mininclusive"`
		MinExclusive   *float64          `json:"minexclusive"`
		MaxInclusive   *float64          `json:"maxinclusive"`
		MaxExclusive   *float64          `json:"maxexclusive"`
		TotalDigits    *int              `json:"totaldigits"`
		FractionDigits *int              `json:"fractiondigits"`
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	switch v.NodeKind {
	case "", NodeKindIRI, NodeKindBNode, NodeKindNonLiteral, NodeKindLiteral:
	default:
		return nil, fmt.Errorf("unknown nodeKind %q", v.NodeKind)
	}
	nc := &NodeConstraint{
		ID:             v.ID,
		NodeKind:       v.NodeKind,
		Datatype:       v.Datatype,
		Pattern:        v.Pattern,
		Flags:          v.Flags,
		Length:         v.Length,
		MinLength:      v.MinLength,
		MaxLength:      v.MaxLength,
		MinInclusive:   v.MinInclusive,
		MinExclusive:   v.MinExclusive,
		MaxInclusive:   v.MaxInclusive,
		MaxExclusive:   v.MaxExclusive,
		TotalDigits:    v.TotalDigits,
		FractionDigits: v.FractionDigits,
	}
	for i, entry := range v.Values {
		value, err := decodeValueSetValue(entry)
		if err != nil {
			return nil, fmt.Errorf("values[%d]: %w", i, err)
		}
		nc.Values = append(nc.Values, value)
	}
	return nc, nil
}

func decodeValueSetValue(raw json.RawMessage) (ValueSetValue, error) {
	if isString(raw) {
		var iri string
		if err := json.Unmarshal(raw, &iri); err != nil {
			return ValueSetValue{}, err
		}
		return ValueSetValue{IRI: iri}, nil
	}
	p, err := header(raw)
	if err != nil {
		return ValueSetValue{}, err
	}
	if len(p.Value) > 0 {
		var lit ObjectLiteral
		if err := json.Unmarshal(raw, &lit); err != nil {
			return ValueSetValue{}, err
		}
		return ValueSetValue{Literal: &lit}, nil
	}
	if p.Type == "" {
		return ValueSetValue{}, errors.New("value set entry without type")
	}
	return ValueSetValue{Kind: p.Type}, nil
}

func decodeTripleExprs(raws []json.RawMessage) ([]TripleExpr, error) {
	out := make([]TripleExpr, 0, len(raws))
	for i, raw := range raws {
		expr, err := decodeTripleExpr(raw)
		if err != nil {
			return nil, fmt.Errorf("expressions[%d]: %w", i, err)
		}
		out = append(out, expr)
	}
	return out, nil
}

func decodeTripleExpr(raw json.RawMessage) (TripleExpr, error) {
	if isString(raw) {
		var ref string
		if err := json.Unmarshal(raw, &ref); err != nil {
			return nil, err
		}
		return TripleExprRef(ref), nil
	}
	p, err := header(raw)
	if err != nil {
		return nil, err
	}

	switch p.Type {
	case "EachOf", "OneOf":
		var v struct {
			ID          string            `json:"id"`
			Expressions []json.RawMessage `json:"expressions"`
			Min         *int              `json:"min"`
			Max         *int              `json:"max"`
		}
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		if err := newCardinality(v.Min, v.Max).Validate(); err != nil {
			return nil, err
		}
		exprs, err := decodeTripleExprs(v.Expressions)
		if err != nil {
			return nil, err
		}
		if p.Type == "EachOf" {
			return &EachOf{ID: v.ID, Expressions: exprs, Min: v.Min, Max: v.Max}, nil
		}
		return &OneOf{ID: v.ID, Expressions: exprs, Min: v.Min, Max: v.Max}, nil

	case "TripleConstraint":
		var v struct {
			ID        string          `json:"id"`
			Predicate string          `json:"predicate"`
			Inverse   bool            `json:"inverse"`
			ValueExpr json.RawMessage `json:"valueExpr"`
			Min       *int            `json:"min"`
			Max       *int            `json:"max"`
		}
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		if v.Predicate == "" {
			return nil, errors.New("triple constraint without predicate")
		}
		if err := newCardinality(v.Min, v.Max).Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", v.Predicate, err)
		}
		tc := &TripleConstraint{ID: v.ID, Predicate: v.Predicate, Inverse: v.Inverse, Min: v.Min, Max: v.Max}
		if len(v.ValueExpr) > 0 && !isNull(v.ValueExpr) {
			expr, err := decodeShapeExpr(v.ValueExpr)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", v.Predicate, err)
			}
			tc.ValueExpr = expr
		}
		return tc, nil
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownType, p.Type)
}
