package parser

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/goliatone/go-shexform/pkg/shex"
)

const (
	rdfType    = "http://www.w3.org/1999/02/22-rdf-syntax-ns#type"
	xsdInteger = "http://www.w3.org/2001/XMLSchema#integer"
	xsdDecimal = "http://www.w3.org/2001/XMLSchema#decimal"
	xsdDouble  = "http://www.w3.org/2001/XMLSchema#double"
	xsdBoolean = "http://www.w3.org/2001/XMLSchema#boolean"
)

// ErrUnknownPrefix is returned for prefixed names without a PREFIX declaration.
var ErrUnknownPrefix = errors.New("shexc: undeclared prefix")

// ParseCompact parses ShEx compact syntax. Relative IRIs resolve against
// base until the text declares its own BASE.
func ParseCompact(name, text, base string) (*shex.Schema, error) {
	doc, err := shexcParser.ParseString(name, text)
	if err != nil {
		return nil, fmt.Errorf("shexc: %w", err)
	}
	c := &compactConverter{prefixes: map[string]string{}}
	if base != "" {
		if err := c.setBase(base); err != nil {
			return nil, err
		}
	}
	return c.schema(doc)
}

type compactConverter struct {
	base     *url.URL
	prefixes map[string]string
}

func (c *compactConverter) setBase(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("shexc: invalid base %q: %w", raw, err)
	}
	if c.base != nil {
		u = c.base.ResolveReference(u)
	}
	c.base = u
	return nil
}

func (c *compactConverter) schema(doc *cDocument) (*shex.Schema, error) {
	out := &shex.Schema{}
	for _, stmt := range doc.Statements {
		switch {
		case stmt.Prefix != nil:
			iri, err := c.iriRef(stmt.Prefix.IRI)
			if err != nil {
				return nil, err
			}
			c.prefixes[strings.TrimSuffix(stmt.Prefix.Name, ":")] = iri
		case stmt.Base != nil:
			if err := c.setBase(strings.Trim(*stmt.Base, "<>")); err != nil {
				return nil, err
			}
		case stmt.Import != nil:
			iri, err := c.iriRef(*stmt.Import)
			if err != nil {
				return nil, err
			}
			out.Imports = append(out.Imports, iri)
		case stmt.Start != nil:
			expr, err := c.shapeOr(stmt.Start)
			if err != nil {
				return nil, fmt.Errorf("start: %w", err)
			}
			out.Start = expr
		case stmt.Decl != nil:
			decl, err := c.shapeDecl(stmt.Decl)
			if err != nil {
				return nil, err
			}
			out.Shapes = append(out.Shapes, decl)
		}
	}
	return out, nil
}

func (c *compactConverter) shapeDecl(d *cShapeDecl) (*shex.ShapeDecl, error) {
	id, err := c.iri(d.Label)
	if err != nil {
		return nil, err
	}
	decl := &shex.ShapeDecl{ID: id, Abstract: d.Abstract}
	if d.External {
		decl.ShapeExpr = &shex.ShapeExternal{}
		return decl, nil
	}
	expr, err := c.shapeOr(d.Expr)
	if err != nil {
		return nil, fmt.Errorf("shape %s: %w", id, err)
	}
	if expr == nil {
		expr = &shex.Shape{}
	}
	decl.ShapeExpr = expr
	return decl, nil
}

func (c *compactConverter) shapeOr(or *cShapeOr) (shex.ShapeExpr, error) {
	exprs := make([]shex.ShapeExpr, 0, len(or.Terms))
	for _, term := range or.Terms {
		expr, err := c.shapeAnd(term)
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, expr)
	}
	if len(exprs) == 1 {
		return exprs[0], nil
	}
	return &shex.ShapeOr{ShapeExprs: exprs}, nil
}

func (c *compactConverter) shapeAnd(and *cShapeAnd) (shex.ShapeExpr, error) {
	exprs := make([]shex.ShapeExpr, 0, len(and.Terms))
	for _, term := range and.Terms {
		expr, err := c.shapeNot(term)
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, expr)
	}
	if len(exprs) == 1 {
		return exprs[0], nil
	}
	return &shex.ShapeAnd{ShapeExprs: exprs}, nil
}

func (c *compactConverter) shapeNot(not *cShapeNot) (shex.ShapeExpr, error) {
	expr, err := c.atom(not.Atom)
	if err != nil {
		return nil, err
	}
	if not.Not {
		if expr == nil {
			expr = &shex.Shape{}
		}
		return &shex.ShapeNot{ShapeExpr: expr}, nil
	}
	return expr, nil
}

// atom converts one primary shape expression. The wildcard "." yields nil,
// which stands for "any value".
func (c *compactConverter) atom(a *cAtom) (shex.ShapeExpr, error) {
	switch {
	case a.Group != nil:
		return c.shapeOr(a.Group)
	case a.Ref != nil:
		iri, err := c.iriRef(*a.Ref)
		if err != nil {
			return nil, err
		}
		return shex.ShapeRef(iri), nil
	case a.RefPName != nil:
		iri, err := c.pname(strings.TrimPrefix(*a.RefPName, "@"))
		if err != nil {
			return nil, err
		}
		return shex.ShapeRef(iri), nil
	case a.Dot:
		return nil, nil
	case a.Node != nil:
		return c.nodeConstraint(a.Node)
	case len(a.Facets) > 0:
		nc := &shex.NodeConstraint{}
		if err := c.facets(nc, a.Facets); err != nil {
			return nil, err
		}
		return nc, nil
	case a.Shape != nil:
		return c.shape(a.Shape)
	}
	return nil, errors.New("shexc: empty shape expression")
}

func (c *compactConverter) nodeConstraint(n *cNodeConstraint) (*shex.NodeConstraint, error) {
	nc := &shex.NodeConstraint{}
	switch {
	case n.Kind != nil:
		nc.NodeKind = shex.NodeKind(strings.ToLower(*n.Kind))
	case n.Datatype != nil:
		iri, err := c.iri(*n.Datatype)
		if err != nil {
			return nil, err
		}
		nc.Datatype = iri
	default:
		values := make([]shex.ValueSetValue, 0, len(n.Values))
		for _, v := range n.Values {
			value, err := c.value(v)
			if err != nil {
				return nil, err
			}
			values = append(values, value)
		}
		nc.Values = values
	}
	if err := c.facets(nc, n.Facets); err != nil {
		return nil, err
	}
	return nc, nil
}

func (c *compactConverter) facets(nc *shex.NodeConstraint, facets []*cFacet) error {
	for _, f := range facets {
		if f.Pattern != nil {
			nc.Pattern, nc.Flags = splitRegexp(*f.Pattern)
			continue
		}
		name := strings.ToUpper(f.Name)
		switch name {
		case "LENGTH", "MINLENGTH", "MAXLENGTH", "TOTALDIGITS", "FRACTIONDIGITS":
			n, err := strconv.Atoi(f.Value)
			if err != nil || n < 0 {
				return fmt.Errorf("shexc: %s expects a non-negative integer, got %q", name, f.Value)
			}
			switch name {
			case "LENGTH":
				nc.Length = shex.Bound(n)
			case "MINLENGTH":
				nc.MinLength = shex.Bound(n)
			case "MAXLENGTH":
				nc.MaxLength = shex.Bound(n)
			case "TOTALDIGITS":
				nc.TotalDigits = shex.Bound(n)
			case "FRACTIONDIGITS":
				nc.FractionDigits = shex.Bound(n)
			}
		default:
			f64, err := strconv.ParseFloat(f.Value, 64)
			if err != nil {
				return fmt.Errorf("shexc: %s expects a number, got %q", name, f.Value)
			}
			switch name {
			case "MININCLUSIVE":
				nc.MinInclusive = &f64
			case "MINEXCLUSIVE":
				nc.MinExclusive = &f64
			case "MAXINCLUSIVE":
				nc.MaxInclusive = &f64
			case "MAXEXCLUSIVE":
				nc.MaxExclusive = &f64
			}
		}
	}
	return nil
}

// splitRegexp separates /pattern/flags and unescapes the delimiter.
func splitRegexp(token string) (pattern, flags string) {
	end := strings.LastIndex(token, "/")
	pattern = token[1:end]
	flags = token[end+1:]
	return strings.ReplaceAll(pattern, `\/`, "/"), flags
}

func (c *compactConverter) value(v *cValue) (shex.ValueSetValue, error) {
	if v.IRI != nil {
		iri, err := c.iri(*v.IRI)
		if err != nil {
			return shex.ValueSetValue{}, err
		}
		return shex.ValueSetValue{IRI: iri}, nil
	}
	lit := v.Literal
	switch {
	case lit.String != nil:
		text, err := unquote(*lit.String)
		if err != nil {
			return shex.ValueSetValue{}, err
		}
		out := &shex.ObjectLiteral{Value: text, Language: strings.TrimPrefix(lit.Lang, "@")}
		if lit.Datatype != nil {
			iri, err := c.iri(*lit.Datatype)
			if err != nil {
				return shex.ValueSetValue{}, err
			}
			out.Type = iri
		}
		return shex.ValueSetValue{Literal: out}, nil
	case lit.Number != nil:
		return shex.ValueSetValue{Literal: &shex.ObjectLiteral{Value: *lit.Number, Type: numberType(*lit.Number)}}, nil
	case lit.Bool != nil:
		return shex.ValueSetValue{Literal: &shex.ObjectLiteral{Value: strings.ToLower(*lit.Bool), Type: xsdBoolean}}, nil
	}
	return shex.ValueSetValue{}, errors.New("shexc: empty value set entry")
}

func numberType(lexical string) string {
	switch {
	case strings.ContainsAny(lexical, "eE"):
		return xsdDouble
	case strings.Contains(lexical, "."):
		return xsdDecimal
	}
	return xsdInteger
}

func unquote(token string) (string, error) {
	if strings.HasPrefix(token, "'") {
		inner := token[1 : len(token)-1]
		inner = strings.ReplaceAll(inner, `\'`, `'`)
		inner = strings.ReplaceAll(inner, `"`, `\"`)
		token = `"` + inner + `"`
	}
	text, err := strconv.Unquote(token)
	if err != nil {
		return "", fmt.Errorf("shexc: invalid string %s: %w", token, err)
	}
	return text, nil
}

func (c *compactConverter) shape(def *cShapeDefinition) (*shex.Shape, error) {
	shape := &shex.Shape{}
	for _, q := range def.Qualifiers {
		switch {
		case q.Closed:
			shape.Closed = true
		case len(q.Extra) > 0:
			for _, ref := range q.Extra {
				iri, err := c.iri(*ref)
				if err != nil {
					return nil, err
				}
				shape.Extra = append(shape.Extra, iri)
			}
		case len(q.Extends) > 0:
			for _, ref := range q.Extends {
				iri, err := c.iri(*ref)
				if err != nil {
					return nil, err
				}
				shape.Extends = append(shape.Extends, shex.ShapeRef(iri))
			}
		}
	}
	if def.Body != nil {
		expr, err := c.tripleExpr(def.Body)
		if err != nil {
			return nil, err
		}
		shape.Expression = expr
	}
	return shape, nil
}

func (c *compactConverter) tripleExpr(t *cTripleExpr) (shex.TripleExpr, error) {
	groups := make([]shex.TripleExpr, 0, len(t.Groups))
	for _, g := range t.Groups {
		expr, err := c.group(g)
		if err != nil {
			return nil, err
		}
		groups = append(groups, expr)
	}
	if len(groups) == 1 {
		return groups[0], nil
	}
	return &shex.OneOf{Expressions: groups}, nil
}

func (c *compactConverter) group(g *cGroup) (shex.TripleExpr, error) {
	items := make([]shex.TripleExpr, 0, len(g.Items))
	for _, u := range g.Items {
		if u == nil {
			continue
		}
		expr, err := c.unary(u)
		if err != nil {
			return nil, err
		}
		items = append(items, expr)
	}
	if len(items) == 1 {
		return items[0], nil
	}
	return &shex.EachOf{Expressions: items}, nil
}

func (c *compactConverter) unary(u *cUnary) (shex.TripleExpr, error) {
	var (
		expr shex.TripleExpr
		err  error
	)
	switch {
	case u.Include != nil:
		iri, ierr := c.iri(*u.Include)
		if ierr != nil {
			return nil, ierr
		}
		if u.Card != nil {
			return nil, fmt.Errorf("shexc: cardinality on inclusion &%s", iri)
		}
		return shex.TripleExprRef(iri), nil
	case u.Group != nil:
		expr, err = c.tripleExpr(u.Group)
	default:
		expr, err = c.triple(u.Triple)
	}
	if err != nil {
		return nil, err
	}

	var label string
	if u.Label != nil {
		if label, err = c.iri(*u.Label); err != nil {
			return nil, err
		}
	}
	lo, hi, err := cardinality(u.Card)
	if err != nil {
		return nil, err
	}
	switch e := expr.(type) {
	case *shex.TripleConstraint:
		setLabelAndCard(&e.ID, &e.Min, &e.Max, label, lo, hi)
	case *shex.EachOf:
		setLabelAndCard(&e.ID, &e.Min, &e.Max, label, lo, hi)
	case *shex.OneOf:
		setLabelAndCard(&e.ID, &e.Min, &e.Max, label, lo, hi)
	}
	return expr, nil
}

func setLabelAndCard(id *string, minp, maxp **int, label string, lo, hi *int) {
	if label != "" {
		*id = label
	}
	if lo != nil {
		*minp, *maxp = lo, hi
	}
}

func (c *compactConverter) triple(t *cTriple) (*shex.TripleConstraint, error) {
	predicate := rdfType
	if t.Predicate != "a" && t.Predicate != "A" {
		iri, err := c.iri(cIRI{Ref: t.Predicate})
		if err != nil {
			return nil, err
		}
		predicate = iri
	}
	value, err := c.shapeOr(t.Value)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", predicate, err)
	}
	return &shex.TripleConstraint{Predicate: predicate, Inverse: t.Inverse, ValueExpr: value}, nil
}

func cardinality(card *cCardinality) (lo, hi *int, err error) {
	if card == nil {
		return nil, nil, nil
	}
	switch card.Symbol {
	case "*":
		return shex.Bound(0), shex.Bound(shex.Unbounded), nil
	case "+":
		return shex.Bound(1), shex.Bound(shex.Unbounded), nil
	case "?":
		return shex.Bound(0), shex.Bound(1), nil
	}
	if card.Min == nil {
		return nil, nil, errors.New("shexc: empty cardinality")
	}
	lo = shex.Bound(*card.Min)
	switch {
	case !card.Comma:
		hi = shex.Bound(*card.Min)
	case card.Max == nil || *card.Max == "*":
		hi = shex.Bound(shex.Unbounded)
	default:
		n, convErr := strconv.Atoi(*card.Max)
		if convErr != nil {
			return nil, nil, fmt.Errorf("shexc: invalid cardinality max %q", *card.Max)
		}
		hi = shex.Bound(n)
	}
	if *hi != shex.Unbounded && *hi < *lo {
		return nil, nil, fmt.Errorf("shexc: cardinality {%d,%d} has max below min", *lo, *hi)
	}
	return lo, hi, nil
}

func (c *compactConverter) iri(ref cIRI) (string, error) {
	if strings.HasPrefix(ref.Ref, "<") {
		return c.iriRef(ref.Ref)
	}
	return c.pname(ref.Ref)
}

func (c *compactConverter) iriRef(token string) (string, error) {
	raw := strings.TrimSuffix(strings.TrimPrefix(token, "<"), ">")
	if c.base == nil {
		return raw, nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("shexc: invalid IRI %s: %w", token, err)
	}
	return c.base.ResolveReference(u).String(), nil
}

func (c *compactConverter) pname(token string) (string, error) {
	prefix, local, _ := strings.Cut(token, ":")
	ns, ok := c.prefixes[prefix]
	if !ok {
		return "", fmt.Errorf("%w %q", ErrUnknownPrefix, prefix+":")
	}
	return ns + local, nil
}
