package shex

// Unbounded is the Max value of a cardinality without an upper limit.
const Unbounded = -1

// ContextIRI is the JSON-LD context emitted with ShExJ documents.
const ContextIRI = "http://www.w3.org/ns/shex.jsonld"

// Schema is an immutable set of shape declarations.
type Schema struct {
	Start   ShapeExpr
	Imports []string
	Shapes  []*ShapeDecl
}

// ShapeDecl binds a shape expression to its identifier.
type ShapeDecl struct {
	ID        string
	Abstract  bool
	ShapeExpr ShapeExpr
}

// ShapeExpr is the closed set of shape expression kinds. Use
// DispatchShapeExpr to branch over them.
type ShapeExpr interface {
	isShapeExpr()
}

// Shape constrains the triples around a focus node.
type Shape struct {
	ID         string
	Closed     bool
	Extra      []string
	Extends    []ShapeExpr
	Expression TripleExpr
}

// ShapeAnd is the conjunction of shape expressions.
type ShapeAnd struct {
	ID         string
	ShapeExprs []ShapeExpr
}

// ShapeOr is the disjunction of shape expressions.
type ShapeOr struct {
	ID         string
	ShapeExprs []ShapeExpr
}

// ShapeNot negates a shape expression.
type ShapeNot struct {
	ID        string
	ShapeExpr ShapeExpr
}

// ShapeExternal marks a shape defined outside the schema.
type ShapeExternal struct {
	ID string
}

// NodeKind restricts the RDF term kind of a value.
type NodeKind string

const (
	NodeKindIRI        NodeKind = "iri"
	NodeKindBNode      NodeKind = "bnode"
	NodeKindNonLiteral NodeKind = "nonliteral"
	NodeKindLiteral    NodeKind = "literal"
)

// NodeConstraint restricts a single value by kind, datatype, value set and
// facets.
type NodeConstraint struct {
	ID       string
	NodeKind NodeKind
	Datatype string
	Values   []ValueSetValue

	Pattern   string
	Flags     string
	Length    *int
	MinLength *int
	MaxLength *int

	MinInclusive   *float64
	MinExclusive   *float64
	MaxInclusive   *float64
	MaxExclusive   *float64
	TotalDigits    *int
	FractionDigits *int
}

// ShapeRef references a shape declaration by identifier.
type ShapeRef string

func (*Shape) isShapeExpr()          {}
func (*ShapeAnd) isShapeExpr()       {}
func (*ShapeOr) isShapeExpr()        {}
func (*ShapeNot) isShapeExpr()       {}
func (*ShapeExternal) isShapeExpr()  {}
func (*NodeConstraint) isShapeExpr() {}
func (ShapeRef) isShapeExpr()        {}

// TripleExpr is the closed set of triple expression kinds. Use
// DispatchTripleExpr to branch over them.
type TripleExpr interface {
	isTripleExpr()
}

// EachOf requires every sub-expression.
type EachOf struct {
	ID          string
	Expressions []TripleExpr
	Min         *int
	Max         *int
}

// OneOf requires exactly one sub-expression.
type OneOf struct {
	ID          string
	Expressions []TripleExpr
	Min         *int
	Max         *int
}

// TripleConstraint constrains the objects reachable through Predicate.
type TripleConstraint struct {
	ID        string
	Predicate string
	Inverse   bool
	ValueExpr ShapeExpr
	Min       *int
	Max       *int
}

// TripleExprRef references a labelled triple expression.
type TripleExprRef string

func (*EachOf) isTripleExpr()           {}
func (*OneOf) isTripleExpr()            {}
func (*TripleConstraint) isTripleExpr() {}
func (TripleExprRef) isTripleExpr()     {}

// ValueSetValue is one entry of a NodeConstraint value set. IRI entries carry
// only IRI, literal entries carry Literal, and other ShExJ entries (stems,
// ranges, language tags) carry their type name in Kind.
type ValueSetValue struct {
	IRI     string
	Literal *ObjectLiteral
	Kind    string
}

// ObjectLiteral is an RDF literal inside a value set.
type ObjectLiteral struct {
	Value    string `json:"value"`
	Language string `json:"language,omitempty"`
	Type     string `json:"type,omitempty"`
}

// IsIRI reports whether the entry is a bare IRI.
func (v ValueSetValue) IsIRI() bool {
	return v.Kind == "" && v.Literal == nil && v.IRI != ""
}

// IsLiteral reports whether the entry is an object literal.
func (v ValueSetValue) IsLiteral() bool {
	return v.Kind == "" && v.Literal != nil
}

// Label returns the user facing text of the entry.
func (v ValueSetValue) Label() string {
	switch {
	case v.IsLiteral():
		return v.Literal.Value
	case v.IsIRI():
		return v.IRI
	}
	return v.Kind
}

// Bound returns a pointer to n, for cardinality and facet literals.
func Bound(n int) *int {
	return &n
}
