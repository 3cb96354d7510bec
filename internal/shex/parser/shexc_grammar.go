package parser

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Grammar for the ShEx compact syntax. Annotations and semantic actions are
// not part of it.

type cDocument struct {
	Statements []*cStatement `@@*`
}

type cStatement struct {
	Prefix *cPrefix    `  "PREFIX" @@`
	Base   *string     `| "BASE" @IRIRef`
	Import *string     `| "IMPORT" @IRIRef`
	Start  *cShapeOr   `| "start" "=" @@`
	Decl   *cShapeDecl `| @@`
}

type cPrefix struct {
	Name string `@PName`
	IRI  string `@IRIRef`
}

type cIRI struct {
	Ref string `@IRIRef | @PName`
}

type cShapeDecl struct {
	Abstract bool     `@"ABSTRACT"?`
	Label    cIRI     `@@`
	External bool     `( @"EXTERNAL"`
	Expr     *cShapeOr `| @@ )`
}

type cShapeOr struct {
	Terms []*cShapeAnd `@@ ( "OR" @@ )*`
}

type cShapeAnd struct {
	Terms []*cShapeNot `@@ ( "AND" @@ )*`
}

type cShapeNot struct {
	Not  bool    `@"NOT"?`
	Atom *cAtom  `@@`
}

type cAtom struct {
	Group    *cShapeOr         `  "(" @@ ")"`
	Ref      *string           `| "@" @IRIRef`
	RefPName *string           `| @AtPName`
	Dot      bool              `| @"."`
	Node     *cNodeConstraint  `| @@`
	Facets   []*cFacet         `| @@+`
	Shape    *cShapeDefinition `| @@`
}

type cNodeConstraint struct {
	Kind     *string   `(  @("IRI" | "LITERAL" | "BNODE" | "NONLITERAL")`
	Datatype *cIRI     `   | @@`
	Values   []*cValue `   | "[" @@* "]" )`
	Facets   []*cFacet `@@*`
}

type cFacet struct {
	Pattern *string `  @Regexp`
	Name    string  `| @("LENGTH" | "MINLENGTH" | "MAXLENGTH" | "MININCLUSIVE" | "MINEXCLUSIVE" | "MAXINCLUSIVE" | "MAXEXCLUSIVE" | "TOTALDIGITS" | "FRACTIONDIGITS")`
	Value   string  `  @Number`
}

type cValue struct {
	IRI     *cIRI     `  @@`
	Literal *cLiteral `| @@`
}

type cLiteral struct {
	String   *string `(  @String`
	Lang     string  `   @LangTag?`
	Datatype *cIRI   `   ( "^" "^" @@ )?`
	Number   *string `| @Number`
	Bool     *string `| @("true" | "false") )`
}

type cShapeDefinition struct {
	Qualifiers []*cQualifier `@@*`
	Body       *cTripleExpr  `"{" @@? "}"`
}

type cQualifier struct {
	Closed  bool    `  @"CLOSED"`
	Extra   []*cIRI `| "EXTRA" @@+`
	Extends []*cIRI `| "EXTENDS" "@"? @@ ( "&" "@"? @@ )*`
}

type cTripleExpr struct {
	Groups []*cGroup `@@ ( "|" @@ )*`
}

type cGroup struct {
	Items []*cUnary `@@ ( ";" @@? )*`
}

type cUnary struct {
	Label   *cIRI         `( "$" @@ )?`
	Include *cIRI         `(  "&" @@`
	Group   *cTripleExpr  `  | "(" @@ ")"`
	Triple  *cTriple      `  | @@ )`
	Card    *cCardinality `@@?`
}

type cTriple struct {
	Inverse   bool      `@"^"?`
	Predicate string    `( @IRIRef | @PName | @"a" )`
	Value     *cShapeOr `@@`
}

type cCardinality struct {
	Symbol string  `  @("*" | "+" | "?")`
	Min    *int    `| "{" @Number`
	Comma  bool    `  ( @","`
	Max    *string `    ( @Number | @"*" )? )? "}"`
}

var shexcLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `#[^\n]*`},
	{Name: "Whitespace", Pattern: `\s+`},
	{Name: "IRIRef", Pattern: `<[^<>"{}|^\x60\\\s]*>`},
	{Name: "String", Pattern: `"(\\.|[^"\\\n])*"|'(\\.|[^'\\\n])*'`},
	{Name: "Regexp", Pattern: `/(\\.|[^/\\\n])+/[smix]*`},
	{Name: "AtPName", Pattern: `@([A-Za-z][A-Za-z0-9_.\-]*)?:([A-Za-z0-9_%][A-Za-z0-9_.%\-]*)?`},
	{Name: "LangTag", Pattern: `@[A-Za-z]+(-[A-Za-z0-9]+)*`},
	{Name: "PName", Pattern: `([A-Za-z][A-Za-z0-9_.\-]*)?:([A-Za-z0-9_%][A-Za-z0-9_.%\-]*)?`},
	{Name: "Number", Pattern: `[+-]?([0-9]+(\.[0-9]+)?|\.[0-9]+)([eE][+-]?[0-9]+)?`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_\-]*`},
	{Name: "Punct", Pattern: `[{}()\[\];|?*+,.&$^=@]`},
})

var shexcParser = participle.MustBuild[cDocument](
	participle.Lexer(shexcLexer),
	participle.Elide("Comment", "Whitespace"),
	participle.CaseInsensitive("Ident"),
	participle.UseLookahead(2),
)
