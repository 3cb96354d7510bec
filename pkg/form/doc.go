// Package form turns a ShEx shape into a tree of widgets bound to a document.
//
// Render walks the shape expression of a declaration and produces Nodes:
// groups for shapes, EachOf and OneOf, one node per triple constraint, lists
// for repeated cardinalities and input leaves for node constraints. Nodes do
// not mutate anything. Their actions (Change, Clear, Add, Remove, Select,
// Choose) raise the Events of the Context they were rendered with, and the
// owner of the document applies the edit and renders again.
//
// Validation is advisory: messages are attached to Node.Errors and never
// block an edit.
package form
