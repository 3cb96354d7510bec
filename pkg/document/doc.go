// Package document models the JSON-LD-like tree edited by forms: paths made of
// key and index steps, and pure copy-on-write Set/Remove/Subtree operations.
// Values are map[string]any mappings (including {"@value": v} literals),
// []any sequences, and IRI strings.
package document
