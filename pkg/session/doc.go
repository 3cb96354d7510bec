// Package session holds the state of one form: the schema, the chosen start
// shape, the current document snapshot and the OneOf selections.
//
// A Session renders widget trees whose actions call back into it. Each
// callback applies one copy-on-write edit to the snapshot under a mutex, so
// concurrent callers see edits in a single order. Edits that fail are logged,
// exposed through Err and otherwise dropped; the previous snapshot remains.
package session
