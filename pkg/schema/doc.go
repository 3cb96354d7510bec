// Package schema defines how ShEx schemas are located, loaded and parsed:
// Source values describe an origin, a Loader turns a Source into a Document
// and a Parser turns a Document into a shex.Schema.
package schema
