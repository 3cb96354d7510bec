// Package parser reads ShEx schemas in compact syntax (ShExC), JSON (ShExJ)
// and ShExJ written as YAML.
//
// ShExC is parsed with a participle grammar and converted to the same
// shex.Schema values the ShExJ decoder produces. ShExJ input is checked
// against an embedded JSON Schema before decoding so structural mistakes are
// reported with their JSON location.
package parser
