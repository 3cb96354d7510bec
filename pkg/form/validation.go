package form

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/goliatone/go-shexform/pkg/shex"
)

var patternCache sync.Map

// compilePattern compiles a ShEx pattern with its flags. Matching is
// unanchored and case-sensitive unless the flags say otherwise.
func compilePattern(pattern, flags string) (*regexp.Regexp, error) {
	key := flags + "/" + pattern
	if cached, ok := patternCache.Load(key); ok {
		return cached.(*regexp.Regexp), nil
	}
	var prefix strings.Builder
	for _, flag := range flags {
		switch flag {
		case 'i', 'm', 's':
			prefix.WriteRune(flag)
		}
	}
	expr := pattern
	if prefix.Len() > 0 {
		expr = "(?" + prefix.String() + ")" + pattern
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, err
	}
	patternCache.Store(key, re)
	return re, nil
}

func validatePattern(nc *shex.NodeConstraint, value string) string {
	if nc.Pattern == "" {
		return ""
	}
	re, err := compilePattern(nc.Pattern, nc.Flags)
	if err != nil {
		return fmt.Sprintf("invalid pattern %s", nc.Pattern)
	}
	if !re.MatchString(value) {
		return fmt.Sprintf("value does not match %s", nc.Pattern)
	}
	return ""
}

// validateIRI checks presence for non-optional slots and the pattern facet.
func validateIRI(ctx Context, nc *shex.NodeConstraint, node *Node) []string {
	value, _ := node.Value.(string)
	if value == "" {
		if ctx.slot != slotOptional {
			return []string{"an IRI is required"}
		}
		return nil
	}
	if msg := validatePattern(nc, value); msg != "" {
		return []string{msg}
	}
	return nil
}

// validateLiteral checks presence, lexical form, length and range facets of a
// literal leaf. Checkboxes always carry a value.
func validateLiteral(ctx Context, nc *shex.NodeConstraint, editor PrimitiveEditor, node *Node) []string {
	if editor.Widget == WidgetCheckbox {
		return nil
	}
	text := FormatValue(node.Value)
	if !node.Present || text == "" {
		if ctx.slot != slotOptional {
			return []string{"a value is required"}
		}
		return nil
	}

	var out []string
	if editor.Check != nil {
		if msg := editor.Check(node.Value); msg != "" {
			out = append(out, msg)
		}
	}
	if msg := validatePattern(nc, text); msg != "" {
		out = append(out, msg)
	}

	length := utf8.RuneCountInString(text)
	if nc.Length != nil && length != *nc.Length {
		out = append(out, fmt.Sprintf("must be exactly %d characters", *nc.Length))
	}
	if nc.MinLength != nil && length < *nc.MinLength {
		out = append(out, fmt.Sprintf("must be at least %d characters", *nc.MinLength))
	}
	if nc.MaxLength != nil && length > *nc.MaxLength {
		out = append(out, fmt.Sprintf("must be at most %d characters", *nc.MaxLength))
	}

	if number, ok := toFloat(node.Value); ok {
		if nc.MinInclusive != nil && number < *nc.MinInclusive {
			out = append(out, fmt.Sprintf("must be at least %s", FormatValue(*nc.MinInclusive)))
		}
		if nc.MinExclusive != nil && number <= *nc.MinExclusive {
			out = append(out, fmt.Sprintf("must be greater than %s", FormatValue(*nc.MinExclusive)))
		}
		if nc.MaxInclusive != nil && number > *nc.MaxInclusive {
			out = append(out, fmt.Sprintf("must be at most %s", FormatValue(*nc.MaxInclusive)))
		}
		if nc.MaxExclusive != nil && number >= *nc.MaxExclusive {
			out = append(out, fmt.Sprintf("must be less than %s", FormatValue(*nc.MaxExclusive)))
		}
	}
	return out
}

// validateCount flags lists holding fewer elements than the minimum.
func validateCount(card shex.Cardinality, count int) []string {
	if count < card.Min {
		return []string{fmt.Sprintf("at least %d values are required", card.Min)}
	}
	return nil
}
