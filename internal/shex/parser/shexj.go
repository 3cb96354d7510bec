package parser

import (
	"bytes"
	_ "embed"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"sigs.k8s.io/yaml"

	"github.com/goliatone/go-shexform/pkg/shex"
)

const shexjSchemaURL = "https://shexform.local/schemas/shexj.schema.json"

//go:embed schemas/shexj.schema.json
var shexjSchema []byte

var (
	shexjOnce      sync.Once
	shexjValidator *jsonschema.Schema
	shexjErr       error
)

func compiledShExJ() (*jsonschema.Schema, error) {
	shexjOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(shexjSchema))
		if err != nil {
			shexjErr = fmt.Errorf("shexj: load schema: %w", err)
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(shexjSchemaURL, doc); err != nil {
			shexjErr = fmt.Errorf("shexj: add schema: %w", err)
			return
		}
		shexjValidator, shexjErr = compiler.Compile(shexjSchemaURL)
	})
	return shexjValidator, shexjErr
}

// ValidateShExJ checks the structure of a ShExJ document before decoding.
func ValidateShExJ(data []byte) error {
	validator, err := compiledShExJ()
	if err != nil {
		return err
	}
	instance, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("shexj: %w", err)
	}
	if err := validator.Validate(instance); err != nil {
		return fmt.Errorf("shexj: invalid schema document: %w", err)
	}
	return nil
}

// ParseJSON decodes ShExJ, validating it first unless skip is set.
func ParseJSON(data []byte, skip bool) (*shex.Schema, error) {
	if !skip {
		if err := ValidateShExJ(data); err != nil {
			return nil, err
		}
	}
	schema, err := shex.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("shexj: %w", err)
	}
	return schema, nil
}

// ParseYAML decodes ShExJ written as YAML.
func ParseYAML(data []byte, skip bool) (*shex.Schema, error) {
	converted, err := yaml.YAMLToJSON(data)
	if err != nil {
		return nil, fmt.Errorf("shexj: yaml: %w", err)
	}
	return ParseJSON(converted, skip)
}
