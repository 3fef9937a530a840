package batch

import (
	"bytes"
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"github.com/goccy/go-yaml"
)

type batchDef struct {
	Expressions []any `json:"expressions"`
}

// ParseYAML reads a YAML document that is either a list of expressions or a
// mapping with an "expressions" list.
func ParseYAML(r io.Reader) ([]string, error) {
	yamlBytes, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("io.ReadAll: %w", err)
	}

	jsonBytes, err := yaml.YAMLToJSON(yamlBytes)
	if err != nil {
		return nil, fmt.Errorf("yaml.YAMLToJSON: %w", err)
	}

	return ParseJSON(bytes.NewReader(jsonBytes))
}

func ParseJSON(r io.Reader) ([]string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("io.ReadAll: %w", err)
	}

	var items []any
	if trimmed := bytes.TrimSpace(b); len(trimmed) != 0 && trimmed[0] == '[' {
		if err := unmarshalJSONUseNumber(trimmed, &items); err != nil {
			return nil, fmt.Errorf("json.Decode: %w", err)
		}
	} else {
		var def batchDef
		if err := unmarshalJSONUseNumber(trimmed, &def); err != nil {
			return nil, fmt.Errorf("json.Decode: %w", err)
		}
		items = def.Expressions
	}

	exprs := make([]string, len(items))
	for i, item := range items {
		switch v := item.(type) {
		case string:
			exprs[i] = v
		case json.Number:
			exprs[i] = v.String()
		default:
			return nil, fmt.Errorf("expressions[%d]: must be a string or a number but got %T", i, item)
		}
	}
	return exprs, nil
}

func unmarshalJSONUseNumber(b []byte, v any) error {
	decoder := json.NewDecoder(bytes.NewReader(b))
	decoder.UseNumber()
	return decoder.Decode(v)
}
