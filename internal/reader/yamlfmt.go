package reader

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// yamlFormat reads a structured document: a root sequence yields one row per
// element, a mapping with exactly one sequence-valued field yields that
// field's elements, and any other mapping becomes a single row.
type yamlFormat struct{}

func (yamlFormat) Tags() []string { return []string{"yaml", "yml"} }

func (yamlFormat) Read(raw []byte) (*Dataset, error) {
	var root any
	if err := yaml.Unmarshal(raw, &root); err != nil {
		return nil, fmt.Errorf("parsing document: %w", err)
	}

	records, err := documentRows(root)
	if err != nil {
		return nil, err
	}
	return rowsFromRecords(records), nil
}

// documentRows applies the structured-document shape policy to a decoded
// root value.
func documentRows(root any) ([]map[string]any, error) {
	switch doc := root.(type) {
	case []any:
		return elementRecords(doc)
	case map[string]any:
		var seq []any
		seqFields := 0
		for _, v := range doc {
			if list, ok := v.([]any); ok {
				seq = list
				seqFields++
			}
		}
		if seqFields == 1 && len(seq) > 0 {
			return elementRecords(seq)
		}
		return []map[string]any{doc}, nil
	default:
		return nil, fmt.Errorf("unsupported document structure: %T", root)
	}
}

// elementRecords converts sequence elements to keyed records; scalar
// elements get a single "value" column.
func elementRecords(list []any) ([]map[string]any, error) {
	if len(list) == 0 {
		return nil, fmt.Errorf("document sequence is empty")
	}
	records := make([]map[string]any, 0, len(list))
	for _, el := range list {
		if m, ok := el.(map[string]any); ok {
			records = append(records, m)
			continue
		}
		records = append(records, map[string]any{"value": el})
	}
	return records, nil
}
