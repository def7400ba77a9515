package reader

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// jsonFormat reads self-describing records. A stream of top-level values is
// parsed one record each (multi-line values supported); a single array or
// mapping value falls back to the structured-document shape policy.
type jsonFormat struct{}

func (jsonFormat) Tags() []string { return []string{"json"} }

func (jsonFormat) Read(raw []byte) (*Dataset, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var values []any
	for {
		var v any
		err := dec.Decode(&v)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing record %d: %w", len(values)+1, err)
		}
		values = append(values, decodeNumbers(v))
	}

	if len(values) == 0 {
		return nil, fmt.Errorf("empty document")
	}

	var records []map[string]any
	if len(values) == 1 {
		recs, err := documentRows(values[0])
		if err != nil {
			return nil, err
		}
		records = recs
	} else {
		for _, v := range values {
			recs, err := documentRows(v)
			if err != nil {
				return nil, err
			}
			records = append(records, recs...)
		}
	}
	return rowsFromRecords(records), nil
}

// decodeNumbers resolves json.Number values into int64 or float64 so column
// inference sees proper numeric types.
func decodeNumbers(v any) any {
	switch val := v.(type) {
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i
		}
		if f, err := val.Float64(); err == nil {
			return f
		}
		return val.String()
	case map[string]any:
		for k, inner := range val {
			val[k] = decodeNumbers(inner)
		}
		return val
	case []any:
		for i, inner := range val {
			val[i] = decodeNumbers(inner)
		}
		return val
	default:
		return v
	}
}
