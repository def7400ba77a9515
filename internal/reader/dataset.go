package reader

// Column type tags, aligned with the target engine's DDL types.
const (
	TypeString    = "string"
	TypeBigint    = "bigint"
	TypeDouble    = "double"
	TypeBoolean   = "boolean"
	TypeTimestamp = "timestamp"
)

// Column is one dataset column with its inferred (or embedded) type.
type Column struct {
	Name string
	Type string
}

// Dataset is a parsed tabular payload. Row values are positional and align
// with Columns; missing cells are nil.
type Dataset struct {
	Columns []Column
	Rows    [][]any
}

// ColumnNames returns the column names in order.
func (d *Dataset) ColumnNames() []string {
	names := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		names[i] = c.Name
	}
	return names
}

// rowsFromRecords converts keyed records into a positional dataset, with
// columns ordered by first appearance and types inferred per column.
func rowsFromRecords(records []map[string]any) *Dataset {
	var order []string
	seen := make(map[string]int)
	for _, rec := range records {
		for _, key := range sortedKeys(rec) {
			if _, ok := seen[key]; !ok {
				seen[key] = len(order)
				order = append(order, key)
			}
		}
	}

	ds := &Dataset{}
	for _, name := range order {
		ds.Columns = append(ds.Columns, Column{Name: name, Type: TypeString})
	}
	for _, rec := range records {
		row := make([]any, len(order))
		for key, val := range rec {
			row[seen[key]] = normalizeScalar(val)
		}
		ds.Rows = append(ds.Rows, row)
	}

	for i := range ds.Columns {
		ds.Columns[i].Type = inferColumnType(ds.Rows, i)
	}
	return ds
}
