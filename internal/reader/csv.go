package reader

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
)

// csvFormat parses delimited text. The header row defines the columns;
// quoted fields may contain embedded newlines and quote characters.
type csvFormat struct{}

func (csvFormat) Tags() []string { return []string{"csv"} }

func (csvFormat) Read(raw []byte) (*Dataset, error) {
	r := csv.NewReader(bytes.NewReader(raw))
	r.LazyQuotes = true
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty file")
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	ds := &Dataset{}
	for _, name := range header {
		ds.Columns = append(ds.Columns, Column{Name: name, Type: TypeString})
	}

	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row %d: %w", len(ds.Rows)+2, err)
		}

		row := make([]any, len(header))
		for i := range header {
			if i < len(record) {
				row[i], _ = inferCell(record[i])
			}
		}
		ds.Rows = append(ds.Rows, row)
	}

	for i := range ds.Columns {
		ds.Columns[i].Type = inferColumnType(ds.Rows, i)
	}
	return ds, nil
}
