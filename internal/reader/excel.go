package reader

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// excelFormat reads the first sheet of a spreadsheet: first row as header,
// remaining rows as data, types inferred from cell text.
type excelFormat struct{}

func (excelFormat) Tags() []string { return []string{"xlsx", "xls"} }

func (excelFormat) Read(raw []byte) (*Dataset, error) {
	f, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %q is empty", sheets[0])
	}

	header := rows[0]
	ds := &Dataset{}
	for _, name := range header {
		ds.Columns = append(ds.Columns, Column{Name: name, Type: TypeString})
	}

	for _, cells := range rows[1:] {
		row := make([]any, len(header))
		for i := range header {
			if i < len(cells) {
				row[i], _ = inferCell(cells[i])
			}
		}
		ds.Rows = append(ds.Rows, row)
	}

	for i := range ds.Columns {
		ds.Columns[i].Type = inferColumnType(ds.Rows, i)
	}
	return ds, nil
}
