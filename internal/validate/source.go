// Package validate computes source-side and target-side integrity metrics
// and renders the pass/fail verdict for one archival job.
package validate

import (
	"bytes"
	"crypto/md5"
	"encoding/csv"
	"encoding/hex"
	"strings"

	"github.com/frostlake/frostlake/internal/reader"
	"github.com/frostlake/frostlake/pkg/types"
)

// SourceMetrics computes row count, schema and checksum from the raw source
// file. Counts are per-format heuristics over the raw bytes; schema
// extraction is defined for delimited text only (other formats report an
// empty schema, which makes the schema comparison trivially pass — an
// accepted limitation).
func SourceMetrics(raw []byte, fileType string) types.SourceMetrics {
	sum := md5.Sum(raw)
	m := types.SourceMetrics{
		Checksum: hex.EncodeToString(sum[:]),
		Schema:   []string{},
	}

	switch strings.ToLower(fileType) {
	case "csv":
		m.RowCount = countCSVRows(raw)
		m.Schema = csvSchema(raw)
	case "xlsx", "xls":
		// Approximation: non-empty line count minus header.
		m.RowCount = maxInt64(0, int64(bytes.Count(raw, []byte("\n")))-1)
	case "parquet":
		// Row count requires decoding the footer; reported as a sentinel.
		m.RowCount = -1
	case "xml":
		m.RowCount = int64(bytes.Count(raw, []byte("<record")) +
			bytes.Count(raw, []byte("<row")) +
			bytes.Count(raw, []byte("<item")))
	case "yaml", "yml", "json":
		m.RowCount = int64(bytes.Count(raw, []byte("\n-")))
		if strings.ToLower(fileType) == "json" {
			m.RowCount = countJSONItems(raw)
		}
	default:
		m.RowCount = int64(bytes.Count(raw, []byte("\n")))
	}
	return m
}

// countCSVRows counts data records, excluding the header. Quoted fields may
// span lines, so this parses rather than counting newlines.
func countCSVRows(raw []byte) int64 {
	r := csv.NewReader(bytes.NewReader(raw))
	r.LazyQuotes = true
	r.FieldsPerRecord = -1

	var n int64 = -1 // exclude header
	for {
		if _, err := r.Read(); err != nil {
			break
		}
		n++
	}
	return maxInt64(0, n)
}

// csvSchema extracts normalized column names from the header row.
func csvSchema(raw []byte) []string {
	r := csv.NewReader(bytes.NewReader(raw))
	r.LazyQuotes = true
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return []string{}
	}
	schema := make([]string, len(header))
	for i, name := range header {
		schema[i] = reader.Normalize(name)
	}
	return schema
}

// countJSONItems counts elements of a top-level array, or lines for
// newline-delimited records. Array elements are delimited by commas at
// nesting depth one; string contents and nested containers are skipped so
// inner objects do not inflate the count.
func countJSONItems(raw []byte) int64 {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return 0
	}
	if trimmed[0] != '[' {
		return int64(bytes.Count(trimmed, []byte("\n")) + 1)
	}

	var count int64
	depth := 0
	inString := false
	escaped := false
	sawElement := false
	for _, c := range trimmed {
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
			if depth == 1 {
				sawElement = true
			}
		case '[', '{':
			if depth == 1 {
				sawElement = true
			}
			depth++
		case ']', '}':
			depth--
		case ',':
			if depth == 1 {
				count++
			}
		case ' ', '\t', '\r', '\n':
		default:
			if depth == 1 {
				sawElement = true
			}
		}
	}
	if sawElement {
		count++
	}
	return count
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
