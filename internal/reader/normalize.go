package reader

import (
	"log/slog"
	"strings"
	"time"
)

// Audit columns appended to every written dataset.
const (
	AuditJobIDColumn     = "_etl_job_id"
	AuditTimestampColumn = "_etl_timestamp"
	AuditSourceColumn    = "_source_file"
)

var normalizeReplacer = strings.NewReplacer(
	" ", "_",
	"-", "_",
	".", "_",
	"/", "_",
	"\\", "_",
)

// Normalize rewrites a column name into its canonical storage-safe form:
// trimmed, lower-cased, separator characters replaced with underscores, and
// parenthesized annotations like "Amount($)" dropped. Pure and idempotent.
func Normalize(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	var b strings.Builder
	depth := 0
	for _, c := range name {
		switch c {
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		default:
			if depth == 0 {
				b.WriteRune(c)
			}
		}
	}
	return normalizeReplacer.Replace(b.String())
}

// NormalizeColumns applies Normalize to every column name in place.
func NormalizeColumns(ds *Dataset) {
	for i := range ds.Columns {
		ds.Columns[i].Name = Normalize(ds.Columns[i].Name)
	}
}

// Stamp appends the three audit columns after normalization. A source column
// that already carries an audit name is flagged and dropped, not renamed;
// the stamp value wins in the written dataset.
func Stamp(ds *Dataset, jobID, sourceKey string, now time.Time, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	keep := make([]int, 0, len(ds.Columns))
	for i, col := range ds.Columns {
		switch col.Name {
		case AuditJobIDColumn, AuditTimestampColumn, AuditSourceColumn:
			logger.Warn("source column collides with audit column", "column", col.Name)
		default:
			keep = append(keep, i)
		}
	}
	if len(keep) < len(ds.Columns) {
		cols := make([]Column, 0, len(keep)+3)
		for _, i := range keep {
			cols = append(cols, ds.Columns[i])
		}
		ds.Columns = cols
		for r, row := range ds.Rows {
			pruned := make([]any, 0, len(keep)+3)
			for _, i := range keep {
				if i < len(row) {
					pruned = append(pruned, row[i])
				}
			}
			ds.Rows[r] = pruned
		}
	}

	ds.Columns = append(ds.Columns,
		Column{Name: AuditJobIDColumn, Type: TypeString},
		Column{Name: AuditTimestampColumn, Type: TypeTimestamp},
		Column{Name: AuditSourceColumn, Type: TypeString},
	)
	for i, row := range ds.Rows {
		ds.Rows[i] = append(row, jobID, now, sourceKey)
	}
}
