// Package writer idempotently ensures a target Iceberg table exists and
// writes dataset rows with create / append / overwrite semantics, using
// engine SQL through the bounded query primitive.
package writer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/glue"
	gluetypes "github.com/aws/aws-sdk-go-v2/service/glue/types"

	"github.com/frostlake/frostlake/internal/reader"
	"github.com/frostlake/frostlake/pkg/types"
)

// GlueAPI is the subset of the Glue client used for the existence probe.
type GlueAPI interface {
	GetTable(ctx context.Context, params *glue.GetTableInput, optFns ...func(*glue.Options)) (*glue.GetTableOutput, error)
}

// QueryRunner executes statements that must succeed.
type QueryRunner interface {
	RunRequired(ctx context.Context, query, database string) (*types.QueryExecution, error)
}

// defaultBatchSize bounds the size of one INSERT statement.
const defaultBatchSize = 100

// Writer writes datasets to catalog tables.
type Writer struct {
	glue      GlueAPI
	runner    QueryRunner
	catalogDB string
	bucket    string
	batchSize int
	logger    *slog.Logger
}

// New creates a Writer bound to the managed catalog database and warehouse
// bucket.
func New(glueClient GlueAPI, runner QueryRunner, catalogDB, bucket string) *Writer {
	return &Writer{
		glue:      glueClient,
		runner:    runner,
		catalogDB: catalogDB,
		bucket:    bucket,
		batchSize: defaultBatchSize,
		logger:    slog.Default(),
	}
}

// SetLogger replaces the default logger.
func (w *Writer) SetLogger(l *slog.Logger) {
	if l != nil {
		w.logger = l
	}
}

// Write ensures the table exists and writes ds according to mode. Returns
// the number of rows written.
//
// The describe-then-create sequence is not atomic; two concurrent jobs
// targeting a new table may both observe "absent". Callers serialize full
// loads per table.
func (w *Writer) Write(ctx context.Context, ds *reader.Dataset, database, table string, mode types.LoadMode) (int, error) {
	exists, err := w.tableExists(ctx, table)
	if err != nil {
		return 0, fmt.Errorf("writer: probing table %s: %w", table, err)
	}

	if !exists {
		if err := w.createTable(ctx, ds, database, table); err != nil {
			return 0, fmt.Errorf("writer: creating table %s: %w", table, err)
		}
	} else if mode == types.LoadFull {
		// Overwrite: clear previous contents before the insert snapshot.
		stmt := fmt.Sprintf(`DELETE FROM %s`, w.qualified(table))
		if _, err := w.runner.RunRequired(ctx, stmt, w.catalogDB); err != nil {
			return 0, fmt.Errorf("writer: clearing table %s: %w", table, err)
		}
	}

	if err := w.insert(ctx, ds, table); err != nil {
		return 0, fmt.Errorf("writer: writing to %s: %w", table, err)
	}

	w.logger.Info("rows written", "table", table, "mode", mode, "rows", len(ds.Rows))
	return len(ds.Rows), nil
}

func (w *Writer) tableExists(ctx context.Context, table string) (bool, error) {
	_, err := w.glue.GetTable(ctx, &glue.GetTableInput{
		DatabaseName: &w.catalogDB,
		Name:         &table,
	})
	if err != nil {
		var nfe *gluetypes.EntityNotFoundException
		if errors.As(err, &nfe) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (w *Writer) createTable(ctx context.Context, ds *reader.Dataset, database, table string) error {
	cols := make([]string, len(ds.Columns))
	for i, c := range ds.Columns {
		cols[i] = fmt.Sprintf(`"%s" %s`, c.Name, c.Type)
	}
	location := fmt.Sprintf("s3://%s/warehouse/%s/%s/", w.bucket, database, table)
	stmt := fmt.Sprintf(
		"CREATE TABLE %s (%s) LOCATION '%s' TBLPROPERTIES ('table_type'='ICEBERG')",
		w.qualified(table), strings.Join(cols, ", "), location,
	)
	_, err := w.runner.RunRequired(ctx, stmt, w.catalogDB)
	return err
}

func (w *Writer) insert(ctx context.Context, ds *reader.Dataset, table string) error {
	if len(ds.Rows) == 0 {
		return nil
	}

	names := make([]string, len(ds.Columns))
	for i, c := range ds.Columns {
		names[i] = fmt.Sprintf(`"%s"`, c.Name)
	}
	prefix := fmt.Sprintf("INSERT INTO %s (%s) VALUES ", w.qualified(table), strings.Join(names, ", "))

	for start := 0; start < len(ds.Rows); start += w.batchSize {
		end := start + w.batchSize
		if end > len(ds.Rows) {
			end = len(ds.Rows)
		}
		batch := make([]string, 0, end-start)
		for _, row := range ds.Rows[start:end] {
			vals := make([]string, len(ds.Columns))
			for i := range ds.Columns {
				var v any
				if i < len(row) {
					v = row[i]
				}
				vals[i] = sqlLiteral(v)
			}
			batch = append(batch, "("+strings.Join(vals, ", ")+")")
		}
		if _, err := w.runner.RunRequired(ctx, prefix+strings.Join(batch, ", "), w.catalogDB); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) qualified(table string) string {
	return fmt.Sprintf(`"%s"."%s"`, w.catalogDB, table)
}

// sqlLiteral encodes one dataset value as an engine SQL literal.
func sqlLiteral(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case int64:
		return fmt.Sprintf("%d", val)
	case float64:
		return fmt.Sprintf("%g", val)
	case bool:
		return fmt.Sprintf("%t", val)
	case time.Time:
		return fmt.Sprintf("TIMESTAMP '%s'", val.UTC().Format("2006-01-02 15:04:05.000"))
	case string:
		return "'" + strings.ReplaceAll(val, "'", "''") + "'"
	default:
		return "'" + strings.ReplaceAll(fmt.Sprintf("%v", val), "'", "''") + "'"
	}
}
