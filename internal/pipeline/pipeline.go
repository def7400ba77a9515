// Package pipeline sequences reader, writer, validation and ledger for one
// uploaded file and tracks the job's lifecycle state.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/frostlake/frostlake/internal/reader"
	"github.com/frostlake/frostlake/internal/validate"
	"github.com/frostlake/frostlake/pkg/types"
)

// maxErrorLength bounds the error message persisted on a failed job.
const maxErrorLength = 1000

// ObjectGetter downloads the source file.
type ObjectGetter interface {
	Get(ctx context.Context, key string) ([]byte, error)
}

// RowWriter writes a dataset to the target table.
type RowWriter interface {
	Write(ctx context.Context, ds *reader.Dataset, database, table string, mode types.LoadMode) (int, error)
}

// Validator compares target metrics against source metrics.
type Validator interface {
	Target(ctx context.Context, in validate.TargetInput) (*types.ValidationReport, error)
}

// Ledger persists job records.
type Ledger interface {
	Put(ctx context.Context, rec types.JobRecord) error
}

// Publisher emits lifecycle events for terminal jobs. May be nil.
type Publisher interface {
	Publish(ctx context.Context, rec types.JobRecord) error
}

// Engine is the job lifecycle state machine.
type Engine struct {
	store   ObjectGetter
	formats *reader.Registry
	writer  RowWriter
	checker Validator
	ledger  Ledger
	events  Publisher
	logger  *slog.Logger
	tracer  trace.Tracer
}

// New creates an Engine. events may be nil.
func New(store ObjectGetter, formats *reader.Registry, w RowWriter, checker Validator, ledger Ledger, events Publisher) *Engine {
	return &Engine{
		store:   store,
		formats: formats,
		writer:  w,
		checker: checker,
		ledger:  ledger,
		events:  events,
		logger:  slog.Default(),
		tracer:  otel.Tracer("frostlake/pipeline"),
	}
}

// SetLogger replaces the default logger.
func (e *Engine) SetLogger(l *slog.Logger) {
	if l != nil {
		e.logger = l
	}
}

// Run executes the archival pipeline for one file. The returned record is
// the terminal ledger entry; a record is written on every path.
//
// Execution failures (parse, write, required query) mark the job FAILED. A
// FAILED validation verdict does not: it is recorded on a SUCCESS job as
// data describing the outcome.
func (e *Engine) Run(ctx context.Context, p types.StepPayload) types.JobRecord {
	ctx, span := e.tracer.Start(ctx, "pipeline.run")
	defer span.End()

	rec := types.NewRunningRecord(p)
	if err := e.ledger.Put(ctx, rec); err != nil {
		e.logger.Warn("failed to record initial job status", "jobID", p.JobID, "error", err)
	}

	raw, err := e.store.Get(ctx, p.ObjectKey)
	if err != nil {
		return e.fail(ctx, rec, p, fmt.Errorf("fetching source: %w", err))
	}

	ds, err := e.formats.Read(raw, p.FileType)
	if err != nil {
		return e.fail(ctx, rec, p, err)
	}
	reader.NormalizeColumns(ds)
	reader.Stamp(ds, p.JobID, p.ObjectKey, time.Now().UTC(), e.logger)

	if _, err := e.writer.Write(ctx, ds, p.Database, p.Table, p.LoadMode); err != nil {
		return e.fail(ctx, rec, p, err)
	}

	src := validate.SourceMetrics(raw, p.FileType)
	report, err := e.checker.Target(ctx, validate.TargetInput{
		Database:       p.Database,
		Table:          p.Table,
		LoadMode:       p.LoadMode,
		SourceRowCount: src.RowCount,
		SourceSchema:   src.Schema,
	})
	if err != nil {
		return e.fail(ctx, rec, p, err)
	}

	now := time.Now().UTC()
	rec.Status = types.JobSuccess
	rec.ValidationStatus = report.Status
	rec.SourceRowCount = src.RowCount
	rec.TargetRowCount = report.TargetRowCount
	rec.SchemaMatch = report.SchemaMatch
	rec.ChecksumMatch = report.ChecksumMatch
	rec.EndTime = now.Format(time.RFC3339)
	rec.Duration = formatDuration(now.Sub(p.StartTime))

	e.finish(ctx, rec)
	e.logger.Info("job completed", "jobID", p.JobID, "table", p.Table, "validation", report.Status)
	return rec
}

// fail records the terminal FAILED state and stops the pipeline.
func (e *Engine) fail(ctx context.Context, rec types.JobRecord, p types.StepPayload, cause error) types.JobRecord {
	now := time.Now().UTC()
	rec.Status = types.JobFailed
	rec.ValidationStatus = types.ValidationFailed
	rec.ErrorMessage = truncate(cause.Error(), maxErrorLength)
	rec.EndTime = now.Format(time.RFC3339)
	rec.Duration = formatDuration(now.Sub(p.StartTime))

	e.finish(ctx, rec)
	e.logger.Error("job failed", "jobID", p.JobID, "table", p.Table, "error", cause)
	return rec
}

func (e *Engine) finish(ctx context.Context, rec types.JobRecord) {
	if err := e.ledger.Put(ctx, rec); err != nil {
		e.logger.Error("failed to record terminal job status", "jobID", rec.JobID, "error", err)
	}
	if e.events != nil {
		if err := e.events.Publish(ctx, rec); err != nil {
			e.logger.Warn("failed to publish lifecycle event", "jobID", rec.JobID, "error", err)
		}
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// formatDuration renders "XmYs" for the ledger, matching the recorded form.
func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d.Seconds())
	return fmt.Sprintf("%dm %ds", total/60, total%60)
}
