// Package athena implements the bounded query primitive: submit a statement,
// then poll for a terminal state within a fixed attempt budget. It is the
// single polling loop shared by the validation engine, the table writer and
// the teardown coordinator.
package athena

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/athena"
	athenatypes "github.com/aws/aws-sdk-go-v2/service/athena/types"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/frostlake/frostlake/pkg/types"
)

// API is the subset of the Athena client used by the Runner.
type API interface {
	StartQueryExecution(ctx context.Context, params *athena.StartQueryExecutionInput, optFns ...func(*athena.Options)) (*athena.StartQueryExecutionOutput, error)
	GetQueryExecution(ctx context.Context, params *athena.GetQueryExecutionInput, optFns ...func(*athena.Options)) (*athena.GetQueryExecutionOutput, error)
	GetQueryResults(ctx context.Context, params *athena.GetQueryResultsInput, optFns ...func(*athena.Options)) (*athena.GetQueryResultsOutput, error)
}

// maxResultRows caps how many result rows one execution returns.
const maxResultRows = 1000

// RunnerConfig holds the polling policy and engine coordinates.
type RunnerConfig struct {
	Workgroup    string
	Output       string
	Database     string // default query database
	PollInterval time.Duration
	MaxAttempts  int
}

// Runner submits queries and awaits a terminal state within the polling bound.
type Runner struct {
	client       API
	workgroup    string
	output       string
	database     string
	pollInterval time.Duration
	maxAttempts  int
	breaker      *gobreaker.CircuitBreaker
	logger       *slog.Logger
	tracer       trace.Tracer
}

// NewRunner creates a Runner with the given polling policy.
func NewRunner(client API, cfg RunnerConfig) *Runner {
	interval := cfg.PollInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	attempts := cfg.MaxAttempts
	if attempts <= 0 {
		attempts = 60
	}
	return &Runner{
		client:       client,
		workgroup:    cfg.Workgroup,
		output:       cfg.Output,
		database:     cfg.Database,
		pollInterval: interval,
		maxAttempts:  attempts,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name: "athena-submit",
		}),
		logger: slog.Default(),
		tracer: otel.Tracer("frostlake/athena"),
	}
}

// SetLogger replaces the default logger.
func (r *Runner) SetLogger(l *slog.Logger) {
	if l != nil {
		r.logger = l
	}
}

// Run submits a query and polls until a terminal state or the attempt budget
// is exhausted. FAILED/CANCELLED and TIMEOUT are returned as structured
// results with a nil error; the error return covers submission and transport
// failures only.
func (r *Runner) Run(ctx context.Context, query, database string) (*types.QueryExecution, error) {
	return r.RunWithBudget(ctx, query, database, r.maxAttempts)
}

// RunWithBudget is Run with a caller-supplied attempt budget.
func (r *Runner) RunWithBudget(ctx context.Context, query, database string, maxAttempts int) (*types.QueryExecution, error) {
	ctx, span := r.tracer.Start(ctx, "athena.run")
	defer span.End()

	if maxAttempts <= 0 {
		maxAttempts = r.maxAttempts
	}
	db := database
	if db == "" {
		db = r.database
	}

	execID, err := r.submit(ctx, query, db)
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		out, err := r.client.GetQueryExecution(ctx, &athena.GetQueryExecutionInput{
			QueryExecutionId: &execID,
		})
		if err != nil {
			return nil, fmt.Errorf("athena: GetQueryExecution failed: %w", err)
		}

		status := out.QueryExecution.Status
		switch status.State {
		case athenatypes.QueryExecutionStateSucceeded:
			return r.fetchResults(ctx, execID, out.QueryExecution)
		case athenatypes.QueryExecutionStateFailed, athenatypes.QueryExecutionStateCancelled:
			reason := "query execution failed"
			if status.StateChangeReason != nil {
				reason = *status.StateChangeReason
			}
			return &types.QueryExecution{
				ExecutionID: execID,
				State:       types.QueryState(status.State),
				Error:       reason,
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(r.pollInterval):
		}
	}

	r.logger.Warn("query polling budget exhausted", "executionID", execID, "attempts", maxAttempts)
	return &types.QueryExecution{
		ExecutionID: execID,
		State:       types.QueryTimeout,
		Error:       fmt.Sprintf("query timed out after %s", time.Duration(maxAttempts)*r.pollInterval),
	}, nil
}

// RunRequired is Run for callers that need a successful result; any
// non-SUCCEEDED terminal state becomes an error.
func (r *Runner) RunRequired(ctx context.Context, query, database string) (*types.QueryExecution, error) {
	exec, err := r.Run(ctx, query, database)
	if err != nil {
		return nil, err
	}
	if exec.State != types.QuerySucceeded {
		return nil, fmt.Errorf("athena: query %s: %s", exec.State, exec.Error)
	}
	return exec, nil
}

// submit starts the execution through the circuit breaker.
func (r *Runner) submit(ctx context.Context, query, database string) (string, error) {
	input := &athena.StartQueryExecutionInput{
		QueryString: &query,
		QueryExecutionContext: &athenatypes.QueryExecutionContext{
			Database: &database,
		},
	}
	if r.workgroup != "" {
		input.WorkGroup = &r.workgroup
	}
	if r.output != "" {
		input.ResultConfiguration = &athenatypes.ResultConfiguration{
			OutputLocation: &r.output,
		}
	}

	out, err := r.breaker.Execute(func() (interface{}, error) {
		return r.client.StartQueryExecution(ctx, input)
	})
	if err != nil {
		return "", fmt.Errorf("athena: StartQueryExecution failed: %w", err)
	}
	resp := out.(*athena.StartQueryExecutionOutput)
	if resp.QueryExecutionId == nil {
		return "", fmt.Errorf("athena: StartQueryExecution returned no execution id")
	}
	return *resp.QueryExecutionId, nil
}

func (r *Runner) fetchResults(ctx context.Context, execID string, exec *athenatypes.QueryExecution) (*types.QueryExecution, error) {
	out, err := r.client.GetQueryResults(ctx, &athena.GetQueryResultsInput{
		QueryExecutionId: &execID,
		MaxResults:       aws.Int32(maxResultRows),
	})
	if err != nil {
		return nil, fmt.Errorf("athena: GetQueryResults failed: %w", err)
	}

	result := &types.QueryExecution{
		ExecutionID: execID,
		State:       types.QuerySucceeded,
	}
	if exec.Statistics != nil {
		if exec.Statistics.DataScannedInBytes != nil {
			result.Statistics.DataScannedBytes = *exec.Statistics.DataScannedInBytes
		}
		if exec.Statistics.EngineExecutionTimeInMillis != nil {
			result.Statistics.ExecutionTimeMS = *exec.Statistics.EngineExecutionTimeInMillis
		}
	}
	if out.ResultSet == nil {
		return result, nil
	}

	if out.ResultSet.ResultSetMetadata != nil {
		for _, col := range out.ResultSet.ResultSetMetadata.ColumnInfo {
			result.Columns = append(result.Columns, aws.ToString(col.Name))
			result.ColumnTypes = append(result.ColumnTypes, aws.ToString(col.Type))
		}
	}

	// The first row repeats the header.
	for i, row := range out.ResultSet.Rows {
		if i == 0 {
			continue
		}
		record := make(map[string]string, len(result.Columns))
		for j, datum := range row.Data {
			if j >= len(result.Columns) {
				break
			}
			record[result.Columns[j]] = aws.ToString(datum.VarCharValue)
		}
		result.Rows = append(result.Rows, record)
	}
	result.RowCount = len(result.Rows)
	return result, nil
}
