package athena

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsathena "github.com/aws/aws-sdk-go-v2/service/athena"
	athenatypes "github.com/aws/aws-sdk-go-v2/service/athena/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frostlake/frostlake/pkg/types"
)

type mockAthenaClient struct {
	startOut   *awsathena.StartQueryExecutionOutput
	startErr   error
	getOuts    []*awsathena.GetQueryExecutionOutput
	getErr     error
	getCalls   int
	resultsOut *awsathena.GetQueryResultsOutput
	resultsErr error
}

func (m *mockAthenaClient) StartQueryExecution(ctx context.Context, params *awsathena.StartQueryExecutionInput, optFns ...func(*awsathena.Options)) (*awsathena.StartQueryExecutionOutput, error) {
	return m.startOut, m.startErr
}

func (m *mockAthenaClient) GetQueryExecution(ctx context.Context, params *awsathena.GetQueryExecutionInput, optFns ...func(*awsathena.Options)) (*awsathena.GetQueryExecutionOutput, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	out := m.getOuts[m.getCalls]
	if m.getCalls < len(m.getOuts)-1 {
		m.getCalls++
	}
	return out, nil
}

func (m *mockAthenaClient) GetQueryResults(ctx context.Context, params *awsathena.GetQueryResultsInput, optFns ...func(*awsathena.Options)) (*awsathena.GetQueryResultsOutput, error) {
	return m.resultsOut, m.resultsErr
}

func execOut(state athenatypes.QueryExecutionState, reason string) *awsathena.GetQueryExecutionOutput {
	status := &athenatypes.QueryExecutionStatus{State: state}
	if reason != "" {
		status.StateChangeReason = &reason
	}
	return &awsathena.GetQueryExecutionOutput{
		QueryExecution: &athenatypes.QueryExecution{Status: status},
	}
}

func fastRunner(client API) *Runner {
	return NewRunner(client, RunnerConfig{
		Workgroup:    "primary",
		Database:     "archive_db",
		PollInterval: time.Millisecond,
		MaxAttempts:  3,
	})
}

func TestRun_Succeeded(t *testing.T) {
	client := &mockAthenaClient{
		startOut: &awsathena.StartQueryExecutionOutput{QueryExecutionId: aws.String("exec-1")},
		getOuts: []*awsathena.GetQueryExecutionOutput{
			execOut(athenatypes.QueryExecutionStateRunning, ""),
			{
				QueryExecution: &athenatypes.QueryExecution{
					Status: &athenatypes.QueryExecutionStatus{State: athenatypes.QueryExecutionStateSucceeded},
					Statistics: &athenatypes.QueryExecutionStatistics{
						DataScannedInBytes:          aws.Int64(2048),
						EngineExecutionTimeInMillis: aws.Int64(310),
					},
				},
			},
		},
		resultsOut: &awsathena.GetQueryResultsOutput{
			ResultSet: &athenatypes.ResultSet{
				ResultSetMetadata: &athenatypes.ResultSetMetadata{
					ColumnInfo: []athenatypes.ColumnInfo{
						{Name: aws.String("cnt"), Type: aws.String("bigint")},
					},
				},
				Rows: []athenatypes.Row{
					{Data: []athenatypes.Datum{{VarCharValue: aws.String("cnt")}}}, // header echo
					{Data: []athenatypes.Datum{{VarCharValue: aws.String("42")}}},
				},
			},
		},
	}

	exec, err := fastRunner(client).Run(context.Background(), "SELECT COUNT(*) FROM t", "")
	require.NoError(t, err)
	assert.Equal(t, types.QuerySucceeded, exec.State)
	assert.Equal(t, "exec-1", exec.ExecutionID)
	require.Len(t, exec.Rows, 1)
	assert.Equal(t, "42", exec.Rows[0]["cnt"])
	assert.Equal(t, 1, exec.RowCount)
	assert.Equal(t, int64(2048), exec.Statistics.DataScannedBytes)
	assert.Equal(t, int64(310), exec.Statistics.ExecutionTimeMS)
}

func TestRun_FailedReturnsReasonNotError(t *testing.T) {
	client := &mockAthenaClient{
		startOut: &awsathena.StartQueryExecutionOutput{QueryExecutionId: aws.String("exec-2")},
		getOuts: []*awsathena.GetQueryExecutionOutput{
			execOut(athenatypes.QueryExecutionStateFailed, "TABLE_NOT_FOUND: t"),
		},
	}

	exec, err := fastRunner(client).Run(context.Background(), "SELECT 1", "")
	require.NoError(t, err)
	assert.Equal(t, types.QueryFailed, exec.State)
	assert.Equal(t, "TABLE_NOT_FOUND: t", exec.Error)
}

func TestRun_Cancelled(t *testing.T) {
	client := &mockAthenaClient{
		startOut: &awsathena.StartQueryExecutionOutput{QueryExecutionId: aws.String("exec-3")},
		getOuts: []*awsathena.GetQueryExecutionOutput{
			execOut(athenatypes.QueryExecutionStateCancelled, "cancelled by user"),
		},
	}

	exec, err := fastRunner(client).Run(context.Background(), "SELECT 1", "")
	require.NoError(t, err)
	assert.Equal(t, types.QueryCancelled, exec.State)
}

func TestRun_TimeoutIsNotAnError(t *testing.T) {
	client := &mockAthenaClient{
		startOut: &awsathena.StartQueryExecutionOutput{QueryExecutionId: aws.String("exec-4")},
		getOuts: []*awsathena.GetQueryExecutionOutput{
			execOut(athenatypes.QueryExecutionStateRunning, ""),
		},
	}

	exec, err := fastRunner(client).Run(context.Background(), "SELECT 1", "")
	require.NoError(t, err)
	assert.Equal(t, types.QueryTimeout, exec.State)
	assert.NotEqual(t, types.QueryFailed, exec.State)
	assert.Contains(t, exec.Error, "timed out")
}

func TestRun_SubmissionError(t *testing.T) {
	client := &mockAthenaClient{startErr: assert.AnError}

	_, err := fastRunner(client).Run(context.Background(), "SELECT 1", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "StartQueryExecution failed")
}

func TestRun_ContextCancelled(t *testing.T) {
	client := &mockAthenaClient{
		startOut: &awsathena.StartQueryExecutionOutput{QueryExecutionId: aws.String("exec-5")},
		getOuts: []*awsathena.GetQueryExecutionOutput{
			execOut(athenatypes.QueryExecutionStateRunning, ""),
		},
	}
	r := NewRunner(client, RunnerConfig{PollInterval: time.Minute, MaxAttempts: 5})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.Run(ctx, "SELECT 1", "db")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunRequired_FailureBecomesError(t *testing.T) {
	client := &mockAthenaClient{
		startOut: &awsathena.StartQueryExecutionOutput{QueryExecutionId: aws.String("exec-6")},
		getOuts: []*awsathena.GetQueryExecutionOutput{
			execOut(athenatypes.QueryExecutionStateFailed, "SYNTAX_ERROR"),
		},
	}

	_, err := fastRunner(client).RunRequired(context.Background(), "SELEC 1", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SYNTAX_ERROR")
}

func TestGuard(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		rejected bool
		fragment string
	}{
		{"select ok", "SELECT * FROM t", false, ""},
		{"drop table ok", "DROP TABLE IF EXISTS t", false, ""},
		{"drop database", "DROP DATABASE archive_db", true, "DROP DATABASE"},
		{"drop schema lowercase", "drop schema foo", true, "DROP SCHEMA"},
		{"create user", "CREATE USER intruder", true, "CREATE USER"},
		{"grant", "GRANT ALL ON t TO x", true, "GRANT"},
		{"embedded fragment", "SELECT 1; DROP DATABASE x", true, "DROP DATABASE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Guard(tt.query)
			if tt.rejected {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.fragment)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
