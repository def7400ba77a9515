package types

import "time"

// JobRecord is one job ledger entry. The ledger key is (job_id, start_time);
// a retried execution with a new start time writes a second record rather
// than updating the first.
type JobRecord struct {
	JobID            string           `json:"job_id" dynamodbav:"job_id"`
	FileName         string           `json:"file_name" dynamodbav:"file_name"`
	TableName        string           `json:"table_name" dynamodbav:"table_name"`
	DatabaseName     string           `json:"database_name" dynamodbav:"database_name"`
	ArchivedBy       string           `json:"archived_by" dynamodbav:"archived_by"`
	StartTime        string           `json:"start_time" dynamodbav:"start_time"`
	EndTime          string           `json:"end_time,omitempty" dynamodbav:"end_time"`
	Duration         string           `json:"duration,omitempty" dynamodbav:"duration"`
	Status           JobStatus        `json:"status" dynamodbav:"status"`
	ValidationStatus ValidationStatus `json:"validation_status" dynamodbav:"validation_status"`
	SourceRowCount   int64            `json:"source_row_count" dynamodbav:"source_row_count"`
	TargetRowCount   int64            `json:"target_row_count" dynamodbav:"target_row_count"`
	SchemaMatch      bool             `json:"schema_match" dynamodbav:"schema_match"`
	ChecksumMatch    bool             `json:"checksum_match" dynamodbav:"checksum_match"`
	ErrorMessage     string           `json:"error_message" dynamodbav:"error_message"`
}

// NewRunningRecord is the ledger entry for an accepted, unfinished job. It
// is written at acceptance and again when the pipeline starts; both writes
// share the (job_id, start_time) key, so the second is a no-op overwrite.
func NewRunningRecord(p StepPayload) JobRecord {
	return JobRecord{
		JobID:            p.JobID,
		FileName:         p.ObjectKey,
		TableName:        p.Table,
		DatabaseName:     p.Database,
		ArchivedBy:       p.Actor,
		StartTime:        p.StartTime.UTC().Format(time.RFC3339),
		Status:           JobRunning,
		ValidationStatus: ValidationPending,
	}
}

// StepPayload is threaded through the orchestrator stages for one uploaded file.
type StepPayload struct {
	JobID     string    `json:"job_id"`
	ObjectKey string    `json:"object_key"`
	FileType  string    `json:"file_type"`
	Database  string    `json:"database"`
	Table     string    `json:"table"`
	LoadMode  LoadMode  `json:"load_type"`
	Actor     string    `json:"actor"`
	StartTime time.Time `json:"start_time"`
}

// QueryStatistics holds engine-reported execution statistics.
type QueryStatistics struct {
	DataScannedBytes int64 `json:"data_scanned_bytes"`
	ExecutionTimeMS  int64 `json:"execution_time_ms"`
}

// QueryExecution is the transient result of one bounded query invocation.
// It is never persisted.
type QueryExecution struct {
	ExecutionID string              `json:"query_execution_id"`
	State       QueryState          `json:"status"`
	Error       string              `json:"error,omitempty"`
	Columns     []string            `json:"columns,omitempty"`
	ColumnTypes []string            `json:"column_types,omitempty"`
	Rows        []map[string]string `json:"data,omitempty"`
	RowCount    int                 `json:"row_count"`
	Statistics  QueryStatistics     `json:"statistics"`
}

// SourceMetrics are the integrity metrics computed from the raw source file.
type SourceMetrics struct {
	RowCount int64    `json:"source_row_count"`
	Schema   []string `json:"source_schema"`
	Checksum string   `json:"source_checksum"`
}

// ValidationDetails records both sides of the comparison for reporting.
type ValidationDetails struct {
	RowCountMatch  bool     `json:"row_count_match"`
	SchemaMatch    bool     `json:"schema_match"`
	ChecksumMatch  bool     `json:"checksum_match"`
	SourceRowCount int64    `json:"source_row_count"`
	TargetRowCount int64    `json:"target_row_count"`
	SourceSchema   []string `json:"source_schema"`
	TargetSchema   []string `json:"target_schema"`
}

// ValidationReport is the verdict from comparing source and target metrics.
type ValidationReport struct {
	TargetRowCount int64             `json:"target_row_count"`
	RowCountMatch  bool              `json:"row_count_match"`
	SchemaMatch    bool              `json:"schema_match"`
	ChecksumMatch  bool              `json:"checksum_match"`
	Status         ValidationStatus  `json:"validation_status"`
	Details        ValidationDetails `json:"validation_details"`
}

// TeardownStep is one independently-reported removal action.
type TeardownStep struct {
	Action         string     `json:"action"`
	Status         StepStatus `json:"status"`
	Prefix         string     `json:"prefix,omitempty"`
	DeletedObjects int        `json:"deleted_objects,omitempty"`
	DeletedRecords int        `json:"deleted_records,omitempty"`
	IcebergDropped *bool      `json:"iceberg_dropped,omitempty"`
	GlueDeleted    *bool      `json:"glue_deleted,omitempty"`
	Detail         string     `json:"detail,omitempty"`
}

// TeardownResult is the outcome of removing one table across all stores.
type TeardownResult struct {
	Database string         `json:"database"`
	Table    string         `json:"table"`
	Steps    []TeardownStep `json:"steps"`
	Status   StepStatus     `json:"status"`
}
