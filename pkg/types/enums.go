// Package types defines the public domain types for the frostlake archival service.
package types

// JobStatus represents the execution lifecycle state of an archival job.
type JobStatus string

// JobStatus values enumerate the job lifecycle states.
const (
	JobRunning JobStatus = "RUNNING"
	JobSuccess JobStatus = "SUCCESS"
	JobFailed  JobStatus = "FAILED"
)

// ValidationStatus represents the outcome of source/target validation.
type ValidationStatus string

// ValidationStatus values enumerate the validation outcomes.
const (
	ValidationPending ValidationStatus = "PENDING"
	ValidationPassed  ValidationStatus = "PASSED"
	ValidationFailed  ValidationStatus = "FAILED"
)

// LoadMode defines how rows are written to the target table.
type LoadMode string

// LoadMode values: full replaces all target data, incremental appends.
const (
	LoadFull        LoadMode = "full"
	LoadIncremental LoadMode = "incremental"
)

// QueryState represents the observed state of a query execution.
type QueryState string

// QueryState values mirror the engine's terminal and non-terminal states,
// plus TIMEOUT for a polling budget that was exhausted locally.
const (
	QueryRunning   QueryState = "RUNNING"
	QuerySucceeded QueryState = "SUCCEEDED"
	QueryFailed    QueryState = "FAILED"
	QueryCancelled QueryState = "CANCELLED"
	QueryTimeout   QueryState = "TIMEOUT"
)

// StepStatus represents the outcome of one teardown step or the whole teardown.
type StepStatus string

// StepStatus values; PARTIAL applies only to the overall teardown result.
const (
	StepSuccess StepStatus = "SUCCESS"
	StepFailed  StepStatus = "FAILED"
	StepPartial StepStatus = "PARTIAL"
)
