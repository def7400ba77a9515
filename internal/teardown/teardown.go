// Package teardown removes a table's raw data, warehouse data, catalog
// entry and ledger records. Removal is best-effort: each step reports its
// own outcome and no failure aborts the remaining steps.
package teardown

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/service/glue"
	gluetypes "github.com/aws/aws-sdk-go-v2/service/glue/types"

	"github.com/frostlake/frostlake/pkg/types"
)

// dropAttempts is the polling budget for the drop statement, tighter than
// the general query bound.
const dropAttempts = 30

// PrefixDeleter removes every object under a prefix.
type PrefixDeleter interface {
	DeletePrefix(ctx context.Context, prefix string) (int, error)
}

// GlueAPI is the subset of the Glue client used for catalog removal.
type GlueAPI interface {
	DeleteTable(ctx context.Context, params *glue.DeleteTableInput, optFns ...func(*glue.Options)) (*glue.DeleteTableOutput, error)
}

// QueryRunner executes the drop statement with a bounded wait.
type QueryRunner interface {
	RunWithBudget(ctx context.Context, query, database string, maxAttempts int) (*types.QueryExecution, error)
}

// LedgerDeleter removes job records for a table.
type LedgerDeleter interface {
	DeleteByTable(ctx context.Context, database, table string) (int, error)
}

// Coordinator tears a table down across all storage subsystems.
type Coordinator struct {
	store     PrefixDeleter
	glue      GlueAPI
	runner    QueryRunner
	ledger    LedgerDeleter
	catalogDB string
	logger    *slog.Logger
}

// New creates a Coordinator against the managed catalog database.
func New(store PrefixDeleter, glueClient GlueAPI, runner QueryRunner, ledger LedgerDeleter, catalogDB string) *Coordinator {
	return &Coordinator{
		store:     store,
		glue:      glueClient,
		runner:    runner,
		ledger:    ledger,
		catalogDB: catalogDB,
		logger:    slog.Default(),
	}
}

// SetLogger replaces the default logger.
func (c *Coordinator) SetLogger(l *slog.Logger) {
	if l != nil {
		c.logger = l
	}
}

// Teardown executes all removal steps unconditionally in sequence. Overall
// status is SUCCESS only if every step succeeded, else PARTIAL. Invoking it
// again on an already-removed table succeeds with zero deletions.
func (c *Coordinator) Teardown(ctx context.Context, database, table string) types.TeardownResult {
	result := types.TeardownResult{Database: database, Table: table}

	// 1. Raw source objects.
	rawPrefix := fmt.Sprintf("%s/%s/raw/", database, table)
	result.Steps = append(result.Steps, c.deletePrefixStep(ctx, "delete_s3_raw", rawPrefix))

	// 2. Warehouse objects.
	warehousePrefix := fmt.Sprintf("warehouse/%s/%s/", database, table)
	result.Steps = append(result.Steps, c.deletePrefixStep(ctx, "delete_s3_warehouse", warehousePrefix))

	// 3 + 4. Catalog table: engine drop, then explicit catalog removal.
	// Either succeeding is sufficient — one path may already have cleaned
	// the entry up.
	dropped := c.dropTable(ctx, table)
	glueDeleted := c.deleteCatalogEntry(ctx, table)
	catalogStatus := types.StepFailed
	if dropped || glueDeleted {
		catalogStatus = types.StepSuccess
	}
	result.Steps = append(result.Steps, types.TeardownStep{
		Action:         "delete_catalog_table",
		IcebergDropped: &dropped,
		GlueDeleted:    &glueDeleted,
		Status:         catalogStatus,
	})

	// 5. Ledger records.
	ledgerStep := types.TeardownStep{Action: "delete_metadata", Status: types.StepSuccess}
	if deleted, err := c.ledger.DeleteByTable(ctx, database, table); err != nil {
		ledgerStep.Status = types.StepFailed
		ledgerStep.Detail = err.Error()
	} else {
		ledgerStep.DeletedRecords = deleted
	}
	result.Steps = append(result.Steps, ledgerStep)

	result.Status = types.StepSuccess
	for _, step := range result.Steps {
		if step.Status != types.StepSuccess {
			result.Status = types.StepPartial
			break
		}
	}
	return result
}

func (c *Coordinator) deletePrefixStep(ctx context.Context, action, prefix string) types.TeardownStep {
	step := types.TeardownStep{Action: action, Prefix: prefix, Status: types.StepSuccess}
	deleted, err := c.store.DeletePrefix(ctx, prefix)
	step.DeletedObjects = deleted
	if err != nil {
		step.Status = types.StepFailed
		step.Detail = err.Error()
	}
	return step
}

// dropTable drops the catalog table through the query engine, tolerating
// "already absent" via IF EXISTS.
func (c *Coordinator) dropTable(ctx context.Context, table string) bool {
	stmt := fmt.Sprintf(`DROP TABLE IF EXISTS "%s"."%s" PURGE`, c.catalogDB, table)
	exec, err := c.runner.RunWithBudget(ctx, stmt, c.catalogDB, dropAttempts)
	if err != nil {
		c.logger.Warn("drop table submission failed", "table", table, "error", err)
		return false
	}
	if exec.State != types.QuerySucceeded {
		c.logger.Warn("drop table did not succeed", "table", table, "state", exec.State, "reason", exec.Error)
		return false
	}
	return true
}

// deleteCatalogEntry removes the catalog entry directly; not-found counts
// as success.
func (c *Coordinator) deleteCatalogEntry(ctx context.Context, table string) bool {
	_, err := c.glue.DeleteTable(ctx, &glue.DeleteTableInput{
		DatabaseName: &c.catalogDB,
		Name:         &table,
	})
	if err != nil {
		var nfe *gluetypes.EntityNotFoundException
		if errors.As(err, &nfe) {
			return true
		}
		c.logger.Warn("catalog entry removal failed", "table", table, "error", err)
		return false
	}
	return true
}
