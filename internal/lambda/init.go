// Package lambda provides shared dependency construction and response
// envelopes for the Lambda handlers.
package lambda

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsathena "github.com/aws/aws-sdk-go-v2/service/athena"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/glue"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sfn"

	"github.com/frostlake/frostlake/internal/athena"
	"github.com/frostlake/frostlake/internal/config"
	"github.com/frostlake/frostlake/internal/events"
	"github.com/frostlake/frostlake/internal/ledger"
	"github.com/frostlake/frostlake/internal/objectstore"
	"github.com/frostlake/frostlake/internal/pipeline"
	"github.com/frostlake/frostlake/internal/teardown"
	"github.com/frostlake/frostlake/internal/validate"
	"github.com/frostlake/frostlake/internal/writer"
)

// Deps holds shared dependencies for Lambda handlers.
type Deps struct {
	Settings *config.Settings
	Store    *objectstore.Store
	Runner   *athena.Runner
	Writer   *writer.Writer
	Checker  *validate.Checker
	Ledger   *ledger.Ledger
	Pipeline *pipeline.Engine
	Teardown *teardown.Coordinator
	Events   *events.Publisher
	Starter  PipelineStarter
	Logger   *slog.Logger
}

// Init creates shared dependencies from environment variables.
// Reads: AWS_REGION, DATA_BUCKET, GLUE_DATABASE, ATHENA_WORKGROUP,
// ATHENA_OUTPUT, LEDGER_TABLE, STATE_MACHINE_ARN, EVENT_BUS.
func Init(ctx context.Context) (*Deps, error) {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	settings, err := config.FromEnv()
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}

	var opts []func(*awsconfig.LoadOptions) error
	if settings.Region != "" {
		opts = append(opts, awsconfig.WithRegion(settings.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	store := objectstore.New(s3.NewFromConfig(awsCfg), settings.DataBucket)
	glueClient := glue.NewFromConfig(awsCfg)

	runner := athena.NewRunner(awsathena.NewFromConfig(awsCfg), athena.RunnerConfig{
		Workgroup:    settings.AthenaWorkgroup,
		Output:       settings.AthenaOutput,
		Database:     settings.GlueDatabase,
		PollInterval: settings.PollInterval,
		MaxAttempts:  settings.MaxAttempts,
	})
	runner.SetLogger(logger)

	led, err := ledger.New(&ledger.Config{
		TableName: settings.LedgerTable,
		Region:    settings.Region,
		Endpoint:  settings.DynamoEndpoint,
	})
	if err != nil {
		return nil, fmt.Errorf("creating ledger: %w", err)
	}
	led.SetLogger(logger)

	w := writer.New(glueClient, runner, settings.GlueDatabase, settings.DataBucket)
	w.SetLogger(logger)

	checker := validate.NewChecker(runner, glueClient, settings.GlueDatabase)
	checker.SetLogger(logger)

	var publisher *events.Publisher
	if settings.EventBus != "" {
		publisher = events.New(eventbridge.NewFromConfig(awsCfg), settings.EventBus)
	}

	var eng *pipeline.Engine
	if publisher != nil {
		eng = pipeline.New(store, formats(), w, checker, led, publisher)
	} else {
		eng = pipeline.New(store, formats(), w, checker, led, nil)
	}
	eng.SetLogger(logger)

	td := teardown.New(store, glueClient, runner, led, settings.GlueDatabase)
	td.SetLogger(logger)

	var starter PipelineStarter
	if settings.StateMachineARN != "" {
		starter = NewSFNStarter(sfn.NewFromConfig(awsCfg), settings.StateMachineARN)
	} else {
		starter = &LocalStarter{Engine: eng}
	}

	return &Deps{
		Settings: settings,
		Store:    store,
		Runner:   runner,
		Writer:   w,
		Checker:  checker,
		Ledger:   led,
		Pipeline: eng,
		Teardown: td,
		Events:   publisher,
		Starter:  starter,
		Logger:   logger,
	}, nil
}
