package lambda

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sfn"

	"github.com/frostlake/frostlake/internal/pipeline"
	"github.com/frostlake/frostlake/pkg/types"
)

// PipelineStarter launches the archival pipeline for one file and returns
// an execution reference.
type PipelineStarter interface {
	Start(ctx context.Context, p types.StepPayload) (string, error)
}

// SFNAPI is the subset of the Step Functions client used by SFNStarter.
type SFNAPI interface {
	StartExecution(ctx context.Context, params *sfn.StartExecutionInput, optFns ...func(*sfn.Options)) (*sfn.StartExecutionOutput, error)
}

// SFNStarter runs the pipeline through a Step Functions state machine.
type SFNStarter struct {
	client SFNAPI
	arn    string
}

// NewSFNStarter creates a starter for the given state machine.
func NewSFNStarter(client SFNAPI, arn string) *SFNStarter {
	return &SFNStarter{client: client, arn: arn}
}

// Start launches one execution named after the job id and start time.
func (s *SFNStarter) Start(ctx context.Context, p types.StepPayload) (string, error) {
	input, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("marshaling payload: %w", err)
	}
	name := SanitizeExecName(fmt.Sprintf("%s-%d", p.JobID, time.Now().Unix()))
	out, err := s.client.StartExecution(ctx, &sfn.StartExecutionInput{
		StateMachineArn: &s.arn,
		Name:            &name,
		Input:           aws.String(string(input)),
	})
	if err != nil {
		return "", fmt.Errorf("starting execution: %w", err)
	}
	return aws.ToString(out.ExecutionArn), nil
}

// LocalStarter runs the pipeline synchronously in-process. Used where no
// state machine is deployed.
type LocalStarter struct {
	Engine *pipeline.Engine
}

// Start runs the pipeline to completion and returns a local reference.
func (s *LocalStarter) Start(ctx context.Context, p types.StepPayload) (string, error) {
	s.Engine.Run(ctx, p)
	return "local:" + p.JobID, nil
}
