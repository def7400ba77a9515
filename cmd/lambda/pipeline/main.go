// pipeline runs one archival job for a single object. Invoked by the
// state machine with a step payload, returns the finished job record.
package main

import (
	"context"
	"log"
	"time"

	awslambda "github.com/aws/aws-lambda-go/lambda"
	"github.com/oklog/ulid/v2"

	intlambda "github.com/frostlake/frostlake/internal/lambda"
	"github.com/frostlake/frostlake/pkg/types"
)

func handle(ctx context.Context, d *intlambda.Deps, p types.StepPayload) (types.JobRecord, error) {
	if p.JobID == "" {
		p.JobID = ulid.Make().String()
	}
	if p.StartTime.IsZero() {
		p.StartTime = time.Now().UTC()
	}
	if p.LoadMode == "" {
		p.LoadMode = types.LoadFull
	}
	return d.Pipeline.Run(ctx, p), nil
}

func main() {
	deps, err := intlambda.Init(context.Background())
	if err != nil {
		log.Fatalf("init failed: %v", err)
	}
	awslambda.Start(func(ctx context.Context, p types.StepPayload) (types.JobRecord, error) {
		return handle(ctx, deps, p)
	})
}
