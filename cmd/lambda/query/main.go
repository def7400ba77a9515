// query exposes guarded ad-hoc reads against the archive catalog.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/aws/aws-lambda-go/events"
	awslambda "github.com/aws/aws-lambda-go/lambda"

	"github.com/frostlake/frostlake/internal/athena"
	intlambda "github.com/frostlake/frostlake/internal/lambda"
	"github.com/frostlake/frostlake/pkg/types"
)

type queryRequest struct {
	Action   string `json:"action"`
	Query    string `json:"query"`
	Database string `json:"database"`
}

func handle(ctx context.Context, d *intlambda.Deps, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	var body queryRequest
	if err := json.Unmarshal([]byte(req.Body), &body); err != nil {
		return intlambda.RespondError(400, "invalid request body"), nil
	}
	if body.Database == "" {
		body.Database = d.Settings.GlueDatabase
	}

	query := body.Query
	if body.Action == "list_tables" {
		query = fmt.Sprintf("SHOW TABLES IN %s", body.Database)
	} else {
		if query == "" {
			return intlambda.RespondError(400, "query is required"), nil
		}
		// Destructive statements are rejected before anything is submitted.
		if err := athena.Guard(query); err != nil {
			return intlambda.RespondError(400, err.Error()), nil
		}
	}

	exec, err := d.Runner.Run(ctx, query, body.Database)
	if err != nil {
		d.Logger.Error("query execution failed", "error", err)
		return intlambda.RespondError(500, err.Error()), nil
	}
	if exec.State != types.QuerySucceeded {
		return intlambda.Respond(400, exec), nil
	}
	return intlambda.Respond(200, exec), nil
}

func main() {
	deps, err := intlambda.Init(context.Background())
	if err != nil {
		log.Fatalf("init failed: %v", err)
	}
	awslambda.Start(func(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
		return handle(ctx, deps, req)
	})
}
