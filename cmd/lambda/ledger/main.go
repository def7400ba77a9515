// ledger serves job history reads and single-job deletes.
package main

import (
	"context"
	"log"
	"strconv"

	"github.com/aws/aws-lambda-go/events"
	awslambda "github.com/aws/aws-lambda-go/lambda"

	intlambda "github.com/frostlake/frostlake/internal/lambda"
)

const defaultListLimit = 50

func handle(ctx context.Context, d *intlambda.Deps, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	switch req.RequestContext.HTTP.Method {
	case "GET":
		return handleList(ctx, d, req), nil
	case "DELETE":
		return handleDelete(ctx, d, req), nil
	default:
		return intlambda.RespondError(405, "method not allowed"), nil
	}
}

func handleList(ctx context.Context, d *intlambda.Deps, req events.APIGatewayV2HTTPRequest) events.APIGatewayV2HTTPResponse {
	actor := req.QueryStringParameters["email"]
	limit := defaultListLimit
	if raw := req.QueryStringParameters["limit"]; raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return intlambda.RespondError(400, "limit must be a positive integer")
		}
		limit = n
	}

	items, err := d.Ledger.List(ctx, actor, limit)
	if err != nil {
		d.Logger.Error("listing jobs failed", "actor", actor, "error", err)
		return intlambda.RespondError(500, err.Error())
	}
	return intlambda.Respond(200, map[string]any{
		"items": items,
		"count": len(items),
	})
}

func handleDelete(ctx context.Context, d *intlambda.Deps, req events.APIGatewayV2HTTPRequest) events.APIGatewayV2HTTPResponse {
	jobID := req.PathParameters["jobId"]
	if jobID == "" {
		return intlambda.RespondError(400, "jobId is required")
	}

	deleted, err := d.Ledger.DeleteByJob(ctx, jobID)
	if err != nil {
		d.Logger.Error("deleting job failed", "job_id", jobID, "error", err)
		return intlambda.RespondError(500, err.Error())
	}
	if deleted == 0 {
		return intlambda.RespondError(404, "job not found")
	}
	return intlambda.Respond(200, map[string]any{
		"message": "job deleted",
		"job_id":  jobID,
	})
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
