// teardown removes an archived table from every store it touches.
package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/events"
	awslambda "github.com/aws/aws-lambda-go/lambda"

	"github.com/frostlake/frostlake/internal/auth"
	intlambda "github.com/frostlake/frostlake/internal/lambda"
)

func handle(ctx context.Context, d *intlambda.Deps, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	identity, err := auth.FromRequest(req)
	if err != nil {
		return intlambda.RespondError(401, err.Error()), nil
	}

	database := req.PathParameters["database"]
	table := req.PathParameters["table"]
	if database == "" || table == "" {
		return intlambda.RespondError(400, "database and table are required"), nil
	}

	d.Logger.Info("teardown requested",
		"database", database, "table", table, "requested_by", identity.Email)

	result := d.Teardown.Teardown(ctx, database, table)
	return intlambda.Respond(200, result), nil
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
