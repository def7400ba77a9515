package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/service/glue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	intlambda "github.com/frostlake/frostlake/internal/lambda"
	"github.com/frostlake/frostlake/internal/teardown"
	"github.com/frostlake/frostlake/pkg/types"
)

type mockStore struct{}

func (mockStore) DeletePrefix(ctx context.Context, prefix string) (int, error) { return 0, nil }

type mockGlueClient struct{}

func (mockGlueClient) DeleteTable(ctx context.Context, params *glue.DeleteTableInput, optFns ...func(*glue.Options)) (*glue.DeleteTableOutput, error) {
	return &glue.DeleteTableOutput{}, nil
}

type mockRunner struct{}

func (mockRunner) RunWithBudget(ctx context.Context, query, database string, maxAttempts int) (*types.QueryExecution, error) {
	return &types.QueryExecution{State: types.QuerySucceeded}, nil
}

type mockLedger struct{}

func (mockLedger) DeleteByTable(ctx context.Context, database, table string) (int, error) {
	return 0, nil
}

func testDeps() *intlambda.Deps {
	return &intlambda.Deps{
		Teardown: teardown.New(mockStore{}, mockGlueClient{}, mockRunner{}, mockLedger{}, "archive_db"),
		Logger:   slog.Default(),
	}
}

func authorizedRequest(params map[string]string) events.APIGatewayV2HTTPRequest {
	return events.APIGatewayV2HTTPRequest{
		PathParameters: params,
		RequestContext: events.APIGatewayV2HTTPRequestContext{
			Authorizer: &events.APIGatewayV2HTTPRequestContextAuthorizerDescription{
				JWT: &events.APIGatewayV2HTTPRequestContextAuthorizerJWTDescription{
					Claims: map[string]string{"email": "alice@example.com"},
				},
			},
		},
	}
}

func TestHandle_Teardown(t *testing.T) {
	resp, err := handle(context.Background(), testDeps(), authorizedRequest(map[string]string{
		"database": "archive_db",
		"table":    "events",
	}))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var result types.TeardownResult
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &result))
	assert.Equal(t, "events", result.Table)
	assert.Equal(t, types.StepSuccess, result.Status)
	assert.Len(t, result.Steps, 4)
}

func TestHandle_RequiresAuth(t *testing.T) {
	resp, err := handle(context.Background(), testDeps(), events.APIGatewayV2HTTPRequest{
		PathParameters: map[string]string{"database": "d", "table": "t"},
	})
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)
}

func TestHandle_MissingPathParameters(t *testing.T) {
	resp, err := handle(context.Background(), testDeps(), authorizedRequest(map[string]string{
		"database": "archive_db",
	}))
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
	assert.Contains(t, resp.Body, "database and table are required")
}
