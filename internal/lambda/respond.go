package lambda

import (
	"encoding/json"

	"github.com/aws/aws-lambda-go/events"
)

// corsHeaders is the envelope every API response carries.
var corsHeaders = map[string]string{
	"Content-Type":                 "application/json",
	"Access-Control-Allow-Origin":  "*",
	"Access-Control-Allow-Headers": "Content-Type,Authorization",
	"Access-Control-Allow-Methods": "GET,POST,PUT,DELETE,OPTIONS",
}

// Respond builds a JSON API response with the CORS envelope.
func Respond(statusCode int, body any) events.APIGatewayV2HTTPResponse {
	data, err := json.Marshal(body)
	if err != nil {
		data = []byte(`{"error":"failed to encode response"}`)
		statusCode = 500
	}
	headers := make(map[string]string, len(corsHeaders))
	for k, v := range corsHeaders {
		headers[k] = v
	}
	return events.APIGatewayV2HTTPResponse{
		StatusCode: statusCode,
		Headers:    headers,
		Body:       string(data),
	}
}

// RespondError builds an error response with the CORS envelope.
func RespondError(statusCode int, message string) events.APIGatewayV2HTTPResponse {
	return Respond(statusCode, map[string]string{"error": message})
}
