package lambda

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeExecName(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		expected string
	}{
		{"clean", "job-1_2", "job-1_2"},
		{"spaces and slashes", "db/tbl raw.csv", "db_tbl_raw_csv"},
		{"unicode", "jöb", "j_b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeExecName(tt.in))
		})
	}
}

func TestSanitizeExecName_Truncates(t *testing.T) {
	long := make([]byte, 120)
	for i := range long {
		long[i] = 'a'
	}
	assert.Len(t, SanitizeExecName(string(long)), 80)
}

func TestContentTypeFor(t *testing.T) {
	assert.Equal(t, "text/csv", ContentTypeFor("csv"))
	assert.Equal(t, "text/csv", ContentTypeFor("CSV"))
	assert.Equal(t, "application/json", ContentTypeFor("json"))
	assert.Equal(t, "application/x-yaml", ContentTypeFor("yml"))
	assert.Equal(t, "application/octet-stream", ContentTypeFor("bin"))
}

func TestRespond(t *testing.T) {
	resp := Respond(200, map[string]string{"ok": "yes"})

	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Headers["Content-Type"])
	assert.Equal(t, "*", resp.Headers["Access-Control-Allow-Origin"])

	var body map[string]string
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &body))
	assert.Equal(t, "yes", body["ok"])
}

func TestRespondError(t *testing.T) {
	resp := RespondError(404, "not found")

	assert.Equal(t, 404, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &body))
	assert.Equal(t, "not found", body["error"])
}

func TestRespond_UnencodableBody(t *testing.T) {
	resp := Respond(200, map[string]any{"bad": func() {}})
	assert.Equal(t, 500, resp.StatusCode)
	assert.Contains(t, resp.Body, "failed to encode")
}
