package events

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frostlake/frostlake/pkg/types"
)

type mockEventBridge struct {
	in  *eventbridge.PutEventsInput
	out *eventbridge.PutEventsOutput
	err error
}

func (m *mockEventBridge) PutEvents(ctx context.Context, params *eventbridge.PutEventsInput, optFns ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error) {
	m.in = params
	if m.err != nil {
		return nil, m.err
	}
	if m.out != nil {
		return m.out, nil
	}
	return &eventbridge.PutEventsOutput{}, nil
}

func TestPublish(t *testing.T) {
	client := &mockEventBridge{}
	p := New(client, "frostlake-bus")

	err := p.Publish(context.Background(), types.JobRecord{
		JobID:            "job-1",
		DatabaseName:     "archive_db",
		TableName:        "events",
		Status:           types.JobSuccess,
		ValidationStatus: types.ValidationPassed,
	})
	require.NoError(t, err)

	require.NotNil(t, client.in)
	require.Len(t, client.in.Entries, 1)
	entry := client.in.Entries[0]
	assert.Equal(t, "frostlake.pipeline", *entry.Source)
	assert.Equal(t, "Job State Change", *entry.DetailType)
	assert.Equal(t, "frostlake-bus", *entry.EventBusName)

	var detail JobEvent
	require.NoError(t, json.Unmarshal([]byte(*entry.Detail), &detail))
	assert.Equal(t, "job-1", detail.JobID)
	assert.Equal(t, types.JobSuccess, detail.Status)
}

func TestPublish_FailedEntries(t *testing.T) {
	client := &mockEventBridge{out: &eventbridge.PutEventsOutput{FailedEntryCount: 1}}
	p := New(client, "frostlake-bus")

	err := p.Publish(context.Background(), types.JobRecord{JobID: "job-2"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 entries failed")
}

func TestPublish_TransportError(t *testing.T) {
	client := &mockEventBridge{err: assert.AnError}
	p := New(client, "frostlake-bus")

	err := p.Publish(context.Background(), types.JobRecord{JobID: "job-3"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PutEvents failed")
}
