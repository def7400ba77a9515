// Package events publishes job lifecycle events to EventBridge so external
// consumers can react to terminal jobs.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	ebtypes "github.com/aws/aws-sdk-go-v2/service/eventbridge/types"

	"github.com/frostlake/frostlake/pkg/types"
)

// Event source and detail type for job lifecycle entries.
const (
	eventSource = "frostlake.pipeline"
	detailType  = "Job State Change"
)

// EventBridgeAPI is the subset of the EventBridge client used by Publisher.
type EventBridgeAPI interface {
	PutEvents(ctx context.Context, params *eventbridge.PutEventsInput, optFns ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error)
}

// JobEvent is the event detail payload.
type JobEvent struct {
	JobID            string                 `json:"jobId"`
	Database         string                 `json:"database"`
	Table            string                 `json:"table"`
	Status           types.JobStatus        `json:"status"`
	ValidationStatus types.ValidationStatus `json:"validationStatus"`
	Timestamp        time.Time              `json:"timestamp"`
}

// Publisher emits job lifecycle events to one event bus.
type Publisher struct {
	client EventBridgeAPI
	bus    string
}

// New creates a Publisher for the given bus name.
func New(client EventBridgeAPI, bus string) *Publisher {
	return &Publisher{client: client, bus: bus}
}

// Publish emits one lifecycle event for a terminal job record.
func (p *Publisher) Publish(ctx context.Context, rec types.JobRecord) error {
	detail, err := json.Marshal(JobEvent{
		JobID:            rec.JobID,
		Database:         rec.DatabaseName,
		Table:            rec.TableName,
		Status:           rec.Status,
		ValidationStatus: rec.ValidationStatus,
		Timestamp:        time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("events: marshaling detail: %w", err)
	}

	entry := ebtypes.PutEventsRequestEntry{
		Source:     aws.String(eventSource),
		DetailType: aws.String(detailType),
		Detail:     aws.String(string(detail)),
	}
	if p.bus != "" {
		entry.EventBusName = &p.bus
	}

	out, err := p.client.PutEvents(ctx, &eventbridge.PutEventsInput{
		Entries: []ebtypes.PutEventsRequestEntry{entry},
	})
	if err != nil {
		return fmt.Errorf("events: PutEvents failed: %w", err)
	}
	if out.FailedEntryCount > 0 {
		return fmt.Errorf("events: %d entries failed", out.FailedEntryCount)
	}
	return nil
}
